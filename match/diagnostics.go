package match

import "takematch/fingerprint"

// CandidateScore is the per-candidate breakdown captured in diagnostics.
type CandidateScore struct {
	File          string  `json:"file"`
	Folder        string  `json:"folder"`
	RawScore      float64 `json:"rawScore"`
	Boost         float64 `json:"boost"`
	WeightedScore float64 `json:"weightedScore"`
	IsReference   bool    `json:"isReference"`
	FolderCount   int     `json:"folderCount"`
}

// SkipNote records a candidate that could not be scored and why.
type SkipNote struct {
	File   string `json:"file"`
	Folder string `json:"folder"`
	Reason string `json:"reason"`
}

// Diagnostics is the structured trace of one matching call. It replaces
// debug logging threaded through the scoring path: tracing is a first-class
// output that tests and the UI's confidence display can consume directly.
type Diagnostics struct {
	QueryID        string                `json:"queryId"`
	TargetFile     string                `json:"targetFile"`
	Algorithm      fingerprint.Algorithm `json:"algorithm"`
	TargetLength   int                   `json:"targetLength"`
	Threshold      float64               `json:"threshold"`
	CandidateCount int                   `json:"candidateCount"`

	// TopCandidates holds the best candidates by weighted score, capped at
	// the matcher's topN (10 by default).
	TopCandidates []CandidateScore `json:"topCandidates"`

	// NearThreshold lists candidates whose weighted score landed between 50%
	// and 100% of the threshold, the band that matters when tuning.
	NearThreshold []CandidateScore `json:"nearThreshold,omitempty"`

	Skipped          []SkipNote `json:"skipped,omitempty"`
	ZeroNormWarnings []string   `json:"zeroNormWarnings,omitempty"`

	// Selected is the accepted match, nil when the best weighted score fell
	// below the threshold.
	Selected *CandidateScore `json:"selected,omitempty"`
}
