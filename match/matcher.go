package match

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"takematch/fingerprint"
	"takematch/utils"
)

// Trust boosts accumulate additively into the weighted score:
// weighted = raw * (1 + boost), clamped to 1.0.
const (
	// BoostReferenceFolder applies when the candidate lives in the library's
	// designated reference folder.
	BoostReferenceFolder = 0.15
	// BoostFolderReference applies when the candidate's folder carries its
	// own reference flag, distinct from the global designation.
	BoostFolderReference = 0.10
	// BoostReferenceSong applies when the candidate file itself is flagged.
	BoostReferenceSong = 0.10

	defaultTopN = 10

	scoreEpsilon = 1e-9
)

// ErrInvalidTarget is returned when the target vector is empty. That is a
// caller bug, unlike "no candidate met the threshold" which is a nil result.
var ErrInvalidTarget = errors.New("target fingerprint is empty")

// Candidate is one historical recording the target is scored against.
type Candidate struct {
	File   string
	Folder string
	Vector fingerprint.Vector

	// InReferenceFolder marks the library's global reference folder.
	InReferenceFolder bool
	// FolderReference marks a folder flagged as reference on its own.
	FolderReference bool
	// ReferenceSong marks the individual file as a trusted recording.
	ReferenceSong bool

	// FolderCount is the number of distinct folders containing this file
	// identity. Used for tie-breaking and diagnostics, never for scoring.
	FolderCount int
}

// IsReference reports whether any trust flag applies to the candidate.
func (c Candidate) IsReference() bool {
	return c.InReferenceFolder || c.FolderReference || c.ReferenceSong
}

func (c Candidate) boost() float64 {
	var boost float64
	if c.InReferenceFolder {
		boost += BoostReferenceFolder
	}
	if c.FolderReference {
		boost += BoostFolderReference
	}
	if c.ReferenceSong {
		boost += BoostReferenceSong
	}
	return boost
}

// Result is the accepted best match for one query. It is transient; nothing
// here is persisted.
type Result struct {
	TargetFile    string  `json:"targetFile"`
	MatchedFile   string  `json:"matchedFile"`
	MatchedFolder string  `json:"matchedFolder"`
	RawScore      float64 `json:"rawScore"`
	WeightedScore float64 `json:"weightedScore"`
	Boost         float64 `json:"boost"`
	IsReference   bool    `json:"isReference"`
	FolderCount   int     `json:"folderCount"`
}

// Matcher scores a target fingerprint against candidates from many folders
// and selects the best weighted match above a threshold.
type Matcher struct {
	logger *slog.Logger
	topN   int
}

func NewMatcher() *Matcher {
	return &Matcher{logger: utils.GetLogger(), topN: defaultTopN}
}

// FindBestMatch scores target against every candidate, applies trust boosts,
// and returns the best candidate whose weighted score reaches the threshold.
// A below-threshold best is a nil Result, never an error; diagnostics are
// always returned. The only hard failure is an empty target vector.
func (m *Matcher) FindBestMatch(targetFile string, target fingerprint.Vector, candidates []Candidate, threshold float64) (*Result, *Diagnostics, error) {
	diag := &Diagnostics{
		QueryID:        uuid.NewString(),
		TargetFile:     targetFile,
		Algorithm:      target.Algorithm,
		TargetLength:   target.Len(),
		Threshold:      threshold,
		CandidateCount: len(candidates),
	}

	if target.Len() == 0 {
		return nil, diag, ErrInvalidTarget
	}

	scored := make([]CandidateScore, 0, len(candidates))
	for _, cand := range candidates {
		raw, zeroNorm, err := scoreDetail(target, cand.Vector)
		if err != nil {
			// A mismatched candidate is a data condition, not a query
			// failure: note it and keep going.
			diag.Skipped = append(diag.Skipped, SkipNote{
				File:   cand.File,
				Folder: cand.Folder,
				Reason: err.Error(),
			})
			continue
		}
		if zeroNorm {
			diag.ZeroNormWarnings = append(diag.ZeroNormWarnings, cand.File)
			m.logger.Warn("zero-norm fingerprint during scoring",
				slog.String("target", targetFile),
				slog.String("candidate", cand.File))
		}

		boost := cand.boost()
		weighted := raw * (1 + boost)
		if weighted > 1 {
			weighted = 1
		}

		scored = append(scored, CandidateScore{
			File:          cand.File,
			Folder:        cand.Folder,
			RawScore:      raw,
			Boost:         boost,
			WeightedScore: weighted,
			IsReference:   cand.IsReference(),
			FolderCount:   cand.FolderCount,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return betterCandidate(scored[i], scored[j])
	})

	if len(scored) > m.topN {
		diag.TopCandidates = append([]CandidateScore(nil), scored[:m.topN]...)
	} else {
		diag.TopCandidates = append([]CandidateScore(nil), scored...)
	}
	for _, cs := range scored {
		if cs.WeightedScore < threshold && cs.WeightedScore >= threshold/2 {
			diag.NearThreshold = append(diag.NearThreshold, cs)
		}
	}

	if len(scored) == 0 {
		return nil, diag, nil
	}

	best := scored[0]
	if best.WeightedScore < threshold {
		// Explicitly a non-match, not a low-confidence match.
		return nil, diag, nil
	}

	diag.Selected = &best
	return &Result{
		TargetFile:    targetFile,
		MatchedFile:   best.File,
		MatchedFolder: best.Folder,
		RawScore:      best.RawScore,
		WeightedScore: best.WeightedScore,
		Boost:         best.Boost,
		IsReference:   best.IsReference,
		FolderCount:   best.FolderCount,
	}, diag, nil
}

// betterCandidate orders candidates by weighted score, breaking ties by
// reference status, then folder count, then filename for determinism.
func betterCandidate(a, b CandidateScore) bool {
	if a.WeightedScore > b.WeightedScore+scoreEpsilon {
		return true
	}
	if b.WeightedScore > a.WeightedScore+scoreEpsilon {
		return false
	}
	if a.IsReference != b.IsReference {
		return a.IsReference
	}
	if a.FolderCount != b.FolderCount {
		return a.FolderCount > b.FolderCount
	}
	return a.File < b.File
}
