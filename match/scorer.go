package match

import (
	"fmt"
	"math"

	"takematch/fingerprint"
)

// AlgorithmMismatchError reports an attempt to score two vectors produced by
// different algorithms. During matching such candidates are skipped rather
// than failing the whole query.
type AlgorithmMismatchError struct {
	A, B fingerprint.Algorithm
}

func (e *AlgorithmMismatchError) Error() string {
	return fmt.Sprintf("cannot compare %s fingerprint with %s fingerprint", e.A, e.B)
}

// LengthMismatchError reports two same-algorithm vectors of different
// lengths, which indicates a stale cache written by an older build.
type LengthMismatchError struct {
	LenA, LenB int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("fingerprint length mismatch: %d vs %d", e.LenA, e.LenB)
}

// Score computes the cosine similarity between two fingerprints of the same
// algorithm. The result is symmetric, equals 1.0 (within 1e-6) for identical
// non-zero vectors, and is clamped to [0,1]. A zero-norm vector (silent
// audio) scores 0.0 against anything; that is a defined value, not an error.
func Score(a, b fingerprint.Vector) (float64, error) {
	score, _, err := scoreDetail(a, b)
	return score, err
}

// scoreDetail additionally reports whether a zero-norm vector was involved,
// so the matcher can surface a diagnostic warning.
func scoreDetail(a, b fingerprint.Vector) (score float64, zeroNorm bool, err error) {
	if a.Algorithm != b.Algorithm {
		return 0, false, &AlgorithmMismatchError{A: a.Algorithm, B: b.Algorithm}
	}
	if a.Len() != b.Len() {
		return 0, false, &LengthMismatchError{LenA: a.Len(), LenB: b.Len()}
	}

	var dot, normA, normB float64
	for i := range a.Values {
		dot += a.Values[i] * b.Values[i]
		normA += a.Values[i] * a.Values[i]
		normB += b.Values[i] * b.Values[i]
	}

	if normA == 0 || normB == 0 {
		return 0, true, nil
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Energy-magnitude vectors have no negative components, but not every
	// algorithm guarantees that, so clamp instead of assuming.
	if cos < 0 {
		cos = 0
	}
	if cos > 1 {
		cos = 1
	}
	return cos, false, nil
}
