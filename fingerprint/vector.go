package fingerprint

import (
	"fmt"
	"math"
)

// Algorithm identifies one of the interchangeable fingerprinting algorithms.
// Vectors are only comparable within the same algorithm.
type Algorithm int

const (
	// AlgorithmSpectral is the default: log-spaced band energies over the
	// 60-8000 Hz musical range, aggregated across fixed time segments.
	AlgorithmSpectral Algorithm = iota
	// AlgorithmLightweight is the spectral idea at lower time/frequency
	// resolution, for speed.
	AlgorithmLightweight
	// AlgorithmChroma folds band energies onto the 12 musical pitch classes,
	// more robust to timbral differences between takes.
	AlgorithmChroma
	// AlgorithmConstellation hashes spectrogram peak pairs into a landmark
	// histogram, intended for duplicate/exact-clip detection.
	AlgorithmConstellation
)

var algorithmNames = map[Algorithm]string{
	AlgorithmSpectral:      "spectral",
	AlgorithmLightweight:   "lightweight",
	AlgorithmChroma:        "chroma",
	AlgorithmConstellation: "constellation",
}

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm maps a configuration string onto an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	for alg, n := range algorithmNames {
		if n == name {
			return alg, nil
		}
	}
	return 0, fmt.Errorf("unknown fingerprint algorithm %q", name)
}

// MarshalText encodes the algorithm as its stable string name so persisted
// caches stay readable across releases.
func (a Algorithm) MarshalText() ([]byte, error) {
	name, ok := algorithmNames[a]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown algorithm %d", int(a))
	}
	return []byte(name), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}

// Vector is a fixed-length numeric fingerprint of one audio recording.
// The length is a constant property of the algorithm, never of the input
// duration, so long and short takes of the same song remain comparable.
type Vector struct {
	Algorithm Algorithm `json:"algorithm"`
	Values    []float64 `json:"values"`
}

// Len returns the number of components.
func (v Vector) Len() int { return len(v.Values) }

// IsZero reports whether the vector is empty or every component is zero
// (the fingerprint of silence).
func (v Vector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can hold vectors across cache reloads.
func (v Vector) Clone() Vector {
	values := make([]float64, len(v.Values))
	copy(values, v.Values)
	return Vector{Algorithm: v.Algorithm, Values: values}
}

// NormalizeInPlace rescales the slice to unit length. An all-zero vector is
// left untouched rather than dividing by zero.
func NormalizeInPlace(values []float64) {
	var sumSquares float64
	for _, v := range values {
		sumSquares += v * v
	}
	if sumSquares == 0 {
		return
	}
	factor := 1 / math.Sqrt(sumSquares)
	for i := range values {
		values[i] *= factor
	}
}
