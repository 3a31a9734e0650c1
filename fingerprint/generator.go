package fingerprint

import (
	"errors"
	"fmt"
)

// ErrEmptyAudio is returned when the decoded input has effectively zero
// duration. Callers skip the file and write no cache entry.
var ErrEmptyAudio = errors.New("audio has no samples")

// Generator produces fingerprint vectors for one algorithm. Implementations
// are pure functions over the decoded samples: the same input always yields
// the same vector, and the output length is a constant of the algorithm.
type Generator interface {
	Algorithm() Algorithm
	// Length is the fixed component count of every vector this generator emits.
	Length() int
	Generate(samples []float64, sampleRate int) (Vector, error)
}

// ForAlgorithm returns the generator for the given algorithm. Callers select
// by enum; there is no string dispatch.
func ForAlgorithm(alg Algorithm) (Generator, error) {
	switch alg {
	case AlgorithmSpectral:
		return newSpectralGenerator(), nil
	case AlgorithmLightweight:
		return newLightweightGenerator(), nil
	case AlgorithmChroma:
		return newChromaGenerator(), nil
	case AlgorithmConstellation:
		return newConstellationGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown fingerprint algorithm %d", int(alg))
	}
}

// Generate is the convenience entry point: it picks the generator for alg and
// runs it over the samples.
func Generate(samples []float64, sampleRate int, alg Algorithm) (Vector, error) {
	gen, err := ForAlgorithm(alg)
	if err != nil {
		return Vector{}, err
	}
	return gen.Generate(samples, sampleRate)
}

func validateInput(samples []float64, sampleRate int) error {
	if len(samples) == 0 {
		return ErrEmptyAudio
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	return nil
}
