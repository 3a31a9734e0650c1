package fingerprint

import "math"

// The chroma algorithm folds spectral energy onto the 12 musical pitch
// classes instead of raw frequency bands. Two takes of the same song played
// with different tone settings land on the same pitch classes even when
// their raw spectra differ, which makes chroma the more forgiving choice for
// re-recorded material.
const (
	chromaWindowSize = 4096
	chromaHopSize    = 2048
	chromaClasses    = 12
	chromaSegments   = 6

	referencePitchHz = 440.0 // A4
)

type chromaGenerator struct{}

func newChromaGenerator() *chromaGenerator { return &chromaGenerator{} }

func (g *chromaGenerator) Algorithm() Algorithm { return AlgorithmChroma }

func (g *chromaGenerator) Length() int { return chromaClasses * chromaSegments }

func (g *chromaGenerator) Generate(samples []float64, sampleRate int) (Vector, error) {
	if err := validateInput(samples, sampleRate); err != nil {
		return Vector{}, err
	}

	frames := stft(samples, chromaWindowSize, chromaHopSize)

	frameBands := make([][]float64, len(frames))
	for t, magnitude := range frames {
		classes := make([]float64, chromaClasses)
		for bin, mag := range magnitude {
			freq := binFrequency(bin, chromaWindowSize, sampleRate)
			if freq < bandRangeLowHz || freq > bandRangeHighHz {
				continue
			}
			classes[pitchClass(freq)] += mag * mag
		}
		frameBands[t] = classes
	}

	values := aggregateSegments(frameBands, chromaClasses, chromaSegments)
	NormalizeInPlace(values)

	return Vector{Algorithm: AlgorithmChroma, Values: values}, nil
}

// pitchClass maps a frequency to its chromatic pitch class (0 = A).
func pitchClass(freq float64) int {
	semitones := int(math.Round(12 * math.Log2(freq/referencePitchHz)))
	class := semitones % chromaClasses
	if class < 0 {
		class += chromaClasses
	}
	return class
}
