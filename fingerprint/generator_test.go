package fingerprint

import (
	"errors"
	"math"
	"testing"
)

const testSampleRate = 44100

func sine(freq float64, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func TestGeneratorLengthsAreConstant(t *testing.T) {
	t.Parallel()

	algorithms := []Algorithm{
		AlgorithmSpectral,
		AlgorithmLightweight,
		AlgorithmChroma,
		AlgorithmConstellation,
	}

	for _, alg := range algorithms {
		gen, err := ForAlgorithm(alg)
		if err != nil {
			t.Fatalf("ForAlgorithm(%s) returned error: %v", alg, err)
		}

		short, err := gen.Generate(sine(440, 0.5, testSampleRate), testSampleRate)
		if err != nil {
			t.Fatalf("Generate(%s, short) returned error: %v", alg, err)
		}
		long, err := gen.Generate(sine(440, 3, testSampleRate), testSampleRate)
		if err != nil {
			t.Fatalf("Generate(%s, long) returned error: %v", alg, err)
		}

		if short.Len() != gen.Length() || long.Len() != gen.Length() {
			t.Errorf("%s: lengths %d/%d, want constant %d", alg, short.Len(), long.Len(), gen.Length())
		}
		if short.Algorithm != alg {
			t.Errorf("%s: vector tagged %s", alg, short.Algorithm)
		}
	}
}

func TestSpectralLengthIs144(t *testing.T) {
	t.Parallel()

	vec, err := Generate(sine(440, 1, testSampleRate), testSampleRate, AlgorithmSpectral)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if vec.Len() != 144 {
		t.Fatalf("spectral length = %d, want 144", vec.Len())
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	samples := sine(523.25, 1.5, testSampleRate)
	for _, alg := range []Algorithm{AlgorithmSpectral, AlgorithmLightweight, AlgorithmChroma, AlgorithmConstellation} {
		first, err := Generate(samples, testSampleRate, alg)
		if err != nil {
			t.Fatalf("Generate(%s) returned error: %v", alg, err)
		}
		second, err := Generate(samples, testSampleRate, alg)
		if err != nil {
			t.Fatalf("Generate(%s) returned error: %v", alg, err)
		}
		for i := range first.Values {
			if first.Values[i] != second.Values[i] {
				t.Fatalf("%s: component %d differs between runs: %v vs %v",
					alg, i, first.Values[i], second.Values[i])
			}
		}
	}
}

func TestGenerateEmptyAudio(t *testing.T) {
	t.Parallel()

	_, err := Generate(nil, testSampleRate, AlgorithmSpectral)
	if !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestGenerateInvalidSampleRate(t *testing.T) {
	t.Parallel()

	_, err := Generate(sine(440, 1, testSampleRate), 0, AlgorithmSpectral)
	if err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestSilenceProducesZeroVector(t *testing.T) {
	t.Parallel()

	silence := make([]float64, testSampleRate)
	for _, alg := range []Algorithm{AlgorithmSpectral, AlgorithmLightweight, AlgorithmChroma, AlgorithmConstellation} {
		vec, err := Generate(silence, testSampleRate, alg)
		if err != nil {
			t.Fatalf("Generate(%s) returned error: %v", alg, err)
		}
		if !vec.IsZero() {
			t.Errorf("%s: silence produced non-zero fingerprint", alg)
		}
	}
}

func TestDurationIndependence(t *testing.T) {
	t.Parallel()

	short, err := Generate(sine(330, 1, testSampleRate), testSampleRate, AlgorithmSpectral)
	if err != nil {
		t.Fatalf("Generate(short) returned error: %v", err)
	}
	long, err := Generate(sine(330, 4, testSampleRate), testSampleRate, AlgorithmSpectral)
	if err != nil {
		t.Fatalf("Generate(long) returned error: %v", err)
	}

	if sim := cosine(short.Values, long.Values); sim < 0.99 {
		t.Fatalf("short/long takes of the same tone diverged: cosine = %f", sim)
	}
}

func TestShorterThanWindowIsPadded(t *testing.T) {
	t.Parallel()

	// 100 samples is far below any window size; should still fingerprint.
	vec, err := Generate(sine(440, 1, testSampleRate)[:100], testSampleRate, AlgorithmSpectral)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if vec.Len() != 144 {
		t.Fatalf("padded clip length = %d, want 144", vec.Len())
	}
}

func TestChromaFoldsOctaves(t *testing.T) {
	t.Parallel()

	a4, err := Generate(sine(440, 2, testSampleRate), testSampleRate, AlgorithmChroma)
	if err != nil {
		t.Fatalf("Generate(A4) returned error: %v", err)
	}
	a5, err := Generate(sine(880, 2, testSampleRate), testSampleRate, AlgorithmChroma)
	if err != nil {
		t.Fatalf("Generate(A5) returned error: %v", err)
	}

	if sim := cosine(a4.Values, a5.Values); sim < 0.8 {
		t.Fatalf("same pitch class an octave apart scored %f, want >= 0.8", sim)
	}
}

func TestDifferentTonesDiffer(t *testing.T) {
	t.Parallel()

	low, err := Generate(sine(110, 2, testSampleRate), testSampleRate, AlgorithmSpectral)
	if err != nil {
		t.Fatalf("Generate(low) returned error: %v", err)
	}
	high, err := Generate(sine(4000, 2, testSampleRate), testSampleRate, AlgorithmSpectral)
	if err != nil {
		t.Fatalf("Generate(high) returned error: %v", err)
	}

	if sim := cosine(low.Values, high.Values); sim > 0.5 {
		t.Fatalf("distant tones scored %f, want < 0.5", sim)
	}
}
