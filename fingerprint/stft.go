package fingerprint

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// hannWindow returns a Hann window of length n, applied before each FFT to
// reduce spectral leakage.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos((2*math.Pi*float64(i))/float64(n-1)))
	}
	return w
}

// stft computes a time-major magnitude spectrogram: frames[frameIdx][freqBin],
// with freqBin covering the positive half of the spectrum. Input shorter than
// one window is zero-padded so even very short clips produce one frame.
func stft(samples []float64, windowSize, hopSize int) [][]float64 {
	if len(samples) == 0 {
		return nil
	}
	if len(samples) < windowSize {
		padded := make([]float64, windowSize)
		copy(padded, samples)
		samples = padded
	}

	window := hannWindow(windowSize)
	binCount := windowSize / 2

	frameCount := 1 + (len(samples)-windowSize)/hopSize
	frames := make([][]float64, 0, frameCount)

	frame := make([]float64, windowSize)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := 0; i < windowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		spectrum := fft.FFTReal(frame)

		magnitude := make([]float64, binCount)
		for i := 0; i < binCount; i++ {
			magnitude[i] = cmplx.Abs(spectrum[i])
		}
		frames = append(frames, magnitude)
	}

	return frames
}

// binFrequency returns the center frequency in Hz of an FFT bin.
func binFrequency(bin, windowSize, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(windowSize)
}
