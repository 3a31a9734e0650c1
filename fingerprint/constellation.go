package fingerprint

import "math"

// The constellation algorithm extracts spectrogram peaks (the "constellation
// map"), pairs each anchor peak with the next few peaks in its target zone,
// and packs each pair into a 32-bit landmark address:
//
//	bits 23-31: anchor frequency bin (9 bits)
//	bits 14-22: target frequency bin (9 bits)
//	bits  0-13: frame delta (14 bits)
//
// The addresses are then folded into a fixed-size histogram so the output is
// a constant-length vector like every other algorithm. Two clips that share
// many landmarks share histogram mass, which makes this the right choice for
// duplicate and exact-clip detection rather than loose similarity.
const (
	constellationWindowSize = 1024
	constellationHopSize    = 512
	constellationBins       = 512

	peakFreqNeighborhood = 3   // +/- bins for the local-max check
	peakTimeNeighborhood = 1   // +/- frames for the local-max check
	peakMinDbAboveAvg    = 3.0 // band maxima must clear the frame average by this much
	targetZoneSize       = 5   // pairs per anchor

	maxFreqBits  = 9
	maxDeltaBits = 14
)

type peak struct {
	frame int
	bin   int
}

type constellationGenerator struct{}

func newConstellationGenerator() *constellationGenerator { return &constellationGenerator{} }

func (g *constellationGenerator) Algorithm() Algorithm { return AlgorithmConstellation }

func (g *constellationGenerator) Length() int { return constellationBins }

func (g *constellationGenerator) Generate(samples []float64, sampleRate int) (Vector, error) {
	if err := validateInput(samples, sampleRate); err != nil {
		return Vector{}, err
	}

	frames := stft(samples, constellationWindowSize, constellationHopSize)
	peaks := extractPeaks(frames)

	values := make([]float64, constellationBins)
	for i, anchor := range peaks {
		for j := i + 1; j < len(peaks) && j <= i+targetZoneSize; j++ {
			address := landmarkAddress(anchor, peaks[j])
			values[foldAddress(address)]++
		}
	}
	NormalizeInPlace(values)

	return Vector{Algorithm: AlgorithmConstellation, Values: values}, nil
}

// extractPeaks finds local maxima in the magnitude spectrogram. Per frame the
// strongest bin of each log band is taken as a candidate, then kept only if
// it clears the frame's average band level and dominates its 2D neighborhood.
// Peaks come out ordered by (frame, bin), which keeps address generation
// deterministic.
func extractPeaks(frames [][]float64) []peak {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return nil
	}
	nBins := len(frames[0])
	bands := logIndexBands(nBins)

	const eps = 1e-10
	var peaks []peak

	for t, frame := range frames {
		// Strongest bin per band.
		bandMax := make([]peak, 0, len(bands))
		var sumDb float64
		for _, b := range bands {
			maxMag, maxIdx := 0.0, b[0]
			for i := b[0]; i < b[1]; i++ {
				if frame[i] > maxMag {
					maxMag = frame[i]
					maxIdx = i
				}
			}
			sumDb += 20 * math.Log10(maxMag+eps)
			bandMax = append(bandMax, peak{frame: t, bin: maxIdx})
		}
		avgDb := sumDb / float64(len(bandMax))

		for _, cand := range bandMax {
			mag := frame[cand.bin]
			if mag <= 0 {
				continue
			}
			if 20*math.Log10(mag+eps) < avgDb+peakMinDbAboveAvg {
				continue
			}
			if isLocalMax(frames, cand.frame, cand.bin, mag) {
				peaks = append(peaks, cand)
			}
		}
	}

	return peaks
}

// logIndexBands splits [0, nBins) into roughly log-sized index ranges.
func logIndexBands(nBins int) [][2]int {
	bands := [][2]int{{0, min(10, nBins)}}
	for start := 10; start < nBins; start *= 2 {
		end := min(start*2, nBins)
		bands = append(bands, [2]int{start, end})
		if end == nBins {
			break
		}
	}
	return bands
}

func isLocalMax(frames [][]float64, t, bin int, mag float64) bool {
	for dt := -peakTimeNeighborhood; dt <= peakTimeNeighborhood; dt++ {
		tIdx := t + dt
		if tIdx < 0 || tIdx >= len(frames) {
			continue
		}
		for df := -peakFreqNeighborhood; df <= peakFreqNeighborhood; df++ {
			fIdx := bin + df
			if fIdx < 0 || fIdx >= len(frames[tIdx]) {
				continue
			}
			if dt == 0 && df == 0 {
				continue
			}
			if frames[tIdx][fIdx] > mag {
				return false
			}
		}
	}
	return true
}

func landmarkAddress(anchor, target peak) uint32 {
	anchorBin := uint32(anchor.bin) & ((1 << maxFreqBits) - 1)
	targetBin := uint32(target.bin) & ((1 << maxFreqBits) - 1)
	delta := uint32(target.frame-anchor.frame) & ((1 << maxDeltaBits) - 1)
	return anchorBin<<23 | targetBin<<14 | delta
}

// foldAddress spreads 32-bit landmark addresses over the histogram bins
// (Knuth multiplicative hash keeps nearby addresses from clustering).
func foldAddress(address uint32) int {
	return int((address * 2654435761) % constellationBins)
}
