package fingerprint

import "math"

// The spectral family buckets per-frame FFT energies into log-spaced
// frequency bands covering the musical range, then averages the band
// energies over a fixed number of time segments. The segment count, not the
// frame count, determines the output length, so recordings of any duration
// produce comparable vectors.
const (
	bandRangeLowHz  = 60.0
	bandRangeHighHz = 8000.0

	spectralWindowSize = 2048
	spectralHopSize    = 1024
	spectralBands      = 24
	spectralSegments   = 6

	lightweightWindowSize = 1024
	lightweightHopSize    = 2048
	lightweightBands      = 8
	lightweightSegments   = 4
)

type bandedGenerator struct {
	alg        Algorithm
	windowSize int
	hopSize    int
	bandEdges  []float64
	segments   int
}

func newSpectralGenerator() *bandedGenerator {
	return &bandedGenerator{
		alg:        AlgorithmSpectral,
		windowSize: spectralWindowSize,
		hopSize:    spectralHopSize,
		bandEdges:  logBandEdges(bandRangeLowHz, bandRangeHighHz, spectralBands),
		segments:   spectralSegments,
	}
}

func newLightweightGenerator() *bandedGenerator {
	return &bandedGenerator{
		alg:        AlgorithmLightweight,
		windowSize: lightweightWindowSize,
		hopSize:    lightweightHopSize,
		bandEdges:  logBandEdges(bandRangeLowHz, bandRangeHighHz, lightweightBands),
		segments:   lightweightSegments,
	}
}

func (g *bandedGenerator) Algorithm() Algorithm { return g.alg }

func (g *bandedGenerator) Length() int {
	return (len(g.bandEdges) - 1) * g.segments
}

func (g *bandedGenerator) Generate(samples []float64, sampleRate int) (Vector, error) {
	if err := validateInput(samples, sampleRate); err != nil {
		return Vector{}, err
	}

	frames := stft(samples, g.windowSize, g.hopSize)
	bandCount := len(g.bandEdges) - 1

	// Per-frame band energies (magnitude squared).
	frameBands := make([][]float64, len(frames))
	for t, magnitude := range frames {
		bands := make([]float64, bandCount)
		for bin, mag := range magnitude {
			freq := binFrequency(bin, g.windowSize, sampleRate)
			band := bandIndex(g.bandEdges, freq)
			if band < 0 {
				continue
			}
			bands[band] += mag * mag
		}
		frameBands[t] = bands
	}

	values := aggregateSegments(frameBands, bandCount, g.segments)
	NormalizeInPlace(values)

	return Vector{Algorithm: g.alg, Values: values}, nil
}

// logBandEdges returns count+1 logarithmically spaced edges between low and
// high Hz, giving perceptually even coverage of the musical range.
func logBandEdges(low, high float64, count int) []float64 {
	edges := make([]float64, count+1)
	ratio := high / low
	for i := 0; i <= count; i++ {
		edges[i] = low * math.Pow(ratio, float64(i)/float64(count))
	}
	return edges
}

// bandIndex locates the band containing freq, or -1 if freq falls outside
// the covered range.
func bandIndex(edges []float64, freq float64) int {
	if freq < edges[0] || freq >= edges[len(edges)-1] {
		return -1
	}
	lo, hi := 0, len(edges)-1
	for lo+1 < hi {
		mid := (lo + hi) / 2
		if freq < edges[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// aggregateSegments averages per-frame band energies over a fixed number of
// contiguous time segments and flattens segment-major. Segments that receive
// no frames (very short clips) stay zero.
func aggregateSegments(frameBands [][]float64, bandCount, segments int) []float64 {
	values := make([]float64, bandCount*segments)
	if len(frameBands) == 0 {
		return values
	}

	counts := make([]int, segments)
	for t, bands := range frameBands {
		seg := t * segments / len(frameBands)
		counts[seg]++
		offset := seg * bandCount
		for b, energy := range bands {
			values[offset+b] += energy
		}
	}

	for seg := 0; seg < segments; seg++ {
		if counts[seg] == 0 {
			continue
		}
		offset := seg * bandCount
		for b := 0; b < bandCount; b++ {
			values[offset+b] /= float64(counts[seg])
		}
	}

	return values
}
