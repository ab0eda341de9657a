package spectral

import (
	"math"
	"sort"
)

// SpectralContrast measures the peak-to-valley ratio of log-spaced
// sub-bands, in dB.
type SpectralContrast struct {
	sampleRate int
	numBands   int
	minFreq    float64
	quantile   float64
}

// NewSpectralContrast creates a contrast calculator with numBands bands
// starting at 200 Hz
func NewSpectralContrast(sampleRate int, numBands int) *SpectralContrast {
	return &SpectralContrast{
		sampleRate: sampleRate,
		numBands:   numBands,
		minFreq:    200.0,
		quantile:   0.2,
	}
}

// NumBands returns the output dimension
func (sc *SpectralContrast) NumBands() int {
	return sc.numBands
}

// Compute calculates contrast per band for a single magnitude spectrum
func (sc *SpectralContrast) Compute(magnitudeSpectrum []float64) []float64 {
	contrast := make([]float64, sc.numBands)
	if len(magnitudeSpectrum) < 2 {
		return contrast
	}

	edges := sc.bandEdges(len(magnitudeSpectrum))
	for band := range sc.numBands {
		start, end := edges[band], min(edges[band+1], len(magnitudeSpectrum))
		if start >= end {
			continue
		}
		contrast[band] = sc.bandContrast(magnitudeSpectrum[start:end])
	}
	return contrast
}

// ComputeFrames returns a bands x frames matrix
func (sc *SpectralContrast) ComputeFrames(spectrogram [][]float64) [][]float64 {
	out := make([][]float64, sc.numBands)
	for b := range out {
		out[b] = make([]float64, len(spectrogram))
	}
	for t, spectrum := range spectrogram {
		for b, v := range sc.Compute(spectrum) {
			out[b][t] = v
		}
	}
	return out
}

func (sc *SpectralContrast) bandContrast(band []float64) float64 {
	power := make([]float64, len(band))
	for i, mag := range band {
		power[i] = mag * mag
	}
	sort.Float64s(power)

	count := max(int(sc.quantile*float64(len(power))), 1)

	valley := 0.0
	for _, p := range power[:count] {
		valley += p
	}
	valley /= float64(count)

	peak := 0.0
	for _, p := range power[len(power)-count:] {
		peak += p
	}
	peak /= float64(count)

	if peak <= 0 {
		return 0.0
	}
	return 10.0 * math.Log10(peak/math.Max(valley, 1e-10))
}

// bandEdges returns numBands+1 strictly increasing bin indices, log-spaced
// from minFreq to Nyquist
func (sc *SpectralContrast) bandEdges(numBins int) []int {
	nyquist := float64(sc.sampleRate) / 2.0
	maxFreq := nyquist
	if maxFreq <= sc.minFreq {
		maxFreq = sc.minFreq * 2
	}

	logMin := math.Log10(sc.minFreq)
	logStep := (math.Log10(maxFreq) - logMin) / float64(sc.numBands)

	edges := make([]int, sc.numBands+1)
	for i := range edges {
		freq := math.Pow(10.0, logMin+float64(i)*logStep)
		idx := int(freq * float64(numBins-1) / nyquist)
		edges[i] = max(min(idx, numBins-1), 0)
		if i > 0 && edges[i] <= edges[i-1] {
			edges[i] = edges[i-1] + 1
		}
	}
	return edges
}
