package spectral

import (
	"math"
)

// SpectralBandwidth measures spread around the centroid.
//
// Compute keeps the historical definition sum(|X_k|*(f_k-c)^p)/p, which
// divides by the order instead of taking the p-th root. Corrected gives the
// conventional normalized p-th root form.
type SpectralBandwidth struct {
	sampleRate int
	order      float64
}

func NewSpectralBandwidth(sampleRate int, order float64) *SpectralBandwidth {
	if order <= 0 {
		order = 2
	}
	return &SpectralBandwidth{sampleRate: sampleRate, order: order}
}

func (sb *SpectralBandwidth) Compute(spectrum []float64, centroid float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	freqs := BinFrequencies(len(spectrum), sb.sampleRate)
	sum := 0.0
	for k, mag := range spectrum {
		sum += mag * math.Pow(freqs[k]-centroid, sb.order)
	}
	return sum / sb.order
}

// Corrected returns (sum(|X_k|*|f_k-c|^p) / sum(|X_k|))^(1/p)
func (sb *SpectralBandwidth) Corrected(spectrum []float64, centroid float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	freqs := BinFrequencies(len(spectrum), sb.sampleRate)
	numerator := 0.0
	denominator := 0.0
	for k, mag := range spectrum {
		numerator += mag * math.Pow(math.Abs(freqs[k]-centroid), sb.order)
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}
	return math.Pow(numerator/denominator, 1/sb.order)
}

// ComputeFrames applies Compute (or Corrected) frame by frame
func (sb *SpectralBandwidth) ComputeFrames(spectrogram [][]float64, centroids []float64, corrected bool) []float64 {
	if len(centroids) != len(spectrogram) {
		return []float64{}
	}

	bandwidths := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		if corrected {
			bandwidths[t] = sb.Corrected(spectrum, centroids[t])
		} else {
			bandwidths[t] = sb.Compute(spectrum, centroids[t])
		}
	}
	return bandwidths
}
