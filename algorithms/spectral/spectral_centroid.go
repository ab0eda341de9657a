package spectral

// SpectralCentroid is the magnitude-weighted mean frequency of a frame
type SpectralCentroid struct {
	sampleRate int
}

func NewSpectralCentroid(sampleRate int) *SpectralCentroid {
	return &SpectralCentroid{sampleRate: sampleRate}
}

// Compute returns sum(f_k*|X_k|) / sum(|X_k|) in Hz. A silent frame yields 0.
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	freqs := BinFrequencies(len(spectrum), sc.sampleRate)
	numerator := 0.0
	denominator := 0.0
	for k, mag := range spectrum {
		numerator += freqs[k] * mag
		denominator += mag
	}

	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func (sc *SpectralCentroid) ComputeFrames(spectrogram [][]float64) []float64 {
	centroids := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		centroids[t] = sc.Compute(spectrum)
	}
	return centroids
}
