package spectral

// PowerSpectrum squares magnitude spectra
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute computes |X|^2 from a magnitude spectrum
func (ps *PowerSpectrum) Compute(magnitudeSpectrum []float64) []float64 {
	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}
	return power
}

// ComputeFrames processes multiple magnitude spectrum frames
func (ps *PowerSpectrum) ComputeFrames(spectrogram [][]float64) [][]float64 {
	power := make([][]float64, len(spectrogram))
	for t, magnitudeSpectrum := range spectrogram {
		power[t] = ps.Compute(magnitudeSpectrum)
	}
	return power
}
