package spectral

import (
	"math"
)

// SpectralFlatness computes spectral flatness (Wiener entropy)
type SpectralFlatness struct {
	minThreshold float64
}

// NewSpectralFlatness creates a new spectral flatness calculator
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{minThreshold: 1e-10}
}

// ComputeDB returns 20*log10(geometric mean / arithmetic mean) over all bins.
// Any zero bin drives the geometric mean to 0 and the result to -Inf;
// callers sanitize non-finite values.
func (sf *SpectralFlatness) ComputeDB(magnitudeSpectrum []float64) float64 {
	if len(magnitudeSpectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	arithmeticMean := 0.0
	for _, magnitude := range magnitudeSpectrum {
		logSum += math.Log(magnitude)
		arithmeticMean += magnitude
	}
	n := float64(len(magnitudeSpectrum))
	geometricMean := math.Exp(logSum / n)
	arithmeticMean /= n

	return 20 * math.Log10(geometricMean/arithmeticMean)
}

// Compute returns the flatness ratio in [0, 1], ignoring bins below the
// threshold when forming the geometric mean.
func (sf *SpectralFlatness) Compute(magnitudeSpectrum []float64) float64 {
	if len(magnitudeSpectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	validCount := 0
	arithmeticMean := 0.0
	for _, magnitude := range magnitudeSpectrum {
		if magnitude > sf.minThreshold {
			logSum += math.Log(magnitude)
			validCount++
		}
		arithmeticMean += magnitude
	}
	arithmeticMean /= float64(len(magnitudeSpectrum))

	if validCount == 0 || arithmeticMean <= sf.minThreshold {
		return 0.0
	}

	geometricMean := math.Exp(logSum / float64(validCount))
	return math.Min(geometricMean/arithmeticMean, 1.0)
}

// ComputeFrames processes multiple frames, in dB or as a ratio
func (sf *SpectralFlatness) ComputeFrames(spectrogram [][]float64, inDB bool) []float64 {
	flatness := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		if inDB {
			flatness[t] = sf.ComputeDB(spectrum)
		} else {
			flatness[t] = sf.Compute(spectrum)
		}
	}
	return flatness
}
