package spectral

// SpectralRolloff finds the frequency below which a fraction of the
// spectrum is concentrated.
type SpectralRolloff struct {
	sampleRate int
}

func NewSpectralRolloff(sampleRate int) *SpectralRolloff {
	return &SpectralRolloff{sampleRate: sampleRate}
}

func magnitudeWeight(m float64) float64 { return m }
func energyWeight(m float64) float64    { return m * m }

// Bin accumulates magnitudes and returns the index of the first bin whose
// running sum reaches threshold * total, or -1 for an empty spectrum.
func (sr *SpectralRolloff) Bin(spectrum []float64, threshold float64) int {
	return rolloffBin(spectrum, threshold, magnitudeWeight)
}

// Compute is the frequency in Hz of Bin
func (sr *SpectralRolloff) Compute(spectrum []float64, threshold float64) float64 {
	return sr.frequency(spectrum, rolloffBin(spectrum, threshold, magnitudeWeight))
}

// ComputeEnergy is Compute over |X|^2
func (sr *SpectralRolloff) ComputeEnergy(spectrum []float64, threshold float64) float64 {
	return sr.frequency(spectrum, rolloffBin(spectrum, threshold, energyWeight))
}

func (sr *SpectralRolloff) frequency(spectrum []float64, bin int) float64 {
	if bin < 0 {
		return 0.0
	}
	return BinFrequencies(len(spectrum), sr.sampleRate)[bin]
}

func rolloffBin(spectrum []float64, threshold float64, weight func(float64) float64) int {
	if len(spectrum) == 0 {
		return -1
	}

	total := 0.0
	for _, mag := range spectrum {
		total += weight(mag)
	}

	target := threshold * total
	cumulative := 0.0
	for k, mag := range spectrum {
		cumulative += weight(mag)
		if cumulative >= target {
			return k
		}
	}
	return len(spectrum) - 1
}

// BinFrames returns Bin for every frame; an empty frame gives 0
func (sr *SpectralRolloff) BinFrames(spectrogram [][]float64, threshold float64) []float64 {
	bins := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		bins[t] = float64(max(sr.Bin(spectrum, threshold), 0))
	}
	return bins
}

func (sr *SpectralRolloff) ComputeFrames(spectrogram [][]float64, threshold float64, energy bool) []float64 {
	rolloffs := make([]float64, len(spectrogram))
	for t, spectrum := range spectrogram {
		if energy {
			rolloffs[t] = sr.ComputeEnergy(spectrum, threshold)
		} else {
			rolloffs[t] = sr.Compute(spectrum, threshold)
		}
	}
	return rolloffs
}
