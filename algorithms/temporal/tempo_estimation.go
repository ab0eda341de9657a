package temporal

// TempoEstimation estimates a global tempo from the periodicity of the RMS
// envelope.
type TempoEstimation struct {
	envelopeExtractor *Envelope
	minBPM            float64
	maxBPM            float64
	defaultBPM        float64
}

// NewTempoEstimation searches 60-180 BPM and falls back to 120 BPM when the
// envelope has no periodic peak in range
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		envelopeExtractor: NewEnvelope(),
		minBPM:            60,
		maxBPM:            180,
		defaultBPM:        120,
	}
}

// EstimateTempoAutocorrelation returns the tempo in BPM, or 0 when the signal
// is too short to hold ten envelope frames.
func (te *TempoEstimation) EstimateTempoAutocorrelation(signal []float64, sampleRate int) float64 {
	if len(signal) == 0 || sampleRate <= 0 {
		return 0.0
	}

	// 100ms envelope frames at 25ms hops
	frameSize := int(0.1 * float64(sampleRate))
	hopSize := max(frameSize/4, 1)

	envelope := te.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)
	if len(envelope) < 10 {
		return 0.0
	}

	autocorr := te.normalizedAutocorrelation(envelope, len(envelope)/2)
	return te.tempoFromAutocorrelation(autocorr, hopSize, sampleRate)
}

// normalizedAutocorrelation is the lag-averaged autocorrelation scaled so
// lag 0 equals 1
func (te *TempoEstimation) normalizedAutocorrelation(signal []float64, maxLag int) []float64 {
	maxLag = min(maxLag, len(signal))
	raw := Autocorrelation(signal)

	autocorr := make([]float64, maxLag)
	for lag := range maxLag {
		autocorr[lag] = raw[lag] / float64(len(signal)-lag)
	}

	if len(autocorr) > 0 && autocorr[0] > 0 {
		scale := autocorr[0]
		for i := range autocorr {
			autocorr[i] /= scale
		}
	}
	return autocorr
}

// tempoFromAutocorrelation picks the highest local maximum whose period lies
// in the BPM search range
func (te *TempoEstimation) tempoFromAutocorrelation(autocorr []float64, hopSize int, sampleRate int) float64 {
	if len(autocorr) < 10 {
		return 0.0
	}

	timePerFrame := float64(hopSize) / float64(sampleRate)
	minLag := max(int(60.0/te.maxBPM/timePerFrame), 1)
	maxLag := min(int(60.0/te.minBPM/timePerFrame), len(autocorr)-2)

	maxVal := 0.0
	bestLag := 0
	for lag := minLag; lag <= maxLag; lag++ {
		if autocorr[lag] > autocorr[lag-1] &&
			autocorr[lag] > autocorr[lag+1] &&
			autocorr[lag] > maxVal {
			maxVal = autocorr[lag]
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return te.defaultBPM
	}
	return 60.0 / (float64(bestLag) * timePerFrame)
}
