package spectral

import (
	"fmt"
	"math"
)

// LogScale selects how filter bank energies are compressed before the DCT
type LogScale string

const (
	// LogDecibel is 10*log10(E) with no floor; empty bands give -Inf
	LogDecibel LogScale = "db"
	// LogNatural is ln(max(E, 1e-10))
	LogNatural LogScale = "ln"
)

// MFCC computes Mel-Frequency Cepstral Coefficients from power spectra
type MFCC struct {
	params     MFCCParams
	sampleRate int

	melScale   *MelScale
	filterBank [][]float64
	dctMatrix  [][]float64
	fftSize    int
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int      `json:"num_coefficients"`
	NumMelFilters   int      `json:"num_mel_filters"`
	LowFreq         float64  `json:"low_freq"`
	HighFreq        float64  `json:"high_freq"` // 0 means sampleRate/2
	Log             LogScale `json:"log"`
	// NormalizedFilters selects area-normalized filters with floor() bin
	// edges over the unnormalized, rounded bank.
	NormalizedFilters bool    `json:"normalized_filters"`
	UseLiftering      bool    `json:"use_liftering"`
	LifterCoeff       float64 `json:"lifter_coeff"`
}

// DefaultMFCCParams is the 13 coefficient, 10 band, decibel configuration
func DefaultMFCCParams() MFCCParams {
	return MFCCParams{
		NumCoefficients:   13,
		NumMelFilters:     10,
		Log:               LogDecibel,
		NormalizedFilters: true,
	}
}

// NewMFCCWithParams creates a new MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) *MFCC {
	if params.NumCoefficients <= 0 {
		params.NumCoefficients = 13
	}
	if params.NumMelFilters <= 0 {
		params.NumMelFilters = 26
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}
	if params.Log == "" {
		params.Log = LogDecibel
	}
	if params.UseLiftering && params.LifterCoeff <= 0 {
		params.LifterCoeff = 22.0
	}

	return &MFCC{
		params:     params,
		sampleRate: sampleRate,
		melScale:   NewMelScale(),
	}
}

// Initialize prepares the filter bank and DCT basis for the given FFT size
func (m *MFCC) Initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}

	p := m.params
	if p.NormalizedFilters {
		m.filterBank = m.melScale.CreateNormalizedFilterBank(p.NumMelFilters, fftSize, m.sampleRate, p.LowFreq, p.HighFreq)
	} else {
		m.filterBank = m.melScale.CreateMelFilterBank(p.NumMelFilters, fftSize, m.sampleRate, p.LowFreq, p.HighFreq)
	}
	if len(m.filterBank) == 0 {
		return fmt.Errorf("failed to create mel filter bank")
	}

	m.dctMatrix = DCTBasis(p.NumCoefficients, p.NumMelFilters)
	m.fftSize = fftSize
	return nil
}

// DCTBasis returns the orthonormal DCT-II basis with rows
// 1/sqrt(L) for i=0 and cos(i*(2k+1)*pi/(2L))*sqrt(2/L) otherwise.
func DCTBasis(numCoefficients, length int) [][]float64 {
	basis := make([][]float64, numCoefficients)
	for i := range numCoefficients {
		basis[i] = make([]float64, length)
		for k := range length {
			if i == 0 {
				basis[i][k] = 1.0 / math.Sqrt(float64(length))
				continue
			}
			basis[i][k] = math.Cos(float64(i)*float64(2*k+1)*math.Pi/float64(2*length)) *
				math.Sqrt(2.0/float64(length))
		}
	}
	return basis
}

// Compute returns the coefficients for one power spectrum of fftSize/2+1
// bins, fftSize being the size given to Initialize. Compute only reads the
// filter bank and basis, so one MFCC may be shared across goroutines.
func (m *MFCC) Compute(powerSpectrum []float64) ([]float64, error) {
	if m.fftSize == 0 {
		return nil, fmt.Errorf("MFCC is not initialized")
	}
	if want := m.fftSize/2 + 1; len(powerSpectrum) != want {
		return nil, fmt.Errorf("power spectrum has %d bins, want %d for FFT size %d",
			len(powerSpectrum), want, m.fftSize)
	}

	melSpectrum := m.melScale.ApplyFilterBank(powerSpectrum, m.filterBank)
	logMel := make([]float64, len(melSpectrum))
	for i, e := range melSpectrum {
		switch m.params.Log {
		case LogNatural:
			logMel[i] = math.Log(math.Max(e, 1e-10))
		default:
			logMel[i] = 10 * math.Log10(e)
		}
	}

	coeffs := make([]float64, m.params.NumCoefficients)
	for i, row := range m.dctMatrix {
		sum := 0.0
		for k, v := range logMel {
			sum += row[k] * v
		}
		coeffs[i] = sum
	}

	if m.params.UseLiftering {
		m.lifter(coeffs)
	}
	return coeffs, nil
}

// ComputeFrames returns a coefficients x frames matrix
func (m *MFCC) ComputeFrames(powerFrames [][]float64) ([][]float64, error) {
	out := make([][]float64, m.params.NumCoefficients)
	for i := range out {
		out[i] = make([]float64, len(powerFrames))
	}

	for t, power := range powerFrames {
		coeffs, err := m.Compute(power)
		if err != nil {
			return nil, fmt.Errorf("failed to compute MFCC for frame %d: %w", t, err)
		}
		for i, c := range coeffs {
			out[i][t] = c
		}
	}
	return out, nil
}

// lifter applies sinusoidal liftering to every coefficient but C0
func (m *MFCC) lifter(coeffs []float64) {
	for i := 1; i < len(coeffs); i++ {
		coeffs[i] *= 1.0 + (m.params.LifterCoeff/2.0)*math.Sin(math.Pi*float64(i)/m.params.LifterCoeff)
	}
}

// GetFilterBank returns the mel filter bank built by Initialize
func (m *MFCC) GetFilterBank() [][]float64 {
	return m.filterBank
}

// GetParams returns the effective parameters
func (m *MFCC) GetParams() MFCCParams {
	return m.params
}

// PeakNormalize scales a signal so its largest absolute sample is 1.
// A silent signal is returned unchanged (as a copy).
func PeakNormalize(signal []float64) []float64 {
	peak := 0.0
	for _, v := range signal {
		peak = math.Max(peak, math.Abs(v))
	}

	out := make([]float64, len(signal))
	copy(out, signal)
	if peak == 0 {
		return out
	}
	for i := range out {
		out[i] /= peak
	}
	return out
}
