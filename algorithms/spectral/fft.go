package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform turns a real frame into its one-sided complex spectrum
// (len(frame)/2 + 1 bins).
type Transform interface {
	OneSided(frame []float64) []complex128
}

// FFT computes transforms with mjibson/go-dsp, which handles any length
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of a real signal
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// OneSided keeps the non-negative frequency bins of Compute
func (f *FFT) OneSided(frame []float64) []complex128 {
	if len(frame) == 0 {
		return []complex128{}
	}
	full := fft.FFTReal(frame)
	return full[:len(frame)/2+1]
}

// RealFFT uses gonum's real-input transform. A plan is bound to one length,
// so RealFFT is not safe for concurrent use; create one per worker.
type RealFFT struct {
	plan *fourier.FFT
	n    int
}

// NewRealFFT creates a gonum FFT plan for frames of length n
func NewRealFFT(n int) *RealFFT {
	return &RealFFT{plan: fourier.NewFFT(n), n: n}
}

// OneSided returns the n/2+1 coefficients of frame. Frames of a different
// length replan.
func (r *RealFFT) OneSided(frame []float64) []complex128 {
	if len(frame) == 0 {
		return []complex128{}
	}
	if len(frame) != r.n {
		r.plan = fourier.NewFFT(len(frame))
		r.n = len(frame)
	}
	return r.plan.Coefficients(nil, frame)
}

// Magnitude returns |X_k| for each bin
func Magnitude(spectrum []complex128) []float64 {
	mags := make([]float64, len(spectrum))
	for i, c := range spectrum {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}

// BinFrequencies returns the centre frequency in Hz of each one-sided bin,
// k * sampleRate / fftSize.
func BinFrequencies(numBins int, sampleRate int) []float64 {
	freqs := make([]float64, numBins)
	if numBins < 2 {
		return freqs
	}
	fftSize := float64((numBins - 1) * 2)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / fftSize
	}
	return freqs
}
