package temporal

import (
	"github.com/mjibson/go-dsp/fft"
)

// linearConvolve returns the full linear convolution of a and b
// (length len(a)+len(b)-1) using go-dsp's circular FFT convolution on inputs
// zero-padded to a power of two.
func linearConvolve(a, b []float64) []float64 {
	if len(a) == 0 || len(b) == 0 {
		return []float64{}
	}

	n := len(a) + len(b) - 1
	size := 1
	for size < n {
		size <<= 1
	}
	x := make([]complex128, size)
	y := make([]complex128, size)
	for i, v := range a {
		x[i] = complex(v, 0)
	}
	for i, v := range b {
		y[i] = complex(v, 0)
	}

	conv := fft.Convolve(x, y)
	out := make([]float64, n)
	for i := range out {
		out[i] = real(conv[i])
	}
	return out
}

// Autocorrelation returns R(l) = sum_k x[k]*x[k+l] for lags 0..N-1, computed
// as the convolution of the frame with its time reversal.
func Autocorrelation(frame []float64) []float64 {
	n := len(frame)
	if n == 0 {
		return []float64{}
	}

	reversed := make([]float64, n)
	for i, v := range frame {
		reversed[n-1-i] = v
	}

	full := linearConvolve(frame, reversed)
	return full[n-1:]
}

// crossCorrelation returns sum_{j<len(head)} head[j]*x[j+tau] for
// tau = 0..len(x)-len(head)
func crossCorrelation(head, x []float64) []float64 {
	w := len(head)
	if w == 0 || len(x) < w {
		return []float64{}
	}

	reversed := make([]float64, w)
	for i, v := range head {
		reversed[w-1-i] = v
	}

	full := linearConvolve(reversed, x)
	return full[w-1 : len(x)]
}
