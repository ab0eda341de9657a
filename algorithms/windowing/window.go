package windowing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Type names a window function
type Type string

const (
	TypeHann           Type = "hann"
	TypeHamming        Type = "hamming"
	TypeBlackman       Type = "blackman"
	TypeBlackmanHarris Type = "blackmanharris"
	TypeBartlett       Type = "bartlett"
	TypeRectangular    Type = "rectangular"
)

// ErrUnknownWindow is returned by New and ParseType for unsupported names
var ErrUnknownWindow = errors.New("unknown window type")

// Window weights a frame of samples
type Window interface {
	Apply(signal []float64) []float64
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// ParseType normalizes a window name. "boxcar" and "rect" alias rectangular.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return TypeHann, nil
	case "hamming":
		return TypeHamming, nil
	case "blackman":
		return TypeBlackman, nil
	case "blackmanharris", "blackman-harris":
		return TypeBlackmanHarris, nil
	case "bartlett", "triangular":
		return TypeBartlett, nil
	case "rectangular", "rect", "boxcar":
		return TypeRectangular, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, name)
	}
}

// New creates a periodic window, the variant used for spectral analysis
// (denominator N rather than N-1).
func New(t Type, size int) (Window, error) {
	return NewWithSymmetry(t, size, false)
}

// NewWithSymmetry creates a window of the given type and size
func NewWithSymmetry(t Type, size int, symmetric bool) (Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}

	switch t {
	case TypeHann:
		return NewHann(size, symmetric), nil
	case TypeHamming:
		return newCosineSum(TypeHamming, size, symmetric, 0.54, 0.46), nil
	case TypeBlackman:
		return newCosineSum(TypeBlackman, size, symmetric, 0.42, 0.5, 0.08), nil
	case TypeBlackmanHarris:
		return newCosineSum(TypeBlackmanHarris, size, symmetric, 0.35875, 0.48829, 0.14128, 0.01168), nil
	case TypeBartlett:
		return newBartlett(size, symmetric), nil
	case TypeRectangular:
		return newTable(TypeRectangular, ones(size)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWindow, t)
	}
}

// table is a window backed by precomputed coefficients
type table struct {
	kind         Type
	coefficients []float64
}

func newTable(kind Type, coefficients []float64) *table {
	return &table{kind: kind, coefficients: coefficients}
}

// Apply applies the window to a signal (creates new array)
func (w *table) Apply(signal []float64) []float64 {
	if len(signal) != len(w.coefficients) {
		return nil
	}

	windowed := make([]float64, len(signal))
	for i, c := range w.coefficients {
		windowed[i] = signal[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (w *table) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *table) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

func (w *table) GetSize() int {
	return len(w.coefficients)
}

func (w *table) GetType() string {
	return string(w.kind)
}

// newCosineSum builds sum_k (-1)^k a_k cos(2*pi*k*n/D)
func newCosineSum(kind Type, size int, symmetric bool, a ...float64) *table {
	coeffs := make([]float64, size)
	if size == 1 {
		coeffs[0] = 1
		return newTable(kind, coeffs)
	}

	denominator := denominatorFor(size, symmetric)
	for n := range size {
		arg := 2 * math.Pi * float64(n) / denominator
		sign := 1.0
		for k, ak := range a {
			coeffs[n] += sign * ak * math.Cos(float64(k)*arg)
			sign = -sign
		}
	}
	return newTable(kind, coeffs)
}

func newBartlett(size int, symmetric bool) *table {
	coeffs := make([]float64, size)
	if size == 1 {
		coeffs[0] = 1
		return newTable(TypeBartlett, coeffs)
	}

	half := denominatorFor(size, symmetric) / 2
	for n := range size {
		coeffs[n] = 1 - math.Abs((float64(n)-half)/half)
	}
	return newTable(TypeBartlett, coeffs)
}

func denominatorFor(size int, symmetric bool) float64 {
	if symmetric {
		return float64(size - 1)
	}
	return float64(size)
}

func ones(size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = 1
	}
	return out
}
