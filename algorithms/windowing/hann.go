package windowing

// Hann is the default analysis window, 0.5*(1 - cos(2*pi*n/D)).
// D is the size for periodic windows and size-1 for symmetric ones.
type Hann struct {
	*table
	symmetric bool
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	return &Hann{
		table:     newCosineSum(TypeHann, size, symmetric, 0.5, 0.5),
		symmetric: symmetric,
	}
}

// IsSymmetric reports whether the window was built for filter design
// rather than spectral analysis.
func (h *Hann) IsSymmetric() bool {
	return h.symmetric
}
