package temporal

// ZeroCrossing counts sign changes, treating x > 0 as positive and
// everything else (including exact zeros) as non-positive.
type ZeroCrossing struct{}

func NewZeroCrossing() *ZeroCrossing {
	return &ZeroCrossing{}
}

// Count returns the number of adjacent pairs whose positivity differs.
// A strictly alternating frame of N samples gives N-1.
func (zc *ZeroCrossing) Count(frame []float64) float64 {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i] > 0) != (frame[i-1] > 0) {
			crossings++
		}
	}
	return float64(crossings)
}

// Rate is Count divided by the frame length
func (zc *ZeroCrossing) Rate(frame []float64) float64 {
	if len(frame) == 0 {
		return 0.0
	}
	return zc.Count(frame) / float64(len(frame))
}

// ComputeFrames returns counts, or rates when normalized is set
func (zc *ZeroCrossing) ComputeFrames(frames [][]float64, normalized bool) []float64 {
	out := make([]float64, len(frames))
	for t, frame := range frames {
		if normalized {
			out[t] = zc.Rate(frame)
		} else {
			out[t] = zc.Count(frame)
		}
	}
	return out
}
