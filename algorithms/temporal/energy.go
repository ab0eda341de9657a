package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
)

// Energy computes per-frame loudness measures
type Energy struct{}

func NewEnergy() *Energy {
	return &Energy{}
}

// RootSumSquares returns sqrt(sum(x^2)) / N, which is RMS/sqrt(N) rather than
// the textbook RMS.
func (e *Energy) RootSumSquares(frame []float64) float64 {
	if len(frame) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, v := range frame {
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares) / float64(len(frame))
}

// RMS returns sqrt(sum(x^2) / N)
func (e *Energy) RMS(frame []float64) float64 {
	return common.RMS(frame)
}

// ComputeFrames applies RootSumSquares, or RMS when trueRMS is set
func (e *Energy) ComputeFrames(frames [][]float64, trueRMS bool) []float64 {
	out := make([]float64, len(frames))
	for t, frame := range frames {
		if trueRMS {
			out[t] = e.RMS(frame)
		} else {
			out[t] = e.RootSumSquares(frame)
		}
	}
	return out
}
