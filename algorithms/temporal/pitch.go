package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
)

// PitchEstimator estimates the fundamental frequency of one frame.
// voiced is false when no periodicity was found; hz is then 0.
type PitchEstimator interface {
	Estimate(frame []float64) (hz float64, voiced bool)
}

// AutocorrelationPitch picks the strongest autocorrelation peak after the
// first rise and refines it with a parabola.
type AutocorrelationPitch struct {
	sampleRate int
}

func NewAutocorrelationPitch(sampleRate int) *AutocorrelationPitch {
	return &AutocorrelationPitch{sampleRate: sampleRate}
}

func (ap *AutocorrelationPitch) Estimate(frame []float64) (float64, bool) {
	corr := Autocorrelation(frame)
	if len(corr) < 2 {
		return 0, false
	}

	start := -1
	for i := 0; i+1 < len(corr); i++ {
		if corr[i+1]-corr[i] > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	peak := start + common.ArgMax(corr[start:])
	lag := common.ParabolicInterpolation(corr, peak)
	if lag <= 0 || math.IsNaN(lag) {
		return 0, false
	}

	return float64(ap.sampleRate) / lag, true
}

// ComputeFrames returns one f0 per frame, 0 Hz for unvoiced frames
func ComputeFrames(estimator PitchEstimator, frames [][]float64) []float64 {
	out := make([]float64, len(frames))
	for t, frame := range frames {
		if hz, voiced := estimator.Estimate(frame); voiced {
			out[t] = hz
		}
	}
	return out
}
