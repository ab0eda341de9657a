package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
)

// YIN implements the YIN estimator (de Cheveigné & Kawahara, 2002) bounded
// to [MinFreq, MaxFreq]. Estimates at or above MaxFreq are reported as
// unvoiced.
type YIN struct {
	sampleRate int
	minFreq    float64
	maxFreq    float64
	threshold  float64
}

// NewYIN creates a YIN estimator. A non-positive maxFreq means Nyquist.
func NewYIN(sampleRate int, minFreq, maxFreq float64) *YIN {
	if minFreq <= 0 {
		minFreq = 20
	}
	if maxFreq <= 0 {
		maxFreq = float64(sampleRate) / 2
	}
	return &YIN{
		sampleRate: sampleRate,
		minFreq:    minFreq,
		maxFreq:    maxFreq,
		threshold:  0.1,
	}
}

func (y *YIN) Estimate(frame []float64) (float64, bool) {
	halfN := len(frame) / 2
	if halfN < 3 {
		return 0, false
	}

	cmndf := y.cumulativeMeanNormalizedDifference(frame, halfN)

	tauMin := max(int(math.Floor(float64(y.sampleRate)/y.maxFreq)), 1)
	tauMax := min(int(math.Ceil(float64(y.sampleRate)/y.minFreq)), halfN-1)
	if tauMin >= tauMax {
		return 0, false
	}

	best := -1
	for tau := tauMin; tau <= tauMax; tau++ {
		if cmndf[tau] < y.threshold {
			for tau+1 <= tauMax && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			best = tau
			break
		}
	}
	if best < 0 {
		// no dip under the threshold: fall back to the global minimum
		best = tauMin
		for tau := tauMin + 1; tau <= tauMax; tau++ {
			if cmndf[tau] < cmndf[best] {
				best = tau
			}
		}
	}

	period := common.ParabolicInterpolation(cmndf, best)
	if period <= 0 || math.IsNaN(period) {
		return 0, false
	}

	hz := float64(y.sampleRate) / period
	if hz >= y.maxFreq || hz < y.minFreq {
		return 0, false
	}
	return hz, true
}

// cumulativeMeanNormalizedDifference computes d'(tau) for tau < halfN using
// d(tau) = E(0) + E(tau) - 2*r(tau) over a window of halfN samples.
func (y *YIN) cumulativeMeanNormalizedDifference(frame []float64, halfN int) []float64 {
	head := frame[:halfN]
	cross := crossCorrelation(head, frame[:2*halfN])

	// energy of frame[tau : tau+halfN] via prefix sums
	prefix := make([]float64, 2*halfN+1)
	for i := range 2 * halfN {
		prefix[i+1] = prefix[i] + frame[i]*frame[i]
	}
	energyAt := func(tau int) float64 { return prefix[tau+halfN] - prefix[tau] }

	cmndf := make([]float64, halfN)
	cmndf[0] = 1.0
	runningSum := 0.0
	e0 := energyAt(0)
	for tau := 1; tau < halfN; tau++ {
		d := math.Max(e0+energyAt(tau)-2*cross[tau], 0)
		runningSum += d
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = d * float64(tau) / runningSum
	}
	return cmndf
}
