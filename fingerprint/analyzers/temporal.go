package analyzers

import (
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-mmir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mmir/logging"
)

// TemporalAnalyzer runs per-frame time-domain measurements. Energy and zero
// crossings are cheap and computed inline; pitch is fanned out over workers.
type TemporalAnalyzer struct {
	energy  *temporal.Energy
	zcr     *temporal.ZeroCrossing
	workers int
	logger  logging.Logger
}

func NewTemporalAnalyzer(workers int, logger logging.Logger) *TemporalAnalyzer {
	return &TemporalAnalyzer{
		energy:  temporal.NewEnergy(),
		zcr:     temporal.NewZeroCrossing(),
		workers: workers,
		logger:  logging.OrGlobal(logger, "temporal_analyzer"),
	}
}

// Energy returns one energy value per frame. trueRMS selects sqrt(mean(x²))
// over sqrt(Σx²)/N.
func (ta *TemporalAnalyzer) Energy(frames *FrameSet, trueRMS bool) []float64 {
	return ta.energy.ComputeFrames(frames.Frames, trueRMS)
}

// ZeroCrossings returns per-frame sign changes, as a count or divided by the
// frame length
func (ta *TemporalAnalyzer) ZeroCrossings(frames *FrameSet, normalized bool) []float64 {
	return ta.zcr.ComputeFrames(frames.Frames, normalized)
}

// Pitch returns one f0 per frame, 0 Hz where the estimator finds no
// periodicity. The estimator must be safe for concurrent use.
func (ta *TemporalAnalyzer) Pitch(frames *FrameSet, estimator temporal.PitchEstimator) []float64 {
	numFrames := frames.Len()
	out := make([]float64, numFrames)
	if numFrames == 0 {
		return out
	}

	numWorkers := ta.workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, numFrames)

	ta.logger.Debug("Estimating pitch", logging.Fields{
		"function": "Pitch",
		"frames":   numFrames,
		"workers":  numWorkers,
	})

	jobs := make(chan int, numFrames)
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if hz, voiced := estimator.Estimate(frames.Frames[t]); voiced {
					out[t] = hz
				}
			}
		}()
	}

	for t := range numFrames {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	voiced := 0
	for _, hz := range out {
		if hz > 0 {
			voiced++
		}
	}
	ta.logger.Debug("Pitch estimated", logging.Fields{
		"function": "Pitch",
		"voiced":   voiced,
		"frames":   numFrames,
	})

	return out
}
