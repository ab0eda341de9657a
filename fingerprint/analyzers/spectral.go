package analyzers

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-mmir/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mmir/logging"
)

// TransformKind selects the FFT backend of a SpectralAnalyzer
type TransformKind string

const (
	// TransformDSP uses mjibson/go-dsp
	TransformDSP TransformKind = "dsp"
	// TransformGonum uses gonum's dsp/fourier real FFT
	TransformGonum TransformKind = "gonum"
)

// Spectrogram holds one-sided spectra of a FrameSet, frames x bins
type Spectrogram struct {
	Magnitude  [][]float64
	Power      [][]float64
	NumBins    int
	SampleRate int
	FFTSize    int
}

// FrameCount returns the number of spectra
func (s *Spectrogram) FrameCount() int {
	return len(s.Magnitude)
}

// SpectralAnalyzer computes per-frame spectra across a worker pool
type SpectralAnalyzer struct {
	kind    TransformKind
	workers int
	logger  logging.Logger
}

// NewSpectralAnalyzer creates an analyzer for the given backend. workers <= 0
// sizes the pool from the frame count and NumCPU.
func NewSpectralAnalyzer(kind TransformKind, workers int, logger logging.Logger) (*SpectralAnalyzer, error) {
	switch kind {
	case TransformDSP, TransformGonum:
	default:
		return nil, fmt.Errorf("unknown transform %q", kind)
	}

	return &SpectralAnalyzer{
		kind:    kind,
		workers: workers,
		logger:  logging.OrGlobal(logger, "spectral_analyzer"),
	}, nil
}

// Kind returns the FFT backend
func (sa *SpectralAnalyzer) Kind() TransformKind {
	return sa.kind
}

func (sa *SpectralAnalyzer) newTransform(size int) spectral.Transform {
	if sa.kind == TransformGonum {
		return spectral.NewRealFFT(size)
	}
	return spectral.NewFFT()
}

// Analyze transforms every frame. Each worker owns a transform and writes
// into the frame's own slot.
func (sa *SpectralAnalyzer) Analyze(frames *FrameSet) (*Spectrogram, error) {
	if frames == nil {
		return nil, fmt.Errorf("nil frame set")
	}

	numFrames := frames.Len()
	numBins := frames.WindowSize/2 + 1
	result := &Spectrogram{
		Magnitude:  make([][]float64, numFrames),
		Power:      make([][]float64, numFrames),
		NumBins:    numBins,
		SampleRate: frames.SampleRate,
		FFTSize:    frames.WindowSize,
	}
	if numFrames == 0 {
		return result, nil
	}

	numWorkers := sa.getOptimalWorkerCount(numFrames)
	sa.logger.Debug("Computing spectra", logging.Fields{
		"function":  "Analyze",
		"transform": string(sa.kind),
		"frames":    numFrames,
		"workers":   numWorkers,
	})

	power := spectral.NewPowerSpectrum()
	jobs := make(chan int, numFrames)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			transform := sa.newTransform(frames.WindowSize)
			for t := range jobs {
				mags := spectral.Magnitude(transform.OneSided(frames.Frames[t]))
				result.Magnitude[t] = mags
				result.Power[t] = power.Compute(mags)
			}
		}()
	}

	for t := range numFrames {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return result, nil
}

// getOptimalWorkerCount caps parallelism for short inputs
func (sa *SpectralAnalyzer) getOptimalWorkerCount(numFrames int) int {
	if sa.workers > 0 {
		return min(sa.workers, numFrames)
	}

	numCPU := runtime.NumCPU()
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}
	if numFrames < 1000 {
		return min(numCPU, 8)
	}
	return numCPU
}
