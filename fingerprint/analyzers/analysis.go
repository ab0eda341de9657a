package analyzers

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-mmir/logging"
)

// Analysis is everything extractors read for one waveform: the samples, their
// frames and lazily computed spectrograms. It is not safe for concurrent use;
// each item in a batch gets its own Analysis.
type Analysis struct {
	Signal     []float64
	SampleRate int
	Frames     *FrameSet
	Temporal   *TemporalAnalyzer

	workers      int
	logger       logging.Logger
	spectrograms map[TransformKind]*Spectrogram
	peak         float64
	peakKnown    bool
}

// NewAnalysis frames signal and prepares the analyzers. A signal too short
// for one frame returns ErrNoFrames.
func NewAnalysis(signal []float64, sampleRate int, framer *Framer, workers int, logger logging.Logger) (*Analysis, error) {
	frames, err := framer.Frame(signal)
	if err != nil {
		return nil, fmt.Errorf("failed to frame signal: %w", err)
	}
	if frames.Len() == 0 {
		return nil, ErrNoFrames
	}

	logger = logging.OrGlobal(logger, "analysis")
	return &Analysis{
		Signal:       signal,
		SampleRate:   sampleRate,
		Frames:       frames,
		Temporal:     NewTemporalAnalyzer(workers, logger),
		workers:      workers,
		logger:       logger,
		spectrograms: make(map[TransformKind]*Spectrogram),
	}, nil
}

// Spectrogram returns the spectra for kind, computing them on first use
func (a *Analysis) Spectrogram(kind TransformKind) (*Spectrogram, error) {
	if spec, ok := a.spectrograms[kind]; ok {
		return spec, nil
	}

	analyzer, err := NewSpectralAnalyzer(kind, a.workers, a.logger)
	if err != nil {
		return nil, err
	}
	spec, err := analyzer.Analyze(a.Frames)
	if err != nil {
		return nil, fmt.Errorf("spectral analysis failed: %w", err)
	}

	a.spectrograms[kind] = spec
	return spec, nil
}

// Peak returns max |x| of the signal
func (a *Analysis) Peak() float64 {
	if !a.peakKnown {
		for _, v := range a.Signal {
			a.peak = math.Max(a.peak, math.Abs(v))
		}
		a.peakKnown = true
	}
	return a.peak
}
