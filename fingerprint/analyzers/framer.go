package analyzers

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
	"github.com/RyanBlaney/sonido-mmir/algorithms/windowing"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
)

// ErrNoFrames is returned when a waveform is too short to yield a frame
var ErrNoFrames = errors.New("waveform produced no frames")

// FrameSet holds the windowed frames of one waveform
type FrameSet struct {
	Frames     [][]float64
	WindowSize int
	HopSize    int
	SampleRate int
}

// Len returns the number of frames
func (fs *FrameSet) Len() int {
	return len(fs.Frames)
}

// Framer slices a waveform into overlapping windowed frames. The signal is
// reflect-padded by WindowSize/2 on both sides so frame t is centred on
// sample t*HopSize.
type Framer struct {
	window     windowing.Window
	windowSize int
	hopSize    int
	sampleRate int
}

// NewFramer builds a framer from the framing fields of cfg
func NewFramer(cfg *config.FeatureConfig) (*Framer, error) {
	windowType, err := windowing.ParseType(cfg.WindowType)
	if err != nil {
		return nil, err
	}

	window, err := windowing.New(windowType, cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	hop := HopSamples(cfg.SampleRate, cfg.HopMillis)
	if hop < 1 {
		return nil, fmt.Errorf("hop of %g ms at %d Hz is shorter than one sample", cfg.HopMillis, cfg.SampleRate)
	}

	return &Framer{
		window:     window,
		windowSize: cfg.WindowSize,
		hopSize:    hop,
		sampleRate: cfg.SampleRate,
	}, nil
}

// HopSamples converts a hop in milliseconds to samples, rounding half to even
func HopSamples(sampleRate int, hopMillis float64) int {
	return int(math.RoundToEven(float64(sampleRate) * hopMillis / 1000.0))
}

// NumFrames returns floor((padded-W)/H)+1 for a signal of n samples, or 0
// when the padded signal is shorter than one window.
func NumFrames(n, windowSize, hopSize int) int {
	if n == 0 || hopSize <= 0 {
		return 0
	}
	padded := n + 2*(windowSize/2)
	if padded < windowSize {
		return 0
	}
	return (padded-windowSize)/hopSize + 1
}

// PadReflect mirrors pad samples onto each side of signal without repeating
// the edge sample. Pads longer than the signal keep reflecting.
func PadReflect(signal []float64, pad int) []float64 {
	n := len(signal)
	if n == 0 {
		return []float64{}
	}

	out := make([]float64, n+2*pad)
	for i := range out {
		out[i] = signal[common.ReflectIndex(i-pad, n)]
	}
	return out
}

// HopSize returns the hop in samples
func (f *Framer) HopSize() int {
	return f.hopSize
}

// WindowSize returns the frame length in samples
func (f *Framer) WindowSize() int {
	return f.windowSize
}

// Frame pads, slices and windows signal. An empty signal yields an empty
// FrameSet rather than an error.
func (f *Framer) Frame(signal []float64) (*FrameSet, error) {
	numFrames := NumFrames(len(signal), f.windowSize, f.hopSize)
	set := &FrameSet{
		Frames:     make([][]float64, numFrames),
		WindowSize: f.windowSize,
		HopSize:    f.hopSize,
		SampleRate: f.sampleRate,
	}
	if numFrames == 0 {
		return set, nil
	}

	padded := PadReflect(signal, f.windowSize/2)
	for t := range numFrames {
		start := t * f.hopSize
		frame := make([]float64, f.windowSize)
		copy(frame, padded[start:start+f.windowSize])
		if err := f.window.ApplyInPlace(frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		set.Frames[t] = frame
	}
	return set, nil
}
