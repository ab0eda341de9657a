package analyzers

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/logging"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func newTestFramer(t *testing.T, mutate func(*config.FeatureConfig)) *Framer {
	t.Helper()
	cfg := config.DefaultFeatureConfig()
	if mutate != nil {
		mutate(cfg)
	}
	framer, err := NewFramer(cfg)
	require.NoError(t, err)
	return framer
}

func TestHopSamples(t *testing.T) {
	assert.Equal(t, 512, HopSamples(22050, 23.22))
	assert.Equal(t, 441, HopSamples(44100, 10))
	// 0.5 rounds to even
	assert.Equal(t, 0, HopSamples(8000, 0.0625))
	assert.Equal(t, 2, HopSamples(8000, 0.3125))
}

func TestFrameCount(t *testing.T) {
	framer := newTestFramer(t, nil)
	assert.Equal(t, 512, framer.HopSize())

	set, err := framer.Frame(make([]float64, 10000))
	require.NoError(t, err)
	assert.Equal(t, 20, set.Len())
	for _, frame := range set.Frames {
		assert.Len(t, frame, 2048)
	}

	assert.Equal(t, 20, NumFrames(10000, 2048, 512))
	assert.Equal(t, 1, NumFrames(1, 2048, 512))
	assert.Equal(t, 0, NumFrames(0, 2048, 512))
}

func TestFrameEmptySignal(t *testing.T) {
	framer := newTestFramer(t, nil)

	set, err := framer.Frame(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	_, err = NewAnalysis(nil, 22050, framer, 1, &logging.NoOpLogger{})
	assert.True(t, errors.Is(err, ErrNoFrames))
}

func TestNewFramerRejects(t *testing.T) {
	cfg := config.DefaultFeatureConfig()
	cfg.WindowType = "kaiser"
	_, err := NewFramer(cfg)
	assert.Error(t, err)

	cfg = config.DefaultFeatureConfig()
	cfg.HopMillis = 0.01
	_, err = NewFramer(cfg)
	assert.Error(t, err)
}

func TestPadReflect(t *testing.T) {
	assert.Equal(t, []float64{3, 2, 1, 2, 3, 4, 3, 2}, PadReflect([]float64{1, 2, 3, 4}, 2))
	// pad longer than the signal keeps reflecting
	assert.Equal(t, []float64{1, 2, 1, 2, 1, 2}, PadReflect([]float64{1, 2}, 2))
	assert.Equal(t, []float64{5, 5, 5}, PadReflect([]float64{5}, 1))
	assert.Empty(t, PadReflect(nil, 3))
}

func TestFrameCentring(t *testing.T) {
	framer := newTestFramer(t, func(c *config.FeatureConfig) {
		c.WindowType = "rectangular"
		c.WindowSize = 4
		c.SampleRate = 1000
		c.HopMillis = 2
	})

	set, err := framer.Frame([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	// padded: 3 2 1 2 3 4 5 4 3
	require.Equal(t, 3, set.Len())
	assert.Equal(t, []float64{3, 2, 1, 2}, set.Frames[0])
	assert.Equal(t, []float64{1, 2, 3, 4}, set.Frames[1])
	assert.Equal(t, []float64{3, 4, 5, 4}, set.Frames[2])
}

func TestSpectralBackendsAgree(t *testing.T) {
	framer := newTestFramer(t, nil)
	// bin 40 of a 2048-point transform
	freq := 40 * 22050.0 / 2048
	analysis, err := NewAnalysis(sine(freq, 22050, 22050), 22050, framer, 2, &logging.NoOpLogger{})
	require.NoError(t, err)

	dsp, err := analysis.Spectrogram(TransformDSP)
	require.NoError(t, err)
	gonum, err := analysis.Spectrogram(TransformGonum)
	require.NoError(t, err)

	require.Equal(t, analysis.Frames.Len(), dsp.FrameCount())
	assert.Equal(t, 1025, dsp.NumBins)

	mid := dsp.FrameCount() / 2
	require.Len(t, dsp.Magnitude[mid], 1025)
	for k := range dsp.Magnitude[mid] {
		assert.InDelta(t, dsp.Magnitude[mid][k], gonum.Magnitude[mid][k], 1e-6)
		assert.InDelta(t, dsp.Magnitude[mid][k]*dsp.Magnitude[mid][k], dsp.Power[mid][k], 1e-6)
	}

	peak := 0
	for k, m := range dsp.Magnitude[mid] {
		if m > dsp.Magnitude[mid][peak] {
			peak = k
		}
	}
	assert.Equal(t, 40, peak)

	again, err := analysis.Spectrogram(TransformDSP)
	require.NoError(t, err)
	assert.Same(t, dsp, again)

	_, err = NewSpectralAnalyzer(TransformKind("fftw"), 1, nil)
	assert.Error(t, err)
}

func TestTemporalAnalyzer(t *testing.T) {
	framer := newTestFramer(t, func(c *config.FeatureConfig) {
		c.WindowType = "rectangular"
	})
	// 100-sample period
	signal := sine(220.5, 22050, 22050)
	analysis, err := NewAnalysis(signal, 22050, framer, 3, &logging.NoOpLogger{})
	require.NoError(t, err)

	pitch := analysis.Temporal.Pitch(analysis.Frames, temporal.NewYIN(22050, 20, 0))
	require.Len(t, pitch, analysis.Frames.Len())
	for t2 := 5; t2 < len(pitch)-5; t2++ {
		assert.InDelta(t, 220.5, pitch[t2], 2.0, "frame %d", t2)
	}

	zcr := analysis.Temporal.ZeroCrossings(analysis.Frames, false)
	require.Len(t, zcr, analysis.Frames.Len())
	// about two crossings per 100-sample period
	assert.InDelta(t, 41, zcr[10], 1)

	rms := analysis.Temporal.Energy(analysis.Frames, true)
	assert.InDelta(t, 1/math.Sqrt2, rms[10], 0.01)

	assert.InDelta(t, 1.0, analysis.Peak(), 1e-3)
}
