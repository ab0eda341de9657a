package extractors

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/fingerprint/analyzers"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/logging"
)

func newAnalysis(t *testing.T, cfg *config.FeatureConfig, signal []float64) *analyzers.Analysis {
	t.Helper()
	framer, err := analyzers.NewFramer(cfg)
	require.NoError(t, err)
	a, err := analyzers.NewAnalysis(signal, cfg.SampleRate, framer, 2, &logging.NoOpLogger{})
	require.NoError(t, err)
	return a
}

func tone(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestResolveRootNeedsFallbackForContrast(t *testing.T) {
	registry := NewRegistry(&logging.NoOpLogger{})
	cfg := config.DefaultFeatureConfig()

	_, err := registry.Resolve(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFeatureUnimplemented))
	assert.Contains(t, err.Error(), "contrast")

	cfg.FallbackKit = config.KitReference
	resolved, err := registry.Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, resolved, len(config.DefaultExtractors))
	for i, e := range resolved {
		assert.Equal(t, config.DefaultExtractors[i], e.Name())
	}
	assert.Equal(t, cfg.ContrastBands, resolved[3].Dims())
}

func TestResolveErrors(t *testing.T) {
	registry := NewRegistry(&logging.NoOpLogger{})
	assert.Equal(t, []string{config.KitReference, config.KitRoot}, registry.Kits())

	tests := map[string]func(*config.FeatureConfig){
		"unknown kit":      func(c *config.FeatureConfig) { c.Kit = "librosa" },
		"unknown fallback": func(c *config.FeatureConfig) { c.FallbackKit = "essentia" },
		"unknown feature":  func(c *config.FeatureConfig) { c.Extractors = []string{"chroma"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultFeatureConfig()
			mutate(cfg)
			_, err := registry.Resolve(cfg)
			assert.True(t, errors.Is(err, ErrUnknownExtractor), "got %v", err)
		})
	}

	cfg := config.DefaultFeatureConfig()
	cfg.Extractors = []string{"rms", "rms"}
	_, err := registry.Resolve(cfg)
	assert.Error(t, err)
}

func TestRegisterOverridesSlot(t *testing.T) {
	registry := NewRegistry(&logging.NoOpLogger{})
	registry.Register(config.KitRoot, FeatureContrast, func(cfg *config.FeatureConfig) (Extractor, error) {
		return &scalarExtractor{name: FeatureContrast, compute: func(*analyzers.Analysis) float64 { return 7 }}, nil
	})

	cfg := config.DefaultFeatureConfig()
	cfg.Extractors = []string{FeatureContrast}
	resolved, err := registry.Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Scalar())
}

func TestKitsAgreeOnShape(t *testing.T) {
	registry := NewRegistry(&logging.NoOpLogger{})

	for _, kit := range []string{config.KitRoot, config.KitReference} {
		t.Run(kit, func(t *testing.T) {
			cfg := config.DefaultFeatureConfig()
			cfg.Kit = kit
			cfg.FallbackKit = config.KitReference
			resolved, err := registry.Resolve(cfg)
			require.NoError(t, err)

			a := newAnalysis(t, cfg, tone(440, cfg.SampleRate, cfg.SampleRate))
			for _, e := range resolved {
				tr, err := e.Extract(a)
				require.NoError(t, err, e.Name())
				assert.Equal(t, e.Name(), tr.Name)
				assert.Equal(t, e.Scalar(), tr.Scalar)
				if tr.Scalar {
					continue
				}
				require.Len(t, tr.Values, e.Dims(), e.Name())
				for _, row := range tr.Values {
					assert.Len(t, row, a.Frames.Len(), e.Name())
				}
			}
		})
	}
}

func TestRootCentroidTracksTone(t *testing.T) {
	cfg := config.DefaultFeatureConfig()
	cfg.Extractors = []string{FeatureCentroid, FeatureZCR}
	resolved, err := NewRegistry(&logging.NoOpLogger{}).Resolve(cfg)
	require.NoError(t, err)

	a := newAnalysis(t, cfg, tone(1000, cfg.SampleRate, cfg.SampleRate))

	centroid, err := resolved[0].Extract(a)
	require.NoError(t, err)
	mid := len(centroid.Values[0]) / 2
	assert.InDelta(t, 1000, centroid.Values[0][mid], 30)

	zcr, err := resolved[1].Extract(a)
	require.NoError(t, err)
	// 1 kHz over 2048 samples at 22050 Hz crosses about 186 times
	assert.InDelta(t, 186, zcr.Values[0][mid], 2)
}

func TestMFCCPeakNormalization(t *testing.T) {
	cfg := config.DefaultFeatureConfig()
	cfg.Extractors = []string{FeatureMFCC}
	resolved, err := NewRegistry(&logging.NoOpLogger{}).Resolve(cfg)
	require.NoError(t, err)

	quiet := tone(440, cfg.SampleRate, cfg.SampleRate)
	loud := make([]float64, len(quiet))
	for i, v := range quiet {
		loud[i] = 2 * v
	}

	a, err := resolved[0].Extract(newAnalysis(t, cfg, quiet))
	require.NoError(t, err)
	b, err := resolved[0].Extract(newAnalysis(t, cfg, loud))
	require.NoError(t, err)

	require.Len(t, a.Values, 13)
	mid := len(a.Values[0]) / 2
	for i := range a.Values {
		assert.InDelta(t, a.Values[i][mid], b.Values[i][mid], 1e-6, "coefficient %d", i)
	}
}
