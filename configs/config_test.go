package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 22050, cfg.Audio.SampleRate)
	assert.Equal(t, 22050, cfg.Features.SampleRate)
	assert.Equal(t, 22050, cfg.Decoder.TargetSampleRate)
	assert.Equal(t, 2048, cfg.Features.WindowSize)
	assert.Equal(t, config.DefaultExtractors, cfg.Features.Extractors)
	assert.Equal(t, 60*time.Second, cfg.Decoder.Timeout)
	assert.Equal(t, []stats.Metric{stats.Euclidean, stats.Manhattan, stats.Cosine}, cfg.Metrics())
	assert.Equal(t, 20, cfg.Similarity.TopN)
	assert.Equal(t, "Song", cfg.Metadata.Columns.ID)
	assert.Equal(t, "MoodsAll", cfg.Metadata.Columns.Emotions)

	opts := cfg.Metadata.Options()
	assert.Equal(t, ',', opts.Delimiter)
	assert.Equal(t, ";", opts.TagDelimiter)
	assert.Equal(t, `"'`, opts.Wrappers)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sonido.yaml")
	content := `
paths:
  database: /srv/corpus
audio:
  sample_rate: 16000
features:
  hop_ms: 32
  extractors: [mfcc, tempo]
similarity:
  metrics: [cosine]
  top_n: 5
decoder:
  timeout: 5s
runtime:
  workers: 3
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/srv/corpus", cfg.Paths.Database)
	assert.Equal(t, 16000, cfg.Features.SampleRate)
	assert.Equal(t, 32.0, cfg.Features.HopMillis)
	assert.Equal(t, []string{"mfcc", "tempo"}, cfg.Features.Extractors)
	assert.Equal(t, []stats.Metric{stats.Cosine}, cfg.Metrics())
	assert.Equal(t, 5*time.Second, cfg.Decoder.Timeout)
	assert.Equal(t, 3, cfg.Features.Workers)
	assert.Equal(t, "out/features", cfg.Paths.Features)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SONIDO_SIMILARITY_TOP_N", "7")

	v := viper.New()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Similarity.TopN)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SONIDO_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SONIDO_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("SONIDO_TEST_DOTENV"))
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no database", func(c *Config) { c.Paths.Database = "" }, "paths.database"},
		{"no extensions", func(c *Config) { c.Audio.Extensions = nil }, "audio.extensions"},
		{"bad metric", func(c *Config) { c.Similarity.Metrics = []string{"chebyshev"} }, "unsupported distance metric"},
		{"no metrics", func(c *Config) { c.Similarity.Metrics = nil }, "similarity.metrics"},
		{"bad kit", func(c *Config) { c.Similarity.Kits = []string{"librosa"} }, "unknown kit"},
		{"top n", func(c *Config) { c.Similarity.TopN = 0 }, "top_n"},
		{"workers", func(c *Config) { c.Runtime.Workers = -1 }, "workers"},
		{"log level", func(c *Config) { c.Runtime.LogLevel = "loud" }, "log_level"},
		{"features", func(c *Config) { c.Features.WindowSize = 1 }, "features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New())
			require.NoError(t, err)
			tt.mutate(cfg)
			err = Validate(cfg)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestFeatureConfigFor(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	root := cfg.FeatureConfigFor(config.KitRoot)
	assert.Equal(t, config.KitRoot, root.Kit)
	assert.Equal(t, config.KitReference, root.FallbackKit)

	ref := cfg.FeatureConfigFor(config.KitReference)
	assert.Equal(t, config.KitReference, ref.Kit)
	assert.Empty(t, ref.FallbackKit)
	assert.NotEqual(t, root.Key(), ref.Key())

	ref.Extractors[0] = "changed"
	assert.Equal(t, "mfcc", cfg.Features.Extractors[0])
}
