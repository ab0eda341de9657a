package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/relevance"
	"github.com/RyanBlaney/sonido-mmir/transcode"
)

// EnvPrefix prefixes every environment override, e.g. SONIDO_RUNTIME_WORKERS
const EnvPrefix = "SONIDO"

// Config represents the application configuration
type Config struct {
	// Corpus, metadata and artifact locations
	Paths PathsConfig `mapstructure:"paths"`

	// Audio input settings
	Audio AudioConfig `mapstructure:"audio"`

	// Feature extraction parameters
	Features config.FeatureConfig `mapstructure:"features"`

	// Decoder settings; the sample rate follows audio.sample_rate
	Decoder transcode.DecoderConfig `mapstructure:"decoder"`

	// Distance and ranking settings
	Similarity SimilarityConfig `mapstructure:"similarity"`

	// Metadata table layout
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Execution settings
	Runtime RuntimeConfig `mapstructure:"runtime"`
}

// PathsConfig contains input and artifact locations
type PathsConfig struct {
	Database    string `mapstructure:"database"`
	Queries     string `mapstructure:"queries"`
	Metadata    string `mapstructure:"metadata"`
	Precomputed string `mapstructure:"precomputed"`
	Features    string `mapstructure:"features"`
	Distances   string `mapstructure:"distances"`
	Relevance   string `mapstructure:"relevance"`
	CacheDB     string `mapstructure:"cache_db"`
	Reports     string `mapstructure:"reports"`
}

// AudioConfig contains audio input settings
type AudioConfig struct {
	SampleRate int      `mapstructure:"sample_rate"`
	Extensions []string `mapstructure:"extensions"`
}

// SimilarityConfig contains distance and ranking settings
type SimilarityConfig struct {
	Metrics   []string `mapstructure:"metrics"`
	Kits      []string `mapstructure:"kits"`
	TopN      int      `mapstructure:"top_n"`
	Correlate bool     `mapstructure:"correlate"`
}

// MetadataConfig contains metadata table settings
type MetadataConfig struct {
	Columns      relevance.Columns `mapstructure:"columns"`
	Delimiter    string            `mapstructure:"delimiter"`
	TagDelimiter string            `mapstructure:"tag_delimiter"`
	Wrappers     string            `mapstructure:"wrappers"`
}

// Options converts the table settings for relevance.Load
func (m MetadataConfig) Options() relevance.Options {
	opts := relevance.DefaultOptions()
	if m.Delimiter != "" {
		opts.Delimiter = []rune(m.Delimiter)[0]
	}
	if m.TagDelimiter != "" {
		opts.TagDelimiter = m.TagDelimiter
	}
	opts.Wrappers = m.Wrappers
	return opts
}

// RuntimeConfig contains execution settings
type RuntimeConfig struct {
	Workers   int    `mapstructure:"workers"`
	Recompute bool   `mapstructure:"recompute"`
	LogLevel  string `mapstructure:"log_level"`
}

// LoadDotEnv loads environment files before viper reads the environment.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// BindEnv enables SONIDO_* overrides for every key of v
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load applies defaults, decodes v and validates the result
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Features.SampleRate = cfg.Audio.SampleRate
	cfg.Decoder.TargetSampleRate = cfg.Audio.SampleRate
	if cfg.Features.Workers == 0 {
		cfg.Features.Workers = cfg.Runtime.Workers
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would fail part way through a run
func Validate(cfg *Config) error {
	if cfg.Paths.Database == "" {
		return fmt.Errorf("paths.database is required")
	}
	if cfg.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", cfg.Audio.SampleRate)
	}
	if len(cfg.Audio.Extensions) == 0 {
		return fmt.Errorf("audio.extensions must not be empty")
	}
	if err := cfg.Features.Validate(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if err := cfg.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}

	if len(cfg.Similarity.Metrics) == 0 {
		return fmt.Errorf("similarity.metrics must not be empty")
	}
	for _, name := range cfg.Similarity.Metrics {
		if _, err := stats.ParseMetric(name); err != nil {
			return fmt.Errorf("similarity.metrics: %w", err)
		}
	}
	for _, kit := range cfg.Similarity.Kits {
		switch kit {
		case config.KitRoot, config.KitReference:
		default:
			return fmt.Errorf("similarity.kits: unknown kit %q", kit)
		}
	}
	if cfg.Similarity.TopN <= 0 {
		return fmt.Errorf("similarity.top_n must be positive, got %d", cfg.Similarity.TopN)
	}

	if cfg.Runtime.Workers < 0 {
		return fmt.Errorf("runtime.workers must not be negative, got %d", cfg.Runtime.Workers)
	}
	if _, err := logging.ParseLevel(cfg.Runtime.LogLevel); err != nil {
		return fmt.Errorf("runtime.log_level: %w", err)
	}
	return nil
}

// Metrics returns the parsed similarity metrics
func (c *Config) Metrics() []stats.Metric {
	metrics := make([]stats.Metric, 0, len(c.Similarity.Metrics))
	for _, name := range c.Similarity.Metrics {
		if m, err := stats.ParseMetric(name); err == nil {
			metrics = append(metrics, m)
		}
	}
	return metrics
}

// FeatureConfigFor returns a copy of the feature parameters using kit
func (c *Config) FeatureConfigFor(kit string) *config.FeatureConfig {
	fc := c.Features
	fc.Extractors = append([]string(nil), c.Features.Extractors...)
	fc.Kit = kit
	if kit == c.Features.Kit {
		return &fc
	}
	// the reference kit implements every slot, the root kit borrows from it
	if kit == config.KitReference {
		fc.FallbackKit = ""
	} else if fc.FallbackKit == "" {
		fc.FallbackKit = config.KitReference
	}
	return &fc
}
