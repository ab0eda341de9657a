package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Extractor kits
const (
	KitRoot      = "root"
	KitReference = "reference"
)

// DefaultExtractors is the feature order of a fingerprint
var DefaultExtractors = []string{
	"mfcc", "centroid", "bandwidth", "contrast", "flatness",
	"rolloff", "f0", "rms", "zcr", "tempo",
}

type FeatureConfig struct {
	// Framing
	SampleRate int     `json:"sample_rate" mapstructure:"sample_rate"`
	WindowType string  `json:"window_type" mapstructure:"window_type"`
	WindowSize int     `json:"window_size" mapstructure:"window_size"`
	HopMillis  float64 `json:"hop_ms" mapstructure:"hop_ms"`

	// Extractor selection
	Kit         string   `json:"kit" mapstructure:"kit"`
	FallbackKit string   `json:"fallback_kit" mapstructure:"fallback_kit"`
	Extractors  []string `json:"extractors" mapstructure:"extractors"`

	// Spectral parameters
	MFCCCoefficients int     `json:"mfcc_coefficients" mapstructure:"mfcc_coefficients"`
	MelFilters       int     `json:"mel_filters" mapstructure:"mel_filters"`
	ContrastBands    int     `json:"contrast_bands" mapstructure:"contrast_bands"`
	RolloffThreshold float64 `json:"rolloff_threshold" mapstructure:"rolloff_threshold"`
	BandwidthOrder   float64 `json:"bandwidth_order" mapstructure:"bandwidth_order"`

	// Pitch search bounds; PitchMaxFreq 0 means Nyquist
	PitchMinFreq float64 `json:"pitch_min_freq" mapstructure:"pitch_min_freq"`
	PitchMaxFreq float64 `json:"pitch_max_freq" mapstructure:"pitch_max_freq"`

	// Workers for per-frame spectral analysis; 0 picks from NumCPU
	Workers int `json:"workers" mapstructure:"workers"`
}

// DefaultFeatureConfig returns the 22050 Hz, 2048-sample Hann, 23.22 ms hop
// configuration
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		SampleRate:       22050,
		WindowType:       "hann",
		WindowSize:       2048,
		HopMillis:        23.22,
		Kit:              KitRoot,
		Extractors:       append([]string(nil), DefaultExtractors...),
		MFCCCoefficients: 13,
		MelFilters:       10,
		ContrastBands:    7,
		RolloffThreshold: 0.85,
		BandwidthOrder:   2,
		PitchMinFreq:     20,
	}
}

// Validate checks ranges; extractor and window names are resolved by their
// own registries.
func (c *FeatureConfig) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	case c.WindowSize < 2 || c.WindowSize%2 != 0:
		return fmt.Errorf("window_size must be an even number of at least 2, got %d", c.WindowSize)
	case c.HopMillis <= 0:
		return fmt.Errorf("hop_ms must be positive, got %g", c.HopMillis)
	case c.MFCCCoefficients <= 0:
		return fmt.Errorf("mfcc_coefficients must be positive, got %d", c.MFCCCoefficients)
	case c.MelFilters <= 0:
		return fmt.Errorf("mel_filters must be positive, got %d", c.MelFilters)
	case c.ContrastBands <= 0:
		return fmt.Errorf("contrast_bands must be positive, got %d", c.ContrastBands)
	case c.RolloffThreshold <= 0 || c.RolloffThreshold > 1:
		return fmt.Errorf("rolloff_threshold must be in (0, 1], got %g", c.RolloffThreshold)
	case c.BandwidthOrder <= 0:
		return fmt.Errorf("bandwidth_order must be positive, got %g", c.BandwidthOrder)
	case len(c.Extractors) == 0:
		return fmt.Errorf("at least one extractor is required")
	}
	return nil
}

// Key is a stable digest of every parameter that changes feature values.
// Cached artifacts are only reused when their key matches.
func (c *FeatureConfig) Key() string {
	keyed := *c
	keyed.Workers = 0

	raw, _ := json.Marshal(keyed)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
