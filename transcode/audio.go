package transcode

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedFormat is returned for files no decoder recognizes
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// AudioData is a decoded waveform. Decoders in this package always return
// mono samples in [-1, 1] at the configured target rate.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Metadata   *FileMetadata `json:"metadata,omitempty"`
}

// FileMetadata describes the source before conversion
type FileMetadata struct {
	Path           string `json:"path"`
	Format         string `json:"format"`
	Codec          string `json:"codec,omitempty"`
	SourceRate     int    `json:"source_rate"`
	SourceChannels int    `json:"source_channels"`
	BitDepth       int    `json:"bit_depth,omitempty"`
}

// Decoder turns an audio file into a mono waveform
type Decoder interface {
	DecodeFile(ctx context.Context, path string) (*AudioData, error)
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate" mapstructure:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration" mapstructure:"max_duration"`
	ResampleQuality  string        `json:"resample_quality" mapstructure:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path" mapstructure:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout" mapstructure:"timeout"`
	// NormalizationMethod is an optional ffmpeg loudness filter:
	// "loudnorm", "dynaudnorm" or empty for none
	NormalizationMethod string  `json:"normalization_method" mapstructure:"normalization_method"`
	TargetLUFS          float64 `json:"target_lufs" mapstructure:"target_lufs"`
	TargetPeak          float64 `json:"target_peak" mapstructure:"target_peak"`
	LoudnessRange       float64 `json:"loudness_range" mapstructure:"loudness_range"`
}

// DefaultDecoderConfig returns 22050 Hz mono decoding without loudness
// normalization
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 22050,
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          60 * time.Second,
		TargetLUFS:       -23.0,
		TargetPeak:       -2.0,
		LoudnessRange:    7.0,
	}
}

// Validate checks the fields every decoder relies on
func (c *DecoderConfig) Validate() error {
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", c.TargetSampleRate)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", c.Timeout)
	}
	return nil
}

// Downmix averages interleaved channels into one
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// conform downmixes and resamples decoded samples to the target format
func conform(interleaved []float64, sourceRate, channels int, cfg *DecoderConfig, meta *FileMetadata) (*AudioData, error) {
	mono := Downmix(interleaved, channels)

	if cfg.MaxDuration > 0 {
		limit := int(cfg.MaxDuration.Seconds() * float64(sourceRate))
		if limit < len(mono) {
			mono = mono[:limit]
		}
	}

	pcm, err := Resample(mono, sourceRate, cfg.TargetSampleRate)
	if err != nil {
		return nil, err
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: cfg.TargetSampleRate,
		Channels:   1,
		Duration:   samplesDuration(len(pcm), cfg.TargetSampleRate),
		Metadata:   meta,
	}, nil
}

func samplesDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
