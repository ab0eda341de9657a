package configs

import (
	"github.com/spf13/viper"

	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/relevance"
	"github.com/RyanBlaney/sonido-mmir/transcode"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	// Paths
	v.SetDefault("paths.database", "data/database/all")
	v.SetDefault("paths.queries", "data/queries")
	v.SetDefault("paths.metadata", "data/database_info/metadata.csv")
	v.SetDefault("paths.precomputed", "")
	v.SetDefault("paths.features", "out/features")
	v.SetDefault("paths.distances", "out/distances")
	v.SetDefault("paths.relevance", "out/metadata/relevance.csv")
	v.SetDefault("paths.cache_db", "out/cache/rows.db")
	v.SetDefault("paths.reports", "out/reports")

	// Audio
	v.SetDefault("audio.sample_rate", 22050)
	v.SetDefault("audio.extensions", []string{".mp3", ".wav"})

	// Features
	features := config.DefaultFeatureConfig()
	v.SetDefault("features.window_type", features.WindowType)
	v.SetDefault("features.window_size", features.WindowSize)
	v.SetDefault("features.hop_ms", features.HopMillis)
	v.SetDefault("features.kit", features.Kit)
	v.SetDefault("features.fallback_kit", config.KitReference)
	v.SetDefault("features.extractors", features.Extractors)
	v.SetDefault("features.mfcc_coefficients", features.MFCCCoefficients)
	v.SetDefault("features.mel_filters", features.MelFilters)
	v.SetDefault("features.contrast_bands", features.ContrastBands)
	v.SetDefault("features.rolloff_threshold", features.RolloffThreshold)
	v.SetDefault("features.bandwidth_order", features.BandwidthOrder)
	v.SetDefault("features.pitch_min_freq", features.PitchMinFreq)
	v.SetDefault("features.pitch_max_freq", features.PitchMaxFreq)

	// Decoder
	decoder := transcode.DefaultDecoderConfig()
	v.SetDefault("decoder.max_duration", decoder.MaxDuration)
	v.SetDefault("decoder.resample_quality", decoder.ResampleQuality)
	v.SetDefault("decoder.ffmpeg_path", decoder.FFmpegPath)
	v.SetDefault("decoder.ffprobe_path", decoder.FFprobePath)
	v.SetDefault("decoder.timeout", decoder.Timeout)
	v.SetDefault("decoder.normalization_method", decoder.NormalizationMethod)
	v.SetDefault("decoder.target_lufs", decoder.TargetLUFS)
	v.SetDefault("decoder.target_peak", decoder.TargetPeak)
	v.SetDefault("decoder.loudness_range", decoder.LoudnessRange)

	// Similarity
	v.SetDefault("similarity.metrics", []string{"euclidean", "manhattan", "cosine"})
	v.SetDefault("similarity.kits", []string{config.KitRoot, config.KitReference})
	v.SetDefault("similarity.top_n", relevance.DefaultTopN)
	v.SetDefault("similarity.correlate", true)

	// Metadata
	columns := relevance.DefaultColumns()
	opts := relevance.DefaultOptions()
	v.SetDefault("metadata.columns.id", columns.ID)
	v.SetDefault("metadata.columns.artist", columns.Artist)
	v.SetDefault("metadata.columns.title", columns.Title)
	v.SetDefault("metadata.columns.quadrant", columns.Quadrant)
	v.SetDefault("metadata.columns.emotions", columns.Emotions)
	v.SetDefault("metadata.columns.genres", columns.Genres)
	v.SetDefault("metadata.delimiter", string(opts.Delimiter))
	v.SetDefault("metadata.tag_delimiter", opts.TagDelimiter)
	v.SetDefault("metadata.wrappers", opts.Wrappers)

	// Runtime
	v.SetDefault("runtime.workers", 0)
	v.SetDefault("runtime.recompute", false)
	v.SetDefault("runtime.log_level", "info")
}
