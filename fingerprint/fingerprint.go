package fingerprint

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/analyzers"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/extractors"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/transcode"
)

// ErrSampleRateMismatch is returned when audio is not at the configured rate
var ErrSampleRateMismatch = errors.New("sample rate mismatch")

// FeatureVector is one fixed-length fingerprint row
type FeatureVector []float64

// Generator turns waveforms into feature vectors. Extractors are resolved
// once at construction; Generate is safe for concurrent use.
type Generator struct {
	config     *config.FeatureConfig
	framer     *analyzers.Framer
	extractors []extractors.Extractor
	layout     []string
	logger     logging.Logger
}

// NewGenerator validates cfg and resolves its extractors from registry. A
// nil registry uses the built-in kits.
func NewGenerator(cfg *config.FeatureConfig, registry *extractors.Registry, logger logging.Logger) (*Generator, error) {
	if cfg == nil {
		cfg = config.DefaultFeatureConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}

	logger = logging.OrGlobal(logger, "fingerprint_generator")
	if registry == nil {
		registry = extractors.NewRegistry(logger)
	}

	framer, err := analyzers.NewFramer(cfg)
	if err != nil {
		return nil, err
	}

	resolved, err := registry.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		config:     cfg,
		framer:     framer,
		extractors: resolved,
		layout:     buildLayout(resolved),
		logger:     logger,
	}

	logger.Debug("Fingerprint generator ready", logging.Fields{
		"kit":     cfg.Kit,
		"columns": len(g.layout),
		"hop":     framer.HopSize(),
	})
	return g, nil
}

// Config returns the feature configuration
func (g *Generator) Config() *config.FeatureConfig {
	return g.config
}

// Layout returns the column names of every vector, in order
func (g *Generator) Layout() []string {
	return append([]string(nil), g.layout...)
}

// Width is len(Layout())
func (g *Generator) Width() int {
	return len(g.layout)
}

// Generate frames audio, runs every extractor and flattens the summaries
func (g *Generator) Generate(audio *transcode.AudioData) (FeatureVector, error) {
	if audio == nil {
		return nil, fmt.Errorf("audio data cannot be nil")
	}
	if audio.SampleRate != g.config.SampleRate {
		return nil, fmt.Errorf("%w: got %d Hz, want %d Hz", ErrSampleRateMismatch, audio.SampleRate, g.config.SampleRate)
	}
	if audio.Channels > 1 {
		return nil, fmt.Errorf("expected mono audio, got %d channels", audio.Channels)
	}

	logger := g.logger.WithFields(logging.Fields{
		"function": "Generate",
		"samples":  len(audio.PCM),
	})

	analysis, err := analyzers.NewAnalysis(audio.PCM, audio.SampleRate, g.framer, g.config.Workers, g.logger)
	if err != nil {
		return nil, err
	}

	vector := make(FeatureVector, 0, len(g.layout))
	for _, extractor := range g.extractors {
		trajectory, err := extractor.Extract(analysis)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", extractor.Name(), err)
		}

		if trajectory.Scalar {
			vector = append(vector, trajectory.Values[0][0])
			continue
		}

		if len(trajectory.Values) != extractor.Dims() {
			return nil, fmt.Errorf("%s: expected %d dimensions, got %d", extractor.Name(), extractor.Dims(), len(trajectory.Values))
		}

		replaced := 0
		for _, row := range trajectory.Values {
			replaced += common.ReplaceNonFinite(row)
		}
		if replaced > 0 {
			logger.Debug("Replaced non-finite frame values", logging.Fields{
				"feature":  extractor.Name(),
				"replaced": replaced,
			})
		}

		vector = append(vector, stats.SummarizeRows(trajectory.Values)...)
	}

	if len(vector) != len(g.layout) {
		return nil, fmt.Errorf("vector has %d columns, layout has %d", len(vector), len(g.layout))
	}

	logger.Debug("Fingerprint generated", logging.Fields{
		"frames":  analysis.Frames.Len(),
		"columns": len(vector),
	})
	return vector, nil
}
