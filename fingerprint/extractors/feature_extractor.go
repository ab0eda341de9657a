package extractors

import (
	"errors"
	"fmt"
	"sort"

	"github.com/RyanBlaney/sonido-mmir/fingerprint/analyzers"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/logging"
)

var (
	// ErrFeatureUnimplemented marks a feature slot a kit deliberately leaves
	// empty. Resolution fails unless a fallback kit provides the slot.
	ErrFeatureUnimplemented = errors.New("feature not implemented by kit")

	// ErrUnknownExtractor is returned for unknown kit or feature names
	ErrUnknownExtractor = errors.New("unknown extractor")
)

// Trajectory is the output of one extractor: dims x frames values, or a single
// scalar for the whole waveform.
type Trajectory struct {
	Name   string
	Values [][]float64
	Scalar bool
}

// NewSeries wraps per-frame values
func NewSeries(name string, values ...[]float64) Trajectory {
	return Trajectory{Name: name, Values: values}
}

// NewScalar wraps a single value
func NewScalar(name string, value float64) Trajectory {
	return Trajectory{Name: name, Values: [][]float64{{value}}, Scalar: true}
}

// Extractor computes one named feature from an analysis. Implementations
// must be safe for concurrent use; per-item state lives in the Analysis.
type Extractor interface {
	Name() string
	// Dims is the number of per-frame dimensions, 1 for scalars
	Dims() int
	Scalar() bool
	Extract(a *analyzers.Analysis) (Trajectory, error)
}

// Factory builds an extractor for a configuration
type Factory func(cfg *config.FeatureConfig) (Extractor, error)

// Registry maps kit and feature names to extractor factories
type Registry struct {
	kits   map[string]map[string]Factory
	logger logging.Logger
}

// NewRegistry returns a registry holding the root and reference kits
func NewRegistry(logger logging.Logger) *Registry {
	r := &Registry{
		kits:   make(map[string]map[string]Factory),
		logger: logging.OrGlobal(logger, "extractor_registry"),
	}
	registerRootKit(r)
	registerReferenceKit(r)
	return r
}

// Register adds or replaces a feature in kit. A nil factory marks the slot
// as unimplemented.
func (r *Registry) Register(kit, name string, factory Factory) {
	if r.kits[kit] == nil {
		r.kits[kit] = make(map[string]Factory)
	}
	r.kits[kit][name] = factory
}

// Kits returns the registered kit names, sorted
func (r *Registry) Kits() []string {
	names := make([]string, 0, len(r.kits))
	for name := range r.kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the extractors named by cfg.Extractors from cfg.Kit, in
// order. Unimplemented slots are taken from cfg.FallbackKit when set.
func (r *Registry) Resolve(cfg *config.FeatureConfig) ([]Extractor, error) {
	logger := r.logger.WithFields(logging.Fields{
		"function": "Resolve",
		"kit":      cfg.Kit,
		"fallback": cfg.FallbackKit,
	})

	kit, ok := r.kits[cfg.Kit]
	if !ok {
		return nil, fmt.Errorf("%w: kit %q", ErrUnknownExtractor, cfg.Kit)
	}

	var fallback map[string]Factory
	if cfg.FallbackKit != "" {
		if fallback, ok = r.kits[cfg.FallbackKit]; !ok {
			return nil, fmt.Errorf("%w: fallback kit %q", ErrUnknownExtractor, cfg.FallbackKit)
		}
	}

	out := make([]Extractor, 0, len(cfg.Extractors))
	seen := make(map[string]bool, len(cfg.Extractors))
	for _, name := range cfg.Extractors {
		if seen[name] {
			return nil, fmt.Errorf("feature %q listed twice", name)
		}
		seen[name] = true

		factory, ok := kit[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in kit %q", ErrUnknownExtractor, name, cfg.Kit)
		}

		if factory == nil {
			if fallback == nil || fallback[name] == nil {
				return nil, fmt.Errorf("%w: %q in kit %q", ErrFeatureUnimplemented, name, cfg.Kit)
			}
			logger.Info("Using fallback kit for feature", logging.Fields{"feature": name})
			factory = fallback[name]
		}

		extractor, err := factory(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %q extractor: %w", name, err)
		}
		out = append(out, extractor)
	}

	return out, nil
}
