package extractors

import (
	"github.com/RyanBlaney/sonido-mmir/fingerprint/analyzers"
)

// Feature names
const (
	FeatureMFCC      = "mfcc"
	FeatureCentroid  = "centroid"
	FeatureBandwidth = "bandwidth"
	FeatureContrast  = "contrast"
	FeatureFlatness  = "flatness"
	FeatureRolloff   = "rolloff"
	FeatureF0        = "f0"
	FeatureRMS       = "rms"
	FeatureZCR       = "zcr"
	FeatureTempo     = "tempo"
)

// seriesExtractor adapts a function returning dims x frames values
type seriesExtractor struct {
	name    string
	dims    int
	compute func(a *analyzers.Analysis) ([][]float64, error)
}

func (s *seriesExtractor) Name() string { return s.name }
func (s *seriesExtractor) Dims() int    { return s.dims }
func (s *seriesExtractor) Scalar() bool { return false }

func (s *seriesExtractor) Extract(a *analyzers.Analysis) (Trajectory, error) {
	values, err := s.compute(a)
	if err != nil {
		return Trajectory{}, err
	}
	return NewSeries(s.name, values...), nil
}

// spectralSeries builds a one-dimensional extractor over the magnitude
// spectrogram of kind
func spectralSeries(name string, kind analyzers.TransformKind, fn func(magnitude [][]float64) []float64) *seriesExtractor {
	return &seriesExtractor{
		name: name,
		dims: 1,
		compute: func(a *analyzers.Analysis) ([][]float64, error) {
			spec, err := a.Spectrogram(kind)
			if err != nil {
				return nil, err
			}
			return [][]float64{fn(spec.Magnitude)}, nil
		},
	}
}

// frameSeries builds a one-dimensional extractor over the frame set
func frameSeries(name string, fn func(a *analyzers.Analysis) []float64) *seriesExtractor {
	return &seriesExtractor{
		name: name,
		dims: 1,
		compute: func(a *analyzers.Analysis) ([][]float64, error) {
			return [][]float64{fn(a)}, nil
		},
	}
}

// scalarExtractor adapts a whole-waveform measurement
type scalarExtractor struct {
	name    string
	compute func(a *analyzers.Analysis) float64
}

func (s *scalarExtractor) Name() string { return s.name }
func (s *scalarExtractor) Dims() int    { return 1 }
func (s *scalarExtractor) Scalar() bool { return true }

func (s *scalarExtractor) Extract(a *analyzers.Analysis) (Trajectory, error) {
	return NewScalar(s.name, s.compute(a)), nil
}
