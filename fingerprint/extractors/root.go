package extractors

import (
	"fmt"

	"github.com/RyanBlaney/sonido-mmir/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mmir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/analyzers"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
)

// registerRootKit installs the from-scratch formulas on the go-dsp
// spectrogram. Contrast has no root formula.
func registerRootKit(r *Registry) {
	kit := config.KitRoot
	r.Register(kit, FeatureMFCC, func(cfg *config.FeatureConfig) (Extractor, error) {
		params := spectral.DefaultMFCCParams()
		params.NumCoefficients = cfg.MFCCCoefficients
		params.NumMelFilters = cfg.MelFilters
		return newMFCCExtractor(cfg, params, analyzers.TransformDSP, true)
	})
	r.Register(kit, FeatureCentroid, func(cfg *config.FeatureConfig) (Extractor, error) {
		centroid := spectral.NewSpectralCentroid(cfg.SampleRate)
		return spectralSeries(FeatureCentroid, analyzers.TransformDSP, centroid.ComputeFrames), nil
	})
	r.Register(kit, FeatureBandwidth, func(cfg *config.FeatureConfig) (Extractor, error) {
		return newBandwidthExtractor(cfg, analyzers.TransformDSP, false), nil
	})
	r.Register(kit, FeatureContrast, nil)
	r.Register(kit, FeatureFlatness, func(cfg *config.FeatureConfig) (Extractor, error) {
		flatness := spectral.NewSpectralFlatness()
		return spectralSeries(FeatureFlatness, analyzers.TransformDSP, func(mag [][]float64) []float64 {
			return flatness.ComputeFrames(mag, true)
		}), nil
	})
	r.Register(kit, FeatureRolloff, func(cfg *config.FeatureConfig) (Extractor, error) {
		rolloff := spectral.NewSpectralRolloff(cfg.SampleRate)
		return spectralSeries(FeatureRolloff, analyzers.TransformDSP, func(mag [][]float64) []float64 {
			return rolloff.BinFrames(mag, cfg.RolloffThreshold)
		}), nil
	})
	r.Register(kit, FeatureF0, func(cfg *config.FeatureConfig) (Extractor, error) {
		estimator := temporal.NewAutocorrelationPitch(cfg.SampleRate)
		return frameSeries(FeatureF0, func(a *analyzers.Analysis) []float64 {
			return a.Temporal.Pitch(a.Frames, estimator)
		}), nil
	})
	r.Register(kit, FeatureRMS, func(cfg *config.FeatureConfig) (Extractor, error) {
		return frameSeries(FeatureRMS, func(a *analyzers.Analysis) []float64 {
			return a.Temporal.Energy(a.Frames, false)
		}), nil
	})
	r.Register(kit, FeatureZCR, func(cfg *config.FeatureConfig) (Extractor, error) {
		return frameSeries(FeatureZCR, func(a *analyzers.Analysis) []float64 {
			return a.Temporal.ZeroCrossings(a.Frames, false)
		}), nil
	})
	r.Register(kit, FeatureTempo, newTempoExtractor)
}

// mfccExtractor runs a pre-initialized MFCC over the power spectrogram. With
// peakNormalize the power is divided by peak², which equals framing the
// peak-normalized waveform.
type mfccExtractor struct {
	mfcc          *spectral.MFCC
	kind          analyzers.TransformKind
	dims          int
	peakNormalize bool
}

func newMFCCExtractor(cfg *config.FeatureConfig, params spectral.MFCCParams, kind analyzers.TransformKind, peakNormalize bool) (*mfccExtractor, error) {
	mfcc := spectral.NewMFCCWithParams(cfg.SampleRate, params)
	if err := mfcc.Initialize(cfg.WindowSize); err != nil {
		return nil, err
	}
	return &mfccExtractor{
		mfcc:          mfcc,
		kind:          kind,
		dims:          mfcc.GetParams().NumCoefficients,
		peakNormalize: peakNormalize,
	}, nil
}

func (m *mfccExtractor) Name() string { return FeatureMFCC }
func (m *mfccExtractor) Dims() int    { return m.dims }
func (m *mfccExtractor) Scalar() bool { return false }

func (m *mfccExtractor) Extract(a *analyzers.Analysis) (Trajectory, error) {
	spec, err := a.Spectrogram(m.kind)
	if err != nil {
		return Trajectory{}, err
	}

	power := spec.Power
	if peak := a.Peak(); m.peakNormalize && peak > 0 {
		scale := 1 / (peak * peak)
		power = make([][]float64, len(spec.Power))
		for t, frame := range spec.Power {
			scaled := make([]float64, len(frame))
			for k, v := range frame {
				scaled[k] = v * scale
			}
			power[t] = scaled
		}
	}

	coeffs, err := m.mfcc.ComputeFrames(power)
	if err != nil {
		return Trajectory{}, fmt.Errorf("mfcc: %w", err)
	}
	return NewSeries(FeatureMFCC, coeffs...), nil
}

func newBandwidthExtractor(cfg *config.FeatureConfig, kind analyzers.TransformKind, corrected bool) Extractor {
	centroid := spectral.NewSpectralCentroid(cfg.SampleRate)
	bandwidth := spectral.NewSpectralBandwidth(cfg.SampleRate, cfg.BandwidthOrder)
	return spectralSeries(FeatureBandwidth, kind, func(mag [][]float64) []float64 {
		return bandwidth.ComputeFrames(mag, centroid.ComputeFrames(mag), corrected)
	})
}

func newTempoExtractor(cfg *config.FeatureConfig) (Extractor, error) {
	tempo := temporal.NewTempoEstimation()
	return &scalarExtractor{
		name: FeatureTempo,
		compute: func(a *analyzers.Analysis) float64 {
			return tempo.EstimateTempoAutocorrelation(a.Signal, a.SampleRate)
		},
	}, nil
}
