package extractors

import (
	"github.com/RyanBlaney/sonido-mmir/algorithms/spectral"
	"github.com/RyanBlaney/sonido-mmir/algorithms/temporal"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/analyzers"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
)

// registerReferenceKit installs the library-style implementations on the
// gonum spectrogram: rounded mel bank with natural log and liftering,
// normalized bandwidth, flatness ratio, energy rolloff, YIN pitch, true RMS
// and ZCR as a rate.
func registerReferenceKit(r *Registry) {
	kit := config.KitReference
	r.Register(kit, FeatureMFCC, func(cfg *config.FeatureConfig) (Extractor, error) {
		params := spectral.MFCCParams{
			NumCoefficients: cfg.MFCCCoefficients,
			NumMelFilters:   cfg.MelFilters,
			Log:             spectral.LogNatural,
			UseLiftering:    true,
		}
		return newMFCCExtractor(cfg, params, analyzers.TransformGonum, false)
	})
	r.Register(kit, FeatureCentroid, func(cfg *config.FeatureConfig) (Extractor, error) {
		centroid := spectral.NewSpectralCentroid(cfg.SampleRate)
		return spectralSeries(FeatureCentroid, analyzers.TransformGonum, centroid.ComputeFrames), nil
	})
	r.Register(kit, FeatureBandwidth, func(cfg *config.FeatureConfig) (Extractor, error) {
		return newBandwidthExtractor(cfg, analyzers.TransformGonum, true), nil
	})
	r.Register(kit, FeatureContrast, func(cfg *config.FeatureConfig) (Extractor, error) {
		contrast := spectral.NewSpectralContrast(cfg.SampleRate, cfg.ContrastBands)
		return &seriesExtractor{
			name: FeatureContrast,
			dims: contrast.NumBands(),
			compute: func(a *analyzers.Analysis) ([][]float64, error) {
				spec, err := a.Spectrogram(analyzers.TransformGonum)
				if err != nil {
					return nil, err
				}
				return contrast.ComputeFrames(spec.Magnitude), nil
			},
		}, nil
	})
	r.Register(kit, FeatureFlatness, func(cfg *config.FeatureConfig) (Extractor, error) {
		flatness := spectral.NewSpectralFlatness()
		return spectralSeries(FeatureFlatness, analyzers.TransformGonum, func(mag [][]float64) []float64 {
			return flatness.ComputeFrames(mag, false)
		}), nil
	})
	r.Register(kit, FeatureRolloff, func(cfg *config.FeatureConfig) (Extractor, error) {
		rolloff := spectral.NewSpectralRolloff(cfg.SampleRate)
		return spectralSeries(FeatureRolloff, analyzers.TransformGonum, func(mag [][]float64) []float64 {
			return rolloff.ComputeFrames(mag, cfg.RolloffThreshold, true)
		}), nil
	})
	r.Register(kit, FeatureF0, func(cfg *config.FeatureConfig) (Extractor, error) {
		estimator := temporal.NewYIN(cfg.SampleRate, cfg.PitchMinFreq, cfg.PitchMaxFreq)
		return frameSeries(FeatureF0, func(a *analyzers.Analysis) []float64 {
			return a.Temporal.Pitch(a.Frames, estimator)
		}), nil
	})
	r.Register(kit, FeatureRMS, func(cfg *config.FeatureConfig) (Extractor, error) {
		return frameSeries(FeatureRMS, func(a *analyzers.Analysis) []float64 {
			return a.Temporal.Energy(a.Frames, true)
		}), nil
	})
	r.Register(kit, FeatureZCR, func(cfg *config.FeatureConfig) (Extractor, error) {
		return frameSeries(FeatureZCR, func(a *analyzers.Analysis) []float64 {
			return a.Temporal.ZeroCrossings(a.Frames, true)
		}), nil
	})
	r.Register(kit, FeatureTempo, newTempoExtractor)
}
