// Package pipeline wires feature extraction, distances, relevance and
// ranking into one evaluation run over a corpus.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/catalog"
	"github.com/RyanBlaney/sonido-mmir/configs"
	"github.com/RyanBlaney/sonido-mmir/fingerprint"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/extractors"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/relevance"
	"github.com/RyanBlaney/sonido-mmir/similarity"
	"github.com/RyanBlaney/sonido-mmir/transcode"
)

// SourcePrecomputed names the feature matrix read from paths.precomputed
const SourcePrecomputed = "default"

// FeaturizerFactory builds the featurizer of one extractor kit
type FeaturizerFactory func(cfg *config.FeatureConfig) (catalog.Featurizer, error)

// source is a feature matrix and its distance matrices
type source struct {
	name      string
	features  *catalog.FeatureMatrix
	distances map[stats.Metric]similarity.DistanceMatrix
}

// Runner performs evaluation runs
type Runner struct {
	cfg           *configs.Config
	decoder       transcode.Decoder
	cache         *catalog.RowCache
	newFeaturizer FeaturizerFactory
	logger        logging.Logger
}

// NewRunner creates a runner. cache may be nil.
func NewRunner(cfg *configs.Config, decoder transcode.Decoder, cache *catalog.RowCache, logger logging.Logger) *Runner {
	logger = logging.OrGlobal(logger, "pipeline")
	registry := extractors.NewRegistry(logger)
	return &Runner{
		cfg:     cfg,
		decoder: decoder,
		cache:   cache,
		newFeaturizer: func(fc *config.FeatureConfig) (catalog.Featurizer, error) {
			return fingerprint.NewGenerator(fc, registry, logger)
		},
		logger: logger,
	}
}

// SetFeaturizerFactory replaces how featurizers are built
func (r *Runner) SetFeaturizerFactory(factory FeaturizerFactory) {
	r.newFeaturizer = factory
}

// Features builds or loads the feature matrix of kit
func (r *Runner) Features(ctx context.Context, kit string) (*catalog.FeatureMatrix, string, error) {
	featurizer, err := r.newFeaturizer(r.cfg.FeatureConfigFor(kit))
	if err != nil {
		return nil, "", fmt.Errorf("kit %s: %w", kit, err)
	}

	store := catalog.NewStore(featurizer, r.decoder, r.cache, catalog.StoreOptions{
		Extensions: r.cfg.Audio.Extensions,
		Workers:    r.cfg.Runtime.Workers,
		Recompute:  r.cfg.Runtime.Recompute,
	}, r.logger.WithFields(logging.Fields{"component": "feature_store", "kit": kit}))

	out := filepath.Join(r.cfg.Paths.Features, kit+".csv")
	matrix, err := store.Build(ctx, r.cfg.Paths.Database, out)
	if err != nil {
		return nil, "", fmt.Errorf("kit %s: %w", kit, err)
	}
	return matrix, out, nil
}

// Oracle loads the metadata ground truth
func (r *Runner) Oracle() (*relevance.Oracle, error) {
	oracle, err := relevance.Load(r.cfg.Paths.Metadata, r.cfg.Metadata.Columns, r.cfg.Metadata.Options())
	if err != nil {
		return nil, err
	}
	oracle.SetLogger(r.logger.WithFields(logging.Fields{"component": "relevance_oracle"}))
	return oracle, nil
}

// Run performs a full evaluation: relevance matrix, feature and distance
// matrices for every source, then rankings and precision for every query.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		Corpus:  r.cfg.Paths.Database,
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"run_id": report.RunID})
	logger := r.logger.WithContext(ctx).WithFields(logging.Fields{"function": "Run"})
	metrics := r.cfg.Metrics()

	oracle, err := r.Oracle()
	if err != nil {
		return nil, err
	}
	if _, err := oracle.BuildMatrix(r.cfg.Paths.Relevance, r.cfg.Runtime.Recompute); err != nil {
		return nil, fmt.Errorf("relevance matrix: %w", err)
	}

	var sources []*source
	if r.cfg.Paths.Precomputed != "" {
		out := filepath.Join(r.cfg.Paths.Features, SourcePrecomputed+".csv")
		matrix, err := catalog.ProcessPrecomputed(r.cfg.Paths.Precomputed, out, ',', r.cfg.Runtime.Recompute,
			r.logger.WithContext(ctx).WithFields(logging.Fields{"component": "precomputed_features"}))
		if err != nil {
			return nil, fmt.Errorf("precomputed features: %w", err)
		}
		sources = append(sources, &source{name: SourcePrecomputed, features: matrix})
		report.Features = append(report.Features, featureReport(SourcePrecomputed, out, matrix))
	}
	for _, kit := range r.cfg.Similarity.Kits {
		matrix, out, err := r.Features(ctx, kit)
		if err != nil {
			return nil, err
		}
		sources = append(sources, &source{name: kit, features: matrix})
		report.Features = append(report.Features, featureReport(kit, out, matrix))
	}

	engine := similarity.NewEngine(r.cfg.Runtime.Workers, r.cfg.Runtime.Recompute,
		r.logger.WithFields(logging.Fields{"component": "distance_engine"}))
	for _, src := range sources {
		src.distances = make(map[stats.Metric]similarity.DistanceMatrix, len(metrics))
		dir := filepath.Join(r.cfg.Paths.Distances, src.name)
		for _, metric := range metrics {
			m, err := engine.Build(ctx, src.features, dir, metric)
			if err != nil {
				return nil, fmt.Errorf("%s distances for %s: %w", metric, src.name, err)
			}
			src.distances[metric] = m
		}
	}

	queries, err := r.queries()
	if err != nil {
		return nil, err
	}
	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qr, err := r.evaluate(oracle, sources, metrics, query)
		if errors.Is(err, relevance.ErrUnknownQuery) {
			logger.Warn("Query has no metadata, skipping", logging.Fields{"query": query})
			report.Skipped = append(report.Skipped, query)
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(qr.Rankings) == 0 && len(sources) > 0 {
			logger.Warn("Query is not ranked by any source, skipping", logging.Fields{"query": query})
			report.Skipped = append(report.Skipped, query)
			continue
		}
		report.Queries = append(report.Queries, *qr)
	}
	report.Precision = summarize(report.Queries)

	if r.cfg.Similarity.Correlate {
		report.Correlations = r.correlate(sources, metrics)
	}

	report.Finished = time.Now().UTC()
	logger.Info("Evaluation finished", logging.Fields{
		"queries":  len(report.Queries),
		"skipped":  len(report.Skipped),
		"duration": report.Finished.Sub(report.Started).String(),
	})
	return report, nil
}

func (r *Runner) queries() ([]string, error) {
	if r.cfg.Paths.Queries == "" {
		return nil, nil
	}
	queries, err := catalog.ListAudio(r.cfg.Paths.Queries, r.cfg.Audio.Extensions)
	if err != nil {
		return nil, fmt.Errorf("queries: %w", err)
	}
	return queries, nil
}

func (r *Runner) evaluate(oracle *relevance.Oracle, sources []*source, metrics []stats.Metric, query string) (*QueryReport, error) {
	topN := r.cfg.Similarity.TopN
	relevant, err := oracle.Query(query, topN)
	if err != nil {
		return nil, err
	}
	relevantIDs := relevance.IDs(relevant)

	qr := &QueryReport{Query: query, Relevant: relevant}
	for _, src := range sources {
		failed := src.features.FailedSet()
		for _, metric := range metrics {
			ranking, err := similarity.RankQuery(src.distances[metric], src.features.Files, query, topN, failed)
			if errors.Is(err, similarity.ErrExcludedQuery) {
				r.logger.Warn("Query features failed, not ranked", logging.Fields{
					"query":  query,
					"source": src.name,
				})
				break
			}
			if err != nil {
				r.logger.Warn("Query is not ranked", logging.Fields{
					"query":  query,
					"source": src.name,
					"error":  err.Error(),
				})
				continue
			}
			qr.Rankings = append(qr.Rankings, RankingReport{
				Source:    src.name,
				Metric:    string(metric),
				Files:     ranking.Files,
				Distances: ranking.Distances,
				Precision: similarity.Precision(ranking.IDs(), relevantIDs),
			})
		}
	}
	return qr, nil
}

// correlate compares every pair of sources with the same row count
func (r *Runner) correlate(sources []*source, metrics []stats.Metric) []CorrelationReport {
	var out []CorrelationReport
	for i := range sources {
		for j := i + 1; j < len(sources); j++ {
			a, b := sources[i], sources[j]
			for _, metric := range metrics {
				coeffs, err := stats.CorrelateColumns(a.distances[metric], b.distances[metric])
				if err != nil {
					r.logger.Debug("Distance matrices are not comparable", logging.Fields{
						"a":      a.name,
						"b":      b.name,
						"metric": string(metric),
						"error":  err.Error(),
					})
					continue
				}
				out = append(out, CorrelationReport{
					Metric:  string(metric),
					A:       a.name,
					B:       b.name,
					Summary: stats.DescribeCorrelation(coeffs),
				})
			}
		}
	}
	return out
}

func featureReport(name, path string, m *catalog.FeatureMatrix) FeatureReport {
	cols := len(m.Columns)
	if cols == 0 && len(m.Rows) > 0 {
		cols = len(m.Rows[0])
	}
	return FeatureReport{Source: name, Path: path, Rows: len(m.Rows), Cols: cols, Failed: m.Failed}
}
