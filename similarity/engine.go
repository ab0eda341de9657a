// Package similarity computes pairwise distances over a feature matrix and
// ranks catalog items against a query.
package similarity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/catalog"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
)

// DistanceMatrix is square and symmetric with a zero diagonal
type DistanceMatrix [][]float64

// Size returns the number of items
func (m DistanceMatrix) Size() int {
	return len(m)
}

// Engine builds distance matrices with a bounded worker pool
type Engine struct {
	workers   int
	recompute bool
	logger    logging.Logger
}

// NewEngine creates an engine. workers <= 0 uses NumCPU.
func NewEngine(workers int, recompute bool, logger logging.Logger) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		workers:   workers,
		recompute: recompute,
		logger:    logging.OrGlobal(logger, "distance_engine"),
	}
}

// SelfDistance computes the distance between every pair of rows. Each job
// owns row i: it computes cells j > i and mirrors them into row j, so no two
// jobs ever write the same cell.
func (e *Engine) SelfDistance(ctx context.Context, rows [][]float64, metric stats.Metric) (DistanceMatrix, error) {
	distFunc, err := stats.GetDistanceFunction(metric)
	if err != nil {
		return nil, err
	}

	n := len(rows)
	if n > 0 {
		width := len(rows[0])
		for i, row := range rows {
			if len(row) != width {
				return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), width, matrixio.ErrRagged)
			}
		}
	}

	matrix := make(DistanceMatrix, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				d := distFunc(rows[i], rows[j])
				matrix[i][j] = d
				matrix[j][i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("distance computation interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("distance computation interrupted: %w", err)
	}
	return matrix, nil
}

// Path returns where Build stores the matrix for metric
func Path(outDir string, metric stats.Metric) string {
	return filepath.Join(outDir, string(metric)+".csv")
}

// Key tags a distance artifact with the features it was computed from
func Key(featureKey string, metric stats.Metric) string {
	sum := sha256.Sum256([]byte(featureKey + "\x00" + string(metric)))
	return hex.EncodeToString(sum[:])
}

// Build returns the distance matrix of features under metric, stored at
// <outDir>/<metric>.csv. An existing artifact is reused under the same rules
// as feature matrices.
func (e *Engine) Build(ctx context.Context, features *catalog.FeatureMatrix, outDir string, metric stats.Metric) (DistanceMatrix, error) {
	if features == nil {
		return nil, fmt.Errorf("nil feature matrix")
	}
	if _, err := stats.GetDistanceFunction(metric); err != nil {
		return nil, err
	}

	path := Path(outDir, metric)
	key := Key(features.Key, metric)
	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Build",
		"metric":   string(metric),
		"output":   path,
	})

	switch matrixio.CheckCache(path, key, e.recompute) {
	case matrixio.CacheHit:
		logger.Debug("Reusing distance matrix")
		return Load(path)
	case matrixio.CacheUnverified:
		logger.Warn("Reusing distance matrix without manifest; parameters unverified")
		return Load(path)
	case matrixio.CacheStale:
		logger.Info("Distance matrix was built from other features, rebuilding")
	}

	logger.Info("Calculating distances", logging.Fields{"rows": len(features.Rows)})
	matrix, err := e.SelfDistance(ctx, features.Rows, metric)
	if err != nil {
		return nil, err
	}

	if err := matrixio.Write(path, matrix, matrixio.FormatFloat); err != nil {
		return nil, err
	}
	if err := matrixio.WriteManifest(path, &matrixio.Manifest{
		Kind:    matrixio.KindDistances,
		Key:     key,
		Rows:    len(matrix),
		Cols:    len(matrix),
		Files:   features.Files,
		Created: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return matrix, nil
}

// Load reads a distance matrix and checks that it is square
func Load(path string) (DistanceMatrix, error) {
	rows, err := matrixio.Read(path)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != len(rows) {
			return nil, fmt.Errorf("%s: row %d has %d cells in a %d-row matrix", path, i, len(row), len(rows))
		}
	}
	return DistanceMatrix(rows), nil
}
