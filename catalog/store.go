// Package catalog builds and persists the feature matrix of an audio corpus.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-mmir/fingerprint"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
	"github.com/RyanBlaney/sonido-mmir/transcode"
)

// Featurizer turns decoded audio into fixed-width vectors
type Featurizer interface {
	Generate(audio *transcode.AudioData) (fingerprint.FeatureVector, error)
	Layout() []string
	Config() *config.FeatureConfig
}

// FeatureMatrix is one row per corpus file, in listing order
type FeatureMatrix struct {
	// Key is the parameter key the rows were computed with; empty when unknown
	Key     string
	Files   []string
	Rows    [][]float64
	Columns []string
	Failed  []matrixio.FailedItem
}

// Index returns the row of file, or -1
func (fm *FeatureMatrix) Index(file string) int {
	for i, f := range fm.Files {
		if f == file {
			return i
		}
	}
	return -1
}

// FailedSet returns the row indices that were reserved for failed files
func (fm *FeatureMatrix) FailedSet() map[int]bool {
	set := make(map[int]bool, len(fm.Failed))
	for _, f := range fm.Failed {
		set[f.Index] = true
	}
	return set
}

// StoreOptions tunes a batch build
type StoreOptions struct {
	Extensions []string
	Workers    int
	Recompute  bool
}

// Store computes feature matrices with artifact and per-row caching
type Store struct {
	featurizer Featurizer
	decoder    transcode.Decoder
	cache      *RowCache
	opts       StoreOptions
	logger     logging.Logger
}

// NewStore creates a store. cache may be nil to disable row caching.
func NewStore(featurizer Featurizer, decoder transcode.Decoder, cache *RowCache, opts StoreOptions, logger logging.Logger) *Store {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Store{
		featurizer: featurizer,
		decoder:    decoder,
		cache:      cache,
		opts:       opts,
		logger:     logging.OrGlobal(logger, "feature_store"),
	}
}

// Key is the parameter key artifacts of this store are tagged with
func (s *Store) Key() string {
	return s.featurizer.Config().Key()
}

// Build returns the normalized feature matrix of every audio file in
// corpusDir, reusing outPath when its manifest key matches. Items that fail
// keep their row index with a zero row and are listed in Failed. A cancelled
// build writes nothing; finished rows stay in the row cache.
func (s *Store) Build(ctx context.Context, corpusDir, outPath string) (*FeatureMatrix, error) {
	logger := s.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Build",
		"corpus":   corpusDir,
		"output":   outPath,
	})

	key := s.Key()
	status := matrixio.CheckCache(outPath, key, s.opts.Recompute)
	switch status {
	case matrixio.CacheHit:
		logger.Info("Reusing feature matrix")
		return s.Load(outPath)
	case matrixio.CacheUnverified:
		logger.Warn("Reusing feature matrix without manifest; parameters unverified")
		matrix, err := s.Load(outPath)
		if err != nil {
			return nil, err
		}
		// without a manifest the listing order is the only file mapping
		if files, err := ListAudio(corpusDir, s.opts.Extensions); err == nil && len(files) == len(matrix.Rows) {
			matrix.Files = files
		}
		return matrix, nil
	case matrixio.CacheStale:
		logger.Info("Feature matrix was built with other parameters, rebuilding")
	}

	files, err := ListAudio(corpusDir, s.opts.Extensions)
	if err != nil {
		return nil, err
	}
	logger.Info("Extracting features", logging.Fields{"files": len(files), "workers": s.opts.Workers})

	rows := make([][]float64, len(files))
	var (
		mu     sync.Mutex
		failed []matrixio.FailedItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, name := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			vector, err := s.processItem(gctx, key, filepath.Join(corpusDir, name))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Error(err, "Feature extraction failed", logging.Fields{"index": i, "file": name})
				mu.Lock()
				failed = append(failed, matrixio.FailedItem{Index: i, File: name, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			rows[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feature extraction interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("feature extraction interrupted: %w", err)
	}

	sortFailed(failed)
	matrix := &FeatureMatrix{
		Key:     key,
		Files:   files,
		Rows:    rows,
		Columns: s.featurizer.Layout(),
		Failed:  failed,
	}
	s.finalize(matrix)

	if err := matrixio.Write(outPath, matrix.Rows, matrixio.FormatFloat); err != nil {
		return nil, err
	}
	if err := matrixio.WriteManifest(outPath, &matrixio.Manifest{
		Kind:    matrixio.KindFeatures,
		Key:     key,
		Rows:    len(matrix.Rows),
		Cols:    len(matrix.Columns),
		Files:   matrix.Files,
		Columns: matrix.Columns,
		Failed:  matrix.Failed,
		Created: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	logger.Info("Feature matrix written", logging.Fields{
		"rows":   len(matrix.Rows),
		"failed": len(matrix.Failed),
	})
	return matrix, nil
}

// finalize reserves failed rows, then sanitizes and normalizes in place
func (s *Store) finalize(matrix *FeatureMatrix) {
	width := len(matrix.Columns)
	skip := matrix.FailedSet()
	for i := range matrix.Rows {
		if matrix.Rows[i] == nil {
			matrix.Rows[i] = make([]float64, width)
		}
	}

	if replaced := Sanitize(matrix.Rows); replaced > 0 {
		s.logger.Warn("Replaced non-finite feature values", logging.Fields{"cells": replaced})
	}
	Normalize(matrix.Rows, skip)
}

func (s *Store) processItem(ctx context.Context, key, path string) ([]float64, error) {
	var rowKey string
	if s.cache != nil {
		var err error
		if rowKey, err = RowKey(key, path); err != nil {
			return nil, err
		}
		vector, ok, err := s.cache.Get(ctx, rowKey)
		if err != nil {
			s.logger.Warn("Row cache read failed", logging.Fields{"file": path, "error": err.Error()})
		} else if ok {
			return vector, nil
		}
	}

	audio, err := s.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	vector, err := s.featurizer.Generate(audio)
	if err != nil {
		return nil, fmt.Errorf("featurize: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, rowKey, filepath.Base(path), vector); err != nil {
			s.logger.Warn("Row cache write failed", logging.Fields{"file": path, "error": err.Error()})
		}
	}
	return vector, nil
}

// Load reads a feature matrix artifact and, when present, its manifest
func (s *Store) Load(path string) (*FeatureMatrix, error) {
	return LoadMatrix(path)
}

// LoadMatrix reads a matrix artifact without a store
func LoadMatrix(path string) (*FeatureMatrix, error) {
	rows, err := matrixio.Read(path)
	if err != nil {
		return nil, err
	}

	matrix := &FeatureMatrix{Rows: rows}
	manifest, err := matrixio.ReadManifest(path)
	switch {
	case err == nil:
		matrix.Key = manifest.Key
		matrix.Files = manifest.Files
		matrix.Columns = manifest.Columns
		matrix.Failed = manifest.Failed
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	return matrix, nil
}

func sortFailed(failed []matrixio.FailedItem) {
	sort.Slice(failed, func(a, b int) bool { return failed[a].Index < failed[b].Index })
}
