package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
)

// ProcessPrecomputed reads a feature table exported by another tool: a header
// row, an id in the first column and a class label in the last. The numeric
// middle is sanitized, min-max normalized and written to outPath with a
// manifest. Files holds the id column in table order and Key is a digest of
// the table and delimiter; a matching artifact is reused unless recompute.
func ProcessPrecomputed(inPath, outPath string, delimiter rune, recompute bool, logger logging.Logger) (*FeatureMatrix, error) {
	logger = logging.OrGlobal(logger, "precomputed_features").WithFields(logging.Fields{
		"function": "ProcessPrecomputed",
		"input":    inPath,
		"output":   outPath,
	})

	raw, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", inPath, err)
	}
	h := sha256.New()
	h.Write(raw)
	h.Write([]byte(string(delimiter)))
	key := hex.EncodeToString(h.Sum(nil))

	switch matrixio.CheckCache(outPath, key, recompute) {
	case matrixio.CacheHit:
		logger.Info("Reusing precomputed feature matrix")
		return LoadMatrix(outPath)
	case matrixio.CacheUnverified:
		logger.Warn("Reusing precomputed feature matrix without manifest; table unverified")
		matrix, err := LoadMatrix(outPath)
		if err != nil {
			return nil, err
		}
		if table, err := DecodePrecomputed(bytes.NewReader(raw), delimiter); err == nil && len(table.Files) == len(matrix.Rows) {
			matrix.Files = table.Files
			matrix.Columns = table.Columns
		}
		return matrix, nil
	case matrixio.CacheStale:
		logger.Info("Precomputed table changed, rebuilding")
	}

	matrix, err := DecodePrecomputed(bytes.NewReader(raw), delimiter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inPath, err)
	}
	matrix.Key = key

	if replaced := Sanitize(matrix.Rows); replaced > 0 {
		logger.Warn("Replaced non-numeric table cells", logging.Fields{"cells": replaced})
	}
	Normalize(matrix.Rows, nil)

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
		Created: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	logger.Info("Precomputed feature matrix written", logging.Fields{"rows": len(matrix.Rows)})
	return matrix, nil
}

// DecodePrecomputed parses a precomputed feature table without normalizing it.
// Cells that are blank or not numbers read as NaN.
func DecodePrecomputed(r io.Reader, delimiter rune) (*FeatureMatrix, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("expected id, features and label columns, got %d columns", len(header))
	}

	matrix := &FeatureMatrix{Columns: append([]string(nil), header[1:len(header)-1]...)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]float64, len(record)-2)
		for j, cell := range record[1 : len(record)-1] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				v = math.NaN()
			}
			row[j] = v
		}
		matrix.Files = append(matrix.Files, strings.Trim(record[0], `"'`))
		matrix.Rows = append(matrix.Rows, row)
	}
	return matrix, nil
}
