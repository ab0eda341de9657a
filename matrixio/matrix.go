// Package matrixio persists numeric matrices as headerless delimited text
// with an optional YAML manifest beside them.
package matrixio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Cell formats
const (
	FormatFloat   = "%f"
	FormatInteger = "%.f"
)

// ErrRagged is returned when rows of a matrix file differ in length
var ErrRagged = errors.New("ragged matrix")

// Write stores rows comma-delimited with format applied to every cell.
// Parent directories are created.
func Write(path string, rows [][]float64, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := Encode(w, rows, format); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// Encode writes rows to w
func Encode(w io.Writer, rows [][]float64, format string) error {
	writer := csv.NewWriter(w)
	record := []string{}
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, fmt.Sprintf(format, v))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Read loads a matrix file. Blank cells read as NaN.
func Read(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Decode parses comma-delimited numeric rows from r
func Decode(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(rows) > 0 && len(record) != len(rows[0]) {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrRagged, len(rows), len(record), len(rows[0]))
		}

		row := make([]float64, len(record))
		for j, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				row[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", len(rows), j, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Exists reports whether path is an existing regular file
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
