package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationSummary describes a set of correlation coefficients
type CorrelationSummary struct {
	Mean float64 `yaml:"mean" json:"mean"`
	Std  float64 `yaml:"std" json:"std"`
	Max  float64 `yaml:"max" json:"max"`
	Min  float64 `yaml:"min" json:"min"`
}

// CorrelateColumns returns the Pearson coefficient between column j of a and
// column j of b for every column. NaN entries are read as 0, and a column
// with no variance in either matrix correlates as 0.
func CorrelateColumns(a, b [][]float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("row count mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return []float64{}, nil
	}

	cols := len(a[0])
	for i := range a {
		if len(a[i]) != cols || len(b[i]) != cols {
			return nil, fmt.Errorf("row %d: column count mismatch", i)
		}
	}

	x := make([]float64, len(a))
	y := make([]float64, len(b))
	out := make([]float64, cols)
	for j := range cols {
		for i := range a {
			x[i] = nanToZero(a[i][j])
			y[i] = nanToZero(b[i][j])
		}
		r := stat.Correlation(x, y, nil)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			r = 0
		}
		out[j] = r
	}
	return out, nil
}

// DescribeCorrelation summarizes coefficients with population std
func DescribeCorrelation(r []float64) CorrelationSummary {
	s := Summarize(r)
	return CorrelationSummary{Mean: s.Mean, Std: s.Std, Max: s.Max, Min: s.Min}
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
