package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryNames are the per-dimension statistics, in output order
var SummaryNames = []string{"mean", "std", "skew", "kurtosis", "median", "max", "min"}

// Summary holds the seven statistics of one feature dimension over time
type Summary struct {
	Mean     float64
	Std      float64 // population
	Skew     float64 // biased, m3/m2^1.5
	Kurtosis float64 // excess, biased, m4/m2^2 - 3
	Median   float64
	Max      float64
	Min      float64
}

// Values returns the statistics in SummaryNames order
func (s Summary) Values() []float64 {
	return []float64{s.Mean, s.Std, s.Skew, s.Kurtosis, s.Median, s.Max, s.Min}
}

// Summarize computes the summary of a sequence. Empty input gives all zeros;
// a constant sequence (including a single frame) has zero std, skew and
// kurtosis.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	mean, std := stat.PopMeanStdDev(values, nil)

	var m2, m3, m4 float64
	for _, v := range values {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	n := float64(len(values))
	m2 /= n
	m3 /= n
	m4 /= n

	s := Summary{
		Mean:   mean,
		Median: median(values),
		Max:    floats.Max(values),
		Min:    floats.Min(values),
	}
	if s.Max != s.Min && m2 > 0 {
		s.Std = std
		s.Skew = m3 / math.Pow(m2, 1.5)
		s.Kurtosis = m4/(m2*m2) - 3
	}
	return s
}

// SummarizeRows flattens a dims x frames matrix dimension-major: the seven
// statistics of row 0, then of row 1, and so on.
func SummarizeRows(rows [][]float64) []float64 {
	out := make([]float64, 0, len(rows)*len(SummaryNames))
	for _, row := range rows {
		out = append(out, Summarize(row).Values()...)
	}
	return out
}

// median averages the two middle values for even lengths
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
