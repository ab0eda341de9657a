package stats

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Metric names a pairwise distance between feature vectors
type Metric string

const (
	// Euclidean is the squared L2 distance; no square root is taken
	Euclidean Metric = "euclidean"
	Manhattan Metric = "manhattan"
	Cosine    Metric = "cosine"
)

// ErrUnsupportedMetric is returned for metric names outside Metrics()
var ErrUnsupportedMetric = errors.New("unsupported distance metric")

// Metrics lists the supported metrics in their canonical order
func Metrics() []Metric {
	return []Metric{Euclidean, Manhattan, Cosine}
}

// ParseMetric validates a metric name. It is meant to run before any
// distance work starts.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	switch m {
	case Euclidean, Manhattan, Cosine:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, name)
	}
}

// DistanceFunction computes the distance between two equal-length vectors
type DistanceFunction func(a, b []float64) float64

// GetDistanceFunction returns the kernel for metric
func GetDistanceFunction(metric Metric) (DistanceFunction, error) {
	switch metric {
	case Euclidean:
		return SquaredEuclideanDistanceFunc, nil
	case Manhattan:
		return ManhattanDistanceFunc, nil
	case Cosine:
		return CosineDistanceFunc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMetric, metric)
	}
}

// SquaredEuclideanDistanceFunc returns sum((a-b)^2)
func SquaredEuclideanDistanceFunc(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// ManhattanDistanceFunc calculates Manhattan (L1) distance between two points
func ManhattanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// CosineDistanceFunc calculates 1 - cosine similarity. A zero vector has no
// direction and is treated as maximally dissimilar (distance 1).
func CosineDistanceFunc(a, b []float64) float64 {
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - floats.Dot(a, b)/(normA*normB)
}

// DistanceMatrix computes the full pairwise matrix sequentially: upper
// triangle computed, lower mirrored, diagonal zero.
func DistanceMatrix(data [][]float64, metric Metric) ([][]float64, error) {
	distFunc, err := GetDistanceFunction(metric)
	if err != nil {
		return nil, err
	}

	n := len(data)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			d := distFunc(data[i], data[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}
	return matrix, nil
}
