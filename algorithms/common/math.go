package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// MinMaxNormalize maps data onto [0, 1]. Constant data maps to all zeros.
func MinMaxNormalize(data []float64) []float64 {
	normalized := make([]float64, len(data))
	if len(data) == 0 {
		return normalized
	}

	lo := floats.Min(data)
	hi := floats.Max(data)
	if hi == lo {
		return normalized
	}

	for i, val := range data {
		normalized[i] = (val - lo) / (hi - lo)
	}
	return normalized
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ReplaceNonFinite sets NaN and +/-Inf entries to 0 in place and returns the
// number of entries replaced.
func ReplaceNonFinite(data []float64) int {
	replaced := 0
	for i, v := range data {
		if !IsFinite(v) {
			data[i] = 0
			replaced++
		}
	}
	return replaced
}

// ArgMax returns the index of the first maximum, or -1 for empty input
func ArgMax(data []float64) int {
	if len(data) == 0 {
		return -1
	}
	return floats.MaxIdx(data)
}

// ParabolicInterpolation refines a peak (or trough) index using its two
// neighbours: x + 0.5*(y[x-1]-y[x+1])/(y[x-1]-2y[x]+y[x+1]). Edge indices and
// flat neighbourhoods return the index unchanged.
func ParabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1, y2, y3 := data[idx-1], data[idx], data[idx+1]
	denom := y1 - 2*y2 + y3
	if denom == 0 {
		return float64(idx)
	}
	return 0.5*(y1-y3)/denom + float64(idx)
}

// ReflectIndex maps any integer index onto [0, n) by mirror reflection
// without repeating the edge sample (numpy "reflect" padding).
func ReflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
