package catalog

import (
	"github.com/RyanBlaney/sonido-mmir/algorithms/common"
)

// Sanitize replaces NaN and ±Inf with 0 in place and returns how many cells
// changed
func Sanitize(rows [][]float64) int {
	replaced := 0
	for _, row := range rows {
		replaced += common.ReplaceNonFinite(row)
	}
	return replaced
}

// Normalize min-max scales every column of rows to [0, 1] in place. Rows in
// skip take no part in the min and max and are left at zero. A constant
// column becomes all zeros.
func Normalize(rows [][]float64, skip map[int]bool) {
	if len(rows) == 0 {
		return
	}

	var included []int
	for i := range rows {
		if skip[i] {
			for j := range rows[i] {
				rows[i][j] = 0
			}
			continue
		}
		included = append(included, i)
	}
	if len(included) == 0 {
		return
	}

	cols := len(rows[included[0]])
	column := make([]float64, len(included))
	for j := range cols {
		for k, i := range included {
			column[k] = rows[i][j]
		}
		scaled := common.MinMaxNormalize(column)
		for k, i := range included {
			rows[i][j] = scaled[k]
		}
	}
}
