package similarity

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrExcludedQuery is returned when the query's own row was not computed
var ErrExcludedQuery = errors.New("query row is excluded from ranking")

// Ranking lists the nearest items of a query, closest first
type Ranking struct {
	Indices   []int     `yaml:"-" json:"-"`
	Files     []string  `yaml:"files" json:"files"`
	Distances []float64 `yaml:"distances" json:"distances"`
}

// Len returns the number of ranked items
func (r Ranking) Len() int {
	return len(r.Files)
}

// IDs returns the ranked file names without their extensions
func (r Ranking) IDs() []string {
	ids := make([]string, len(r.Files))
	for i, f := range r.Files {
		ids[i] = TrimExtension(f)
	}
	return ids
}

// Rank orders files by ascending distance in row and keeps the first n. Ties
// keep file order. When self >= 0 that index is left out of the ranking;
// with self < 0 the query itself usually ranks first, so callers ask for n+1.
// Indices in exclude, such as rows reserved for files that failed
// extraction, are never ranked.
func Rank(row []float64, files []string, n, self int, exclude map[int]bool) (Ranking, error) {
	if len(row) != len(files) {
		return Ranking{}, fmt.Errorf("distance row has %d cells for %d files", len(row), len(files))
	}
	if self >= len(files) {
		return Ranking{}, fmt.Errorf("query index %d out of range", self)
	}

	order := make([]int, 0, len(row))
	for i := range row {
		if i != self && !exclude[i] {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return row[order[a]] < row[order[b]] })

	if n >= 0 && n < len(order) {
		order = order[:n]
	}

	ranking := Ranking{
		Indices:   order,
		Files:     make([]string, len(order)),
		Distances: make([]float64, len(order)),
	}
	for k, i := range order {
		ranking.Files[k] = files[i]
		ranking.Distances[k] = row[i]
	}
	return ranking, nil
}

// RankQuery ranks the catalog against the item named query, leaving the
// query itself and the excluded rows out
func RankQuery(matrix DistanceMatrix, files []string, query string, n int, exclude map[int]bool) (Ranking, error) {
	if len(matrix) != len(files) {
		return Ranking{}, fmt.Errorf("distance matrix has %d rows for %d files", len(matrix), len(files))
	}
	idx := IndexOf(files, query)
	if idx < 0 {
		return Ranking{}, fmt.Errorf("query %q is not in the catalog", query)
	}
	if exclude[idx] {
		return Ranking{}, fmt.Errorf("%w: %s", ErrExcludedQuery, query)
	}
	return Rank(matrix[idx], files, n, idx, exclude)
}

// IndexOf returns the position of name in files, or -1. An exact match wins,
// otherwise names are compared without their extensions.
func IndexOf(files []string, name string) int {
	name = filepath.Base(name)
	for i, f := range files {
		if f == name {
			return i
		}
	}
	id := TrimExtension(name)
	for i, f := range files {
		if TrimExtension(f) == id {
			return i
		}
	}
	return -1
}

// TrimExtension removes the final extension from name
func TrimExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
