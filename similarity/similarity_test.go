package similarity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/catalog"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
)

var rows = [][]float64{
	{0, 0, 1},
	{3, 4, 0},
	{1, 1, 1},
	{0, 0, 0},
	{0.5, 0.25, 0.75},
}

func TestSelfDistanceSymmetric(t *testing.T) {
	engine := NewEngine(3, false, &logging.NoOpLogger{})

	for _, metric := range stats.Metrics() {
		t.Run(string(metric), func(t *testing.T) {
			m, err := engine.SelfDistance(context.Background(), rows, metric)
			require.NoError(t, err)
			require.Equal(t, len(rows), m.Size())

			want, err := stats.DistanceMatrix(rows, metric)
			require.NoError(t, err)

			for i := range m {
				assert.Equal(t, 0.0, m[i][i])
				for j := range m {
					assert.Equal(t, m[i][j], m[j][i])
					assert.InDelta(t, want[i][j], m[i][j], 1e-12)
				}
			}
		})
	}
}

func TestSelfDistanceValues(t *testing.T) {
	engine := NewEngine(0, false, nil)
	ctx := context.Background()

	m, err := engine.SelfDistance(ctx, [][]float64{{0, 0}, {3, 4}}, stats.Euclidean)
	require.NoError(t, err)
	assert.Equal(t, 25.0, m[0][1])

	m, err = engine.SelfDistance(ctx, [][]float64{{0, 0}, {3, 4}}, stats.Manhattan)
	require.NoError(t, err)
	assert.Equal(t, 7.0, m[1][0])

	m, err = engine.SelfDistance(ctx, [][]float64{{1, 0}, {0, 1}, {0, 0}}, stats.Cosine)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m[0][1], 1e-12)
	assert.Equal(t, 1.0, m[0][2])
	assert.Equal(t, 0.0, m[2][2])

	empty, err := engine.SelfDistance(ctx, nil, stats.Cosine)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSelfDistanceErrors(t *testing.T) {
	engine := NewEngine(1, false, &logging.NoOpLogger{})

	_, err := engine.SelfDistance(context.Background(), rows, stats.Metric("chebyshev"))
	assert.True(t, errors.Is(err, stats.ErrUnsupportedMetric))

	_, err = engine.SelfDistance(context.Background(), [][]float64{{1, 2}, {3}}, stats.Euclidean)
	assert.True(t, errors.Is(err, matrixio.ErrRagged))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.SelfDistance(ctx, rows, stats.Euclidean)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuildCaches(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "distances", "root")
	features := &catalog.FeatureMatrix{
		Key:   "features-v1",
		Files: []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3"},
		Rows:  rows,
	}
	engine := NewEngine(2, false, &logging.NoOpLogger{})

	m, err := engine.Build(context.Background(), features, dir, stats.Manhattan)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "manhattan.csv"), Path(dir, stats.Manhattan))

	manifest, err := matrixio.ReadManifest(Path(dir, stats.Manhattan))
	require.NoError(t, err)
	assert.Equal(t, matrixio.KindDistances, manifest.Kind)
	assert.Equal(t, Key("features-v1", stats.Manhattan), manifest.Key)
	assert.Equal(t, features.Files, manifest.Files)

	// a cached artifact is returned even if the rows changed under the same key
	features.Rows = [][]float64{{9, 9, 9}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	cached, err := engine.Build(context.Background(), features, dir, stats.Manhattan)
	require.NoError(t, err)
	assert.InDelta(t, m[0][1], cached[0][1], 1e-6)

	features.Key = "features-v2"
	rebuilt, err := engine.Build(context.Background(), features, dir, stats.Manhattan)
	require.NoError(t, err)
	assert.Equal(t, 27.0, rebuilt[0][1])

	loaded, err := Load(Path(dir, stats.Manhattan))
	require.NoError(t, err)
	assert.Equal(t, 27.0, loaded[1][0])

	_, err = engine.Build(context.Background(), features, dir, stats.Metric("hamming"))
	assert.True(t, errors.Is(err, stats.ErrUnsupportedMetric))
}

func TestLoadRejectsNonSquare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cosine.csv")
	require.NoError(t, matrixio.Write(path, [][]float64{{0, 1, 2}, {1, 0, 3}}, matrixio.FormatFloat))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	files := []string{"q.mp3", "a.mp3", "b.mp3", "c.mp3", "d.mp3"}
	row := []float64{0, 0.5, 0.2, 0.5, 0.1}

	r, err := Rank(row, files, 3, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"d.mp3", "b.mp3", "a.mp3"}, r.Files)
	assert.Equal(t, []float64{0.1, 0.2, 0.5}, r.Distances)
	assert.Equal(t, []int{4, 2, 1}, r.Indices)
	assert.Equal(t, []string{"d", "b", "a"}, r.IDs())

	withSelf, err := Rank(row, files, 3, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, "q.mp3", withSelf.Files[0])

	all, err := Rank(row, files, 100, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len())
	assert.Equal(t, []string{"d.mp3", "b.mp3", "a.mp3", "c.mp3"}, all.Files, "ties keep file order")

	_, err = Rank(row[:2], files, 3, 0, nil)
	assert.Error(t, err)
	_, err = Rank(row, files, 3, 9, nil)
	assert.Error(t, err)
}

func TestRankQuery(t *testing.T) {
	files := []string{"a.mp3", "b.mp3", "c.mp3"}
	m := DistanceMatrix{
		{0, 2, 1},
		{2, 0, 3},
		{1, 3, 0},
	}

	r, err := RankQuery(m, files, "MT/b.mp3", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3", "c.mp3"}, r.Files)
	assert.NotContains(t, r.Files, "b.mp3")

	r, err = RankQuery(m, files, "c", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp3"}, r.Files)

	_, err = RankQuery(m, files, "z.mp3", 1, nil)
	assert.Error(t, err)
	_, err = RankQuery(m[:2], files, "a.mp3", 1, nil)
	assert.Error(t, err)
}

func TestRankQueryExcludesFailedRows(t *testing.T) {
	files := []string{"a.mp3", "broken.mp3", "c.mp3", "d.mp3"}
	features := [][]float64{
		{0.2, 0.3},
		{0, 0},
		{0.9, 0.8},
		{0.5, 0.6},
	}
	failed := map[int]bool{1: true}
	catalog.Normalize(features, failed)

	m, err := NewEngine(2, false, &logging.NoOpLogger{}).SelfDistance(context.Background(), features, stats.Euclidean)
	require.NoError(t, err)

	// the reserved zero row sits on the column minima, next to a.mp3
	unfiltered, err := RankQuery(m, files, "a.mp3", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, "broken.mp3", unfiltered.Files[0])

	r, err := RankQuery(m, files, "a.mp3", 2, failed)
	require.NoError(t, err)
	assert.Equal(t, []string{"d.mp3", "c.mp3"}, r.Files)
	assert.Equal(t, []int{3, 2}, r.Indices)

	all, err := RankQuery(m, files, "c.mp3", 10, failed)
	require.NoError(t, err)
	assert.NotContains(t, all.Files, "broken.mp3")
	assert.Equal(t, 2, all.Len())

	_, err = RankQuery(m, files, "broken", 2, failed)
	assert.True(t, errors.Is(err, ErrExcludedQuery))
}

func TestIndexOfAndTrimExtension(t *testing.T) {
	files := []string{"MT0001.mp3", "MT0002.mp3"}
	assert.Equal(t, 1, IndexOf(files, "MT0002.mp3"))
	assert.Equal(t, 0, IndexOf(files, "MT0001"))
	assert.Equal(t, -1, IndexOf(files, "MT0003"))
	assert.Equal(t, 1, IndexOf([]string{"MT0001", "MT0002"}, "queries/MT0002.mp3"))
	assert.Equal(t, "MT0001", TrimExtension("MT0001.mp3"))
	assert.Equal(t, "MT0001", TrimExtension("MT0001"))
}

func TestPrecision(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		relevant  []string
		want      float64
	}{
		{"two of three", []string{"a", "b", "c"}, []string{"a", "b", "d"}, 200.0 / 3},
		{"longer relevant list", []string{"a"}, []string{"a", "b", "c", "d"}, 25},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"both empty", nil, nil, 0},
		{"duplicates count once", []string{"a", "a"}, []string{"a", "b"}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Precision(tt.retrieved, tt.relevant), 1e-9)
		})
	}
}
