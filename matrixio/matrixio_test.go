package matrixio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "features.csv")
	rows := [][]float64{{0, 0.5, 1}, {0.25, 0.125, 0.75}}

	require.NoError(t, Write(path, rows, FormatFloat))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.000000,0.500000,1.000000\n0.250000,0.125000,0.750000\n", string(raw))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	assert.True(t, Exists(path))
	assert.False(t, Exists(filepath.Dir(path)))
}

func TestIntegerFormat(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Encode(&sb, [][]float64{{-1, 2, 3.6}}, FormatInteger))
	assert.Equal(t, "-1,2,4\n", sb.String())
}

func TestDecodeBlankAndRagged(t *testing.T) {
	rows, err := Decode(strings.NewReader("1,,3\n4,5,6\n"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rows[0][1]))
	assert.Equal(t, 6.0, rows[1][2])

	_, err = Decode(strings.NewReader("1,2,3\n4,5\n"))
	assert.True(t, errors.Is(err, ErrRagged))

	_, err = Decode(strings.NewReader("1,abc\n"))
	assert.Error(t, err)

	empty, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCheckCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	assert.Equal(t, CacheMiss, CheckCache(path, "k1", false))

	require.NoError(t, Write(path, [][]float64{{1}}, FormatFloat))
	assert.Equal(t, CacheUnverified, CheckCache(path, "k1", false))
	assert.True(t, CheckCache(path, "k1", false).Reuse())

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, WriteManifest(path, &Manifest{
		Kind:    KindFeatures,
		Key:     "k1",
		Rows:    1,
		Cols:    1,
		Files:   []string{"a.wav"},
		Failed:  []FailedItem{{Index: 0, File: "a.wav", Error: "boom"}},
		Created: created,
	}))
	assert.Equal(t, CacheHit, CheckCache(path, "k1", false))
	assert.Equal(t, CacheStale, CheckCache(path, "k2", false))
	assert.False(t, CheckCache(path, "k2", false).Reuse())
	assert.Equal(t, CacheMiss, CheckCache(path, "k1", true))

	m, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "boom", m.Failed[0].Error)
	assert.True(t, created.Equal(m.Created))

	require.NoError(t, os.WriteFile(ManifestPath(path), []byte("kind: [unclosed"), 0o644))
	assert.Equal(t, CacheStale, CheckCache(path, "k1", false))
	assert.Equal(t, "stale", CacheStale.String())
}
