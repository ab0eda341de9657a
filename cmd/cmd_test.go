package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
)

func TestTableRender(t *testing.T) {
	tb := &table{
		title:   "Ranking",
		headers: []string{"#", "file", "distance"},
		footer:  "Precision: 50.00",
	}
	tb.add("1", "MT0001.mp3", "0.1000")
	tb.add("2", "b.mp3", "12.5000")

	out := tb.render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "Ranking")
	assert.Contains(t, lines[3], "MT0001.mp3")
	assert.Contains(t, lines[5], "Precision: 50.00")
	assert.Equal(t, lipgloss.Width(lines[3]), lipgloss.Width(lines[4]), "rows are padded to the same width")
}

func TestParseMetrics(t *testing.T) {
	fallback := []stats.Metric{stats.Cosine}

	got, err := parseMetrics(nil, fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = parseMetrics([]string{"Manhattan", "euclidean"}, fallback)
	require.NoError(t, err)
	assert.Equal(t, []stats.Metric{stats.Manhattan, stats.Euclidean}, got)

	_, err = parseMetrics([]string{"jaccard"}, fallback)
	assert.True(t, errors.Is(err, stats.ErrUnsupportedMetric))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"features", "distances", "relevance", "rank", "evaluate", "correlate"} {
		assert.True(t, names[want], want)
	}
}
