package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
	"github.com/RyanBlaney/sonido-mmir/relevance"
)

// Report is the outcome of one evaluation run
type Report struct {
	RunID        string              `yaml:"run_id"`
	Started      time.Time           `yaml:"started"`
	Finished     time.Time           `yaml:"finished"`
	Corpus       string              `yaml:"corpus"`
	Features     []FeatureReport     `yaml:"features"`
	Queries      []QueryReport       `yaml:"queries"`
	Precision    []PrecisionSummary  `yaml:"precision"`
	Correlations []CorrelationReport `yaml:"correlations,omitempty"`
	Skipped      []string            `yaml:"skipped_queries,omitempty"`
}

// FeatureReport describes one feature matrix
type FeatureReport struct {
	Source string                `yaml:"source"`
	Path   string                `yaml:"path"`
	Rows   int                   `yaml:"rows"`
	Cols   int                   `yaml:"cols"`
	Failed []matrixio.FailedItem `yaml:"failed,omitempty"`
}

// QueryReport holds the ground truth and every ranking of one query
type QueryReport struct {
	Query    string             `yaml:"query"`
	Relevant []relevance.Ranked `yaml:"relevant"`
	Rankings []RankingReport    `yaml:"rankings"`
}

// RankingReport is one (source, metric) ranking and its precision
type RankingReport struct {
	Source    string    `yaml:"source"`
	Metric    string    `yaml:"metric"`
	Files     []string  `yaml:"files"`
	Distances []float64 `yaml:"distances"`
	Precision float64   `yaml:"precision"`
}

// PrecisionSummary averages precision over all queries
type PrecisionSummary struct {
	Source  string  `yaml:"source"`
	Metric  string  `yaml:"metric"`
	Queries int     `yaml:"queries"`
	Mean    float64 `yaml:"mean"`
}

// CorrelationReport compares the distance matrices of two sources
type CorrelationReport struct {
	Metric  string                   `yaml:"metric"`
	A       string                   `yaml:"a"`
	B       string                   `yaml:"b"`
	Summary stats.CorrelationSummary `yaml:"summary"`
}

// Write stores the report as YAML, creating parent directories
func (r *Report) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a report written by Write
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &r, nil
}

func summarize(queries []QueryReport) []PrecisionSummary {
	type pair struct{ source, metric string }
	var order []pair
	totals := make(map[pair]*PrecisionSummary)

	for _, q := range queries {
		for _, rk := range q.Rankings {
			p := pair{rk.Source, rk.Metric}
			s, ok := totals[p]
			if !ok {
				s = &PrecisionSummary{Source: rk.Source, Metric: rk.Metric}
				totals[p] = s
				order = append(order, p)
			}
			s.Queries++
			s.Mean += rk.Precision
		}
	}

	out := make([]PrecisionSummary, 0, len(order))
	for _, p := range order {
		s := totals[p]
		s.Mean /= float64(s.Queries)
		out = append(out, *s)
	}
	return out
}
