package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/similarity"
)

var (
	distancesKits    []string
	distancesMetrics []string
)

var distancesCmd = &cobra.Command{
	Use:   "distances",
	Short: "Build distance matrices for each kit and metric",
	Long: `Compute the pairwise distance matrix of every feature matrix under each
configured metric (euclidean, manhattan, cosine). Feature matrices are built
first when missing. Euclidean distances are squared.`,
	RunE: runDistances,
}

func init() {
	rootCmd.AddCommand(distancesCmd)

	distancesCmd.Flags().StringSliceVarP(&distancesKits, "kit", "k", nil,
		"extractor kits (default: similarity.kits)")
	distancesCmd.Flags().StringSliceVarP(&distancesMetrics, "metric", "m", nil,
		"metrics (default: similarity.metrics)")
}

// parseMetrics validates names before any work starts
func parseMetrics(names []string, fallback []stats.Metric) ([]stats.Metric, error) {
	if len(names) == 0 {
		return fallback, nil
	}
	metrics := make([]stats.Metric, 0, len(names))
	for _, name := range names {
		m, err := stats.ParseMetric(name)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, nil
}

func runDistances(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	metrics, err := parseMetrics(distancesMetrics, a.cfg.Metrics())
	if err != nil {
		return err
	}
	kits := distancesKits
	if len(kits) == 0 {
		kits = a.cfg.Similarity.Kits
	}

	runner := a.runner()
	engine := similarity.NewEngine(a.cfg.Runtime.Workers, a.cfg.Runtime.Recompute,
		a.logger.WithFields(logging.Fields{"component": "distance_engine"}))

	t := &table{title: "Distance matrices", headers: []string{"kit", "metric", "items", "path"}}
	for _, kit := range kits {
		features, _, err := runner.Features(cmd.Context(), kit)
		if err != nil {
			return err
		}
		dir := filepath.Join(a.cfg.Paths.Distances, kit)
		for _, metric := range metrics {
			m, err := engine.Build(cmd.Context(), features, dir, metric)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", kit, metric, err)
			}
			t.add(kit, string(metric), strconv.Itoa(m.Size()), similarity.Path(dir, metric))
		}
	}

	t.print()
	return nil
}
