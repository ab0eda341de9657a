package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/fingerprint/config"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/relevance"
	"github.com/RyanBlaney/sonido-mmir/similarity"
)

var (
	rankKit    string
	rankMetric string
	rankTopN   int
)

var rankCmd = &cobra.Command{
	Use:   "rank <query>",
	Short: "Rank the catalog against one recording",
	Long: `Print the recordings closest to the query under one kit and metric,
closest first, with the query itself left out. When the query has metadata
the precision against its relevance ranking is reported as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVarP(&rankKit, "kit", "k", config.KitRoot,
		"extractor kit of the feature matrix")
	rankCmd.Flags().StringVarP(&rankMetric, "metric", "m", string(stats.Euclidean),
		"distance metric")
	rankCmd.Flags().IntVarP(&rankTopN, "top", "n", 0,
		"number of results (default: similarity.top_n)")
}

func runRank(cmd *cobra.Command, args []string) error {
	query := args[0]

	metric, err := stats.ParseMetric(rankMetric)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n := rankTopN
	if n <= 0 {
		n = a.cfg.Similarity.TopN
	}

	runner := a.runner()
	features, _, err := runner.Features(cmd.Context(), rankKit)
	if err != nil {
		return err
	}

	engine := similarity.NewEngine(a.cfg.Runtime.Workers, a.cfg.Runtime.Recompute,
		a.logger.WithFields(logging.Fields{"component": "distance_engine"}))
	distances, err := engine.Build(cmd.Context(), features, filepath.Join(a.cfg.Paths.Distances, rankKit), metric)
	if err != nil {
		return err
	}

	ranking, err := similarity.RankQuery(distances, features.Files, query, n, features.FailedSet())
	if err != nil {
		return err
	}

	t := &table{
		title:   fmt.Sprintf("%s ranking for %s (%s kit)", metric, query, rankKit),
		headers: []string{"#", "file", "distance"},
	}
	for i := range ranking.Files {
		t.add(strconv.Itoa(i+1), ranking.Files[i], strconv.FormatFloat(ranking.Distances[i], 'f', 4, 64))
	}

	oracle, err := runner.Oracle()
	if err != nil {
		a.logger.Debug("No metadata for precision", logging.Fields{"error": err.Error()})
		t.print()
		return nil
	}
	relevant, err := oracle.Query(query, n)
	switch {
	case errors.Is(err, relevance.ErrUnknownQuery):
		t.footer = "no metadata for this query"
	case err != nil:
		return err
	default:
		precision := similarity.Precision(ranking.IDs(), relevance.IDs(relevant))
		t.footer = fmt.Sprintf("Precision: %.2f", precision)
	}
	t.print()
	return nil
}
