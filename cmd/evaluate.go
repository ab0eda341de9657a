package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mmir/pipeline"
)

var (
	evaluateReport  string
	evaluateVerbose bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the full retrieval evaluation",
	Long: `Build the relevance matrix, the feature and distance matrices of every
source, then rank the catalog against each recording in the queries directory
and score each ranking's precision against the metadata ground truth.

The report is written as YAML to --report or to paths.reports/<run id>.yaml.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evaluateReport, "report", "r", "",
		"report path (default: paths.reports/<run id>.yaml)")
	evaluateCmd.Flags().BoolVarP(&evaluateVerbose, "verbose", "v", false,
		"print every query ranking")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.runner().Run(cmd.Context())
	if err != nil {
		return err
	}

	path := evaluateReport
	if path == "" {
		path = filepath.Join(a.cfg.Paths.Reports, report.RunID+".yaml")
	}
	if err := report.Write(path); err != nil {
		return err
	}

	if evaluateVerbose {
		for _, q := range report.Queries {
			printQuery(q)
		}
	}

	t := &table{
		title:   "Mean precision",
		headers: []string{"source", "metric", "queries", "precision"},
		footer:  fmt.Sprintf("run %s, report %s", report.RunID, path),
	}
	for _, p := range report.Precision {
		t.add(p.Source, p.Metric, strconv.Itoa(p.Queries), strconv.FormatFloat(p.Mean, 'f', 2, 64))
	}
	t.print()

	if len(report.Correlations) > 0 {
		c := &table{
			title:   "Distance correlation",
			headers: []string{"metric", "a", "b", "mean", "std", "max", "min"},
		}
		for _, r := range report.Correlations {
			c.add(r.Metric, r.A, r.B,
				strconv.FormatFloat(r.Summary.Mean, 'f', 4, 64),
				strconv.FormatFloat(r.Summary.Std, 'f', 4, 64),
				strconv.FormatFloat(r.Summary.Max, 'f', 4, 64),
				strconv.FormatFloat(r.Summary.Min, 'f', 4, 64))
		}
		c.print()
	}
	return nil
}

func printQuery(q pipeline.QueryReport) {
	relevanceTable(q.Query, q.Relevant).print()
	for _, rk := range q.Rankings {
		t := &table{
			title:   fmt.Sprintf("%s / %s", rk.Source, rk.Metric),
			headers: []string{"#", "file", "distance"},
			footer:  fmt.Sprintf("Precision: %.2f", rk.Precision),
		}
		for i := range rk.Files {
			t.add(strconv.Itoa(i+1), rk.Files[i], strconv.FormatFloat(rk.Distances[i], 'f', 4, 64))
		}
		t.print()
	}
}
