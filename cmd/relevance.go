package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mmir/relevance"
)

var (
	relevanceQuery string
	relevanceTopN  int
)

var relevanceCmd = &cobra.Command{
	Use:   "relevance",
	Short: "Build the metadata relevance matrix or rank one query",
	Long: `Score every pair of catalog items from metadata alone: one point for the
same artist, one for the same mood quadrant, plus one per shared genre and
emotion tag. Without --query the full matrix is written to paths.relevance.`,
	RunE: runRelevance,
}

func init() {
	rootCmd.AddCommand(relevanceCmd)

	relevanceCmd.Flags().StringVarP(&relevanceQuery, "query", "q", "",
		"recording id (or file name) to rank")
	relevanceCmd.Flags().IntVarP(&relevanceTopN, "top", "n", 0,
		"number of results (default: similarity.top_n)")
}

func runRelevance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	oracle, err := a.runner().Oracle()
	if err != nil {
		return err
	}

	if relevanceQuery == "" {
		m, err := oracle.BuildMatrix(a.cfg.Paths.Relevance, a.cfg.Runtime.Recompute)
		if err != nil {
			return err
		}
		t := &table{title: "Relevance matrix", headers: []string{"items", "path"}}
		t.add(strconv.Itoa(len(m)), a.cfg.Paths.Relevance)
		t.print()
		return nil
	}

	n := relevanceTopN
	if n <= 0 {
		n = a.cfg.Similarity.TopN
	}
	ranked, err := oracle.Query(relevanceQuery, n)
	if err != nil {
		return err
	}
	relevanceTable(relevanceQuery, ranked).print()
	return nil
}

func relevanceTable(query string, ranked []relevance.Ranked) *table {
	t := &table{
		title:   "Metadata ranking for " + query,
		headers: []string{"#", "id", "title", "artist", "score"},
	}
	for i, r := range ranked {
		t.add(strconv.Itoa(i+1), r.ID, r.Title, r.Artist, strconv.Itoa(r.Score))
	}
	return t
}
