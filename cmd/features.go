package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mmir/catalog"
	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/pipeline"
)

var (
	featuresKits        []string
	featuresPrecomputed bool
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Build the feature matrix of the catalog",
	Long: `Decode every recording of the catalog, extract its feature vector with
each configured extractor kit and store the min-max normalized matrix.

Rows already computed with the same parameters are reused from the row cache,
so an interrupted build resumes where it stopped.`,
	RunE: runFeatures,
}

func init() {
	rootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().StringSliceVarP(&featuresKits, "kit", "k", nil,
		"extractor kits to build (default: similarity.kits)")
	featuresCmd.Flags().BoolVar(&featuresPrecomputed, "precomputed", false,
		"also normalize the precomputed feature table at paths.precomputed")
}

func runFeatures(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	kits := featuresKits
	if len(kits) == 0 {
		kits = a.cfg.Similarity.Kits
	}

	t := &table{
		title:   "Feature matrices",
		headers: []string{"source", "rows", "cols", "failed", "path"},
	}

	if featuresPrecomputed {
		if a.cfg.Paths.Precomputed == "" {
			return fmt.Errorf("paths.precomputed is not set")
		}
		out := filepath.Join(a.cfg.Paths.Features, pipeline.SourcePrecomputed+".csv")
		matrix, err := catalog.ProcessPrecomputed(a.cfg.Paths.Precomputed, out, ',', a.cfg.Runtime.Recompute,
			a.logger.WithFields(logging.Fields{"component": "precomputed_features"}))
		if err != nil {
			return err
		}
		t.add(pipeline.SourcePrecomputed, strconv.Itoa(len(matrix.Rows)), strconv.Itoa(len(matrix.Columns)), "0", out)
	}

	runner := a.runner()
	for _, kit := range kits {
		matrix, out, err := runner.Features(cmd.Context(), kit)
		if err != nil {
			return err
		}
		t.add(kit, strconv.Itoa(len(matrix.Rows)), strconv.Itoa(len(matrix.Columns)), strconv.Itoa(len(matrix.Failed)), out)
		for _, f := range matrix.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: row %d (%s): %s\n", kit, f.Index, f.File, f.Error)
		}
	}

	t.print()
	return nil
}
