package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mmir/algorithms/stats"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <matrix-a> <matrix-b>",
	Short: "Correlate two distance matrices column by column",
	Long: `Compute the Pearson correlation between each column of two matrices of
the same shape, for example the distances of the root and reference kits, and
summarize the coefficients.`,
	Args: cobra.ExactArgs(2),
	RunE: runCorrelate,
}

func init() {
	rootCmd.AddCommand(correlateCmd)
}

func runCorrelate(cmd *cobra.Command, args []string) error {
	a, err := matrixio.Read(args[0])
	if err != nil {
		return err
	}
	b, err := matrixio.Read(args[1])
	if err != nil {
		return err
	}

	coeffs, err := stats.CorrelateColumns(a, b)
	if err != nil {
		return err
	}
	s := stats.DescribeCorrelation(coeffs)

	t := &table{
		title:   "Correlation between " + args[0] + " and " + args[1],
		headers: []string{"columns", "mean", "std", "max", "min"},
	}
	t.add(strconv.Itoa(len(coeffs)),
		strconv.FormatFloat(s.Mean, 'f', 4, 64),
		strconv.FormatFloat(s.Std, 'f', 4, 64),
		strconv.FormatFloat(s.Max, 'f', 4, 64),
		strconv.FormatFloat(s.Min, 'f', 4, 64))
	t.print()
	return nil
}
