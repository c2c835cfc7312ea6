package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/payasparab/addressmatcher/internal/config"
	"github.com/payasparab/addressmatcher/internal/model"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the active weight and tier tables",
	Long:  "Prints the weight tables and confidence tiers, including overrides from match.weights_file.",
	RunE: func(_ *cobra.Command, _ []string) error {
		tables, err := config.LoadTables(cfg.Match.WeightsFile)
		if err != nil {
			return eris.Wrap(err, "weights")
		}
		formatTables(os.Stdout, tables, cfg.Match.Threshold)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}

func formatTables(out io.Writer, t *config.Tables, threshold float64) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	writeWeights(w, "Weights", t.Weights)
	_, _ = fmt.Fprintln(w)
	writeWeights(w, "No-name weights", t.NoNameWeights)
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintf(w, "Confidence tiers (threshold > %.2f):\n", threshold)
	for _, tier := range t.Tiers.Sorted() {
		_, _ = fmt.Fprintf(w, "  %s\t>= %.2f\n", tier.Name, tier.Min)
	}
	_ = w.Flush()
}

func writeWeights(w io.Writer, title string, table model.WeightTable) {
	sum := table.Sum()
	_, _ = fmt.Fprintf(w, "%s (sum %.4f):\n", title, sum)
	for _, fw := range table {
		_, _ = fmt.Fprintf(w, "  %s\t%.4f\t%.1f%%\n", fw.Field, fw.Weight, 100*fw.Weight/sum)
	}
}
