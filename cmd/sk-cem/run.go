package main

import (
	"fmt"

	"github.com/miku/cemkit/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a matching and write the output table",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := pipeline.New(cfg).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d matched, %d unmatched, %d rows\n",
			cfg.Outputs.Table, len(out.Result.Matched), len(out.Result.Unmatched), len(out.Rows))
		return nil
	},
}

func init() {
	runCmd.Flags().Uint64("seed", 42, "random seed for sampling and anonymization")
	runCmd.Flags().IntP("sample-size", "k", 10, "number of controls per treated article")
	runCmd.Flags().IntP("workers", "w", 4, "number of rank files to read in parallel")
	runCmd.Flags().StringP("output", "o", "", "output table, compressed if ending in .gz or .zst")
}
