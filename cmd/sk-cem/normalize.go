package main

import (
	"github.com/miku/cemkit/lineproc"
	"github.com/miku/cemkit/normal"
	"github.com/spf13/cobra"
)

var normalizeWorkers int

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize journal names, one per line, from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := lineproc.New(func(s string) (string, error) {
			return normal.Journal(s), nil
		}, lineproc.WithWorkers(normalizeWorkers))
		return p.Process(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	normalizeCmd.Flags().IntVarP(&normalizeWorkers, "workers", "w", 0, "number of workers, default: number of cpus")
}
