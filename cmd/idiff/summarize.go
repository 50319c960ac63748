package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ajnelson-nist/dfxml/internal/report"
)

func summarizeCmd() *cobra.Command {
	var (
		ignoreProps []string
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "summarize SNAPSHOT SNAPSHOT...",
		Short: "Print per-classification change counts for a snapshot sequence",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			if parallelism == 0 {
				parallelism = cfg.Diff.Parallelism
			}
			ignoreProps = append(ignoreProps, cfg.Diff.IgnoreProperties...)

			_, s, err := runDiff(cfg, args, ignoreProps, false, parallelism)
			if err != nil {
				return err
			}

			return report.WriteSummary(os.Stdout, s)
		},
	}

	cmd.Flags().StringSliceVarP(&ignoreProps, "ignore", "i", nil, "Object attribute to ignore in all difference operations (repeatable)")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "j", 0, "Number of snapshot pairs to diff concurrently")

	return cmd
}
