package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajnelson-nist/dfxml/internal/config"
	"github.com/ajnelson-nist/dfxml/internal/core/differ"
	"github.com/ajnelson-nist/dfxml/internal/core/summary"
	"github.com/ajnelson-nist/dfxml/internal/dfxmlio"
	"github.com/ajnelson-nist/dfxml/internal/domain"
	"github.com/ajnelson-nist/dfxml/internal/logger"
	"github.com/ajnelson-nist/dfxml/internal/report"
	"github.com/ajnelson-nist/dfxml/internal/state"
)

func diffCmd() *cobra.Command {
	var (
		output        string
		format        string
		ignoreProps   []string
		dropUnchanged bool
		parallelism   int
		withSummary   bool
	)

	cmd := &cobra.Command{
		Use:   "diff SNAPSHOT SNAPSHOT...",
		Short: "Compute the differential record set across a snapshot sequence",
		Long: `Compares each snapshot file against its immediate successor, in argument
order, and writes the annotated differential record set.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			if format == "" {
				format = cfg.Output.Format
			}
			if !dropUnchanged {
				dropUnchanged = cfg.Diff.DropUnchanged
			}
			if parallelism == 0 {
				parallelism = cfg.Diff.Parallelism
			}
			ignoreProps = append(ignoreProps, cfg.Diff.IgnoreProperties...)

			start := time.Now()
			result, s, err := runDiff(cfg, args, ignoreProps, dropUnchanged, parallelism)
			if err != nil {
				return err
			}

			out := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				err = dfxmlio.WriteJSON(out, result)
			default:
				err = dfxmlio.WriteXML(out, result)
			}
			if err != nil {
				return err
			}

			if withSummary {
				if err := report.WriteSummary(os.Stderr, s); err != nil {
					return err
				}
			}

			recordRun(cfg, args, start, s)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the differential to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "", "Output format: xml or json")
	cmd.Flags().StringSliceVarP(&ignoreProps, "ignore", "i", nil, "Object attribute to ignore in all difference operations (repeatable)")
	cmd.Flags().BoolVar(&dropUnchanged, "drop-unchanged", false, "Omit unchanged records from the output")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "j", 0, "Number of snapshot pairs to diff concurrently")
	cmd.Flags().BoolVar(&withSummary, "summary", false, "Also print a summary table to stderr")

	return cmd
}

// runDiff loads the snapshot sequence, assembles the differential, and
// summarizes it
func runDiff(cfg *config.Config, paths, ignoreProps []string, dropUnchanged bool, parallelism int) (*domain.DifferentialResult, *summary.Summary, error) {
	loader := dfxmlio.NewLoader(cfg.Diff.IgnoreNames)
	snapshots, err := loader.LoadSequence(paths)
	if err != nil {
		return nil, nil, err
	}

	d := differ.New(differ.Options{
		DropUnchanged:    dropUnchanged,
		IgnoreProperties: ignoreProps,
		Parallelism:      parallelism,
	})
	result, err := d.Diff(snapshots)
	if err != nil {
		return nil, nil, err
	}

	return result, summary.Summarize(result), nil
}

// recordRun persists the run in the history database when enabled.
// History is best-effort; a recording failure never fails the run.
func recordRun(cfg *config.Config, sources []string, start time.Time, s *summary.Summary) {
	if !cfg.State.Enabled {
		return
	}

	log := logger.With("component", "history")
	manager, err := state.NewManager(cfg.State.Dir)
	if err != nil {
		log.Warn("could not open history database", "error", err)
		return
	}
	defer manager.Close()

	record := state.NewRunRecord(sources, start, time.Now(), s)
	if err := manager.SaveRun(record); err != nil {
		log.Warn("could not record run", "error", err)
	}
}
