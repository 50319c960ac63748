package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ajnelson-nist/dfxml/internal/state"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded differential analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if !cfg.State.Enabled {
				return fmt.Errorf("run history is not enabled; set state.enabled in the config file")
			}

			manager, err := state.NewManager(cfg.State.Dir)
			if err != nil {
				return err
			}
			defer manager.Close()

			records, err := manager.GetHistory(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no recorded runs")
				return nil
			}

			tbl := tablewriter.NewWriter(os.Stdout)
			tbl.SetAutoFormatHeaders(false)
			tbl.SetBorder(false)
			tbl.SetHeader([]string{"Run", "Started", "Duration", "Snapshots", "Records", "Changed", "Status"})
			for _, r := range records {
				changed := r.RecordsTotal - r.Unchanged
				tbl.Append([]string{
					shortID(r.RunID),
					r.StartTime.Format("2006-01-02 15:04:05"),
					r.EndTime.Sub(r.StartTime).Round(time.Millisecond).String(),
					fmt.Sprintf("%d", r.SnapshotCount),
					fmt.Sprintf("%d", r.RecordsTotal),
					fmt.Sprintf("%d", changed),
					r.Status,
				})
			}
			tbl.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}

// shortID trims a run UUID to its first group for display
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
