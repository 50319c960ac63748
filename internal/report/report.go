package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/ajnelson-nist/dfxml/internal/core/summary"
	"github.com/ajnelson-nist/dfxml/internal/domain"
)

// WriteSummary renders a summary as a classification-by-pair count table,
// followed by per-volume totals when more than one volume is present.
func WriteSummary(w io.Writer, s *summary.Summary) error {
	pairs := s.SnapshotCount - 1
	if pairs < 0 {
		pairs = 0
	}

	header := []string{"Classification"}
	for p := 0; p < pairs; p++ {
		header = append(header, fmt.Sprintf("Pair %d", p))
	}
	header = append(header, "Total")

	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetBorder(false)
	tbl.SetHeader(header)

	for _, c := range domain.Classifications() {
		row := []string{string(c)}
		for p := 0; p < pairs; p++ {
			row = append(row, fmt.Sprintf("%d", s.ByPair[summary.PairKey{PairIndex: p, Classification: c}]))
		}
		row = append(row, fmt.Sprintf("%d", s.Totals[c]))
		tbl.Append(row)
	}

	footer := []string{"all"}
	for p := 0; p < pairs; p++ {
		footer = append(footer, fmt.Sprintf("%d", s.PairTotal(p)))
	}
	footer = append(footer, fmt.Sprintf("%d", s.TotalRecords))
	tbl.Append(footer)
	tbl.Render()

	if s.AmbiguousSkips > 0 {
		fmt.Fprintf(w, "\n%d ambiguous content match(es) skipped; affected objects reported as created/deleted\n", s.AmbiguousSkips)
	}

	if len(s.ByVolume) > 1 {
		if err := writeVolumeTotals(w, s); err != nil {
			return err
		}
	}
	return nil
}

// writeVolumeTotals renders one row of classification totals per volume
func writeVolumeTotals(w io.Writer, s *summary.Summary) error {
	volumes := make([]string, 0, len(s.ByVolume))
	for vid := range s.ByVolume {
		volumes = append(volumes, vid)
	}
	sort.Strings(volumes)

	header := []string{"Volume"}
	for _, c := range domain.Classifications() {
		header = append(header, string(c))
	}

	fmt.Fprintln(w)
	tbl := tablewriter.NewWriter(w)
	tbl.SetAutoFormatHeaders(false)
	tbl.SetBorder(false)
	tbl.SetHeader(header)

	for _, vid := range volumes {
		row := []string{vid}
		for _, c := range domain.Classifications() {
			row = append(row, fmt.Sprintf("%d", s.ByVolume[vid][c]))
		}
		tbl.Append(row)
	}
	tbl.Render()
	return nil
}
