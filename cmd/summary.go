package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/sells-group/georef/internal/reconcile"
)

// summaryLine is one outcome row of the reconcile summary.
type summaryLine struct {
	outcome string
	rows    int
}

func reconcileSummary(s reconcile.Stats) []summaryLine {
	return []summaryLine{
		{"rows", s.Total},
		{"carried forward", s.Carried},
		{"new", s.New},
		{"address changed", s.Changed},
		{"missing coordinates", s.MissingCoords},
		{"geocoded", s.Matched},
		{"unresolved", s.Unmatched},
		{"removed", s.Removed},
	}
}

// renderSummary draws the outcome/row-count table with counts right aligned
// and the total row in the footer.
func renderSummary(lines []summaryLine) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Outcome", "Rows"})

	for i, l := range lines {
		if i == 0 {
			continue
		}
		tw.AppendRow(table.Row{l.outcome, l.rows})
	}
	if len(lines) > 0 {
		tw.AppendFooter(table.Row{lines[0].outcome, lines[0].rows})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printSummary writes the reconcile summary when w is a terminal.
func printSummary(w io.Writer, s reconcile.Stats) {
	if !isTerminal(w) {
		return
	}
	fmt.Fprintln(w, renderSummary(reconcileSummary(s)))
}
