// Package renderer formats report tables as markdown. Cells arrive already
// formatted, so rendering is pure layout.
package renderer

import (
	"fmt"
	"strings"

	"github.com/rhfolio/rhfolio"
)

// ReportMarkdown renders the whole report, one section per table, with a
// trailing warnings section when records were dropped or sells went
// unmatched.
func ReportMarkdown(r *rhfolio.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Report %s\n\n", r.GeneratedOn)
	for _, t := range r.Tables {
		writeTable(&b, t)
	}
	if r.Dropped > 0 || r.UnmatchedSells > 0 {
		b.WriteString("## Warnings\n\n")
		if r.Dropped > 0 {
			fmt.Fprintf(&b, "- dropped %d malformed records\n", r.Dropped)
		}
		if r.UnmatchedSells > 0 {
			fmt.Fprintf(&b, "- %d unmatched sells excluded from realized gains\n", r.UnmatchedSells)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// GainsMarkdown renders a realized gains report on its own.
func GainsMarkdown(g *rhfolio.GainsReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Realized Gains %s to %s\n\n", g.Window.From, g.Window.To)
	t := rhfolio.GainsTable(g)
	t.Note = "" // the window is already in the heading
	writeTable(&b, t)
	if g.UnmatchedSells > 0 {
		fmt.Fprintf(&b, "%d sells had no matching buy in the window and are excluded.\n\n", g.UnmatchedSells)
	}
	return b.String()
}

// TableMarkdown renders a single table section.
func TableMarkdown(t rhfolio.Table) string {
	var b strings.Builder
	writeTable(&b, t)
	return b.String()
}

func writeTable(b *strings.Builder, t rhfolio.Table) {
	fmt.Fprintf(b, "## %s\n\n", t.Name)
	if t.Note != "" {
		fmt.Fprintf(b, "%s\n\n", t.Note)
	}
	if len(t.Rows) == 0 {
		b.WriteString("Nothing to report.\n\n")
		return
	}

	b.WriteString("|")
	for _, c := range t.Columns {
		fmt.Fprintf(b, " %s |", c)
	}
	b.WriteString("\n|")
	for _, a := range t.Aligns {
		b.WriteString(marker(a))
	}
	b.WriteString("\n")

	for _, row := range t.Rows {
		b.WriteString("|")
		for _, cell := range row {
			fmt.Fprintf(b, " %s |", cell)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// marker is the alignment marker of one column.
func marker(a rhfolio.Align) string {
	if a == rhfolio.AlignRight {
		return "---:|"
	}
	return ":---|"
}
