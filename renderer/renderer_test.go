package renderer

import (
	"strings"
	"testing"

	"github.com/rhfolio/rhfolio"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var balancesTable = rhfolio.Table{
	Name:    "Account Balances",
	Columns: []string{"Account", "Equity"},
	Aligns:  []rhfolio.Align{rhfolio.AlignLeft, rhfolio.AlignRight},
	Rows: [][]string{
		{"Main", "$15,000.00"},
		{"TOTAL", "$20,333.00"},
	},
}

func TestTableMarkdown(t *testing.T) {
	got := TableMarkdown(balancesTable)
	want := "## Account Balances\n\n" +
		"| Account | Equity |\n" +
		"|:---|---:|\n" +
		"| Main | $15,000.00 |\n" +
		"| TOTAL | $20,333.00 |\n\n"
	if got != want {
		t.Errorf("TableMarkdown() =\n%q\nwant\n%q", got, want)
	}
}

func TestTableMarkdownNote(t *testing.T) {
	table := rhfolio.Table{
		Name:    "All Stock Positions",
		Note:    "Total Portfolio Value: $1,550.00",
		Columns: []string{"Symbol"},
		Aligns:  []rhfolio.Align{rhfolio.AlignLeft},
		Rows:    [][]string{{"AAPL"}},
	}
	got := TableMarkdown(table)
	if !strings.Contains(got, "## All Stock Positions\n\nTotal Portfolio Value: $1,550.00\n\n|") {
		t.Errorf("TableMarkdown() missing the note line:\n%s", got)
	}
}

func TestTableMarkdownEmpty(t *testing.T) {
	table := rhfolio.Table{Name: "Recent Trades", Columns: []string{"Date"}, Aligns: []rhfolio.Align{rhfolio.AlignLeft}}
	got := TableMarkdown(table)
	want := "## Recent Trades\n\nNothing to report.\n\n"
	if got != want {
		t.Errorf("TableMarkdown() = %q, want %q", got, want)
	}
}

func TestReportMarkdownStructure(t *testing.T) {
	report := &rhfolio.Report{
		GeneratedOn: rhfolio.MustParse("2025-08-20"),
		Tables: []rhfolio.Table{
			balancesTable,
			{
				Name:    "Realized Gains",
				Note:    "Window: 2025-01-01 to 2025-08-20",
				Columns: []string{"Symbol", "Gain"},
				Aligns:  []rhfolio.Align{rhfolio.AlignLeft, rhfolio.AlignRight},
				Rows:    [][]string{{"AAPL", "$99.00"}},
			},
		},
		Dropped:        1,
		UnmatchedSells: 2,
	}
	source := []byte(ReportMarkdown(report))

	// The output must parse back into the structure it claims: one title,
	// one section per table plus the warnings, one markdown table each.
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(source))

	var h1, h2, tables int
	if err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			if v.Level == 1 {
				h1++
			}
			if v.Level == 2 {
				h2++
			}
		case *east.Table:
			tables++
		}
		return ast.WalkContinue, nil
	}); err != nil {
		t.Fatalf("walking the markdown tree: %v", err)
	}

	if h1 != 1 {
		t.Errorf("got %d top level headings, want 1", h1)
	}
	if h2 != 3 {
		t.Errorf("got %d sections, want 3 (two tables and the warnings)", h2)
	}
	if tables != 2 {
		t.Errorf("got %d markdown tables, want 2", tables)
	}

	out := string(source)
	if !strings.Contains(out, "# Portfolio Report 2025-08-20") {
		t.Error("missing the report title")
	}
	if !strings.Contains(out, "- dropped 1 malformed records") {
		t.Error("missing the dropped records warning")
	}
	if !strings.Contains(out, "- 2 unmatched sells excluded from realized gains") {
		t.Error("missing the unmatched sells warning")
	}
}

func TestReportMarkdownNoWarnings(t *testing.T) {
	report := &rhfolio.Report{
		GeneratedOn: rhfolio.MustParse("2025-08-20"),
		Tables:      []rhfolio.Table{balancesTable},
	}
	if got := ReportMarkdown(report); strings.Contains(got, "## Warnings") {
		t.Errorf("clean report should carry no warnings section:\n%s", got)
	}
}

func TestGainsMarkdown(t *testing.T) {
	gains := &rhfolio.GainsReport{
		Window: rhfolio.Range{From: rhfolio.MustParse("2025-01-01"), To: rhfolio.MustParse("2025-08-20")},
		Gains: []rhfolio.RealizedGain{{
			Account:  rhfolio.Account{Name: "Main", Number: "5AB12345", Type: rhfolio.Standard},
			Symbol:   "AAPL",
			Quantity: rhfolio.Q(10),
			Proceeds: rhfolio.USD(1100),
			Cost:     rhfolio.USD(1000),
			Fees:     rhfolio.USD(1),
		}},
		Total:          rhfolio.USD(99),
		UnmatchedSells: 1,
	}
	got := GainsMarkdown(gains)

	if !strings.HasPrefix(got, "# Realized Gains 2025-01-01 to 2025-08-20\n\n") {
		t.Errorf("GainsMarkdown() heading missing:\n%s", got)
	}
	if !strings.Contains(got, "| AAPL | Main | 10 | $1,100.00 | $1,000.00 | $1.00 | $99.00 |") {
		t.Errorf("GainsMarkdown() row missing:\n%s", got)
	}
	if strings.Contains(got, "Window:") {
		t.Errorf("GainsMarkdown() repeats the window note:\n%s", got)
	}
	if !strings.Contains(got, "1 sells had no matching buy") {
		t.Errorf("GainsMarkdown() warning missing:\n%s", got)
	}
}
