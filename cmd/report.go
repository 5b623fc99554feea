package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rhfolio/rhfolio"
	"github.com/rhfolio/rhfolio/renderer"
)

type reportCmd struct {
	start  string
	end    string
	format string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "fetch the portfolio and render the report locally" }
func (*reportCmd) Usage() string {
	return `rhf report [-s <date>] [-d <date>] [-format md|json]

  Runs the pipeline without touching the spreadsheet and renders the report
  to stdout, as markdown by default, as JSON with -format json.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "-1m", "Start date of the realized gains window")
	f.StringVar(&c.end, "d", "0d", "End date of the realized gains window")
	f.StringVar(&c.format, "format", "md", "Output format (md, json)")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.format != "md" && c.format != "json" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q, want md or json\n", c.format)
		return subcommands.ExitUsageError
	}
	log := Logger()

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	window, err := gainsWindow(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	client, err := connect(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	snap, err := takeSnapshot(client, cfg.Accounts, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	gains := rhfolio.ComputeRealizedGains(snap.Trades, window)
	report := rhfolio.BuildReport(snap, gains)

	if c.format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
