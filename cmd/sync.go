package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/rhfolio/rhfolio"
	"github.com/rhfolio/rhfolio/gsheet"
	"github.com/rhfolio/rhfolio/renderer"
)

type syncCmd struct {
	start  string
	end    string
	dryRun bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch the portfolio and push the report to Google Sheets" }
func (*syncCmd) Usage() string {
	return `rhf sync [-s <date>] [-d <date>] [-dry-run]

  Runs the whole pipeline: fetches balances, positions and trade history from
  the brokerage, classifies the option strategies, computes the rollups and
  realized gains, and replaces the contents of the configured spreadsheet.
  With -dry-run the report is rendered to the terminal instead of pushed.

  -s and -d bound the realized gains window, relative dates like -1m work.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "-1m", "Start date of the realized gains window")
	f.StringVar(&c.end, "d", "0d", "End date of the realized gains window")
	f.BoolVar(&c.dryRun, "dry-run", false, "Render the report to the terminal instead of pushing it")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := Logger().With().Str("run", uuid.NewString()[:8]).Logger()

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

	started := time.Now()
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

	if snap.Dropped > 0 {
		log.Warn().Int("dropped", snap.Dropped).Msg("report built from a partial snapshot")
	}
	if gains.UnmatchedSells > 0 {
		log.Warn().Int("unmatched", gains.UnmatchedSells).Msg("sells excluded from realized gains")
	}

	if c.dryRun {
		printMarkdown(renderer.ReportMarkdown(report))
		return subcommands.ExitSuccess
	}

	if cfg.SpreadsheetID == "" {
		fmt.Fprintln(os.Stderr, "Error: SPREADSHEET_ID must be set, or use -dry-run")
		return subcommands.ExitUsageError
	}
	sink, err := gsheet.New(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := sink.Push(report); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	log.Info().Dur("took", time.Since(started)).Msg("sync done")
	return subcommands.ExitSuccess
}
