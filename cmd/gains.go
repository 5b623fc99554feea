package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rhfolio/rhfolio"
	"github.com/rhfolio/rhfolio/renderer"
	"github.com/rs/zerolog"
)

type gainsCmd struct {
	start string
	end   string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized gains over a trailing window" }
func (*gainsCmd) Usage() string {
	return `rhf gains [-s <date>] [-d <date>]

  Fetches the trade history only and computes the realized gains of the
  window, matching sells against prior buys of the same symbol and account
  first-in first-out. Sells that cannot be matched inside the window are
  excluded from the totals and reported.

Usage Examples:
# Gains of the trailing month.
$ rhf gains
# Gains of the year so far.
$ rhf gains -s 1-1
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "-1m", "Start date of the window, relative dates like -1m work")
	f.StringVar(&c.end, "d", "0d", "End date of the window")
}

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	trades, err := fetchTrades(client, cfg.Accounts, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	gains := rhfolio.ComputeRealizedGains(trades, window)
	printMarkdown(renderer.GainsMarkdown(gains))
	return subcommands.ExitSuccess
}

// fetchTrades fetches and normalizes the trade history alone, the only input
// realized gains need.
func fetchTrades(b brokerage, accounts []rhfolio.Account, log zerolog.Logger) ([]rhfolio.Trade, error) {
	var out []rhfolio.Trade
	drop := func(dropped []error) {
		for _, err := range dropped {
			log.Warn().Err(err).Msg("record dropped")
		}
	}
	for _, account := range accounts {
		recs, err := b.FetchStockOrders(account.Number)
		if err != nil {
			return nil, fmt.Errorf("fetching %s stock orders: %w", account.Name, err)
		}
		trades, dropped := rhfolio.NormalizeStockTrades(account, recs)
		out = append(out, trades...)
		drop(dropped)
	}
	recs, err := b.FetchCryptoOrders()
	if err != nil {
		return nil, fmt.Errorf("fetching crypto orders: %w", err)
	}
	trades, dropped := rhfolio.NormalizeCryptoTrades(cryptoAccount, recs)
	out = append(out, trades...)
	drop(dropped)
	return out, nil
}
