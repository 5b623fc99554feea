package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/subcommands"
	"github.com/rhfolio/rhfolio"
	"github.com/rhfolio/rhfolio/agent"
	"google.golang.org/genai"
)

type assistCmd struct {
	start string
	end   string
}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `rhf assist [<initial prompt>]

  Starts an interactive session with the AI assistant. The assistant's
  portfolio expert answers from a freshly fetched report, its research expert
  grounds market questions in search. Requires GEMINI_API_KEY.
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "-1m", "Start date of the realized gains window")
	f.StringVar(&c.end, "d", "0d", "End date of the realized gains window")
}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
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

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	// the report is fetched once, on the analyst's first question
	load := sync.OnceValues(func() (*rhfolio.Report, error) {
		broker, err := connect(log)
		if err != nil {
			return nil, err
		}
		snap, err := takeSnapshot(broker, cfg.Accounts, log)
		if err != nil {
			return nil, err
		}
		gains := rhfolio.ComputeRealizedGains(snap.Trades, window)
		return rhfolio.BuildReport(snap, gains), nil
	})

	researcher := agent.NewResearcher()
	analyst := agent.NewAnalyst(agent.ReportLoader(load))
	a := agent.New(os.Stdout, os.Stdin, researcher, analyst)

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
