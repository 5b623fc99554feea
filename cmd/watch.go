package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
)

type watchCmd struct {
	schedule string
	sync     syncCmd
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "run sync on a schedule until interrupted" }
func (*watchCmd) Usage() string {
	return `rhf watch [-schedule <cron spec>] [sync flags]

  Runs the sync pipeline on a schedule and keeps running until interrupted.
  The schedule is a standard cron spec or an @every interval.

Usage Examples:
# Every 30 minutes.
$ rhf watch -schedule "@every 30m"
# Hourly during US market hours, weekdays.
$ rhf watch -schedule "30 9-16 * * MON-FRI"
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.schedule, "schedule", "@every 1h", "Cron spec or @every interval between syncs")
	c.sync.SetFlags(f)
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := Logger().With().Str("component", "watch").Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := cron.New()
	_, err := runner.AddFunc(c.schedule, func() {
		if status := c.sync.Execute(ctx, f); status != subcommands.ExitSuccess {
			log.Error().Int("status", int(status)).Msg("sync failed")
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid schedule %q: %v\n", c.schedule, err)
		return subcommands.ExitUsageError
	}

	// one sync right away, the first cron tick is a full interval out
	if status := c.sync.Execute(ctx, f); status != subcommands.ExitSuccess {
		log.Error().Int("status", int(status)).Msg("sync failed")
	}

	runner.Start()
	log.Info().Str("schedule", c.schedule).Msg("watching")
	<-ctx.Done()

	<-runner.Stop().Done()
	log.Info().Msg("stopped")
	return subcommands.ExitSuccess
}
