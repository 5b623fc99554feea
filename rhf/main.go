// Command rhf syncs a Robinhood portfolio into a Google spreadsheet and
// renders reports about it.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/rhfolio/rhfolio/cmd"
)

func main() {
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()

	// an unknown subcommand may be an external rhf-<name> extension
	if args := flag.Args(); len(args) > 0 && !known(args[0]) {
		if found, code := cmd.RunExtension(args[0], args[1:]); found {
			os.Exit(code)
		}
	}

	os.Exit(int(commander.Execute(context.Background())))
}

func known(name string) bool {
	for _, n := range cmd.CommandNames() {
		if n == name {
			return true
		}
	}
	return false
}

// completion answers shell completion requests. It is a no-op outside of
// them.
func completion() {
	sub := make(map[string]*complete.Command, len(cmd.CommandNames()))
	for _, n := range cmd.CommandNames() {
		sub[n] = &complete.Command{}
	}
	(&complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"env": predict.Files("*"),
		},
	}).Complete("rhf")
}
