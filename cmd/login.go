package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/rhfolio/rhfolio/robinhood"
)

type loginCmd struct{}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "authenticate against the brokerage and store the session" }
func (*loginCmd) Usage() string {
	return `rhf login

  Performs the brokerage login with the credentials from ROBINHOOD_USER and
  ROBINHOOD_PASS and stores the session token for the other commands. When
  the account has two factor auth enabled, the code is asked interactively.
  The session lasts a day, run login again once it expires.
`
}

func (*loginCmd) SetFlags(f *flag.FlagSet) {}

func (c *loginCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if cfg.Username == "" || cfg.Password == "" {
		fmt.Fprintln(os.Stderr, "Error: ROBINHOOD_USER and ROBINHOOD_PASS must be set")
		return subcommands.ExitUsageError
	}

	session, err := robinhood.Login(cfg.Username, cfg.Password, promptMFA)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: login failed: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := session.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot store session: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Logged in, session valid until %s.\n", session.ExpiresAt.Format("2006-01-02 15:04"))
	return subcommands.ExitSuccess
}

// promptMFA reads the one time code from the terminal.
func promptMFA(mfaType string) (string, error) {
	fmt.Printf("Enter the %s verification code: ", mfaType)
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("cannot read verification code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
