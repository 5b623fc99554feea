// Package cmd implements the rhf command line application.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rhfolio/rhfolio"
	"github.com/rs/zerolog"
)

// Register the subcommands. A main package calls Register() and then
// Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&loginCmd{}, "brokerage")
	c.Register(&accountsCmd{}, "brokerage")

	c.Register(&syncCmd{}, "reporting")
	c.Register(&reportCmd{}, "reporting")
	c.Register(&gainsCmd{}, "reporting")
	c.Register(&watchCmd{}, "reporting")

	c.Register(&assistCmd{}, "help")
	c.Register(&topicCmd{}, "help")
}

// CommandNames lists every registered subcommand, for shell completion.
func CommandNames() []string {
	return []string{
		"help", "flags", "commands",
		"login", "accounts", "sync", "report", "gains", "watch", "assist", "topic",
	}
}

// As a CLI application the lifecycle is very short lived, so it is ok to use
// global variables for the global flags.

var envFile = flag.String("env", ".env", "Env file loaded before reading the configuration")
var Verbose = flag.Bool("v", false, "Enable debug logging")

// Logger returns the application logger, writing human readable lines to
// stderr. -v lowers the level to debug.
func Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *Verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}

// Config is everything the commands read from the environment.
type Config struct {
	Username string // ROBINHOOD_USER
	Password string // ROBINHOOD_PASS

	// Accounts to report on, in display order. Built from MAIN_ACCOUNT,
	// IRA_ACCOUNT and THIRD_ACCOUNT, of which at least one must be set.
	Accounts []rhfolio.Account

	SpreadsheetID   string // SPREADSHEET_ID
	CredentialsFile string // GOOGLE_CREDENTIALS, defaults to credentials.json
}

// accountVars maps an env var to the account it configures. Order matters,
// reports list accounts this way.
var accountVars = []struct {
	envVar string
	name   string
	typ    rhfolio.AccountType
}{
	{"MAIN_ACCOUNT", "Main", rhfolio.Standard},
	{"IRA_ACCOUNT", "IRA", rhfolio.IRA},
	{"THIRD_ACCOUNT", "Third", rhfolio.Other},
}

// LoadConfig loads the env file and reads the configuration. A missing env
// file is fine, the variables may come from the environment itself.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot load env file %q: %w", *envFile, err)
	}

	cfg := &Config{
		Username:        os.Getenv("ROBINHOOD_USER"),
		Password:        os.Getenv("ROBINHOOD_PASS"),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS"),
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = "credentials.json"
	}
	for _, v := range accountVars {
		number := os.Getenv(v.envVar)
		if number == "" {
			continue
		}
		cfg.Accounts = append(cfg.Accounts, rhfolio.Account{Name: v.name, Number: number, Type: v.typ})
	}
	if len(cfg.Accounts) == 0 {
		return nil, fmt.Errorf("no account configured, set at least MAIN_ACCOUNT")
	}
	return cfg, nil
}
