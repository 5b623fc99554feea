package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list the account numbers the login can see" }
func (*accountsCmd) Usage() string {
	return `rhf accounts

  Lists the brokerage accounts of the stored session, their numbers and
  types. Use the numbers to fill MAIN_ACCOUNT, IRA_ACCOUNT and
  THIRD_ACCOUNT, see 'rhf topic setup'.
`
}

func (*accountsCmd) SetFlags(f *flag.FlagSet) {}

func (c *accountsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := Logger()

	client, err := connect(log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	recs, err := client.FetchAccounts()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("| Account Number | Brokerage Type | State |\n|:---|:---|:---|\n")
	for _, rec := range recs {
		number, _ := rec["account_number"].(string)
		typ, _ := rec["brokerage_account_type"].(string)
		if typ == "" {
			typ, _ = rec["type"].(string)
		}
		state, _ := rec["state"].(string)
		fmt.Fprintf(&b, "| %s | %s | %s |\n", number, typ, state)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
