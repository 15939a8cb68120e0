package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/etnz/brokerage"
)

type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list the account ledgers" }
func (*accountsCmd) Usage() string {
	return `accounts

  List the account ledger files found in the data directory.
`
}

func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (*accountsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	accounts, err := brokerage.Accounts(*dataDir)
	if err != nil {
		return fail(err)
	}
	for _, account := range accounts {
		fmt.Println(account)
	}
	return subcommands.ExitSuccess
}
