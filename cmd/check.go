package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/etnz/brokerage"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "audit the ledger files" }
func (*checkCmd) Usage() string {
	return `check

  Audit every ledger file for out-of-order transaction dates. The replay
  assumes non-decreasing dates; findings must be fixed in the export.
`
}

func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	accounts, err := brokerage.Accounts(*dataDir)
	if err != nil {
		return fail(err)
	}
	status := subcommands.ExitSuccess
	for _, account := range accounts {
		path := brokerage.AccountPath(*dataDir, account)
		f, err := os.Open(path)
		if err != nil {
			return fail(err)
		}
		problems := brokerage.Check(f)
		f.Close()
		for _, p := range problems {
			fmt.Printf("%s:%d: out of order: %s\n", path, p.Line, p.Text)
			status = subcommands.ExitFailure
		}
	}
	return status
}
