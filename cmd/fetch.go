package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/date"
)

type fetchCmd struct {
	force bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "retrieve today's quotes for the held symbols" }
func (*fetchCmd) Usage() string {
	return `fetch [-force]

  Retrieve current quotes for every symbol held across the accounts and
  write them to today's quote file.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "rewrite today's quote file even if it exists")
}

func (c *fetchCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := BuildPortfolio(brokerage.CombinedAccount, date.Today())
	if err != nil {
		return fail(err)
	}
	if err := brokerage.RetrieveQuotes(*quoteDir, p.CurrentSymbols(), c.force); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
