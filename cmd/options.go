package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type optionsCmd struct {
	account string
	day     string
}

func (*optionsCmd) Name() string     { return "options" }
func (*optionsCmd) Synopsis() string { return "display the full trading history with assignments" }
func (*optionsCmd) Usage() string {
	return `options [-a <account>] [-d <date>]

  Display every completed lot and assigned option contract as JSON.
`
}

func (c *optionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "account to report on, default is the first ledger")
	f.StringVar(&c.day, "d", "", "report date (YYYY-MM-DD), default today")
}

func (c *optionsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	account, err := DefaultAccount(c.account)
	if err != nil {
		return fail(err)
	}
	on, err := parseDay(c.day)
	if err != nil {
		return fail(err)
	}
	p, err := BuildPortfolio(account, on)
	if err != nil {
		return fail(err)
	}
	fmt.Println(p.HistoryReport())
	return subcommands.ExitSuccess
}
