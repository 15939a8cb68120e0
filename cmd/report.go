package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type reportCmd struct {
	account string
	day     string
	json    bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "display the state of an account" }
func (*reportCmd) Usage() string {
	return `report [-a <account>] [-d <date>] [-json]

  Replay an account ledger and display its open lots and cash position.
  The account "combined" merges every ledger.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "account to report on, default is the first ledger")
	f.StringVar(&c.day, "d", "", "report date (YYYY-MM-DD), default today")
	f.BoolVar(&c.json, "json", false, "print the raw JSON report")
}

func (c *reportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if c.json {
		fmt.Println(p.Report())
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s on %s\n\n", account, on)
	fmt.Fprintf(&b, "* Cash: %s\n", usd(p.Cash))
	fmt.Fprintf(&b, "* Cash-like funds: %s\n", usd(p.CashLike()))
	fmt.Fprintf(&b, "* Realized long term: %s\n", usd(p.RealizedLong))
	fmt.Fprintf(&b, "* Realized short term: %s\n", usd(p.RealizedShort))
	fmt.Fprintf(&b, "* Deposits to date: %s\n", usd(p.TotalDeposits+p.NewDeposits))

	lots := p.Lots()
	if len(lots) > 0 {
		fmt.Fprintf(&b, "\n| Symbol | Shares | Price | Cost | Acquired |\n")
		fmt.Fprintf(&b, "|---|---|---|---|---|\n")
		for _, lot := range lots {
			fmt.Fprintf(&b, "| %s | %.4g | %s | %s | %s |\n",
				lot.Symbol, lot.Shares, usd(lot.Price),
				usd(lot.Shares*lot.Price), lot.AcquiredOn)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
