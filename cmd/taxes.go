package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/brokerage/date"
)

type taxesCmd struct {
	account string
	year    int
	json    bool
}

func (*taxesCmd) Name() string     { return "taxes" }
func (*taxesCmd) Synopsis() string { return "display realized gains for a tax year" }
func (*taxesCmd) Usage() string {
	return `taxes [-a <account>] [-year <year>] [-json]

  Display the lots completed during a tax year, with wash sale
  adjustments, dividends and interest income.
`
}

func (c *taxesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "account to report on, default is the first ledger")
	f.IntVar(&c.year, "year", date.Today().Year(), "tax year")
	f.BoolVar(&c.json, "json", false, "print the raw JSON report")
}

func (c *taxesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	account, err := DefaultAccount(c.account)
	if err != nil {
		return fail(err)
	}
	on := date.YearEnd(c.year)
	if on.After(date.Today()) {
		on = date.Today()
	}
	p, err := BuildPortfolio(account, on)
	if err != nil {
		return fail(err)
	}
	if c.json {
		fmt.Println(p.TaxReport(c.year))
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s taxes %d\n\n", account, c.year)
	fmt.Fprintf(&b, "* Realized long term: %s\n", usd(p.RealizedLong))
	fmt.Fprintf(&b, "* Realized short term: %s\n", usd(p.RealizedShort))
	fmt.Fprintf(&b, "* Interest: %s\n", usd(p.InterestTotal))

	completed := p.CompletedLots(c.year)
	if len(completed) > 0 {
		fmt.Fprintf(&b, "\n| Symbol | Shares | Gain | Wash | Term | Acquired | Closed |\n")
		fmt.Fprintf(&b, "|---|---|---|---|---|---|---|\n")
		for _, cb := range completed {
			term := "short"
			if cb.LongTerm() {
				term = "long"
			}
			fmt.Fprintf(&b, "| %s | %.4g | %s | %s | %s | %s | %s |\n",
				cb.Symbol, cb.Shares, usd(cb.Gain()), usd(cb.WashSale*abs(cb.Shares)),
				term, cb.AcquiredOn, cb.ClosedOn)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
