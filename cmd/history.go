package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/date"
	"github.com/etnz/brokerage/store"
)

type historyCmd struct {
	account string
	start   string
	end     string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the daily equity curve of an account" }
func (*historyCmd) Usage() string {
	return `history [-a <account>] [-start <date>] [-end <date>]

  Compute and display the daily equity of an account over trading days.
  Computed days are cached in the snapshot database and reused.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "a", "", "account to report on, default is the first ledger")
	f.StringVar(&c.start, "start", "", "first day to display (YYYY-MM-DD)")
	f.StringVar(&c.end, "end", "", "last day to display (YYYY-MM-DD), default today")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	account, err := DefaultAccount(c.account)
	if err != nil {
		return fail(err)
	}
	from := date.New(1970, 1, 1)
	if c.start != "" {
		if from, err = date.Parse(c.start); err != nil {
			return fail(err)
		}
	}
	to := date.Today()
	if c.end != "" {
		if to, err = date.Parse(c.end); err != nil {
			return fail(err)
		}
	}
	transfers, err := LoadTransfers()
	if err != nil {
		return fail(err)
	}
	db, err := store.Open(*storePath, zerolog.New(os.Stderr).With().Timestamp().Logger())
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	builder := &brokerage.HistoryBuilder{
		Dir:       *dataDir,
		Quotes:    brokerage.NewCSVQuoteService(*quoteDir),
		Store:     db,
		Transfers: transfers,
	}
	snaps, err := builder.Build(account, date.Range{From: from, To: to})
	if err != nil {
		return fail(err)
	}
	fmt.Println("date,equity,cash,deposits")
	for _, snap := range snaps {
		fmt.Printf("%s,%.2f,%.2f,%.2f\n", snap.Date, snap.Equity, snap.Cash, snap.Deposits)
	}
	return subcommands.ExitSuccess
}
