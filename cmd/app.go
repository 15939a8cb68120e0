// Package cmd implements the CLI application to manage brokerage accounts.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/date"
)

// Commands lists the subcommands. A main package registers them on its
// commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&accountsCmd{},
	&reportCmd{},
	&taxesCmd{},
	&optionsCmd{},
	&historyCmd{},
	&checkCmd{},
	&fetchCmd{},
	&serveCmd{},
	&topicCmd{},
	&assistCmd{},
}

// As a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dataDir = flag.String("data-dir", "data", "folder with one ledger file per account")
var quoteDir = flag.String("quote-dir", "quotes", "folder with one CSV quote file per trading day")
var storePath = flag.String("store", "history.db", "path to the daily snapshot database")
var transfersFile = flag.String("transfers-file", "", "path to the account transfers file, empty for none")

// LoadTransfers reads the app transfers file.
func LoadTransfers() (brokerage.Transfers, error) {
	if *transfersFile == "" {
		return nil, nil
	}
	f, err := os.Open(*transfersFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open transfers file: %w", err)
	}
	defer f.Close()
	return brokerage.ParseTransfers(f)
}

// BuildPortfolio replays the app ledgers into the state of one account.
// The reserved account name "combined" merges every ledger.
func BuildPortfolio(account string, asOf date.Date) (*brokerage.Portfolio, error) {
	transfers, err := LoadTransfers()
	if err != nil {
		return nil, err
	}
	if account == brokerage.CombinedAccount {
		return brokerage.BuildCombined(*dataDir, asOf, transfers)
	}
	return brokerage.BuildPortfolio(*dataDir, account, asOf, transfers)
}

// DefaultAccount resolves an account flag, defaulting to the first ledger
// file in the data directory.
func DefaultAccount(account string) (string, error) {
	if account != "" {
		return account, nil
	}
	accounts, err := brokerage.Accounts(*dataDir)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", fmt.Errorf("no account ledgers in %q", *dataDir)
	}
	return accounts[0], nil
}

// parseDay parses a -d flag value, defaulting to today.
func parseDay(str string) (date.Date, error) {
	if str == "" {
		return date.Today(), nil
	}
	return date.Parse(str)
}

// usd formats a dollar amount for terminal tables.
func usd(v float64) string { return money.NewFromFloat(v, money.USD).Display() }

// printMarkdown renders a markdown document on the terminal.
func printMarkdown(doc string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(doc)
		return
	}
	out, err := r.Render(doc)
	if err != nil {
		fmt.Print(doc)
		return
	}
	fmt.Print(out)
}

// fail prints an error and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
