package brokerage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/etnz/brokerage/date"
)

// Kind identifies a ledger transaction, using the single letter codes of the
// pipe-delimited ledger format.
type Kind byte

const (
	KindDeposit         Kind = 'd' // cash movement in or out of the account
	KindInterest        Kind = 'i' // interest or dividend payment
	KindReturnOfCapital Kind = 'r' // return of capital distribution
	KindBuy             Kind = 'b'
	KindSell            Kind = 's'
	KindChange          Kind = 'c' // merger, rename, or cash consideration
	KindSplit           Kind = 'x' // stock split or spin-off
)

// Transaction is one normalized ledger line. The meaning of Count, Amount1
// and Amount2 depends on Kind:
//
//	b, s  Count shares at Amount1 per share, Amount2 total fee
//	d     Amount1 cash amount
//	i, r  Amount1 cash amount, Symbol2 the paying security
//	x     Amount1 split ratio, or shares per held share for a spin-off
//	      into Symbol2 with Amount2 the new/old price ratio
//	c     exchange into Symbol2 at ratio Count, optionally Amount1 cash
//	      per share and Amount2 the cash fraction of the consideration
type Transaction struct {
	Date    date.Date
	Kind    Kind
	Symbol  string
	Symbol2 string
	Count   float64
	Amount1 float64
	Amount2 float64
}

// String renders the transaction back in ledger line format.
func (t Transaction) String() string {
	return fmt.Sprintf("%s|%c|%s|%s|%.3f|%.2f|%.2f",
		t.Date, t.Kind, t.Symbol, t.Symbol2, t.Count, t.Amount1, t.Amount2)
}

// ParseTransaction parses a single ledger line. A trailing #comment is
// stripped first. It returns false for lines that do not carry a
// transaction, such as blank or comment-only lines.
func ParseTransaction(line string) (Transaction, bool) {
	line, _, _ = strings.Cut(line, "#")
	fields := strings.Split(strings.TrimRight(line, " \t\r\n"), "|")
	if len(fields) < 3 {
		return Transaction{}, false
	}
	on, err := date.Parse(fields[0])
	if err != nil {
		return Transaction{}, false
	}
	kind := strings.ToLower(fields[1])
	if len(kind) != 1 {
		return Transaction{}, false
	}
	t := Transaction{Date: on, Kind: Kind(kind[0]), Symbol: fields[2]}

	num := func(i int, def float64) float64 {
		if i >= len(fields) {
			return def
		}
		v, err2 := strconv.ParseFloat(fields[i], 64)
		if err2 != nil {
			err = err2
			return def
		}
		return v
	}
	switch t.Kind {
	case KindDeposit, KindInterest, KindReturnOfCapital, KindSplit:
		t.Amount1 = num(3, 0)
		if len(fields) > 4 {
			t.Symbol2 = fields[4]
		} else {
			t.Symbol2 = t.Symbol
		}
		t.Amount2 = num(5, 1)
		if len(fields) < 4 {
			return Transaction{}, false
		}
	case KindBuy, KindSell:
		t.Count = num(3, 0)
		t.Amount1 = num(4, 0)
		t.Amount2 = num(5, 0)
		if len(fields) < 4 {
			return Transaction{}, false
		}
	case KindChange:
		if len(fields) < 4 {
			return Transaction{}, false
		}
		t.Symbol2 = fields[3]
		t.Count = num(4, 1)
		if len(fields) > 6 {
			// cash per share and the fraction of the consideration paid in cash
			t.Amount1 = num(5, 0)
			t.Amount2 = num(6, 0)
		}
	}
	if err != nil {
		return Transaction{}, false
	}
	return t, true
}

// Read reads ledger lines up to and including cutoff. The ledger is expected
// to be date sorted; reading stops at the first transaction past the cutoff.
// Malformed lines are skipped.
func Read(r io.Reader, cutoff date.Date) []Transaction {
	var transactions []Transaction
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		t, ok := ParseTransaction(scan.Text())
		if !ok {
			continue
		}
		if t.Date.After(cutoff) {
			break
		}
		transactions = append(transactions, t)
	}
	return transactions
}

// ReadFile reads an account ledger file up to and including cutoff.
func ReadFile(path string, cutoff date.Date) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read ledger: %w", err)
	}
	defer f.Close()
	return Read(f, cutoff), nil
}

// Problem is one finding of the ledger audit.
type Problem struct {
	Line int // 1-based line number
	Text string
}

// Check audits a ledger for out-of-order dates. The replay assumes
// non-decreasing dates; an out-of-order line is a data defect in the
// producing export, reported here and never auto-corrected.
func Check(r io.Reader) []Problem {
	var problems []Problem
	var prev date.Date
	scan := bufio.NewScanner(r)
	for n := 1; scan.Scan(); n++ {
		t, ok := ParseTransaction(scan.Text())
		if !ok {
			continue
		}
		if t.Date.Before(prev) {
			problems = append(problems, Problem{Line: n, Text: scan.Text()})
		}
		prev = t.Date
	}
	return problems
}

// Accounts lists the account ledger files in a data directory, sorted by
// name. Hidden files and editor backups are ignored.
func Accounts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list accounts: %w", err)
	}
	var accounts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
			continue
		}
		accounts = append(accounts, name)
	}
	sort.Strings(accounts)
	return accounts, nil
}

// AccountPath returns the ledger file path for an account.
func AccountPath(dir, account string) string { return filepath.Join(dir, account) }

// Money market funds trade at a fixed dollar, so holdings in them are
// reported as cash rather than as equity positions.
var cashLikeSymbols = map[string]bool{
	"CORE":  true,
	"FDRXX": true,
	"SNVXX": true,
	"SPAXX": true,
	"SPRXX": true,
	"SWVXX": true,
	"VMFXX": true,
}

// IsCashLike reports whether symbol is a money market fund reported as cash.
func IsCashLike(symbol string) bool { return cashLikeSymbols[symbol] }
