package brokerage

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/etnz/brokerage/date"
)

// FillLots replays a date-sorted transaction stream into the portfolio.
// Transactions are dispatched one date group at a time: the wash sale
// windows are pruned, option assignments are paired, then each item runs in
// declaration order. Replaying out-of-order dates yields undefined results;
// use Check to audit a ledger first.
func (p *Portfolio) FillLots(transactions []Transaction) {
	year := 0
	var yearEnd date.Date
	for start := 0; start < len(transactions); {
		on := transactions[start].Date
		end := start
		for end < len(transactions) && transactions[end].Date == on {
			end++
		}
		p.pruneWindows(on)
		for _, item := range matchOptions(transactions[start:end]) {
			t := item.Tx
			switch {
			case item.Option != nil:
				if t.Kind == KindBuy {
					p.handleBuy(t, item.Option)
				} else {
					p.handleSell(t, item.Option)
				}
			case t.Kind == KindBuy:
				p.handleBuy(t, nil)
			case t.Kind == KindSell:
				p.handleSell(t, nil)
			case t.Kind == KindInterest || t.Kind == KindReturnOfCapital:
				if !t.Date.Before(yearEnd) {
					year = t.Date.Year()
					yearEnd = date.YearStart(year + 1)
				}
				p.handleInterest(t, year)
			case t.Kind == KindChange:
				p.handleChange(t)
			case t.Kind == KindSplit:
				p.handleSplit(t)
			case t.Kind == KindDeposit:
				p.handleDeposit(t)
			}
		}
		start = end
	}
}

// Combine merges replayed portfolios into one logical portfolio: lots and
// closed slices are unioned and re-sorted by date, scalar totals are
// summed. The inputs are left untouched and must not be replayed further;
// the combined portfolio can be.
func Combine(portfolios ...*Portfolio) *Portfolio {
	var asOf date.Date
	for _, q := range portfolios {
		if q.AsOf.After(asOf) {
			asOf = q.AsOf
		}
	}
	p := NewPortfolio(asOf, "")
	for _, q := range portfolios {
		for symbol, lots := range q.lots {
			p.lots[symbol] = append(p.lots[symbol], lots...)
		}
		p.completed = append(p.completed, q.completed...)
		p.assigned = append(p.assigned, q.assigned...)
		p.recentBuys = append(p.recentBuys, q.recentBuys...)
		p.recentSells = append(p.recentSells, q.recentSells...)
		p.Deposits = append(p.Deposits, q.Deposits...)

		p.RealizedLong += q.RealizedLong
		p.RealizedShort += q.RealizedShort
		p.InterestTotal += q.InterestTotal
		p.PurchaseTotal += q.PurchaseTotal
		p.SalesTotal += q.SalesTotal
		p.Cash += q.Cash
		p.CashDiff += q.CashDiff
		p.EquityDiff += q.EquityDiff
		p.NewDeposits += q.NewDeposits
		p.TotalDeposits += q.TotalDeposits
		if q.firstDeposit.Before(p.firstDeposit) {
			p.firstDeposit = q.firstDeposit
		}
		for _, in := range q.income {
			p.addIncome(in.Symbol, in.Amount)
		}
		for year, dividends := range q.yearDividend {
			merged := p.yearDividend[year]
			if merged == nil {
				merged = make(map[string]float64)
				p.yearDividend[year] = merged
			}
			for symbol, amount := range dividends {
				merged[symbol] += amount
			}
		}
	}
	for _, lots := range p.lots {
		sortLots(lots)
	}
	sort.SliceStable(p.completed, func(i, j int) bool {
		return p.completed[i].ClosedOn.Before(p.completed[j].ClosedOn)
	})
	sort.SliceStable(p.assigned, func(i, j int) bool {
		return p.assigned[i].ClosedOn.Before(p.assigned[j].ClosedOn)
	})
	sort.SliceStable(p.Deposits, func(i, j int) bool {
		return p.Deposits[i].Date.Before(p.Deposits[j].Date)
	})
	return p
}

func (p *Portfolio) addIncome(symbol string, amount float64) {
	for _, in := range p.income {
		if in.Symbol == symbol {
			in.Amount += amount
			return
		}
	}
	p.income = append(p.income, &Income{Symbol: symbol, Amount: amount})
}

// Transfer records an incoming transfer of a whole account's holdings.
// The transfer is not a taxable event: the source lots carry their basis
// and acquisition dates forward.
type Transfer struct {
	Date date.Date
	From string
}

// Transfers maps each account to its incoming transfers, sorted by date.
// It is threaded explicitly through portfolio building; there is no
// process-wide registry.
type Transfers map[string][]Transfer

// ParseTransfers reads a transfer table, one transfer per line in the form
// "account|YYYY-MM-DD|source". Blank lines and #comments are skipped.
func ParseTransfers(r io.Reader) (Transfers, error) {
	transfers := make(Transfers)
	scan := bufio.NewScanner(r)
	for n := 1; scan.Scan(); n++ {
		line, _, _ := strings.Cut(scan.Text(), "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 3 {
			return nil, fmt.Errorf("transfers line %d: want account|date|source, got %q", n, line)
		}
		on, err := date.Parse(fields[1])
		if err != nil {
			return nil, fmt.Errorf("transfers line %d: %w", n, err)
		}
		account := fields[0]
		transfers[account] = append(transfers[account], Transfer{Date: on, From: fields[2]})
	}
	for _, list := range transfers {
		sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	}
	return transfers, nil
}

// BuildPortfolio replays one account as of a date. Incoming transfers split
// the replay: the account's own ledger runs up to each boundary, the source
// account is replayed in full up to that date and folded in, then the
// replay continues. Each replay keeps its own wash sale windows, so wash
// sales never match across accounts.
func BuildPortfolio(dir, account string, asOf date.Date, transfers Transfers) (*Portfolio, error) {
	transactions, err := ReadFile(AccountPath(dir, account), asOf)
	if err != nil {
		return nil, err
	}
	p := NewPortfolio(asOf, account)
	var start date.Date
	for _, transfer := range transfers[account] {
		if transfer.Date.After(asOf) {
			break
		}
		p.FillLots(between(transactions, start, transfer.Date))
		start = transfer.Date

		source, err := ReadFile(AccountPath(dir, transfer.From), transfer.Date)
		if err != nil {
			return nil, fmt.Errorf("transfer from %s: %w", transfer.From, err)
		}
		sp := NewPortfolio(transfer.Date, account)
		sp.FillLots(source)
		p = Combine(p, sp)
		p.Account = account
	}
	p.FillLots(between(transactions, start, asOf))
	return p, nil
}

// between selects transactions with start < date <= end. A zero start
// selects from the beginning.
func between(transactions []Transaction, start, end date.Date) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if (start.IsZero() || t.Date.After(start)) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out
}

// CombinedAccount is the reserved account name selecting the merged view
// of every account in the data directory.
const CombinedAccount = "combined"

// BuildCombined replays every account in dir and merges them into one
// combined view.
func BuildCombined(dir string, asOf date.Date, transfers Transfers) (*Portfolio, error) {
	accounts, err := Accounts(dir)
	if err != nil {
		return nil, err
	}
	var portfolios []*Portfolio
	for _, account := range accounts {
		p, err := BuildPortfolio(dir, account, asOf, transfers)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	return Combine(portfolios...), nil
}
