package brokerage

import (
	"fmt"
	"log"

	"github.com/etnz/brokerage/date"
)

// DailySnapshot is one cached point of an account's equity curve.
type DailySnapshot struct {
	Account   string             `json:"account"`
	Date      date.Date          `json:"date"`
	Equity    float64            `json:"equity"`
	Cash      float64            `json:"cash"`
	Deposits  float64            `json:"deposits"`
	Positions map[string]float64 `json:"positions,omitempty"`
}

// SnapshotStore caches daily snapshots per account. Dates must be appended
// in increasing order per account; the engine never rewrites a stored day.
// Callers must serialize writes per account.
type SnapshotStore interface {
	// Latest returns the most recent snapshot at or before cutoff, or nil
	// when the account has none.
	Latest(account string, cutoff date.Date) (*DailySnapshot, error)
	Append(snap *DailySnapshot) error
	Range(account string, r date.Range) ([]*DailySnapshot, error)
	// Clear drops the stored history of account, or of every account when
	// account is empty.
	Clear(account string) error
}

// HistoryBuilder extends and serves cached equity curves. Each account's
// history is stored contiguously over trading days; a build resumes from
// the most recent stored day instead of recomputing the whole curve.
type HistoryBuilder struct {
	Dir       string
	Quotes    QuoteService
	Store     SnapshotStore
	Transfers Transfers
}

// Build ensures the account's history is computed through r.To and returns
// the snapshots within r.
func (h *HistoryBuilder) Build(account string, r date.Range) ([]*DailySnapshot, error) {
	latest, err := h.Store.Latest(account, r.To)
	if err != nil {
		return nil, err
	}
	var start date.Date
	if latest != nil {
		start = latest.Date.Add(1)
	} else if start, err = h.firstDate(account, r.To); err != nil {
		return nil, err
	}
	for day := start; !day.After(r.To) && !day.IsZero(); day = day.Add(1) {
		if !IsTradingDay(day) {
			continue
		}
		snap, err := h.snapshot(account, day)
		if err != nil {
			return nil, err
		}
		if err := h.Store.Append(snap); err != nil {
			return nil, err
		}
	}
	return h.Store.Range(account, r)
}

// firstDate returns the first transaction date across the accounts the
// curve covers, or the zero date when there are none before cutoff.
func (h *HistoryBuilder) firstDate(account string, cutoff date.Date) (date.Date, error) {
	accounts := []string{account}
	if account == CombinedAccount {
		var err error
		if accounts, err = Accounts(h.Dir); err != nil {
			return date.Date{}, err
		}
	}
	var first date.Date
	for _, a := range accounts {
		transactions, err := ReadFile(AccountPath(h.Dir, a), cutoff)
		if err != nil {
			return date.Date{}, err
		}
		if len(transactions) > 0 && (first.IsZero() || transactions[0].Date.Before(first)) {
			first = transactions[0].Date
		}
	}
	return first, nil
}

func (h *HistoryBuilder) snapshot(account string, day date.Date) (*DailySnapshot, error) {
	var p *Portfolio
	var err error
	if account == CombinedAccount {
		p, err = BuildCombined(h.Dir, day, h.Transfers)
	} else {
		p, err = BuildPortfolio(h.Dir, account, day, h.Transfers)
	}
	if err != nil {
		return nil, err
	}
	quotes, err := h.Quotes.GetQuotes(day, p.CurrentSymbols())
	if err != nil {
		return nil, fmt.Errorf("history %s %s: %w", account, day, err)
	}
	// Same-day deposits are reported separately by the replay; the end of
	// day snapshot includes them.
	cash := p.Cash + p.NewDeposits
	snap := &DailySnapshot{
		Account:   account,
		Date:      day,
		Cash:      cash,
		Deposits:  p.TotalDeposits + p.NewDeposits,
		Equity:    cash + p.CashLike(),
		Positions: make(map[string]float64),
	}
	for symbol, shares := range p.Positions() {
		if isDust(shares) {
			continue
		}
		snap.Positions[symbol] = round8(shares)
		if IsCashLike(symbol) {
			continue
		}
		price, ok := quotes[symbol]
		if !ok {
			log.Printf("no quote for %s on %s, position not valued", symbol, day)
			continue
		}
		snap.Equity += shares * price
	}
	snap.Equity = round2(snap.Equity)
	snap.Cash = round2(snap.Cash)
	snap.Deposits = round2(snap.Deposits)
	return snap, nil
}
