package brokerage

import (
	"encoding/json"
	"sort"

	"github.com/etnz/brokerage/date"
)

// MarshalJSON renders an open lot with the field names the reporting frontend
// consumes. Floats are rounded to 8 decimal places.
func (l *Lot) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append("symbol", l.Symbol).
		Append("nshares", round8(l.Shares)).
		Append("share_price", round8(l.Price)).
		Append("share_expense", round8(l.Expense)).
		Append("share_adj", round8(l.Adj)).
		Append("purchase_date", l.AcquiredOn).
		Optional("wash_days", l.WashDays).
		Optional("account", l.Account).
		Optional("dividends", l.Dividends).
		Optional("returns", l.Returns)
	return w.MarshalJSON()
}

// MarshalJSON renders a closed slice for tax and history views.
func (cb *CompletedLot) MarshalJSON() ([]byte, error) {
	w := &jsonObjectWriter{}
	w.Append("symbol", cb.Symbol).
		Append("nshares", round8(cb.Shares)).
		Append("start_share_price", round8(cb.StartPrice)).
		Append("end_share_price", round8(cb.EndPrice)).
		Append("start_share_expense", round8(cb.StartExpense)).
		Append("end_share_expense", round8(cb.EndExpense)).
		Append("start_share_adj", round8(cb.StartAdj)).
		Append("end_share_adj", round8(cb.EndAdj)).
		Append("wash_sale", round8(cb.WashSale)).
		Append("start_date", cb.AcquiredOn).
		Append("end_date", cb.ClosedOn).
		Optional("wash_days", cb.WashDays).
		Optional("account", cb.Account).
		Optional("dividends", cb.Dividends)
	return w.MarshalJSON()
}

// Report is a JSON view over a replayed portfolio. The zero scope is the
// as-of state; a year scopes the closed slices to a tax year; All returns
// the full closing history.
type Report struct {
	portfolio *Portfolio
	year      int
	all       bool
}

// Report returns the as-of state view: open lots, cash and the year-scoped
// realized totals.
func (p *Portfolio) Report() *Report { return &Report{portfolio: p} }

// TaxReport returns the tax-year view: the as-of state plus the closed
// slices ending within year and that year's dividend totals.
func (p *Portfolio) TaxReport(year int) *Report { return &Report{portfolio: p, year: year} }

// HistoryReport returns the full history view: every completed and assigned
// slice, unfiltered.
func (p *Portfolio) HistoryReport() *Report { return &Report{portfolio: p, all: true} }

// Lots returns the open lots, ordered by symbol then acquisition order.
func (p *Portfolio) Lots() []*Lot {
	symbols := make([]string, 0, len(p.lots))
	for symbol := range p.lots {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	var lots []*Lot
	for _, symbol := range symbols {
		lots = append(lots, p.lots[symbol]...)
	}
	return lots
}

// CompletedLots returns the closed slices in closing order. A positive year
// restricts them to closes within that calendar year.
func (p *Portfolio) CompletedLots(year int) []*CompletedLot {
	if year == 0 {
		return p.completed
	}
	start, end := date.YearStart(year), date.YearStart(year+1)
	var out []*CompletedLot
	for _, cb := range p.completed {
		if !cb.ClosedOn.Before(start) && cb.ClosedOn.Before(end) {
			out = append(out, cb)
		}
	}
	return out
}

// AssignedLots returns the slices closed by option assignment, in closing order.
func (p *Portfolio) AssignedLots() []*CompletedLot { return p.assigned }

// YearDividends returns the per-symbol dividend totals of a calendar year.
func (p *Portfolio) YearDividends(year int) map[string]float64 {
	dividends := make(map[string]float64, len(p.yearDividend[year]))
	for symbol, amount := range p.yearDividend[year] {
		dividends[symbol] = round8(amount)
	}
	return dividends
}

// Income returns the as-of year's interest and dividend income per symbol,
// in payment order.
func (p *Portfolio) Income() []*Income { return p.income }

func (r *Report) MarshalJSON() ([]byte, error) {
	p := r.portfolio
	w := &jsonObjectWriter{}
	w.Append("date", p.AsOf).
		Optional("account", p.Account).
		Append("cash", round8(p.Cash)).
		Append("cash_diff", round8(p.CashDiff)).
		Append("equity_diff", round8(p.EquityDiff)).
		Append("cash_like", round8(p.CashLike())).
		Append("realized_long", round8(p.RealizedLong)).
		Append("realized_short", round8(p.RealizedShort)).
		Append("interest", round8(p.InterestTotal)).
		Append("new_deposits", round8(p.NewDeposits)).
		Append("total_deposits", round8(p.TotalDeposits)).
		Append("lots", p.Lots())
	switch {
	case r.all:
		w.Append("completed_lots", p.CompletedLots(0)).
			Append("assigned_lots", p.AssignedLots())
	case r.year != 0:
		w.Append("completed_lots", p.CompletedLots(r.year)).
			Append("dividend", p.YearDividends(r.year)).
			Append("income", p.income)
	}
	return w.MarshalJSON()
}

// String renders the report as indented JSON.
func (r *Report) String() string {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(b)
}
