package brokerage

import (
	"math"

	"github.com/etnz/brokerage/date"
	"github.com/shopspring/decimal"
)

// Share counts are carried as float64 because broker exports contain
// fractional shares from reinvested dividends. Counts below dustShares are
// treated as zero; leftovers below residualShares never open a new lot.
const (
	dustShares     = 1e-4
	residualShares = 1e-3
)

// round2 rounds to cents, half away from zero.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// round8 rounds to 8 decimal places, half away from zero.
func round8(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(8).Float64()
	return f
}

// isDust reports whether a share count is effectively zero.
func isDust(shares float64) bool { return math.Abs(shares) < dustShares }

// Dividend is a payment attributed to a single lot.
type Dividend struct {
	Date   date.Date `json:"date"`
	Amount float64   `json:"amount"`
}

// prorate returns a deep copy of the dividend list scaled by fraction.
// Copies never alias the source records.
func prorate(dividends []Dividend, fraction float64) []Dividend {
	if dividends == nil {
		return nil
	}
	out := make([]Dividend, len(dividends))
	for i, d := range dividends {
		out[i] = Dividend{Date: d.Date, Amount: d.Amount * fraction}
	}
	return out
}

// Lot is an open slice of a position: shares acquired together at a single
// per-share price, expense and basis adjustment. Shares are negative for a
// short lot. WashDays extends the holding period without moving AcquiredOn.
type Lot struct {
	Symbol     string
	Shares     float64
	Price      float64 // per share
	Expense    float64 // per share
	Adj        float64 // per share basis adjustment
	AcquiredOn date.Date
	WashDays   int
	Account    string // "" when the ledger carries a single account
	Dividends  []Dividend
	Returns    []Dividend // return of capital payments
}

// Split carves shares out of l into a new lot with identical per-share terms.
// Attached dividend records are pro-rated between the two, never shared.
// The caller must ensure 0 < shares < l.Shares.
func (l *Lot) Split(shares float64) *Lot {
	fraction := shares / l.Shares
	out := &Lot{
		Symbol:     l.Symbol,
		Shares:     shares,
		Price:      l.Price,
		Expense:    l.Expense,
		Adj:        l.Adj,
		AcquiredOn: l.AcquiredOn,
		WashDays:   l.WashDays,
		Account:    l.Account,
		Dividends:  prorate(l.Dividends, fraction),
		Returns:    prorate(l.Returns, fraction),
	}
	l.Shares -= shares
	l.Dividends = prorate(l.Dividends, 1-fraction)
	l.Returns = prorate(l.Returns, 1-fraction)
	return out
}

// CompletedLot is a closed slice: an opening and a closing fill joined
// together. Shares keep the sign of the opening side, so a buy-to-cover
// close carries negative shares.
type CompletedLot struct {
	Symbol       string
	Shares       float64
	StartPrice   float64 // per share
	StartExpense float64
	StartAdj     float64
	EndPrice     float64
	EndExpense   float64
	EndAdj       float64
	AcquiredOn   date.Date
	ClosedOn     date.Date
	WashDays     int
	WashSale     float64 // per-share disallowed loss
	Account      string
	Dividends    []Dividend
}

// Gain returns the realized dollar gain of the closed slice. The price leg
// and the cost leg are rounded to cents separately before subtracting, the
// way broker statements report them.
func (cb *CompletedLot) Gain() float64 {
	return round2(cb.Shares*(cb.EndPrice-cb.StartPrice)) -
		round2(math.Abs(cb.Shares)*(cb.StartExpense+cb.StartAdj+cb.EndExpense+cb.EndAdj))
}

// LongTerm reports whether the holding period, extended by wash sale days,
// reaches a year.
func (cb *CompletedLot) LongTerm() bool {
	return cb.ClosedOn.Sub(cb.AcquiredOn)+cb.WashDays >= 365
}

// Split carves shares out of cb into a new completed lot with identical
// per-share terms, pro-rating attached dividends.
// The caller must ensure 0 < shares < cb.Shares.
func (cb *CompletedLot) Split(shares float64) *CompletedLot {
	fraction := shares / cb.Shares
	out := &CompletedLot{
		Symbol:       cb.Symbol,
		Shares:       shares,
		StartPrice:   cb.StartPrice,
		StartExpense: cb.StartExpense,
		StartAdj:     cb.StartAdj,
		EndPrice:     cb.EndPrice,
		EndExpense:   cb.EndExpense,
		EndAdj:       cb.EndAdj,
		AcquiredOn:   cb.AcquiredOn,
		ClosedOn:     cb.ClosedOn,
		WashDays:     cb.WashDays,
		WashSale:     cb.WashSale,
		Account:      cb.Account,
		Dividends:    prorate(cb.Dividends, fraction),
	}
	cb.Shares -= shares
	cb.Dividends = prorate(cb.Dividends, 1-fraction)
	return out
}
