package brokerage

import (
	"math"
	"testing"

	"github.com/etnz/brokerage/date"
)

func TestRound(t *testing.T) {
	tests := []struct {
		v, want2 float64
	}{
		{15.0033, 15.00},
		{7.4867, 7.49},
		{-945.9967, -946.00},
		{2.005, 2.01}, // half rounds away from zero
		{-2.005, -2.01},
	}
	for _, tc := range tests {
		if got := round2(tc.v); got != tc.want2 {
			t.Errorf("round2(%v) = %v, want %v", tc.v, got, tc.want2)
		}
	}
	if got := round8(1.0/3.0); got != 0.33333333 {
		t.Errorf("round8(1/3) = %v", got)
	}
}

func TestGain(t *testing.T) {
	cb := &CompletedLot{
		Shares:       200,
		StartPrice:   14.73,
		EndPrice:     10,
		StartExpense: 7.49 / 200,
		EndExpense:   11.27 / 300,
	}
	// Price leg and cost leg are rounded to cents separately.
	want := round2(200*(10-14.73)) - round2(200*(7.49/200+11.27/300))
	if got := cb.Gain(); got != want {
		t.Errorf("Gain() = %v, want %v", got, want)
	}
	short := &CompletedLot{Shares: -50, StartPrice: 12, EndPrice: 11}
	if got := short.Gain(); got != 50 {
		t.Errorf("short Gain() = %v, want 50", got)
	}
}

func TestLongTerm(t *testing.T) {
	acquired := date.MustParse("2020-01-15")
	tests := []struct {
		closed   string
		washDays int
		want     bool
	}{
		{"2020-06-15", 0, false},
		{"2021-01-14", 0, true}, // 2020 is a leap year, 365 days elapsed
		{"2021-01-15", 0, true},
		{"2020-12-31", 45, true}, // wash days extend the holding period
		{"2020-12-31", 0, false},
	}
	for _, tc := range tests {
		cb := &CompletedLot{AcquiredOn: acquired, ClosedOn: date.MustParse(tc.closed), WashDays: tc.washDays}
		if got := cb.LongTerm(); got != tc.want {
			t.Errorf("LongTerm(%s, wash %d) = %v, want %v", tc.closed, tc.washDays, got, tc.want)
		}
	}
}

func TestLotSplit(t *testing.T) {
	l := &Lot{
		Symbol: "HPE", Shares: 100, Price: 15, Expense: 0.05, Adj: 2,
		AcquiredOn: date.MustParse("2020-01-02"), WashDays: 3,
		Dividends: []Dividend{{Date: date.MustParse("2020-03-10"), Amount: 48}},
	}
	out := l.Split(40)
	if out.Shares != 40 || l.Shares != 60 {
		t.Fatalf("shares after split: %v + %v, want 40 + 60", out.Shares, l.Shares)
	}
	if out.Price != 15 || out.Expense != 0.05 || out.Adj != 2 || out.WashDays != 3 {
		t.Errorf("per-share terms not carried: %+v", out)
	}
	if math.Abs(out.Dividends[0].Amount-19.2) > 1e-9 {
		t.Errorf("split dividends = %v, want 19.2", out.Dividends[0].Amount)
	}
	if math.Abs(l.Dividends[0].Amount-28.8) > 1e-9 {
		t.Errorf("remaining dividends = %v, want 28.8", l.Dividends[0].Amount)
	}
	// The records must not alias.
	out.Dividends[0].Amount = 0
	if l.Dividends[0].Amount == 0 {
		t.Error("dividend records alias across the split")
	}
}

func TestCompletedLotSplit(t *testing.T) {
	cb := &CompletedLot{
		Symbol: "HPE", Shares: 100,
		StartPrice: 15, EndPrice: 10, StartExpense: 0.05, EndExpense: 0.02,
		AcquiredOn: date.MustParse("2020-01-02"), ClosedOn: date.MustParse("2020-02-02"),
	}
	whole := cb.Gain()
	out := cb.Split(30)
	if out.Shares != 30 || cb.Shares != 70 {
		t.Fatalf("shares after split: %v + %v, want 30 + 70", out.Shares, cb.Shares)
	}
	if math.Abs(out.Gain()+cb.Gain()-whole) > 0.011 {
		t.Errorf("gain not conserved: %v + %v != %v", out.Gain(), cb.Gain(), whole)
	}
}
