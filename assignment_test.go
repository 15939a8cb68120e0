package brokerage

import (
	"math"
	"strings"
	"testing"

	"github.com/etnz/brokerage/date"
)

func TestMatchOptions(t *testing.T) {
	group := Read(strings.NewReader(
		`2012-03-17|b|AAPL120317P00540000|100|0|0
2012-03-17|b|AAPL|100|540|0
2012-03-17|b|HPE|50|15|0`), date.MustParse("2012-03-17"))
	items := matchOptions(group)
	if len(items) != 2 {
		t.Fatalf("%d items after pairing, want 2", len(items))
	}
	if items[0].Tx.Symbol != "AAPL" || items[0].Option == nil {
		t.Fatalf("first item = %+v, want AAPL paired with its put", items[0])
	}
	if items[0].Option.Symbol != "AAPL120317P00540000" {
		t.Errorf("paired option = %q", items[0].Option.Symbol)
	}
	if items[1].Tx.Symbol != "HPE" || items[1].Option != nil {
		t.Errorf("second item = %+v, want unpaired HPE", items[1])
	}
}

func TestMatchOptionsRequiresZeroPrice(t *testing.T) {
	// An option trade with a real price is a market trade, not an
	// assignment, and must stay unpaired.
	group := Read(strings.NewReader(
		`2012-03-17|b|AAPL120317P00540000|100|2.5|0
2012-03-17|b|AAPL|100|540|0`), date.MustParse("2012-03-17"))
	items := matchOptions(group)
	if len(items) != 2 {
		t.Fatalf("%d items, want 2 unpaired", len(items))
	}
	for _, item := range items {
		if item.Option != nil {
			t.Errorf("unexpected pairing: %+v", item)
		}
	}
}

// A short put assigned: the written put is bought back at zero and the
// stock is put to us at the strike, with the premium folded into the
// stock basis as a negative adjustment.
func TestPutAssignment(t *testing.T) {
	ledger := `2012-03-01|s|AAPL120317P00540000|100|5|0
2012-03-17|b|AAPL120317P00540000|100|0|0
2012-03-17|b|AAPL|100|540|0`
	p := fill(t, "2012-12-31", ledger)

	if n := p.NetShares("AAPL120317P00540000"); n != 0 {
		t.Errorf("open option shares = %v, want 0", n)
	}
	assigned := p.AssignedLots()
	if len(assigned) != 1 {
		t.Fatalf("%d assigned lots, want 1", len(assigned))
	}
	cb := assigned[0]
	if cb.Shares != -100 || cb.StartPrice != 5 {
		t.Errorf("assigned lot = %+v, want -100 shares from the 5.00 write", cb)
	}
	if len(p.completed) != 0 {
		t.Errorf("assigned lot leaked into completed: %v", p.completed)
	}

	lots := p.lots["AAPL"]
	if len(lots) != 1 {
		t.Fatalf("%d AAPL lots, want 1", len(lots))
	}
	if lots[0].Shares != 100 || lots[0].Price != 540 {
		t.Errorf("AAPL lot = %v@%v, want 100@540", lots[0].Shares, lots[0].Price)
	}
	// adj = start price * sign + start expense = 5 * -1 + 0
	if math.Abs(lots[0].Adj+5) > 1e-9 {
		t.Errorf("AAPL adj = %v, want -5", lots[0].Adj)
	}
	// Premium collected, then the stock paid at strike.
	if math.Abs(p.Cash-(500-54000)) > 1e-9 {
		t.Errorf("cash = %v, want %v", p.Cash, 500-54000)
	}
}

// A long call exercised: the call is sold at zero and the stock is bought
// at the strike; the premium paid raises the stock basis.
func TestCallExercise(t *testing.T) {
	ledger := `2012-03-01|b|AAPL120317C00540000|100|14.73|0
2012-03-17|s|AAPL120317C00540000|100|0|0
2012-03-17|b|AAPL|100|540|0`
	p := fill(t, "2012-12-31", ledger)

	if n := p.NetShares("AAPL120317C00540000"); n != 0 {
		t.Errorf("open option shares = %v, want 0", n)
	}
	assigned := p.AssignedLots()
	if len(assigned) != 1 {
		t.Fatalf("%d assigned lots, want 1", len(assigned))
	}
	if assigned[0].Shares != 100 {
		t.Errorf("assigned shares = %v, want 100", assigned[0].Shares)
	}
	lots := p.lots["AAPL"]
	if len(lots) != 1 {
		t.Fatalf("%d AAPL lots, want 1", len(lots))
	}
	// adj = start price * sign + start expense = 14.73
	if math.Abs(lots[0].Adj-14.73) > 1e-9 {
		t.Errorf("AAPL adj = %v, want 14.73", lots[0].Adj)
	}
}

// Assigned lots never seed wash sale matching: the exercise is a
// settlement, not a market loss.
func TestAssignmentNotWashed(t *testing.T) {
	ledger := `2012-03-01|b|AAPL120317C00540000|100|14.73|0
2012-03-17|s|AAPL120317C00540000|100|0|0
2012-03-17|b|AAPL|100|540|0
2012-03-20|b|AAPL120317C00540000|100|10|0`
	p := fill(t, "2012-12-31", ledger)
	for _, l := range p.lots["AAPL120317C00540000"] {
		if l.Adj != 0 || l.WashDays != 0 {
			t.Errorf("new option lot adjusted by assigned loss: %+v", l)
		}
	}
}
