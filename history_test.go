package brokerage

import (
	"math"
	"testing"

	"github.com/etnz/brokerage/date"
)

// fixedQuotes serves the same prices for every day.
type fixedQuotes map[string]float64

func (q fixedQuotes) GetQuotes(on date.Date, symbols []string) (map[string]float64, error) {
	quotes := make(map[string]float64)
	for _, s := range symbols {
		if price, ok := q[s]; ok {
			quotes[s] = price
		}
	}
	return quotes, nil
}

// memStore is an in-memory SnapshotStore for tests.
type memStore struct {
	snaps map[string][]*DailySnapshot
}

func newMemStore() *memStore { return &memStore{snaps: make(map[string][]*DailySnapshot)} }

func (m *memStore) Latest(account string, cutoff date.Date) (*DailySnapshot, error) {
	var latest *DailySnapshot
	for _, s := range m.snaps[account] {
		if !s.Date.After(cutoff) {
			latest = s
		}
	}
	return latest, nil
}

func (m *memStore) Append(snap *DailySnapshot) error {
	m.snaps[snap.Account] = append(m.snaps[snap.Account], snap)
	return nil
}

func (m *memStore) Range(account string, r date.Range) ([]*DailySnapshot, error) {
	var out []*DailySnapshot
	for _, s := range m.snaps[account] {
		if r.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Clear(account string) error {
	if account == "" {
		m.snaps = make(map[string][]*DailySnapshot)
	} else {
		delete(m.snaps, account)
	}
	return nil
}

func TestHistoryBuilder(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir, "broker", `2023-03-06|d|transfer|5000
2023-03-06|b|HPE|100|16|0`)
	store := newMemStore()
	builder := &HistoryBuilder{
		Dir:    dir,
		Quotes: fixedQuotes{"HPE": 17},
		Store:  store,
	}
	// 2023-03-06 is a Monday; the range spans one weekend.
	r := date.Range{From: date.MustParse("2023-03-06"), To: date.MustParse("2023-03-13")}
	snaps, err := builder.Build("broker", r)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 6 {
		t.Fatalf("%d snapshots over 6 trading days, want 6", len(snaps))
	}
	first := snaps[0]
	if first.Date != date.MustParse("2023-03-06") {
		t.Errorf("first snapshot on %s, want 2023-03-06", first.Date)
	}
	if math.Abs(first.Cash-(5000-1600)) > 1e-9 {
		t.Errorf("cash = %v, want 3400", first.Cash)
	}
	if math.Abs(first.Equity-(3400+100*17)) > 1e-9 {
		t.Errorf("equity = %v, want 5100", first.Equity)
	}
	if first.Deposits != 5000 {
		t.Errorf("deposits = %v, want 5000", first.Deposits)
	}
	if first.Positions["HPE"] != 100 {
		t.Errorf("positions = %v", first.Positions)
	}

	// A second build resumes from the store instead of recomputing.
	stored := len(store.snaps["broker"])
	if _, err := builder.Build("broker", r); err != nil {
		t.Fatal(err)
	}
	if got := len(store.snaps["broker"]); got != stored {
		t.Errorf("rebuild appended %d new snapshots", got-stored)
	}
}

func TestHistoryBuilderCashLike(t *testing.T) {
	dir := t.TempDir()
	writeLedger(t, dir, "broker", `2023-03-06|b|SPAXX|2000|1|0`)
	builder := &HistoryBuilder{
		Dir:    dir,
		Quotes: fixedQuotes{},
		Store:  newMemStore(),
	}
	r := date.Range{From: date.MustParse("2023-03-06"), To: date.MustParse("2023-03-06")}
	snaps, err := builder.Build("broker", r)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("%d snapshots, want 1", len(snaps))
	}
	// Money market shares are valued at a dollar without a quote.
	if math.Abs(snaps[0].Equity-0) > 1e-9 {
		t.Errorf("equity = %v, want 0 (cash -2000 plus 2000 cash-like)", snaps[0].Equity)
	}
}
