package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/date"
)

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

type memStore struct {
	snaps map[string][]*brokerage.DailySnapshot
}

func (m *memStore) Latest(account string, cutoff date.Date) (*brokerage.DailySnapshot, error) {
	var latest *brokerage.DailySnapshot
	for _, s := range m.snaps[account] {
		if !s.Date.After(cutoff) {
			latest = s
		}
	}
	return latest, nil
}

func (m *memStore) Append(snap *brokerage.DailySnapshot) error {
	m.snaps[snap.Account] = append(m.snaps[snap.Account], snap)
	return nil
}

func (m *memStore) Range(account string, r date.Range) ([]*brokerage.DailySnapshot, error) {
	var out []*brokerage.DailySnapshot
	for _, s := range m.snaps[account] {
		if r.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Clear(account string) error {
	if account == "" {
		m.snaps = make(map[string][]*brokerage.DailySnapshot)
	} else {
		delete(m.snaps, account)
	}
	return nil
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	dir := t.TempDir()
	broker := `2020-01-02|d|transfer|10000
2020-01-03|b|HPE|100|15|4.95
2020-02-03|s|HPE|40|17|4.95`
	roth := `2020-01-02|d|transfer|2000
2020-01-03|b|AAPL|5|300|0`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broker"), []byte(broker), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roth"), []byte(roth), 0o644))
	store := &memStore{snaps: make(map[string][]*brokerage.DailySnapshot)}
	return &Server{
		Dir:    dir,
		Quotes: fixedQuotes{"HPE": 16, "AAPL": 310},
		Store:  store,
		Log:    zerolog.Nop(),
	}, store
}

func get(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestGetAccounts(t *testing.T) {
	s, _ := newTestServer(t)
	code, body := get(t, s, "/get-accounts")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"broker", "roth"}, body["accounts"])
}

func TestGetReport(t *testing.T) {
	s, _ := newTestServer(t)
	code, body := get(t, s, "/get-report?account=broker&date=2020-12-31")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "broker", body["account"])
	accounts := body["accounts"].(map[string]any)
	report := accounts["broker"].(map[string]any)
	// 10000 - (100*15+4.95) + (40*17-4.95)
	assert.InDelta(t, 9170.10, report["cash"], 0.001)
	lots := report["lots"].([]any)
	require.Len(t, lots, 1)
	lot := lots[0].(map[string]any)
	assert.Equal(t, "HPE", lot["symbol"])
	assert.InDelta(t, 60, lot["nshares"], 1e-9)
	quotes := body["quotes"].(map[string]any)
	assert.InDelta(t, 16, quotes["HPE"], 1e-9)
}

func TestGetReportCombined(t *testing.T) {
	s, _ := newTestServer(t)
	code, body := get(t, s, "/get-report?account=combined&date=2020-12-31")
	require.Equal(t, http.StatusOK, code)
	report := body["accounts"].(map[string]any)["combined"].(map[string]any)
	lots := report["lots"].([]any)
	require.Len(t, lots, 2) // AAPL and HPE across both accounts
	first := lots[0].(map[string]any)
	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, "roth", first["account"])
}

func TestGetTaxes(t *testing.T) {
	s, _ := newTestServer(t)
	code, body := get(t, s, "/get-taxes?account=broker&year=2020")
	require.Equal(t, http.StatusOK, code)
	report := body["report"].(map[string]any)
	completed := report["completed_lots"].([]any)
	require.Len(t, completed, 1)
	cb := completed[0].(map[string]any)
	assert.InDelta(t, 40, cb["nshares"], 1e-9)
	assert.InDelta(t, 15, cb["start_share_price"], 1e-9)
	assert.InDelta(t, 17, cb["end_share_price"], 1e-9)
}

func TestGetHistoryAndClear(t *testing.T) {
	s, store := newTestServer(t)
	code, body := get(t, s, "/get-history?account=broker&start=2020-01-02&end=2020-01-10")
	require.Equal(t, http.StatusOK, code)
	history := body["history"].([]any)
	assert.NotEmpty(t, history)
	first := history[0].(map[string]any)
	assert.Equal(t, "2020-01-02", first["date"])
	_, hasPositions := first["positions"]
	assert.False(t, hasPositions, "positions included without positions=true")

	code, _ = get(t, s, "/clear-history?account=broker")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, store.snaps["broker"])
}

func TestGetAnnual(t *testing.T) {
	s, _ := newTestServer(t)
	code, body := get(t, s, "/get-annual?account=broker&date=2021-06-30")
	require.Equal(t, http.StatusOK, code)
	years := body["years"].([]any)
	require.Len(t, years, 2)
	first := years[0].(map[string]any)
	assert.InDelta(t, 2020, first["year"], 0)
	assert.Equal(t, "2020-12-31", first["end"])
}

func TestErrorShape(t *testing.T) {
	s, _ := newTestServer(t)
	code, body := get(t, s, "/get-report?account=missing&date=2020-12-31")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body, "error")
}
