package brokerage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/brokerage/date"
)

func writeQuotes(t *testing.T, dir, day, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, day+".csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCSVQuoteService(t *testing.T) {
	dir := t.TempDir()
	writeQuotes(t, dir, "2023-03-10", "AAPL,150.25\nHPE,16.10\nSPY,390\n")
	s := NewCSVQuoteService(dir)

	quotes, err := s.GetQuotes(date.MustParse("2023-03-10"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 3 || quotes["AAPL"] != 150.25 {
		t.Errorf("quotes = %v", quotes)
	}

	// A weekend date walks back to the most recent close file.
	quotes, err = s.GetQuotes(date.MustParse("2023-03-12"), []string{"HPE"})
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 1 || quotes["HPE"] != 16.10 {
		t.Errorf("filtered quotes = %v, want HPE only", quotes)
	}

	// Beyond the lookback bound the store is stale, not silently bridged.
	if _, err := s.GetQuotes(date.MustParse("2023-04-30"), nil); err == nil {
		t.Error("stale quote store not reported")
	}
}

func TestCSVQuoteServiceSkipsBadRecords(t *testing.T) {
	dir := t.TempDir()
	writeQuotes(t, dir, "2023-03-10", "AAPL,150.25\nBROKEN,notaprice\n")
	s := NewCSVQuoteService(dir)
	quotes, err := s.GetQuotes(date.MustParse("2023-03-10"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := quotes["BROKEN"]; ok {
		t.Error("unparsable price kept")
	}
	if quotes["AAPL"] != 150.25 {
		t.Errorf("quotes = %v", quotes)
	}
}

func TestWriteQuoteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2023-03-10.csv")
	err := writeQuoteFile(path, map[string]float64{"HPE": 16.1, "AAPL": 150.25})
	if err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "AAPL,150.25\nHPE,16.1\n"
	if string(content) != want {
		t.Errorf("quote file = %q, want %q", content, want)
	}
}
