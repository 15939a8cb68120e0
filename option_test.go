package brokerage

import (
	"testing"

	"github.com/etnz/brokerage/date"
)

func TestParseOption(t *testing.T) {
	tests := []struct {
		symbol string
		want   Option
	}{
		{"AAPL120317C00540000", Option{
			Underlying: "AAPL", Expiration: date.MustParse("2012-03-17"),
			Call: true, Strike: 540}},
		{"HPE210115P00012500", Option{
			Underlying: "HPE", Expiration: date.MustParse("2021-01-15"),
			Call: false, Strike: 12.5}},
		{"BRKB230120C00300000", Option{
			Underlying: "BRK-B", Expiration: date.MustParse("2023-01-20"),
			Call: true, Strike: 300}},
	}
	for _, tc := range tests {
		got, err := ParseOption(tc.symbol)
		if err != nil {
			t.Errorf("ParseOption(%q): %v", tc.symbol, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOption(%q) = %+v, want %+v", tc.symbol, got, tc.want)
		}
		if back := got.Symbol(); back != tc.symbol {
			t.Errorf("Symbol() = %q, want %q", back, tc.symbol)
		}
	}
	if _, err := ParseOption("AAPL"); err == nil {
		t.Error("ParseOption(AAPL) succeeded, want error")
	}
}

func TestIsOptionSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"AAPL120317C00540000", true},
		{"HPE210115P00012500", true},
		{"AAPL", false},
		{"SPAXX", false},
		{"AAPL120317X00540000", false}, // bad right letter
		{"AAPL12X317C00540000", false}, // non-digit expiration
		{"C00540000", false},           // too short
	}
	for _, tc := range tests {
		if got := IsOptionSymbol(tc.symbol); got != tc.want {
			t.Errorf("IsOptionSymbol(%q) = %v, want %v", tc.symbol, got, tc.want)
		}
	}
}

func TestOptionExpired(t *testing.T) {
	o, err := ParseOption("AAPL120317C00540000")
	if err != nil {
		t.Fatal(err)
	}
	if o.Expired(date.MustParse("2012-03-17")) {
		t.Error("expired on its own expiration day")
	}
	if !o.Expired(date.MustParse("2012-03-18")) {
		t.Error("not expired the day after expiration")
	}
}
