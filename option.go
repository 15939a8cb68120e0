package brokerage

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/etnz/brokerage/date"
)

// Option symbols follow the OCC composite convention used by broker exports:
// the underlying ticker, a 6-digit expiration (YYMMDD), a right letter
// ('C' for calls, 'P' for puts) and an 8-digit strike in thousandths.
// For example AAPL120317C00540000 is the AAPL Mar 17 2012 540.0 call.

var optionPattern = regexp.MustCompile(`^(.*)(\d{6})([PC])(\d{8})$`)

// Some underlyings are spelled differently in option symbols than as plain
// tickers. The codec canonicalizes them both ways.
var optionUnderlyingAlias = map[string]string{
	"BRKB": "BRK-B",
	"VIX":  "^VIX",
}

var optionUnderlyingUnalias = map[string]string{
	"BRK-B": "BRKB",
	"^VIX":  "VIX",
}

// Option holds the decoded parameters of a composite option symbol.
type Option struct {
	Underlying string    // plain ticker of the underlying
	Expiration date.Date // expiration day
	Call       bool      // true for a call, false for a put
	Strike     float64
}

// IsOptionSymbol reports whether symbol looks like a composite option symbol.
// It is a cheap check used on hot paths; ParseOption is the authoritative one.
func IsOptionSymbol(symbol string) bool {
	if len(symbol) < 16 {
		return false
	}
	right := symbol[len(symbol)-9]
	if right != 'P' && right != 'C' {
		return false
	}
	for _, c := range symbol[len(symbol)-8:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	for _, c := range symbol[len(symbol)-15 : len(symbol)-9] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ParseOption decodes a composite option symbol.
func ParseOption(symbol string) (Option, error) {
	m := optionPattern.FindStringSubmatch(symbol)
	if m == nil {
		return Option{}, fmt.Errorf("not an option symbol: %q", symbol)
	}
	underlying := m[1]
	if alias, ok := optionUnderlyingAlias[underlying]; ok {
		underlying = alias
	}
	yy, _ := strconv.Atoi(m[2][0:2])
	mm, _ := strconv.Atoi(m[2][2:4])
	dd, _ := strconv.Atoi(m[2][4:6])
	if yy < 70 {
		yy += 2000
	} else {
		yy += 1900
	}
	milli, _ := strconv.Atoi(m[4])
	return Option{
		Underlying: underlying,
		Expiration: date.New(yy, time.Month(mm), dd),
		Call:       m[3] == "C",
		Strike:     float64(milli) / 1000,
	}, nil
}

// Symbol encodes the option back into its composite symbol. It is the exact
// inverse of ParseOption.
func (o Option) Symbol() string {
	underlying := o.Underlying
	if alias, ok := optionUnderlyingUnalias[underlying]; ok {
		underlying = alias
	}
	right := byte('P')
	if o.Call {
		right = 'C'
	}
	return fmt.Sprintf("%s%02d%02d%02d%c%08d",
		underlying,
		o.Expiration.Year()%100, int(o.Expiration.Month()), o.Expiration.Day(),
		right,
		int(o.Strike*1000+0.5))
}

// Expired reports whether the option is expired as of the given day.
func (o Option) Expired(on date.Date) bool { return o.Expiration.Before(on) }
