package brokerage

import (
	"time"

	"github.com/etnz/brokerage/date"
)

// IsTradingDay reports whether U.S. exchanges are open on d. It covers
// weekends and the regular full-day market holidays; ad-hoc closures such
// as days of mourning are not modeled, a missing quote file covers those.
func IsTradingDay(d date.Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isMarketHoliday(d)
}

// PreviousTradingDay returns the last trading day strictly before d.
func PreviousTradingDay(d date.Date) date.Date {
	for {
		d = d.Add(-1)
		if IsTradingDay(d) {
			return d
		}
	}
}

func isMarketHoliday(d date.Date) bool {
	year, day := d.Year(), d.Day()
	switch d.Month() {
	case time.January:
		return observed(d, 1) || nthWeekday(d, time.Monday, 3) // New Year's Day, MLK Day
	case time.February:
		return nthWeekday(d, time.Monday, 3) // Presidents' Day
	case time.March, time.April:
		return d == goodFriday(year)
	case time.May:
		return lastWeekday(d, time.Monday) // Memorial Day
	case time.June:
		return year >= 2022 && observed(d, 19) // Juneteenth
	case time.July:
		return observed(d, 4) // Independence Day
	case time.September:
		return nthWeekday(d, time.Monday, 1) // Labor Day
	case time.November:
		return nthWeekday(d, time.Thursday, 4) // Thanksgiving
	case time.December:
		// New Year's Day observed on Friday December 31st.
		if day == 31 && d.Weekday() == time.Friday {
			return true
		}
		return observed(d, 25) // Christmas
	}
	return false
}

// observed reports whether d is the observed weekday for a fixed-date
// holiday: the day itself, the preceding Friday when it falls on a
// Saturday, or the following Monday when it falls on a Sunday.
func observed(d date.Date, day int) bool {
	switch d.Weekday() {
	case time.Friday:
		return d.Day() == day || d.Day() == day-1
	case time.Monday:
		return d.Day() == day || d.Day() == day+1
	case time.Saturday, time.Sunday:
		return false
	}
	return d.Day() == day
}

// nthWeekday reports whether d is the n-th given weekday of its month.
func nthWeekday(d date.Date, weekday time.Weekday, n int) bool {
	return d.Weekday() == weekday && (d.Day()-1)/7 == n-1
}

// lastWeekday reports whether d is the last given weekday of its month.
func lastWeekday(d date.Date, weekday time.Weekday) bool {
	return d.Weekday() == weekday && d.Add(7).Month() != d.Month()
}

// goodFriday returns the Good Friday of a year, two days before Easter
// Sunday per the anonymous Gregorian computus.
func goodFriday(year int) date.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	dd := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - dd - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date.New(year, time.Month(month), day).Add(-2)
}
