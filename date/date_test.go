package date

import "testing"

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestSub(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2012-03-16", "2012-03-16", 0},
		{"2012-03-16", "2012-03-15", 1},
		{"2012-03-15", "2012-03-16", -1},
		{"2013-01-01", "2012-01-01", 366}, // 2012 is a leap year
		{"2012-04-15", "2012-03-16", 30},
	}
	for _, tt := range tests {
		if got := MustParse(tt.a).Sub(MustParse(tt.b)); got != tt.want {
			t.Errorf("%s.Sub(%s) = %d want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"2012-03-16", New(2012, 3, 16)},
		{"2025-7-1", New(2025, 7, 1)},
		{"12-03-05", New(2012, 3, 5)},
		{"95-06-30", New(1995, 6, 30)},
		{"69-01-02", New(2069, 1, 2)},
		{"70-01-02", New(1970, 1, 2)},
		{"5-6-7", New(2005, 6, 7)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v want %v", tt.in, got, tt.want)
		}
	}
	if _, err := Parse("not-a-date"); err == nil {
		t.Errorf("Parse(not-a-date) expected error")
	}
}

func TestYearBounds(t *testing.T) {
	if got := YearStart(2012); got != New(2012, 1, 1) {
		t.Errorf("YearStart(2012) = %v", got)
	}
	if got := YearEnd(2012); got != New(2012, 12, 31) {
		t.Errorf("YearEnd(2012) = %v", got)
	}
}
