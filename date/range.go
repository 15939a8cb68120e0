package date

import "iter"

// Range represents an inclusive range of dates.
type Range struct{ From, To Date }

// NewYear returns the range covering the given calendar year.
func NewYear(year int) Range { return Range{From: YearStart(year), To: YearEnd(year)} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// Days returns an iterator over every date in the range, in chronological order.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for on := r.From; !on.After(r.To); on = on.Add(1) {
			if !yield(on) {
				return
			}
		}
	}
}
