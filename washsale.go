package brokerage

import (
	"slices"

	"github.com/etnz/brokerage/date"
)

// washWindowDays is the reach of the wash sale rule on each side of a
// trade: a loss sale is disallowed when substantially identical shares are
// bought up to 30 days before or after it.
const washWindowDays = 30

// pruneWindows drops window entries that can no longer match: expired ones,
// closed lots, and sales whose loss has been fully disallowed already.
func (p *Portfolio) pruneWindows(on date.Date) {
	buys := p.recentBuys[:0]
	for _, l := range p.recentBuys {
		if l.Shares > 0 && on.Sub(l.AcquiredOn) <= washWindowDays {
			buys = append(buys, l)
		}
	}
	p.recentBuys = buys

	sells := p.recentSells[:0]
	for _, cb := range p.recentSells {
		if cb.Shares > 0 && cb.Gain() < 0 && on.Sub(cb.ClosedOn) <= washWindowDays {
			sells = append(sells, cb)
		}
	}
	p.recentSells = sells
}

// washMatch disallows the loss of cb against the equally sized replacement
// lot l. The per-share loss moves from the sale to the replacement's basis,
// the replacement's holding period is extended by the closed slice's span,
// and the sale's own gain is zeroed through its end adjustment. The
// disallowed amount is added back to the realized totals so a washed loss
// is never reported as realized.
func (p *Portfolio) washMatch(l *Lot, cb *CompletedLot) {
	wash := -cb.Gain() / cb.Shares
	l.Adj += wash
	// Accumulate: the same replacement lot can absorb several losses.
	l.WashDays += cb.ClosedOn.Sub(cb.AcquiredOn)
	l.Dividends = append(l.Dividends, prorate(cb.Dividends, 1)...)
	cb.WashSale = wash
	cb.EndAdj -= wash
	p.book(cb, wash*cb.Shares)
}

// splitCompleted carves the unmatched remainder out of cb, leaving cb with
// exactly matched shares. The remainder stays next to cb in the completed
// list so reports keep the closing order.
func (p *Portfolio) splitCompleted(cb *CompletedLot, matched float64) *CompletedLot {
	rest := cb.Split(cb.Shares - matched)
	if i := slices.Index(p.completed, cb); i >= 0 {
		p.completed = slices.Insert(p.completed, i+1, rest)
	} else {
		p.completed = append(p.completed, rest)
	}
	return rest
}

// checkWashBuy matches a newly opened long lot against recent losing sales
// of the same symbol, splitting whichever side is larger so matched sizes
// are equal. It returns the pieces of the lot to add to the ledger.
func (p *Portfolio) checkWashBuy(nl *Lot) []*Lot {
	pieces := []*Lot{nl}
	cur := nl
	for _, cb := range p.recentSells {
		if cb.Symbol != cur.Symbol || cb.Shares <= 0 || cb.Gain() >= 0 {
			continue
		}
		n := cur.Shares
		if cb.Shares < n {
			n = cb.Shares
		}
		var rest *Lot
		if cur.Shares > n {
			rest = cur.Split(cur.Shares - n)
			pieces = append(pieces, rest)
		}
		if cb.Shares > n {
			p.recentSells = append(p.recentSells, p.splitCompleted(cb, n))
		}
		p.washMatch(cur, cb)
		if rest == nil {
			break
		}
		cur = rest
	}
	return pieces
}

// checkWashSell handles the opposite ordering: a loss realized after the
// replacement shares were already bought. Each losing close in closed is
// matched against the open lots bought in the preceding window. Matched
// lots move behind their unmatched peers of the same acquisition date,
// mirroring the order the matching has always produced.
func (p *Portfolio) checkWashSell(lots []*Lot, closed []*CompletedLot) []*Lot {
	matched := make(map[*Lot]bool)
	for _, cb := range closed {
		if cb.Shares <= 0 || cb.Gain() >= 0 {
			continue
		}
		cur := cb
		for i := 0; i < len(p.recentBuys); i++ {
			l := p.recentBuys[i]
			if matched[l] || l.Symbol != cur.Symbol || l.Shares <= 0 {
				continue
			}
			if cur.ClosedOn.Sub(l.AcquiredOn) > washWindowDays {
				continue
			}
			n := cur.Shares
			if l.Shares < n {
				n = l.Shares
			}
			if l.Shares > n {
				rest := l.Split(l.Shares - n)
				p.recentBuys = slices.Insert(p.recentBuys, i+1, rest)
				if j := slices.Index(lots, l); j >= 0 {
					lots = slices.Insert(lots, j+1, rest)
				} else {
					lots = append(lots, rest)
				}
			}
			var cbRest *CompletedLot
			if cur.Shares > n {
				cbRest = p.splitCompleted(cur, n)
			}
			p.washMatch(l, cur)
			matched[l] = true
			if cbRest == nil {
				break
			}
			cur = cbRest
		}
	}
	if len(matched) == 0 {
		return lots
	}
	var rest, used []*Lot
	for _, l := range lots {
		if matched[l] {
			used = append(used, l)
		} else {
			rest = append(rest, l)
		}
	}
	lots = append(rest, used...)
	sortLots(lots)
	return lots
}
