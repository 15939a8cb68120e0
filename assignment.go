package brokerage

import "slices"

// pairedTransaction is one dispatch unit of a date group: a transaction,
// optionally joined with the same-day option trade it settles.
type pairedTransaction struct {
	Tx     Transaction
	Option *Transaction
}

// matchOptions pairs each stock trade of a date group with an option trade
// for an assignment or exercise: an option line with a zero price, on the
// stock's underlying, struck at the stock trade's price, on the side a put
// or call assignment implies. Matching is greedy in declaration order; the
// first eligible candidate wins. The group order is otherwise preserved,
// with paired option lines folded into their stock line.
func matchOptions(group []Transaction) []pairedTransaction {
	items := make([]pairedTransaction, len(group))
	var stocks []int
	for i, t := range group {
		items[i] = pairedTransaction{Tx: t}
		if (t.Kind == KindBuy || t.Kind == KindSell) && !IsOptionSymbol(t.Symbol) {
			stocks = append(stocks, i)
		}
	}
	for len(stocks) > 0 {
		idx1 := stocks[0]
		stocks = stocks[1:]
		t := items[idx1].Tx
		idx2 := -1
		for i := range items {
			if i == idx1 || items[i].Option != nil {
				continue
			}
			t2 := items[i].Tx
			if (t2.Kind != KindBuy && t2.Kind != KindSell) || t2.Amount1 != 0 {
				continue
			}
			o, err := ParseOption(t2.Symbol)
			if err != nil {
				continue
			}
			// A put assignment trades the stock on the same side as the
			// option position, a call on the opposite side.
			if o.Underlying == t.Symbol && o.Strike == t.Amount1 &&
				(t2.Kind == t.Kind) == !o.Call {
				idx2 = i
				break
			}
		}
		if idx2 >= 0 {
			option := items[idx2].Tx
			items[idx1].Option = &option
			items = slices.Delete(items, idx2, idx2+1)
			for k := range stocks {
				if stocks[k] > idx2 {
					stocks[k]--
				}
			}
		}
	}
	return items
}

// assignOption replays the option leg of an assignment, then claims the
// completed lots it just closed, by signed share count, moving them to the
// assigned list. The stock handler converts each claimed slice into the
// underlying trade at the strike.
func (p *Portfolio) assignOption(option Transaction) []*CompletedLot {
	var remaining float64
	if option.Kind == KindBuy {
		p.handleBuy(option, nil)
		remaining = option.Count
	} else {
		p.handleSell(option, nil)
		remaining = -option.Count
	}
	var assigned []*CompletedLot
	for remaining != 0 && len(p.completed) > 0 {
		cb := p.completed[len(p.completed)-1]
		p.completed = p.completed[:len(p.completed)-1]
		remaining += cb.Shares
		assigned = append(assigned, cb)
	}
	slices.Reverse(assigned)
	p.assigned = append(p.assigned, assigned...)
	// Assigned slices are settled by the exercise, not by a market sale;
	// they never seed wash sale matches.
	if len(assigned) > 0 {
		sells := p.recentSells[:0]
		for _, cb := range p.recentSells {
			if !slices.Contains(assigned, cb) {
				sells = append(sells, cb)
			}
		}
		p.recentSells = sells
	}
	return assigned
}
