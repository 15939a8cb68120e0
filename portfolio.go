package brokerage

import (
	"log"
	"math"
	"sort"

	"github.com/etnz/brokerage/date"
)

// longDays is the holding period, in days, at which a gain becomes long term.
const longDays = 365

// Deposit is one cash movement into or out of an account.
type Deposit struct {
	Date   date.Date `json:"date"`
	Amount float64   `json:"amount"`
}

// Income accumulates the current year's interest and dividends per symbol.
type Income struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

// Portfolio is the replayed state of one account (or a combination of
// accounts) as of a date. It is built by FillLots from a date-sorted
// transaction stream and owns all of its state exclusively; nothing here is
// safe for concurrent mutation.
type Portfolio struct {
	AsOf    date.Date
	Account string // "" when not tagging lots with an account

	// Year scoped accumulators cover transactions dated on or after
	// January 1st of the as-of year.
	RealizedLong  float64
	RealizedShort float64
	InterestTotal float64
	PurchaseTotal float64
	SalesTotal    float64

	Cash       float64
	CashDiff   float64 // cash movements dated exactly on AsOf
	EquityDiff float64

	NewDeposits   float64 // deposits dated exactly on AsOf
	TotalDeposits float64
	Deposits      []Deposit

	yearStart    date.Date
	firstDeposit date.Date

	lots      map[string][]*Lot
	completed []*CompletedLot
	assigned  []*CompletedLot
	income    []*Income

	yearDividend map[int]map[string]float64

	// Rolling wash sale windows, pruned at the start of each date group.
	recentBuys  []*Lot
	recentSells []*CompletedLot
}

// NewPortfolio returns an empty portfolio anchored at the given as-of date.
// A non-empty account tags every lot the replay creates.
func NewPortfolio(asOf date.Date, account string) *Portfolio {
	return &Portfolio{
		AsOf:         asOf,
		Account:      account,
		yearStart:    date.YearStart(asOf.Year()),
		firstDeposit: date.YearStart(asOf.Year()).Add(366),
		lots:         make(map[string][]*Lot),
		yearDividend: make(map[int]map[string]float64),
	}
}

func (p *Portfolio) newLot(symbol string, shares, price, expense, adj float64, on date.Date) *Lot {
	return &Lot{
		Symbol:     symbol,
		Shares:     shares,
		Price:      price,
		Expense:    expense,
		Adj:        adj,
		AcquiredOn: on,
		Account:    p.Account,
	}
}

func (p *Portfolio) updateLots(symbol string, lots []*Lot) {
	if len(lots) > 0 {
		p.lots[symbol] = lots
	} else {
		delete(p.lots, symbol)
	}
}

// mergeLots folds lots into any pre-existing lots of symbol, keeping the
// acquisition date order.
func (p *Portfolio) mergeLots(symbol string, lots []*Lot) {
	existing := p.lots[symbol]
	if len(existing) > 0 {
		existing = append(existing, lots...)
		sortLots(existing)
		p.lots[symbol] = existing
	} else {
		p.updateLots(symbol, lots)
	}
}

func sortLots(lots []*Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].AcquiredOn.Before(lots[j].AcquiredOn)
	})
}

// book adds a completed lot's gain to the year's realized totals. Only
// closes dated within the as-of year count.
func (p *Portfolio) book(cb *CompletedLot, amount float64) {
	if cb.ClosedOn.Before(p.yearStart) {
		return
	}
	if cb.LongTerm() {
		p.RealizedLong += amount
	} else {
		p.RealizedShort += amount
	}
}

// sellLot closes up to count shares of a long lot, recording a CompletedLot.
// It returns the basis amount consumed and the still-unfilled count.
func (p *Portfolio) sellLot(l *Lot, count, price, expense, adj float64, on date.Date) (float64, float64) {
	if l.Shares <= 0 {
		return 0, count
	}
	current := count
	if current > l.Shares {
		current = l.Shares
	}
	count -= current
	fraction := current / l.Shares
	amount := current * (l.Price + l.Expense)
	cb := &CompletedLot{
		Symbol:       l.Symbol,
		Shares:       current,
		StartPrice:   l.Price,
		StartExpense: l.Expense,
		StartAdj:     l.Adj,
		EndPrice:     price,
		EndExpense:   expense,
		EndAdj:       adj,
		AcquiredOn:   l.AcquiredOn,
		ClosedOn:     on,
		WashDays:     l.WashDays,
		Account:      l.Account,
		Dividends:    prorate(l.Dividends, fraction),
	}
	p.completed = append(p.completed, cb)
	p.book(cb, cb.Gain())
	l.Shares -= current
	if l.Shares < dustShares {
		l.Shares = 0
	}
	l.Dividends = prorate(l.Dividends, 1-fraction)
	l.Returns = prorate(l.Returns, 1-fraction)
	p.PurchaseTotal += amount
	return amount, count
}

// buyLot covers up to count shares of a short lot, recording a CompletedLot
// with negative shares. It returns the basis amount and the unfilled count.
func (p *Portfolio) buyLot(l *Lot, count, price, expense, adj float64, on date.Date) (float64, float64) {
	if l.Shares >= 0 {
		return 0, count
	}
	current := count
	if current > -l.Shares {
		current = -l.Shares
	}
	count -= current
	fraction := current / -l.Shares
	amount := current * (l.Price + l.Expense)
	cb := &CompletedLot{
		Symbol:       l.Symbol,
		Shares:       -current,
		StartPrice:   l.Price,
		StartExpense: l.Expense,
		StartAdj:     l.Adj,
		EndPrice:     price,
		EndExpense:   expense,
		EndAdj:       adj,
		AcquiredOn:   l.AcquiredOn,
		ClosedOn:     on,
		WashDays:     l.WashDays,
		Account:      l.Account,
		Dividends:    prorate(l.Dividends, fraction),
	}
	p.completed = append(p.completed, cb)
	p.book(cb, cb.Gain())
	l.Shares += current
	if l.Shares > -dustShares {
		l.Shares = 0
	}
	l.Dividends = prorate(l.Dividends, 1-fraction)
	l.Returns = prorate(l.Returns, 1-fraction)
	return amount, count
}

func openLots(lots []*Lot) []*Lot {
	out := lots[:0]
	for _, l := range lots {
		if l.Shares != 0 {
			out = append(out, l)
		}
	}
	return out
}

// sellShares consumes open long lots of symbol in order, oldest first. Any
// residual count opens a short lot. Newly realized losses are checked
// against the recent-buy window for wash sales.
func (p *Portfolio) sellShares(symbol string, count, price, expense, adj float64, on date.Date) {
	lots := p.lots[symbol]
	before := len(p.completed)
	for _, l := range lots {
		_, count = p.sellLot(l, count, price, expense, adj, on)
		if count <= 0 {
			break
		}
	}
	lots = openLots(lots)
	if len(p.completed) > before {
		closed := append([]*CompletedLot(nil), p.completed[before:]...)
		lots = p.checkWashSell(lots, closed)
	}
	if count > residualShares {
		lots = append(lots, p.newLot(symbol, -count, price, expense, adj, on))
	}
	p.updateLots(symbol, lots)
	// Losing long closes enter the window for matching against later buys.
	// Short covers never participate in wash sales.
	for _, cb := range p.completed[before:] {
		if cb.Shares > 0 && cb.Gain() < 0 {
			p.recentSells = append(p.recentSells, cb)
		}
	}
}

// buyShares covers open short lots of symbol in order. Any residual count
// opens a long lot, which is immediately checked against the recent-sell
// window for wash sale replacement.
func (p *Portfolio) buyShares(symbol string, count, price, expense, adj float64, on date.Date) {
	lots := p.lots[symbol]
	for _, l := range lots {
		_, count = p.buyLot(l, count, price, expense, adj, on)
		if count <= 0 {
			break
		}
	}
	lots = openLots(lots)
	if count > residualShares {
		pieces := p.checkWashBuy(p.newLot(symbol, count, price, expense, adj, on))
		lots = append(lots, pieces...)
		sortLots(lots)
		p.recentBuys = append(p.recentBuys, pieces...)
	}
	p.updateLots(symbol, lots)
}

func (p *Portfolio) handleBuy(t Transaction, option *Transaction) {
	var expense float64
	if t.Count > 0 {
		expense = t.Amount2 / t.Count
	}
	if option != nil {
		for _, cb := range p.assignOption(*option) {
			sgn := math.Copysign(1, cb.Shares)
			adj := cb.StartPrice*sgn + cb.StartExpense
			p.buyShares(t.Symbol, cb.Shares*sgn, t.Amount1, expense, adj, t.Date)
		}
	} else if t.Count > 0 {
		p.buyShares(t.Symbol, t.Count, t.Amount1, expense, 0, t.Date)
	}
	amount := t.Count*t.Amount1 + t.Amount2
	p.Cash -= amount
	if t.Date == p.AsOf {
		p.CashDiff -= amount
	}
}

func (p *Portfolio) handleSell(t Transaction, option *Transaction) {
	proceeds := t.Count*t.Amount1 - t.Amount2
	var expense float64
	if t.Count > 0 {
		expense = t.Amount2 / t.Count
	}
	if option != nil {
		for _, cb := range p.assignOption(*option) {
			sgn := math.Copysign(1, cb.Shares)
			adj := cb.StartPrice*sgn + cb.StartExpense
			p.sellShares(t.Symbol, cb.Shares*sgn, t.Amount1, expense, adj, t.Date)
		}
	} else if t.Count > 0 {
		p.sellShares(t.Symbol, t.Count, t.Amount1, expense, 0, t.Date)
	}
	p.Cash += proceeds
	if t.Date == p.AsOf {
		p.CashDiff += proceeds
	}
	p.SalesTotal += proceeds
}

// handleInterest credits an interest, dividend, or return of capital
// payment and attributes it pro-rata to the lots held before the pay date.
func (p *Portfolio) handleInterest(t Transaction, year int) {
	amount := t.Amount1
	p.Cash += amount
	if t.Date == p.AsOf {
		p.CashDiff += amount
	}
	p.InterestTotal += amount
	dividends := p.yearDividend[year]
	if dividends == nil {
		dividends = make(map[string]float64)
		p.yearDividend[year] = dividends
	}
	dividends[t.Symbol] += amount

	lots := p.lots[t.Symbol]
	var totalShares float64
	for _, l := range lots {
		if l.AcquiredOn.Before(t.Date) {
			totalShares += l.Shares
		}
	}
	if totalShares == 0 {
		if len(lots) > 0 {
			log.Printf("no shares of %s held before %s, payment not attributed to lots", t.Symbol, t.Date)
		}
	} else {
		for _, l := range lots {
			if !l.AcquiredOn.Before(t.Date) {
				continue
			}
			d := Dividend{Date: t.Date, Amount: amount * l.Shares / totalShares}
			if t.Kind == KindInterest {
				l.Dividends = append(l.Dividends, d)
			} else {
				l.Returns = append(l.Returns, d)
			}
		}
	}
	if !t.Date.Before(p.yearStart) {
		for _, in := range p.income {
			if in.Symbol == t.Symbol {
				in.Amount += amount
				return
			}
		}
		p.income = append(p.income, &Income{Symbol: t.Symbol, Amount: amount})
	}
}

// handleCashConsideration applies the three step rule for a merger paid
// partly in cash: recognize the lesser of the overall gain and the cash
// received, clipped at zero, then fold the difference back into basis.
func (p *Portfolio) handleCashConsideration(t Transaction) {
	var totalShares, totalCost float64
	for _, l := range p.lots[t.Symbol] {
		totalShares += l.Shares
		totalCost += l.Shares*l.Price + math.Abs(l.Shares)*l.Expense
		l.Dividends = prorate(l.Dividends, 1-t.Amount2)
		l.Returns = prorate(l.Returns, 1-t.Amount2)
	}
	proceeds := totalShares * t.Amount1
	totalValue := totalShares * t.Amount1 / t.Amount2
	gain := totalValue - totalCost
	if gain > proceeds {
		gain = proceeds
	} else if gain < 0 {
		gain = 0
	}
	p.SalesTotal += proceeds
	if t.Date == p.AsOf {
		p.EquityDiff -= proceeds
	}
	if gain > 0 && !t.Date.Before(p.yearStart) {
		for _, l := range p.lots[t.Symbol] {
			if t.Date.Sub(l.AcquiredOn)+l.WashDays >= longDays {
				p.RealizedLong += gain * l.Shares / totalShares
			} else {
				p.RealizedShort += gain * l.Shares / totalShares
			}
		}
	}
	if gain != proceeds {
		for _, l := range p.lots[t.Symbol] {
			l.Price += (gain - proceeds) / totalShares
		}
	}
	p.Cash += proceeds
	if t.Date == p.AsOf {
		p.CashDiff += proceeds
	}
}

// handleChange exchanges symbol lots into Symbol2 at ratio Count, carrying
// basis forward. A positive Amount1 means part of the consideration was
// paid in cash and is recognized first.
func (p *Portfolio) handleChange(t Transaction) {
	if t.Amount1 > 0 {
		p.handleCashConsideration(t)
	}
	lots := p.lots[t.Symbol]
	if len(lots) == 0 {
		log.Printf("no open lots of %s, change to %s ignored", t.Symbol, t.Symbol2)
		return
	}
	for _, l := range lots {
		l.Symbol = t.Symbol2
		l.Shares *= t.Count
		l.Price /= t.Count
		l.Expense /= t.Count
		l.Adj /= t.Count
	}
	if t.Symbol2 != t.Symbol {
		delete(p.lots, t.Symbol)
		p.mergeLots(t.Symbol2, lots)
	}
	for _, in := range p.income {
		if in.Symbol == t.Symbol {
			in.Symbol = t.Symbol2
		}
	}
}

// handleSpinoff distributes Amount1 new shares of Symbol2 per held share.
// Amount2 is the new to old price ratio at the record date; the implied
// value fraction splits basis, expense, and adjustments between the
// retained and the spun-off lots. Spun-off lots keep the parent's
// acquisition date.
func (p *Portfolio) handleSpinoff(t Transaction) {
	lots := p.lots[t.Symbol]
	if len(lots) == 0 {
		log.Printf("no open lots of %s, spin-off of %s ignored", t.Symbol, t.Symbol2)
		return
	}
	valueFraction := t.Amount1 * t.Amount2
	valueFraction /= 1 + valueFraction
	var spun []*Lot
	for _, l := range lots {
		expense1 := l.Shares * l.Expense
		expense2 := valueFraction * expense1
		expense1 -= expense2
		adj1 := l.Shares * l.Adj
		adj2 := valueFraction * adj1
		adj1 -= adj2
		shares := l.Shares * t.Amount1
		l.Expense = expense1 / l.Shares
		l.Adj = adj1 / l.Shares
		l.Price *= 1 - valueFraction
		nl := p.newLot(t.Symbol2, shares, l.Price*t.Amount2,
			expense2/shares, adj2/shares, l.AcquiredOn)
		nl.Account = l.Account
		spun = append(spun, nl)
	}
	p.mergeLots(t.Symbol2, spun)
}

// handleSplit multiplies every open lot of symbol by 1+ratio and divides
// the per-share amounts accordingly. With a distinct Symbol2 the action is
// a spin-off instead.
func (p *Portfolio) handleSplit(t Transaction) {
	if t.Symbol2 != "" && t.Symbol2 != t.Symbol {
		p.handleSpinoff(t)
		return
	}
	lots := p.lots[t.Symbol]
	if len(lots) == 0 {
		log.Printf("no open lots of %s, split ignored", t.Symbol)
		return
	}
	fraction := 1 + t.Amount1
	for _, l := range lots {
		l.Shares *= fraction
		l.Price /= fraction
		l.Expense /= fraction
		l.Adj /= fraction
	}
}

func (p *Portfolio) handleDeposit(t Transaction) {
	amount := t.Amount1
	if t.Date != p.AsOf {
		p.Cash += amount
		p.TotalDeposits += amount
		if !t.Date.Before(p.yearStart) && t.Date.Before(p.firstDeposit) {
			p.firstDeposit = t.Date
		}
	} else {
		p.NewDeposits += amount
	}
	p.Deposits = append(p.Deposits, Deposit{Date: t.Date, Amount: amount})
}

// NetShares returns the signed sum of open lot shares for a symbol.
func (p *Portfolio) NetShares(symbol string) float64 {
	var total float64
	for _, l := range p.lots[symbol] {
		total += l.Shares
	}
	return total
}

// CashLike returns the value of money market holdings, which trade at one
// dollar per share.
func (p *Portfolio) CashLike() float64 {
	var total float64
	for symbol, lots := range p.lots {
		if !IsCashLike(symbol) {
			continue
		}
		for _, l := range lots {
			total += l.Shares
		}
	}
	return total
}

// Positions returns the net open share count per symbol.
func (p *Portfolio) Positions() map[string]float64 {
	positions := make(map[string]float64, len(p.lots))
	for symbol := range p.lots {
		positions[symbol] = p.NetShares(symbol)
	}
	return positions
}

// CurrentSymbols lists the symbols with open lots, including the underlying
// of any open option position, sorted. This is the symbol set a quote
// retrieval needs to value the portfolio.
func (p *Portfolio) CurrentSymbols() []string {
	set := make(map[string]bool)
	for symbol, lots := range p.lots {
		if len(lots) == 0 {
			continue
		}
		set[symbol] = true
		if o, err := ParseOption(symbol); err == nil {
			set[o.Underlying] = true
		}
	}
	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
