// Package api exposes the reporting query surface over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/date"
)

// Server serves portfolio reports over HTTP. All endpoints are read-only
// over the ledger files; only the snapshot store and the quote directory
// are ever written.
type Server struct {
	Dir       string // ledger data directory
	QuoteDir  string // daily quote file directory
	Quotes    brokerage.QuoteService
	Store     brokerage.SnapshotStore
	Transfers brokerage.Transfers
	Log       zerolog.Logger
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/get-accounts", s.getAccounts)
	r.Get("/get-report", s.getReport)
	r.Get("/get-taxes", s.getTaxes)
	r.Get("/get-options", s.getOptions)
	r.Get("/get-annual", s.getAnnual)
	r.Get("/get-history", s.getHistory)
	r.Get("/clear-history", s.clearHistory)
	r.Get("/retrieve-quotes", s.retrieveQuotes)
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Error().Err(err).Msg("cannot encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.Log.Error().Err(err).Msg("request failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// account resolves the account query parameter, defaulting to the first
// ledger file in the data directory.
func (s *Server) account(r *http.Request) (string, error) {
	if account := r.URL.Query().Get("account"); account != "" {
		return account, nil
	}
	accounts, err := brokerage.Accounts(s.Dir)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", errNoAccounts
	}
	return accounts[0], nil
}

var errNoAccounts = errors.New("no account ledgers found")

// asOf resolves the effective report date: an explicit date parameter, the
// end of an explicit past year, or today.
func asOf(r *http.Request) (date.Date, int, error) {
	q := r.URL.Query()
	if str := q.Get("date"); str != "" {
		d, err := date.Parse(str)
		return d, 0, err
	}
	if str := q.Get("year"); str != "" {
		year, err := strconv.Atoi(str)
		if err != nil {
			return date.Date{}, 0, err
		}
		if year < date.Today().Year() {
			return date.YearEnd(year), year, nil
		}
		return date.Today(), year, nil
	}
	return date.Today(), 0, nil
}

func (s *Server) build(account string, on date.Date) (*brokerage.Portfolio, error) {
	if account == brokerage.CombinedAccount {
		return brokerage.BuildCombined(s.Dir, on, s.Transfers)
	}
	return brokerage.BuildPortfolio(s.Dir, account, on, s.Transfers)
}

func (s *Server) getAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := brokerage.Accounts(s.Dir)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{"accounts": accounts})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	account, err := s.account(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	on, year, err := asOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.build(account, on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	quotes, err := s.Quotes.GetQuotes(on, p.CurrentSymbols())
	if err != nil {
		s.writeError(w, err)
		return
	}
	data := map[string]any{
		"account": account,
		"date":    on,
		"quotes":  quotes,
	}
	if year != 0 {
		data["year"] = year
		data["accounts"] = map[string]any{account: p.TaxReport(year)}
	} else {
		data["accounts"] = map[string]any{account: p.Report()}
	}
	s.writeJSON(w, data)
}

func (s *Server) getTaxes(w http.ResponseWriter, r *http.Request) {
	account, err := s.account(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	year := date.Today().Year()
	if str := r.URL.Query().Get("year"); str != "" {
		if year, err = strconv.Atoi(str); err != nil {
			s.writeError(w, err)
			return
		}
	}
	on := date.YearEnd(year)
	if on.After(date.Today()) {
		on = date.Today()
	}
	p, err := s.build(account, on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	quotes, err := s.Quotes.GetQuotes(on, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]any{
		"account": account,
		"year":    year,
		"report":  p.TaxReport(year),
		"quotes":  quotes,
	})
}

func (s *Server) getOptions(w http.ResponseWriter, r *http.Request) {
	account, err := s.account(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	on, _, err := asOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.build(account, on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	quotes, err := s.Quotes.GetQuotes(on, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Underlying quotes at each assignment date, to value the exercise.
	historical := make(map[string][]string)
	for _, cb := range p.AssignedLots() {
		if o, err := brokerage.ParseOption(cb.Symbol); err == nil {
			key := cb.ClosedOn.String()
			historical[key] = append(historical[key], o.Underlying)
		}
	}
	historicalQuotes := make(map[string]map[string]float64, len(historical))
	for day, symbols := range historical {
		d, err := date.Parse(day)
		if err != nil {
			continue
		}
		q, err := s.Quotes.GetQuotes(d, symbols)
		if err != nil {
			s.writeError(w, err)
			return
		}
		historicalQuotes[day] = q
	}
	s.writeJSON(w, map[string]any{
		"account":           account,
		"date":              on,
		"report":            p.HistoryReport(),
		"quotes":            quotes,
		"historical_quotes": historicalQuotes,
	})
}

func (s *Server) getAnnual(w http.ResponseWriter, r *http.Request) {
	account, err := s.account(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	on, _, err := asOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	transactions, err := brokerage.ReadFile(brokerage.AccountPath(s.Dir, account), on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(transactions) == 0 {
		s.writeJSON(w, map[string]any{"account": account, "years": []any{}})
		return
	}
	var years []map[string]any
	for year := transactions[0].Date.Year(); year <= on.Year(); year++ {
		end := date.YearEnd(year)
		if end.After(on) {
			end = on
		}
		p, err := s.build(account, end)
		if err != nil {
			s.writeError(w, err)
			return
		}
		years = append(years, map[string]any{
			"year":   year,
			"start":  date.YearStart(year),
			"end":    end,
			"report": p.TaxReport(year),
		})
	}
	s.writeJSON(w, map[string]any{"account": account, "years": years})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	account, err := s.account(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	from := date.New(1970, 1, 1)
	if str := q.Get("start"); str != "" {
		if from, err = date.Parse(str); err != nil {
			s.writeError(w, err)
			return
		}
	}
	to := date.Today()
	if str := q.Get("end"); str != "" {
		if to, err = date.Parse(str); err != nil {
			s.writeError(w, err)
			return
		}
	}
	builder := &brokerage.HistoryBuilder{
		Dir:       s.Dir,
		Quotes:    s.Quotes,
		Store:     s.Store,
		Transfers: s.Transfers,
	}
	snaps, err := builder.Build(account, date.Range{From: from, To: to})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if q.Get("positions") != "true" {
		for _, snap := range snaps {
			snap.Positions = nil
		}
	}
	s.writeJSON(w, map[string]any{"account": account, "history": snaps})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Clear(r.URL.Query().Get("account")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) retrieveQuotes(w http.ResponseWriter, r *http.Request) {
	p, err := brokerage.BuildCombined(s.Dir, date.Today(), s.Transfers)
	if err != nil {
		s.writeError(w, err)
		return
	}
	force := r.URL.Query().Get("force") == "true"
	if err := brokerage.RetrieveQuotes(s.QuoteDir, p.CurrentSymbols(), force); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}
