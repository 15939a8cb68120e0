package brokerage

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/brokerage/date"
	gocache "github.com/patrickmn/go-cache"
)

// QuoteService returns the most recent close prices at or before a date,
// restricted to symbols when non-empty.
type QuoteService interface {
	GetQuotes(on date.Date, symbols []string) (map[string]float64, error)
}

// maxQuoteLookback bounds the walk back to the most recent quote day. Long
// weekends and short closures stay well within it; a larger gap means the
// quote store is stale and is reported instead of silently bridged.
const maxQuoteLookback = 10

// CSVQuoteService serves quotes from a directory of daily close files named
// YYYY-MM-DD.csv, one "SYMBOL,price" record per line. Whole days are
// memoized in process; past close files never change once written.
type CSVQuoteService struct {
	Dir  string
	memo *gocache.Cache
}

func NewCSVQuoteService(dir string) *CSVQuoteService {
	return &CSVQuoteService{Dir: dir, memo: gocache.New(time.Hour, 2*time.Hour)}
}

// GetQuotes walks back from on to the most recent existing quote day and
// returns its prices, symbol-filtered when symbols is non-empty.
func (s *CSVQuoteService) GetQuotes(on date.Date, symbols []string) (map[string]float64, error) {
	var quotes map[string]float64
	found := false
	for i := 0; i < maxQuoteLookback; i++ {
		day := on.Add(-i)
		var err error
		if quotes, err = s.dayQuotes(day); err == nil {
			found = true
			break
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("no quote file within %d days of %s in %s", maxQuoteLookback, on, s.Dir)
	}
	if len(symbols) == 0 {
		return quotes, nil
	}
	filtered := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if price, ok := quotes[symbol]; ok {
			filtered[symbol] = price
		}
	}
	return filtered, nil
}

func (s *CSVQuoteService) dayQuotes(day date.Date) (map[string]float64, error) {
	key := day.String()
	if cached, ok := s.memo.Get(key); ok {
		return cached.(map[string]float64), nil
	}
	f, err := os.Open(filepath.Join(s.Dir, key+".csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bad quote file %s.csv: %w", key, err)
	}
	quotes := make(map[string]float64, len(records))
	for _, rec := range records {
		if len(rec) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		quotes[rec[0]] = price
	}
	s.memo.Set(key, quotes, gocache.DefaultExpiration)
	return quotes, nil
}

const (
	quoteURLPrefix = "https://query1.finance.yahoo.com/v7/finance/quote?lang=en-US&region=US&corsDomain=finance.yahoo.com&fields=symbol,regularMarketPrice&formatted=false&symbols="
	maxQuoteBatch  = 20
)

// RetrieveQuotes fetches current prices for symbols from the quote provider
// and writes today's close file into dir. An existing file for today is
// kept unless force is set. Expired option symbols are dropped before the
// fetch; the provider rejects them.
func RetrieveQuotes(dir string, symbols []string, force bool) error {
	path := filepath.Join(dir, date.Today().String()+".csv")
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}
	var filtered []string
	for _, symbol := range symbols {
		if IsOptionSymbol(symbol) {
			o, err := ParseOption(symbol)
			if err != nil || o.Expired(date.Today()) {
				continue
			}
		}
		filtered = append(filtered, symbol)
	}
	quotes := make(map[string]float64)
	client := daily()
	// The provider caps requests at maxQuoteBatch symbols. A remainder of a
	// single symbol is avoided by splitting the last full batch unevenly.
	for len(filtered) > 0 {
		n := len(filtered)
		switch {
		case n == maxQuoteBatch+1:
			n = maxQuoteBatch - 1
		case n > maxQuoteBatch:
			n = maxQuoteBatch
		}
		if err := retrieveBatch(client, filtered[:n], quotes); err != nil {
			return err
		}
		filtered = filtered[n:]
	}
	return writeQuoteFile(path, quotes)
}

func retrieveBatch(client *http.Client, symbols []string, quotes map[string]float64) error {
	var payload any
	addr := quoteURLPrefix + strings.Join(symbols, ",")
	if err := jwget(client, addr, &payload); err != nil {
		return fmt.Errorf("cannot retrieve quotes: %w", err)
	}
	results, err := jsonpath.Get("$.quoteResponse.result", payload)
	if err != nil {
		return fmt.Errorf("unexpected quote payload: %w", err)
	}
	list, ok := results.([]any)
	if !ok {
		return fmt.Errorf("unexpected quote payload: result is %T", results)
	}
	for _, item := range list {
		symbol, err := jsonpath.Get("$.symbol", item)
		if err != nil {
			continue
		}
		price, err := jsonpath.Get("$.regularMarketPrice", item)
		if err != nil {
			continue
		}
		name, ok1 := symbol.(string)
		value, ok2 := price.(float64)
		if ok1 && ok2 {
			quotes[name] = value
		}
	}
	return nil
}

func writeQuoteFile(path string, quotes map[string]float64) error {
	symbols := make([]string, 0, len(quotes))
	for symbol := range quotes {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write quote file: %w", err)
	}
	w := csv.NewWriter(f)
	for _, symbol := range symbols {
		w.Write([]string{symbol, strconv.FormatFloat(quotes[symbol], 'f', -1, 64)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// diskCache implements a simple disk cache for HTTP responses
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	// get from disk
	// diskcache implements a unique key per day, so the local tmp expires every day.
	key := fmt.Sprintf("%s %s %s", date.Today().String(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v/%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	// otherwise attempt to store it in cache

	err = c.put(key, resp)
	if err != nil {
		log.Printf("cache write err (ignored): %v\n", err)
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	file := filepath.Join(os.TempDir(), key)
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	file := filepath.Join(os.TempDir(), key)

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}

	_, err = f.Write(content)
	f.Close()
	return err
}

// returns a client with a cache all with daily expire
func daily() *http.Client {
	client := new(http.Client)
	client.Transport = &diskCache{http.DefaultTransport}
	return client
}

// jwget performs an HTTP GET request and unmarshals the JSON response into the provided data structure.
func jwget(client *http.Client, addr string, data interface{}) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	_, err = io.Copy(&buf, resp.Body)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return json.Unmarshal(buf.Bytes(), data)
}
