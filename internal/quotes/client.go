// Package quotes wraps the external stock quote API.
//
// A full fetch is two round trips (quote, then company overview) separated by
// a configured delay to stay under the upstream's calls-per-minute ceiling.
// This makes FetchQuote inherently slow; callers must keep the stock data
// cache in front of it and never call it inline on a latency-sensitive path.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QuoteError is returned for all upstream quote failures: network errors,
// HTTP errors, malformed payloads and explicit API error messages.
// RateLimited marks failures caused by upstream throttling; the cache serves
// stale data for those instead of a default record.
type QuoteError struct {
	Symbol      string
	Message     string
	RateLimited bool
	Err         error
}

func (e *QuoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quote error for %s: %s: %v", e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("quote error for %s: %s", e.Symbol, e.Message)
}

func (e *QuoteError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a QuoteError caused by upstream
// rate limiting.
func IsRateLimited(err error) bool {
	var qe *QuoteError
	return errors.As(err, &qe) && qe.RateLimited
}

// Fetcher is the interface the stock data cache consumes. Satisfied by
// *Client and by the test mock.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (Quote, error)
}

// Client fetches quotes and fundamentals from the external quote API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	interCallDelay time.Duration
}

// NewClient creates a quote API client.
// interCallDelay is the pause between the quote request and the overview
// request of a single fetch.
func NewClient(baseURL, apiKey string, requestTimeout, interCallDelay time.Duration) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: requestTimeout},
		baseURL:        baseURL,
		apiKey:         apiKey,
		interCallDelay: interCallDelay,
	}
}

// FetchQuote fetches the current price and company fundamentals for a symbol.
//
// An empty but well-formed quote payload yields a zero-priced Quote and no
// error; that is the upstream's way of saying "no data". A soft rate-limit
// note on an otherwise usable payload is logged and ignored. All hard
// failures return *QuoteError.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(symbol)

	if c.apiKey == "" {
		return Quote{}, &QuoteError{Symbol: symbol, Message: "API key is not configured"}
	}

	var quoteResp globalQuoteResponse
	if err := c.query(ctx, symbol, "GLOBAL_QUOTE", &quoteResp); err != nil {
		return Quote{}, err
	}
	if err := checkAPIMessages(symbol, quoteResp.ErrorMessage, quoteResp.Note, quoteResp.Information); err != nil {
		return Quote{}, err
	}

	quote := Quote{Symbol: symbol, CompanyName: symbol}

	if quoteResp.GlobalQuote.Price != "" {
		price, err := strconv.ParseFloat(quoteResp.GlobalQuote.Price, 64)
		if err != nil {
			return Quote{}, &QuoteError{Symbol: symbol, Message: "malformed price in quote payload", Err: err}
		}
		quote.Price = price

		if prevClose, err := strconv.ParseFloat(quoteResp.GlobalQuote.PreviousClose, 64); err == nil && prevClose > 0 {
			quote.DayChange = price - prevClose
			quote.DayChangePercentage = quote.DayChange / prevClose * 100
		}
	} else {
		// Empty quote objects come back for unknown symbols on an otherwise
		// successful request: no data, not an error.
		log.Printf("empty quote data received for %s", symbol)
	}

	// Respect the per-minute call ceiling before the second round trip.
	select {
	case <-time.After(c.interCallDelay):
	case <-ctx.Done():
		return Quote{}, &QuoteError{Symbol: symbol, Message: "request canceled", Err: ctx.Err()}
	}

	var overview overviewResponse
	if err := c.query(ctx, symbol, "OVERVIEW", &overview); err != nil {
		return Quote{}, err
	}
	if err := checkAPIMessages(symbol, overview.ErrorMessage, overview.Note, overview.Information); err != nil {
		return Quote{}, err
	}

	if overview.Name != "" {
		quote.CompanyName = overview.Name
	} else {
		log.Printf("no company name found for %s, using symbol as fallback", symbol)
	}
	quote.FiftyTwoWeekHigh = parseOptionalFloat(overview.FiftyTwoWeekHigh)
	quote.FiftyTwoWeekLow = parseOptionalFloat(overview.FiftyTwoWeekLow)
	quote.PERatio = parseOptionalFloat(overview.PERatio)
	if y := parseOptionalFloat(overview.DividendYield); y != nil {
		// Upstream reports yield as a fraction (0.0291 for 2.91%).
		pct := *y * 100
		quote.DividendYield = &pct
	}

	return quote, nil
}

// query executes one HTTP request against the quote API and decodes the
// JSON payload into out.
func (c *Client) query(ctx context.Context, symbol, function string, out any) error {
	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return &QuoteError{Symbol: symbol, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &QuoteError{Symbol: symbol, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &QuoteError{Symbol: symbol, Message: "upstream rate limit exceeded", RateLimited: true}
	}
	if resp.StatusCode != http.StatusOK {
		return &QuoteError{Symbol: symbol, Message: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &QuoteError{Symbol: symbol, Message: "failed to read response body", Err: err}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &QuoteError{Symbol: symbol, Message: "invalid JSON response", Err: err}
	}

	return nil
}

// checkAPIMessages inspects the in-band message fields the API uses instead
// of HTTP status codes. An explicit error message fails the fetch; a
// frequency note is a soft warning unless it announces an exhausted limit.
func checkAPIMessages(symbol, errorMessage, note, information string) error {
	if errorMessage != "" {
		return &QuoteError{Symbol: symbol, Message: "API error: " + errorMessage}
	}
	if information != "" && strings.Contains(strings.ToLower(information), "rate limit") {
		return &QuoteError{Symbol: symbol, Message: "API rate limit: " + information, RateLimited: true}
	}
	if note != "" {
		if strings.Contains(note, "API call frequency") {
			log.Printf("quote API rate limit warning for %s: %s", symbol, note)
		} else {
			log.Printf("quote API note for %s: %s", symbol, note)
		}
	}
	return nil
}

func parseOptionalFloat(s string) *float64 {
	if s == "" || s == "None" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
