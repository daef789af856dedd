package testutil

import (
	"context"
	"sync"

	"github.com/rdevries/taskfolio/internal/quotes"
)

// MockQuoteFetcher is a mock implementation of quotes.Fetcher for testing.
// It returns predefined quotes instead of calling the external API and is
// safe for concurrent use (bulk refresh fetches in parallel).
type MockQuoteFetcher struct {
	mu sync.Mutex
	// Quotes maps symbol to the quote returned for it.
	Quotes map[string]quotes.Quote
	// Err, when set, is returned for every fetch.
	Err error
	// fetched records the symbols fetched, in call order.
	fetched []string
}

// NewMockQuoteFetcher creates a mock with a default AAPL quote.
func NewMockQuoteFetcher() *MockQuoteFetcher {
	return &MockQuoteFetcher{
		Quotes: map[string]quotes.Quote{
			"AAPL": {
				Symbol:      "AAPL",
				CompanyName: "Apple Inc",
				Price:       150,
				DayChange:   1.5,
			},
		},
	}
}

// FetchQuote implements quotes.Fetcher.
func (m *MockQuoteFetcher) FetchQuote(_ context.Context, symbol string) (quotes.Quote, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, symbol)
	m.mu.Unlock()

	if m.Err != nil {
		return quotes.Quote{}, m.Err
	}
	if q, ok := m.Quotes[symbol]; ok {
		return q, nil
	}
	// Unknown symbols behave like the real API: empty quote, no error.
	return quotes.Quote{Symbol: symbol, CompanyName: symbol}, nil
}

// FetchCount returns how many fetches were made.
func (m *MockQuoteFetcher) FetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fetched)
}

// Fetched returns the symbols fetched so far.
func (m *MockQuoteFetcher) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}
