// Package stockcache provides the tiered stock data cache that sits between
// the application and the external quote API.
//
// Resolution order for a lookup: price tier (short TTL), details tier (long
// TTL), then a live fetch. A symbol already being fetched by another caller
// is answered immediately with a degraded default record; no caller ever
// blocks on someone else's fetch. On rate-limited upstream failures the cache
// serves expired entries before falling back to the default record.
package stockcache

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/quotes"
	"github.com/rdevries/taskfolio/internal/repository"
)

// bulkConcurrency caps parallel upstream fetches during a bulk refresh.
const bulkConcurrency = 4

type entry struct {
	record   model.StockPriceRecord
	storedAt time.Time
}

type bulkEntry struct {
	results  map[string]bool
	storedAt time.Time
}

// Service is the stock data cache. The currently-fetching marker set is the
// only duplicate-fetch protection: it is checked and set under the mutex, but
// the fetch itself runs unlocked, so two callers racing past the check can
// still both hit the upstream. The guarantee is "usually deduplicated", not
// "exactly once"; it is also process-local, so workers in other processes may
// fetch the same symbol concurrently.
type Service struct {
	fetcher quotes.Fetcher
	stocks  *repository.StockRepository

	priceTTL   time.Duration
	detailsTTL time.Duration
	bulkTTL    time.Duration

	now func() time.Time

	mu       sync.Mutex
	price    map[string]entry // short-TTL tier
	details  map[string]entry // long-TTL tier
	fetching map[string]struct{}

	bulkMu sync.Mutex
	bulk   map[string]bulkEntry
}

// NewService creates a stock data cache backed by the given fetcher.
// The stock repository supplies company names for degraded records and the
// symbol universe for refresh-all operations.
func NewService(fetcher quotes.Fetcher, stocks *repository.StockRepository, priceTTL, detailsTTL, bulkTTL time.Duration) *Service {
	return &Service{
		fetcher:    fetcher,
		stocks:     stocks,
		priceTTL:   priceTTL,
		detailsTTL: detailsTTL,
		bulkTTL:    bulkTTL,
		now:        time.Now,
		price:      make(map[string]entry),
		details:    make(map[string]entry),
		fetching:   make(map[string]struct{}),
		bulk:       make(map[string]bulkEntry),
	}
}

// Get returns the price record for a symbol, from cache when possible and
// from the upstream API otherwise. It never fails: upstream errors are
// converted to degraded default records at this boundary. It also never
// blocks on a fetch started by another caller.
func (s *Service) Get(ctx context.Context, symbol string) model.StockPriceRecord {
	symbol = strings.ToUpper(symbol)
	now := s.now()

	s.mu.Lock()
	if e, ok := s.price[symbol]; ok && now.Sub(e.storedAt) < s.priceTTL {
		s.mu.Unlock()
		return e.record
	}
	if e, ok := s.details[symbol]; ok && now.Sub(e.storedAt) < s.detailsTTL {
		s.mu.Unlock()
		return e.record
	}
	if _, busy := s.fetching[symbol]; busy {
		s.mu.Unlock()
		log.Printf("already fetching %s, returning default data", symbol)
		return s.defaultRecord(symbol)
	}
	s.fetching[symbol] = struct{}{}
	s.mu.Unlock()

	// Unmark on every exit path, fetch success or not.
	defer func() {
		s.mu.Lock()
		delete(s.fetching, symbol)
		s.mu.Unlock()
	}()

	return s.refresh(ctx, symbol)
}

// refresh fetches fresh data for a symbol and populates both tiers.
// On rate-limited failures it falls back to stale cache entries; on all other
// failures it stores and returns a degraded default record so a dead upstream
// is not re-hit on every request until the price TTL lapses.
func (s *Service) refresh(ctx context.Context, symbol string) model.StockPriceRecord {
	quote, err := s.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		log.Printf("quote fetch failed for %s: %v", symbol, err)

		if quotes.IsRateLimited(err) {
			if record, ok := s.staleRecord(symbol); ok {
				log.Printf("rate limited, serving stale data for %s", symbol)
				return record
			}
		}

		record := s.defaultRecord(symbol)
		s.store(symbol, record)
		return record
	}

	record := model.StockPriceRecord{
		Symbol:              symbol,
		CompanyName:         quote.CompanyName,
		CurrentPrice:        quote.Price,
		DayChange:           quote.DayChange,
		DayChangePercentage: quote.DayChangePercentage,
		FiftyTwoWeekHigh:    quote.FiftyTwoWeekHigh,
		FiftyTwoWeekLow:     quote.FiftyTwoWeekLow,
		PERatio:             quote.PERatio,
		DividendYield:       quote.DividendYield,
		LastUpdated:         s.now(),
	}

	if err := s.stocks.Upsert(symbol, quote.CompanyName); err != nil {
		log.Printf("failed to record stock info for %s: %v", symbol, err)
	}

	s.store(symbol, record)
	return record
}

// RefreshSymbols refreshes a set of symbols and returns a per-symbol success
// map. Symbols already cached count as success without an upstream call;
// symbols being fetched elsewhere are skipped and reported as failure.
//
// Results are cached per exact symbol set for a short window so identical
// bulk requests issued close together are served without re-fetching. Known
// limitation: a symbol added to the database after a set's result was cached
// is not retried until that entry expires.
func (s *Service) RefreshSymbols(ctx context.Context, symbols []string) map[string]bool {
	normalized := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		normalized = append(normalized, strings.ToUpper(sym))
	}
	sort.Strings(normalized)
	key := strings.Join(normalized, ",")

	s.bulkMu.Lock()
	if e, ok := s.bulk[key]; ok && s.now().Sub(e.storedAt) < s.bulkTTL {
		s.bulkMu.Unlock()
		log.Printf("bulk refresh served from result cache for %d symbols", len(normalized))
		return e.results
	}
	s.bulkMu.Unlock()

	results := make(map[string]bool, len(normalized))
	var resultsMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)

	for _, sym := range normalized {
		g.Go(func() error {
			ok := s.refreshOne(ctx, sym)
			resultsMu.Lock()
			results[sym] = ok
			resultsMu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers report through the results map, never an error

	s.bulkMu.Lock()
	s.bulk[key] = bulkEntry{results: results, storedAt: s.now()}
	s.bulkMu.Unlock()

	return results
}

// refreshOne handles a single symbol of a bulk refresh: cache hits succeed
// without a fetch, in-flight symbols are skipped, everything else is fetched.
func (s *Service) refreshOne(ctx context.Context, symbol string) bool {
	now := s.now()

	s.mu.Lock()
	if e, ok := s.price[symbol]; ok && now.Sub(e.storedAt) < s.priceTTL && !e.record.Degraded {
		s.mu.Unlock()
		return true
	}
	if e, ok := s.details[symbol]; ok && now.Sub(e.storedAt) < s.detailsTTL && !e.record.Degraded {
		s.mu.Unlock()
		return true
	}
	if _, busy := s.fetching[symbol]; busy {
		s.mu.Unlock()
		log.Printf("skipping %s, already being fetched", symbol)
		return false
	}
	s.fetching[symbol] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.fetching, symbol)
		s.mu.Unlock()
	}()

	record := s.refresh(ctx, symbol)
	return !record.Degraded
}

// Clear drops cached data for one symbol, or for all symbols when symbol is
// empty. The bulk result cache is dropped either way since its entries can
// span many symbols.
func (s *Service) Clear(symbol string) {
	s.mu.Lock()
	if symbol == "" {
		s.price = make(map[string]entry)
		s.details = make(map[string]entry)
	} else {
		symbol = strings.ToUpper(symbol)
		delete(s.price, symbol)
		delete(s.details, symbol)
	}
	s.mu.Unlock()

	s.bulkMu.Lock()
	s.bulk = make(map[string]bulkEntry)
	s.bulkMu.Unlock()
}

// store writes a record into both tiers.
// The tiers are not updated transactionally with respect to readers;
// a concurrent Get may observe one tier updated and the other not.
func (s *Service) store(symbol string, record model.StockPriceRecord) {
	now := s.now()
	s.mu.Lock()
	s.price[symbol] = entry{record: record, storedAt: now}
	if !record.Degraded {
		s.details[symbol] = entry{record: record, storedAt: now}
	}
	s.mu.Unlock()
}

// staleRecord returns the most recent cached record for a symbol regardless
// of TTL. Used when the upstream is rate limiting and stale beats nothing.
func (s *Service) staleRecord(symbol string) (model.StockPriceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.price[symbol]; ok && !e.record.Degraded {
		return e.record, true
	}
	if e, ok := s.details[symbol]; ok && !e.record.Degraded {
		return e.record, true
	}
	return model.StockPriceRecord{}, false
}

// defaultRecord builds the zero-valued degraded record for a symbol, using
// the stored company name when the symbol is known.
func (s *Service) defaultRecord(symbol string) model.StockPriceRecord {
	name := symbol
	if stock, ok, err := s.stocks.GetBySymbol(symbol); err == nil && ok && stock.Name != "" {
		name = stock.Name
	}

	return model.StockPriceRecord{
		Symbol:      symbol,
		CompanyName: name,
		LastUpdated: s.now(),
		Degraded:    true,
	}
}
