package stockcache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/quotes"
	"github.com/rdevries/taskfolio/internal/repository"
	"github.com/rdevries/taskfolio/internal/stockcache"
	"github.com/rdevries/taskfolio/internal/testutil"
)

// blockingFetcher parks every fetch on a channel so tests can observe the
// cache while a fetch is in flight.
type blockingFetcher struct {
	started chan struct{}
	release chan struct{}
	calls   int32
}

func (f *blockingFetcher) FetchQuote(_ context.Context, symbol string) (quotes.Quote, error) {
	if atomic.AddInt32(&f.calls, 1) == 1 {
		close(f.started)
	}
	<-f.release
	return quotes.Quote{Symbol: symbol, CompanyName: "Apple Inc", Price: 150}, nil
}

// TestService_Get tests the cache resolution path.
//
// WHY: Every holdings computation goes through Get. It must not re-fetch
// within the TTL, must degrade instead of failing, and must serve stale data
// when the upstream is rate limiting.
func TestService_Get(t *testing.T) {
	t.Run("second lookup is served from cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := testutil.NewMockQuoteFetcher()
		cache := testutil.NewTestStockCache(t, db, fetcher)

		first := cache.Get(context.Background(), "aapl")
		if first.CurrentPrice != 150 {
			t.Fatalf("Expected price 150, got %v", first.CurrentPrice)
		}
		if first.Symbol != "AAPL" {
			t.Errorf("Expected symbol normalized to AAPL, got %q", first.Symbol)
		}

		second := cache.Get(context.Background(), "AAPL")
		if second.CurrentPrice != 150 {
			t.Fatalf("Expected cached price 150, got %v", second.CurrentPrice)
		}
		if fetcher.FetchCount() != 1 {
			t.Errorf("Expected 1 upstream fetch, got %d", fetcher.FetchCount())
		}
	})

	t.Run("fetch failure yields a degraded record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := testutil.NewMockQuoteFetcher()
		fetcher.Err = &quotes.QuoteError{Symbol: "AAPL", Message: "upstream down"}
		cache := testutil.NewTestStockCache(t, db, fetcher)

		record := cache.Get(context.Background(), "AAPL")
		if !record.Degraded {
			t.Error("Expected a degraded record")
		}
		if record.CurrentPrice != 0 {
			t.Errorf("Expected zero price, got %v", record.CurrentPrice)
		}

		// The degraded record is cached: the dead upstream is not re-hit.
		cache.Get(context.Background(), "AAPL")
		if fetcher.FetchCount() != 1 {
			t.Errorf("Expected 1 upstream fetch, got %d", fetcher.FetchCount())
		}
	})

	t.Run("degraded record uses the stored company name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		if err := repository.NewStockRepository(db).Upsert("AAPL", "Apple Inc"); err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}

		fetcher := testutil.NewMockQuoteFetcher()
		fetcher.Err = &quotes.QuoteError{Symbol: "AAPL", Message: "upstream down"}
		cache := testutil.NewTestStockCache(t, db, fetcher)

		record := cache.Get(context.Background(), "AAPL")
		if record.CompanyName != "Apple Inc" {
			t.Errorf("Expected stored company name, got %q", record.CompanyName)
		}
	})

	t.Run("lookup for an in-flight symbol returns without fetching", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := &blockingFetcher{started: make(chan struct{}), release: make(chan struct{})}
		cache := stockcache.NewService(
			fetcher,
			repository.NewStockRepository(db),
			time.Hour,
			24*time.Hour,
			time.Minute,
		)

		first := make(chan model.StockPriceRecord, 1)
		go func() { first <- cache.Get(context.Background(), "AAPL") }()
		<-fetcher.started

		second := make(chan model.StockPriceRecord, 1)
		go func() { second <- cache.Get(context.Background(), "AAPL") }()

		select {
		case record := <-second:
			if !record.Degraded {
				t.Error("Expected a degraded record while the fetch is in flight")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Get blocked behind another caller's fetch")
		}
		if got := atomic.LoadInt32(&fetcher.calls); got != 1 {
			t.Errorf("Expected 1 upstream fetch, got %d", got)
		}

		close(fetcher.release)
		if record := <-first; record.Degraded || record.CurrentPrice != 150 {
			t.Errorf("Expected the original fetch to complete with live data, got %+v", record)
		}
	})

	t.Run("rate limited fetch serves expired data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := testutil.NewMockQuoteFetcher()
		// Nanosecond TTLs: everything written is immediately expired.
		cache := stockcache.NewService(
			fetcher,
			repository.NewStockRepository(db),
			time.Nanosecond,
			time.Nanosecond,
			time.Minute,
		)

		// Prime the cache with a successful fetch.
		primed := cache.Get(context.Background(), "AAPL")
		if primed.Degraded {
			t.Fatal("Expected the priming fetch to succeed")
		}

		fetcher.Err = &quotes.QuoteError{Symbol: "AAPL", Message: "throttled", RateLimited: true}

		record := cache.Get(context.Background(), "AAPL")
		if record.Degraded {
			t.Error("Expected stale data, got a degraded record")
		}
		if record.CurrentPrice != 150 {
			t.Errorf("Expected stale price 150, got %v", record.CurrentPrice)
		}
	})
}

// TestService_RefreshSymbols tests the bulk refresh path.
//
// WHY: The scheduled daily refresh and the manual refresh endpoint both land
// here. Cached symbols must not be re-fetched, and an identical request made
// within the result window must be answered from the result cache.
func TestService_RefreshSymbols(t *testing.T) {
	t.Run("reports per-symbol success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := testutil.NewMockQuoteFetcher()
		fetcher.Quotes["MSFT"] = quotes.Quote{Symbol: "MSFT", CompanyName: "Microsoft", Price: 300}
		cache := testutil.NewTestStockCache(t, db, fetcher)

		results := cache.RefreshSymbols(context.Background(), []string{"aapl", "msft"})
		if len(results) != 2 {
			t.Fatalf("Expected 2 results, got %d", len(results))
		}
		if !results["AAPL"] || !results["MSFT"] {
			t.Errorf("Expected both symbols to succeed, got %v", results)
		}
	})

	t.Run("identical request within the window is served from the result cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := testutil.NewMockQuoteFetcher()
		cache := testutil.NewTestStockCache(t, db, fetcher)

		cache.RefreshSymbols(context.Background(), []string{"AAPL"})
		fetches := fetcher.FetchCount()

		results := cache.RefreshSymbols(context.Background(), []string{"AAPL"})
		if fetcher.FetchCount() != fetches {
			t.Errorf("Expected no additional fetches, got %d -> %d", fetches, fetcher.FetchCount())
		}
		if !results["AAPL"] {
			t.Errorf("Expected cached result to report success, got %v", results)
		}
	})

	t.Run("clear forces a refetch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		fetcher := testutil.NewMockQuoteFetcher()
		cache := testutil.NewTestStockCache(t, db, fetcher)

		cache.Get(context.Background(), "AAPL")
		cache.Clear("AAPL")
		cache.Get(context.Background(), "AAPL")

		if fetcher.FetchCount() != 2 {
			t.Errorf("Expected 2 fetches after clear, got %d", fetcher.FetchCount())
		}
	})
}
