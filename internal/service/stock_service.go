package service

import (
	"context"

	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/repository"
	"github.com/rdevries/taskfolio/internal/stockcache"
)

// StockService exposes stock data lookups and refreshes over the cache.
type StockService struct {
	cache           *stockcache.Service
	transactionRepo *repository.TransactionRepository
}

// NewStockService creates a new StockService with the provided dependencies.
func NewStockService(cache *stockcache.Service, transactionRepo *repository.TransactionRepository) *StockService {
	return &StockService{
		cache:           cache,
		transactionRepo: transactionRepo,
	}
}

// GetStock returns the current price record for a symbol.
func (s *StockService) GetStock(ctx context.Context, symbol string) model.StockPriceRecord {
	return s.cache.Get(ctx, symbol)
}

// RefreshStocks refreshes a set of symbols and reports per-symbol success.
// An empty symbol list refreshes every symbol present in the ledger, which is
// what the scheduled daily refresh requests.
func (s *StockService) RefreshStocks(ctx context.Context, symbols []string) (map[string]bool, error) {
	if len(symbols) == 0 {
		ledgerSymbols, err := s.transactionRepo.GetSymbols(nil)
		if err != nil {
			return nil, err
		}
		symbols = ledgerSymbols
	}
	if len(symbols) == 0 {
		return map[string]bool{}, nil
	}
	return s.cache.RefreshSymbols(ctx, symbols), nil
}

// ClearCache drops cached data for one symbol, or everything when empty.
func (s *StockService) ClearCache(symbol string) {
	s.cache.Clear(symbol)
}
