package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/repository"
	"github.com/rdevries/taskfolio/internal/stockcache"
)

// HoldingsService derives portfolio positions by replaying the transaction
// ledger and joining the result with cached stock data. Holdings are never
// persisted; the ledger is the single source of truth.
type HoldingsService struct {
	portfolioRepo   *repository.PortfolioRepository
	transactionRepo *repository.TransactionRepository
	cache           *stockcache.Service
}

// NewHoldingsService creates a new HoldingsService with the provided dependencies.
func NewHoldingsService(
	portfolioRepo *repository.PortfolioRepository,
	transactionRepo *repository.TransactionRepository,
	cache *stockcache.Service,
) *HoldingsService {
	return &HoldingsService{
		portfolioRepo:   portfolioRepo,
		transactionRepo: transactionRepo,
		cache:           cache,
	}
}

// position is the running state for one symbol during ledger replay.
type position struct {
	quantity  decimal.Decimal
	costBasis decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// GetHoldings computes the current holdings and summary for a portfolio.
//
// Replay rules: a buy adds quantity and cost; a sell removes quantity and a
// proportional slice of the cost basis. Selling more than is held zeroes the
// position rather than driving it negative, so an over-recorded sell cannot
// corrupt the remaining cost basis. Positions with no remaining quantity are
// dropped from the result.
func (s *HoldingsService) GetHoldings(ctx context.Context, portfolioID string) ([]model.Holding, model.PortfolioSummary, error) {
	portfolio, err := s.portfolioRepo.GetPortfolio(portfolioID)
	if err != nil {
		return nil, model.PortfolioSummary{}, err
	}

	transactions, err := s.transactionRepo.GetTransactionsForPortfolio(portfolioID)
	if err != nil {
		return nil, model.PortfolioSummary{}, fmt.Errorf("%w: %v", apperrors.ErrFailedToComputeHoldings, err)
	}

	positions := replayLedger(transactions)

	symbols := make([]string, 0, len(positions))
	for symbol := range positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	// First pass: resolve prices and total the portfolio so each holding's
	// share of the whole can be computed in the second pass.
	records := make(map[string]model.StockPriceRecord, len(symbols))
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, symbol := range symbols {
		record := s.cache.Get(ctx, symbol)
		records[symbol] = record

		pos := positions[symbol]
		price := decimal.NewFromFloat(record.CurrentPrice)
		totalValue = totalValue.Add(pos.quantity.Mul(price))
		totalCost = totalCost.Add(pos.costBasis)
	}

	holdings := make([]model.Holding, 0, len(symbols))
	for _, symbol := range symbols {
		holdings = append(holdings, buildHolding(symbol, positions[symbol], records[symbol], totalValue))
	}

	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].CurrentValue.GreaterThan(holdings[j].CurrentValue)
	})

	summary := model.PortfolioSummary{
		ID:            portfolio.ID,
		Name:          portfolio.Name,
		TotalValue:    totalValue,
		TotalCost:     totalCost,
		TotalGainLoss: totalValue.Sub(totalCost),
	}
	if totalCost.IsPositive() {
		summary.GainLossPercentage = summary.TotalGainLoss.Div(totalCost).Mul(hundred)
	}

	return holdings, summary, nil
}

// replayLedger folds the transaction list (oldest first) into per-symbol
// positions. Only positions with quantity remaining survive.
func replayLedger(transactions []model.Transaction) map[string]position {
	running := make(map[string]position)

	for _, tx := range transactions {
		pos := running[tx.Symbol]

		switch tx.Type {
		case model.TransactionBuy:
			pos.quantity = pos.quantity.Add(tx.Quantity)
			pos.costBasis = pos.costBasis.Add(tx.TotalValue())
		case model.TransactionSell:
			if !pos.quantity.IsPositive() {
				// Sell against an empty position; nothing to reduce.
				continue
			}
			ratio := tx.Quantity.Div(pos.quantity)
			if ratio.GreaterThan(decimal.NewFromInt(1)) {
				ratio = decimal.NewFromInt(1)
			}
			pos.costBasis = pos.costBasis.Sub(pos.costBasis.Mul(ratio))
			pos.quantity = pos.quantity.Sub(tx.Quantity)
			if pos.quantity.IsNegative() {
				pos.quantity = decimal.Zero
			}
		}

		running[tx.Symbol] = pos
	}

	positions := make(map[string]position, len(running))
	for symbol, pos := range running {
		if pos.quantity.IsPositive() {
			positions[symbol] = pos
		}
	}
	return positions
}

// buildHolding joins one replayed position with its cached price record.
func buildHolding(symbol string, pos position, record model.StockPriceRecord, totalValue decimal.Decimal) model.Holding {
	price := decimal.NewFromFloat(record.CurrentPrice)
	dayChange := decimal.NewFromFloat(record.DayChange)

	h := model.Holding{
		Symbol:              symbol,
		CompanyName:         record.CompanyName,
		Quantity:            pos.quantity,
		CostBasis:           pos.costBasis,
		CurrentPrice:        price,
		CurrentValue:        pos.quantity.Mul(price),
		DayChange:           dayChange,
		DayChangePercentage: decimal.NewFromFloat(record.DayChangePercentage),
		DayGain:             pos.quantity.Mul(dayChange),
	}

	h.AvgCost = pos.costBasis.Div(pos.quantity)
	h.GainLoss = h.CurrentValue.Sub(pos.costBasis)
	if pos.costBasis.IsPositive() {
		h.GainLossPercentage = h.GainLoss.Div(pos.costBasis).Mul(hundred)
	}
	if totalValue.IsPositive() {
		h.PortfolioPercentage = h.CurrentValue.Div(totalValue).Mul(hundred)
	}

	if record.FiftyTwoWeekHigh != nil {
		high := decimal.NewFromFloat(*record.FiftyTwoWeekHigh)
		h.FiftyTwoWeekHigh = &high
		if high.IsPositive() {
			delta := price.Sub(high).Div(high).Mul(hundred)
			h.DeltaFrom52wHigh = &delta
		}
	}
	if record.FiftyTwoWeekLow != nil {
		low := decimal.NewFromFloat(*record.FiftyTwoWeekLow)
		h.FiftyTwoWeekLow = &low
		if low.IsPositive() {
			delta := price.Sub(low).Div(low).Mul(hundred)
			h.DeltaFrom52wLow = &delta
		}
	}
	if record.PERatio != nil {
		pe := decimal.NewFromFloat(*record.PERatio)
		h.PERatio = &pe
	}
	if record.DividendYield != nil {
		dy := decimal.NewFromFloat(*record.DividendYield)
		h.DividendYield = &dy
	}

	return h
}
