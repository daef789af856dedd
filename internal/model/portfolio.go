package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio represents a user's stock portfolio
type Portfolio struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Holding is a derived position for one symbol, computed by replaying the
// transaction ledger and joining with cached stock data. It is never persisted.
type Holding struct {
	Symbol              string          `json:"symbol"`
	CompanyName         string          `json:"companyName"`
	Quantity            decimal.Decimal `json:"quantity"`
	AvgCost             decimal.Decimal `json:"avgCost"`
	CostBasis           decimal.Decimal `json:"costBasis"`
	CurrentPrice        decimal.Decimal `json:"currentPrice"`
	CurrentValue        decimal.Decimal `json:"currentValue"`
	GainLoss            decimal.Decimal `json:"gainLoss"`
	GainLossPercentage  decimal.Decimal `json:"gainLossPercentage"`
	DayChange           decimal.Decimal `json:"dayChange"`
	DayChangePercentage decimal.Decimal `json:"dayChangePercentage"`
	DayGain             decimal.Decimal `json:"dayGain"`
	FiftyTwoWeekHigh    *decimal.Decimal `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow     *decimal.Decimal `json:"fiftyTwoWeekLow,omitempty"`
	DeltaFrom52wHigh    *decimal.Decimal `json:"deltaFrom52wHigh,omitempty"`
	DeltaFrom52wLow     *decimal.Decimal `json:"deltaFrom52wLow,omitempty"`
	PERatio             *decimal.Decimal `json:"peRatio,omitempty"`
	DividendYield       *decimal.Decimal `json:"dividendYield,omitempty"`
	PortfolioPercentage decimal.Decimal `json:"portfolioPercentage"`
}

// PortfolioSummary aggregates holdings into portfolio-level totals.
type PortfolioSummary struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	TotalGainLoss      decimal.Decimal `json:"totalGainLoss"`
	GainLossPercentage decimal.Decimal `json:"gainLossPercentage"`
}
