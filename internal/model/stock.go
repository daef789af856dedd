package model

import "time"

// Stock represents basic symbol information from the database.
// Dynamic data (prices, fundamentals) lives in the stock data cache.
type Stock struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// StockPriceRecord is a cached, ephemeral snapshot of price and fundamentals
// for one symbol. A zero-valued record with Degraded set is returned when live
// data is unavailable.
type StockPriceRecord struct {
	Symbol              string    `json:"symbol"`
	CompanyName         string    `json:"companyName"`
	CurrentPrice        float64   `json:"currentPrice"`
	DayChange           float64   `json:"dayChange"`
	DayChangePercentage float64   `json:"dayChangePercentage"`
	FiftyTwoWeekHigh    *float64  `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow     *float64  `json:"fiftyTwoWeekLow,omitempty"`
	PERatio             *float64  `json:"peRatio,omitempty"`
	DividendYield       *float64  `json:"dividendYield,omitempty"`
	LastUpdated         time.Time `json:"lastUpdated"`
	Degraded            bool      `json:"degraded,omitempty"`
}
