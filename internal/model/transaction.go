package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionBuy  = "BUY"
	TransactionSell = "SELL"
)

// Transaction represents a buy or sell ledger entry for a portfolio.
// Entries are immutable after creation except for explicit edit/delete by the
// owning user; holdings are always derived by replaying the ledger.
type Transaction struct {
	ID            string          `json:"id"`
	PortfolioID   string          `json:"portfolioId"`
	Symbol        string          `json:"symbol"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerShare decimal.Decimal `json:"pricePerShare"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}

// TotalValue returns quantity * price per share.
func (t Transaction) TotalValue() decimal.Decimal {
	return t.Quantity.Mul(t.PricePerShare)
}
