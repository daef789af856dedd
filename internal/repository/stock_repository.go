package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rdevries/taskfolio/internal/model"
)

// StockRepository provides data access methods for the stock table.
// The table holds only stable symbol info; prices live in the cache.
type StockRepository struct {
	db *sql.DB
}

// NewStockRepository creates a new StockRepository with the provided database connection.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{db: db}
}

// GetBySymbol looks up a stock by symbol. Returns ok=false when the symbol
// is not known; callers treat that as "no basic info available", not an error.
func (r *StockRepository) GetBySymbol(symbol string) (model.Stock, bool, error) {
	var s model.Stock
	var name sql.NullString

	err := r.db.QueryRow(`
		SELECT id, symbol, name FROM stock WHERE symbol = ?
	`, strings.ToUpper(symbol)).Scan(&s.ID, &s.Symbol, &name)
	if err == sql.ErrNoRows {
		return model.Stock{}, false, nil
	}
	if err != nil {
		return model.Stock{}, false, fmt.Errorf("failed to query stock: %w", err)
	}
	s.Name = name.String
	return s, true, nil
}

// AllSymbols returns every symbol in the stock table.
func (r *StockRepository) AllSymbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT symbol FROM stock ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan stock symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// Upsert creates the stock row for a symbol if absent, and fills in the
// company name if it was previously unknown. An existing non-empty name is
// never overwritten.
func (r *StockRepository) Upsert(symbol, name string) error {
	symbol = strings.ToUpper(symbol)

	_, err := r.db.Exec(`
		INSERT INTO stock (id, symbol, name) VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET name = excluded.name
		WHERE stock.name IS NULL OR stock.name = ''
	`, uuid.New().String(), symbol, name)
	if err != nil {
		return fmt.Errorf("failed to upsert stock %s: %w", symbol, err)
	}
	return nil
}
