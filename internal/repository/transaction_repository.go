package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
)

// TransactionRepository provides data access methods for the stock_transaction
// ledger table. Quantities and prices are stored as decimal strings to avoid
// float rounding in cost-basis math.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, portfolio_id, symbol, type, quantity, price_per_share, transaction_date, created_at`

// GetTransactionsForPortfolio retrieves all ledger entries for a portfolio,
// oldest first.
func (r *TransactionRepository) GetTransactionsForPortfolio(portfolioID string) ([]model.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT `+transactionColumns+`
		FROM stock_transaction
		WHERE portfolio_id = ?
		ORDER BY transaction_date ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock_transaction table: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransaction retrieves a single ledger entry by ID.
// Returns apperrors.ErrTransactionNotFound if no row exists.
func (r *TransactionRepository) GetTransaction(id string) (model.Transaction, error) {
	row := r.db.QueryRow(`
		SELECT `+transactionColumns+`
		FROM stock_transaction
		WHERE id = ?
	`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to query stock_transaction: %w", err)
	}
	return t, nil
}

// GetSymbols returns the distinct set of symbols appearing in the given
// portfolios' ledgers. If portfolioIDs is empty, every symbol in the ledger
// table is returned.
func (r *TransactionRepository) GetSymbols(portfolioIDs []string) ([]string, error) {
	query := `SELECT DISTINCT symbol FROM stock_transaction`
	var args []any

	if len(portfolioIDs) > 0 {
		placeholders := make([]string, len(portfolioIDs))
		for i := range placeholders {
			placeholders[i] = "?"
		}
		query += ` WHERE portfolio_id IN (` + strings.Join(placeholders, ",") + `)`
		for _, id := range portfolioIDs {
			args = append(args, id)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// CreateTransaction inserts a new ledger entry.
func (r *TransactionRepository) CreateTransaction(t model.Transaction) error {
	_, err := r.db.Exec(`
		INSERT INTO stock_transaction (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.PortfolioID,
		strings.ToUpper(t.Symbol),
		t.Type,
		t.Quantity.String(),
		t.PricePerShare.String(),
		t.Date.UTC().Format(time.RFC3339Nano),
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction overwrites the mutable fields of a ledger entry.
func (r *TransactionRepository) UpdateTransaction(t model.Transaction) error {
	result, err := r.db.Exec(`
		UPDATE stock_transaction
		SET symbol = ?, type = ?, quantity = ?, price_per_share = ?, transaction_date = ?
		WHERE id = ?
	`,
		strings.ToUpper(t.Symbol),
		t.Type,
		t.Quantity.String(),
		t.PricePerShare.String(),
		t.Date.UTC().Format(time.RFC3339Nano),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// DeleteTransaction removes a ledger entry.
func (r *TransactionRepository) DeleteTransaction(id string) error {
	result, err := r.db.Exec(`DELETE FROM stock_transaction WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var quantityStr, priceStr, dateStr, createdAtStr string

	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&t.Symbol,
		&t.Type,
		&quantityStr,
		&priceStr,
		&dateStr,
		&createdAtStr,
	)
	if err != nil {
		return model.Transaction{}, err
	}

	if t.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if t.PricePerShare, err = decimal.NewFromString(priceStr); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to parse price: %w", err)
	}
	if t.Date, err = ParseTime(dateStr); err != nil {
		return model.Transaction{}, err
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.Transaction{}, err
	}

	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock_transaction row: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock_transaction table: %w", err)
	}
	return transactions, nil
}
