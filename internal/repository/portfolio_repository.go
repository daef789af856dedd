package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves all portfolios owned by the given user,
// ordered by creation time.
func (r *PortfolioRepository) GetPortfolios(userID string) ([]model.Portfolio, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name, created_at
		FROM portfolio
		WHERE user_id = ?
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var createdAtStr string

		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio row: %w", err)
		}
		p.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}

	return portfolios, nil
}

// GetPortfolio retrieves a single portfolio by ID.
// Returns apperrors.ErrPortfolioNotFound if no row exists.
func (r *PortfolioRepository) GetPortfolio(id string) (model.Portfolio, error) {
	var p model.Portfolio
	var createdAtStr string

	err := r.db.QueryRow(`
		SELECT id, user_id, name, created_at
		FROM portfolio
		WHERE id = ?
	`, id).Scan(&p.ID, &p.UserID, &p.Name, &createdAtStr)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, err
	}

	return p, nil
}

// CreatePortfolio inserts a new portfolio row.
func (r *PortfolioRepository) CreatePortfolio(p model.Portfolio) error {
	_, err := r.db.Exec(`
		INSERT INTO portfolio (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.UserID, p.Name, p.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}
