package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/repository"
)

// TransactionService handles ledger-related business logic operations.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	portfolioRepo   *repository.PortfolioRepository
}

// NewTransactionService creates a new TransactionService with the provided repository dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	portfolioRepo *repository.PortfolioRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		portfolioRepo:   portfolioRepo,
	}
}

// GetTransactionsForPortfolio retrieves all ledger entries for a portfolio,
// oldest first. The portfolio must exist.
func (s *TransactionService) GetTransactionsForPortfolio(portfolioID string) ([]model.Transaction, error) {
	if _, err := s.portfolioRepo.GetPortfolio(portfolioID); err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.GetTransactionsForPortfolio(portfolioID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	return transactions, nil
}

// CreateTransaction validates and records a new ledger entry.
func (s *TransactionService) CreateTransaction(portfolioID string, req request.CreateTransactionRequest) (*model.Transaction, error) {
	if _, err := s.portfolioRepo.GetPortfolio(portfolioID); err != nil {
		return nil, err
	}

	parsed, err := s.parseFields(req.Symbol, req.Type, req.Quantity, req.PricePerShare, req.Date)
	if err != nil {
		return nil, err
	}

	parsed.ID = uuid.New().String()
	parsed.PortfolioID = portfolioID
	parsed.CreatedAt = time.Now().UTC()

	if err := s.transactionRepo.CreateTransaction(*parsed); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return parsed, nil
}

// UpdateTransaction validates and overwrites an existing ledger entry.
func (s *TransactionService) UpdateTransaction(id string, req request.UpdateTransactionRequest) (*model.Transaction, error) {
	existing, err := s.transactionRepo.GetTransaction(id)
	if err != nil {
		return nil, err
	}

	parsed, err := s.parseFields(req.Symbol, req.Type, req.Quantity, req.PricePerShare, req.Date)
	if err != nil {
		return nil, err
	}

	parsed.ID = existing.ID
	parsed.PortfolioID = existing.PortfolioID
	parsed.CreatedAt = existing.CreatedAt

	if err := s.transactionRepo.UpdateTransaction(*parsed); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return parsed, nil
}

// DeleteTransaction removes a ledger entry.
func (s *TransactionService) DeleteTransaction(id string) error {
	return s.transactionRepo.DeleteTransaction(id)
}

// parseFields validates and converts the shared create/update fields.
func (s *TransactionService) parseFields(symbol, txType, quantity, price, date string) (*model.Transaction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol", apperrors.ErrMissingRequiredField)
	}

	txType = strings.ToUpper(txType)
	if txType != model.TransactionBuy && txType != model.TransactionSell {
		return nil, apperrors.ErrInvalidTransactionType
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil || !qty.IsPositive() {
		return nil, apperrors.ErrNegativeQuantity
	}

	pps, err := decimal.NewFromString(price)
	if err != nil || pps.IsNegative() {
		return nil, fmt.Errorf("%w: pricePerShare", apperrors.ErrMissingRequiredField)
	}

	parsedDate, err := repository.ParseTime(date)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction date %q: %w", date, err)
	}

	return &model.Transaction{
		Symbol:        symbol,
		Type:          txType,
		Quantity:      qty,
		PricePerShare: pps,
		Date:          parsedDate,
	}, nil
}
