package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/repository"
)

// PortfolioService handles portfolio-related business logic operations.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService with the provided repository dependencies.
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
	}
}

// GetPortfolios retrieves all portfolios owned by a user.
func (s *PortfolioService) GetPortfolios(userID string) ([]model.Portfolio, error) {
	portfolios, err := s.portfolioRepo.GetPortfolios(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrievePortfolios, err)
	}
	return portfolios, nil
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(id string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolio(id)
}

// CreatePortfolio creates a new portfolio for a user.
func (s *PortfolioService) CreatePortfolio(req request.CreatePortfolioRequest) (*model.Portfolio, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, apperrors.ErrMissingRequiredField
	}

	p := &model.Portfolio{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.portfolioRepo.CreatePortfolio(*p); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return p, nil
}
