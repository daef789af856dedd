package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService   *service.PortfolioService
	holdingsService    *service.HoldingsService
	transactionService *service.TransactionService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(
	portfolioService *service.PortfolioService,
	holdingsService *service.HoldingsService,
	transactionService *service.TransactionService,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService:   portfolioService,
		holdingsService:    holdingsService,
		transactionService: transactionService,
	}
}

// Portfolios handles GET /api/portfolios
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	portfolios, err := h.portfolioService.GetPortfolios(userID)
	if err != nil {
		respondServiceError(w, "failed to retrieve portfolios", err)
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// CreatePortfolio handles POST /api/portfolios
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req)
	if err != nil {
		respondServiceError(w, "failed to create portfolio", err)
		return
	}
	respondJSON(w, http.StatusCreated, portfolio)
}

// HoldingsResponse bundles the derived holdings with portfolio totals.
type HoldingsResponse struct {
	Holdings []model.Holding        `json:"holdings"`
	Summary  model.PortfolioSummary `json:"summary"`
}

// Holdings handles GET /api/portfolios/{uuid}/holdings
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	holdings, summary, err := h.holdingsService.GetHoldings(r.Context(), portfolioID)
	if err != nil {
		respondServiceError(w, "failed to compute holdings", err)
		return
	}
	respondJSON(w, http.StatusOK, HoldingsResponse{Holdings: holdings, Summary: summary})
}

// Transactions handles GET /api/portfolios/{uuid}/transactions
func (h *PortfolioHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	transactions, err := h.transactionService.GetTransactionsForPortfolio(portfolioID)
	if err != nil {
		respondServiceError(w, "failed to retrieve transactions", err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/portfolios/{uuid}/transactions
func (h *PortfolioHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	var req request.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	transaction, err := h.transactionService.CreateTransaction(portfolioID, req)
	if err != nil {
		respondServiceError(w, "failed to create transaction", err)
		return
	}
	respondJSON(w, http.StatusCreated, transaction)
}
