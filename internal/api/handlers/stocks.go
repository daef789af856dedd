package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/service"
)

// StockHandler handles stock data HTTP requests
type StockHandler struct {
	stockService *service.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *service.StockService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// Get handles GET /api/stocks/{symbol}. The response always carries a record;
// when live data is unavailable it is a degraded default with Degraded set.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "symbol is required",
		})
		return
	}

	respondJSON(w, http.StatusOK, h.stockService.GetStock(r.Context(), symbol))
}

// Refresh handles POST /api/stocks/refresh, also the dispatch target for the
// scheduled daily refresh. An empty symbol list refreshes every ledger symbol.
func (h *StockHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req request.RefreshStocksRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := h.stockService.RefreshStocks(r.Context(), req.Symbols)
	if err != nil {
		respondServiceError(w, "failed to refresh stocks", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// ClearCache handles POST /api/stocks/cache/clear.
func (h *StockHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	h.stockService.ClearCache(symbol)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
