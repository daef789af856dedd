package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/service"
)

// TransactionHandler handles ledger-entry HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Update handles PUT /api/transactions/{uuid}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	var req request.UpdateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(id, req)
	if err != nil {
		respondServiceError(w, "failed to update transaction", err)
		return
	}
	respondJSON(w, http.StatusOK, transaction)
}

// Delete handles DELETE /api/transactions/{uuid}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	if err := h.transactionService.DeleteTransaction(id); err != nil {
		respondServiceError(w, "failed to delete transaction", err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
