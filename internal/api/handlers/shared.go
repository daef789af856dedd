package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rdevries/taskfolio/internal/apperrors"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondServiceError maps service errors onto HTTP statuses using the
// sentinel errors in apperrors. Unknown errors become a 500.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrTaskNotFound),
		errors.Is(err, apperrors.ErrTaskListNotFound),
		errors.Is(err, apperrors.ErrTokenNotFound),
		errors.Is(err, apperrors.ErrStockNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrInvalidTransactionType),
		errors.Is(err, apperrors.ErrNegativeQuantity),
		errors.Is(err, apperrors.ErrInvalidProvider),
		errors.Is(err, apperrors.ErrMissingRequiredField):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrConflictSkip):
		status = http.StatusConflict
	}

	respondJSON(w, status, map[string]string{
		"error":  message,
		"detail": err.Error(),
	})
}

// decodeJSON parses a request body into dst, answering 400 itself on failure.
// Returns false when the handler should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid JSON body",
			"detail": err.Error(),
		})
		return false
	}
	return true
}

// requireUserID reads the user_id query parameter, answering 400 when absent.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "user_id query parameter is required",
		})
		return "", false
	}
	return userID, true
}
