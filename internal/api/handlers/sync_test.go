package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rdevries/taskfolio/internal/dispatch"
	"github.com/rdevries/taskfolio/internal/repository"
	"github.com/rdevries/taskfolio/internal/service"
	"github.com/rdevries/taskfolio/internal/testutil"
)

func setupSyncHandler(t *testing.T) (*SyncHandler, *sql.DB, *dispatch.Recorder, *repository.TokenRepository) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	recorder := dispatch.NewRecorder()
	svc, tokenRepo := testutil.NewTestSyncService(t, db, recorder, testutil.NewMockProvider())
	return NewSyncHandler(svc), db, recorder, tokenRepo
}

// TestSyncHandler_Status tests the completion flag polling endpoint.
//
// WHY: Clients poll this endpoint after triggering a sync. The contract is a
// bare completed boolean; a pair that was never synced reads as not complete.
func TestSyncHandler_Status(t *testing.T) {
	t.Run("requires user_id and provider", func(t *testing.T) {
		handler, _, _, _ := setupSyncHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/sync/status?provider=google", nil)
		w := httptest.NewRecorder()
		handler.Status(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 without user_id, got %d", w.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/sync/status?user_id=user-1", nil)
		w = httptest.NewRecorder()
		handler.Status(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 without provider, got %d", w.Code)
		}
	})

	t.Run("pending sync reads as not completed", func(t *testing.T) {
		handler, db, _, _ := setupSyncHandler(t)

		if err := repository.NewSyncStatusRepository(db).MarkPending("user-1", "google"); err != nil {
			t.Fatalf("MarkPending() returned unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/sync/status?user_id=user-1&provider=google", nil)
		w := httptest.NewRecorder()
		handler.Status(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var response map[string]bool
		testutil.DecodeJSON(t, w, &response)
		if response["completed"] {
			t.Error("Expected completed=false for a pending sync")
		}
	})

	t.Run("finished sync reads as completed", func(t *testing.T) {
		handler, db, _, _ := setupSyncHandler(t)

		if err := repository.NewSyncStatusRepository(db).MarkComplete("user-1", "google"); err != nil {
			t.Fatalf("MarkComplete() returned unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/sync/status?user_id=user-1&provider=google", nil)
		w := httptest.NewRecorder()
		handler.Status(w, req)

		var response map[string]bool
		testutil.DecodeJSON(t, w, &response)
		if !response["completed"] {
			t.Error("Expected completed=true after MarkComplete")
		}
	})
}

// TestSyncHandler_Trigger tests the fan-out trigger endpoint.
func TestSyncHandler_Trigger(t *testing.T) {
	t.Run("enqueues one sync per stored token", func(t *testing.T) {
		handler, _, recorder, tokenRepo := setupSyncHandler(t)
		testutil.SeedToken(t, tokenRepo, "user-1", "google", nil)

		req := httptest.NewRequest(http.MethodPost, "/api/sync/trigger", nil)
		w := httptest.NewRecorder()
		handler.Trigger(w, req)

		if w.Code != http.StatusAccepted {
			t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
		}
		var response map[string]int
		testutil.DecodeJSON(t, w, &response)
		if response["enqueued"] != 1 {
			t.Errorf("Expected 1 enqueued sync, got %d", response["enqueued"])
		}

		calls := recorder.Calls()
		if len(calls) != 1 || calls[0].Endpoint != service.ProcessEndpoint {
			t.Fatalf("Expected one dispatch to %s, got %+v", service.ProcessEndpoint, calls)
		}
		var payload map[string]string
		if err := json.Unmarshal(calls[0].Payload, &payload); err != nil {
			t.Fatalf("Failed to decode dispatched payload: %v", err)
		}
		if payload["user_id"] != "user-1" || payload["provider"] != "google" {
			t.Errorf("Dispatched payload mismatch: %v", payload)
		}
	})

	t.Run("no tokens means nothing to do", func(t *testing.T) {
		handler, _, recorder, _ := setupSyncHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sync/trigger", nil)
		w := httptest.NewRecorder()
		handler.Trigger(w, req)

		if w.Code != http.StatusAccepted {
			t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body.String())
		}
		if len(recorder.Calls()) != 0 {
			t.Errorf("Expected no dispatches, got %d", len(recorder.Calls()))
		}
	})
}

// TestSyncHandler_Process tests request validation and error mapping for the
// dispatch target.
func TestSyncHandler_Process(t *testing.T) {
	t.Run("rejects an invalid body", func(t *testing.T) {
		handler, _, _, _ := setupSyncHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sync/process", strings.NewReader("not json"))
		w := httptest.NewRecorder()
		handler.Process(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("requires user_id and provider", func(t *testing.T) {
		handler, _, _, _ := setupSyncHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sync/process", strings.NewReader(`{"user_id": "user-1"}`))
		w := httptest.NewRecorder()
		handler.Process(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("missing token maps to 404", func(t *testing.T) {
		handler, _, _, _ := setupSyncHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/sync/process",
			strings.NewReader(`{"user_id": "user-1", "provider": "google"}`))
		w := httptest.NewRecorder()
		handler.Process(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for a user with no stored token, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("expired token maps to 401", func(t *testing.T) {
		handler, _, _, tokenRepo := setupSyncHandler(t)

		expiry := time.Now().UTC().Add(-time.Hour)
		token := testutil.SeedToken(t, tokenRepo, "user-1", "google", nil)
		token.TokenExpiresAt = &expiry
		if err := tokenRepo.SaveToken(token); err != nil {
			t.Fatalf("SaveToken() returned unexpected error: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/sync/process",
			strings.NewReader(`{"user_id": "user-1", "provider": "google"}`))
		w := httptest.NewRecorder()
		handler.Process(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for an expired token, got %d: %s", w.Code, w.Body.String())
		}
	})
}
