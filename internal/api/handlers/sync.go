package handlers

import (
	"net/http"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/service"
)

// SyncHandler handles task synchronization HTTP requests
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// SyncReportResponse wraps the events of one sync run.
type SyncReportResponse struct {
	Provider string            `json:"provider"`
	Events   []model.SyncEvent `json:"events"`
}

// Process handles POST /api/sync/process, the dispatch target that runs one
// (user, provider) sync synchronously and returns its report.
func (h *SyncHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req request.SyncRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Provider == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "user_id and provider are required",
		})
		return
	}

	events, err := h.syncService.ProcessSync(r.Context(), req.UserID, req.Provider)
	if err != nil {
		respondServiceError(w, "sync failed", err)
		return
	}
	if events == nil {
		events = []model.SyncEvent{}
	}
	respondJSON(w, http.StatusOK, SyncReportResponse{Provider: req.Provider, Events: events})
}

// Trigger handles POST /api/sync/trigger: enqueue a sync for every stored
// (user, provider) token.
func (h *SyncHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	enqueued, err := h.syncService.TriggerAll(r.Context())
	if err != nil {
		respondServiceError(w, "failed to trigger syncs", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]int{"enqueued": enqueued})
}

// Status handles GET /api/sync/status: report whether the most recently
// dispatched sync for (user, provider) has finished. Pollers call this until
// completed flips to true.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	providerName := r.URL.Query().Get("provider")
	if providerName == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "provider query parameter is required",
		})
		return
	}

	completed, err := h.syncService.Status(userID, providerName)
	if err != nil {
		respondServiceError(w, "failed to read sync status", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}
