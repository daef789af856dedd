package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/service"
)

// TaskHandler handles task and task list HTTP requests
type TaskHandler struct {
	taskService *service.TaskService
	syncService *service.SyncService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService *service.TaskService, syncService *service.SyncService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		syncService: syncService,
	}
}

// Tasks handles GET /api/tasks
func (h *TaskHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.GetTasks(userID)
	if err != nil {
		respondServiceError(w, "failed to retrieve tasks", err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.taskService.CreateTask(req)
	if err != nil {
		respondServiceError(w, "failed to create task", err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /api/tasks/{uuid}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	var req request.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "userId is required",
		})
		return
	}

	task, err := h.taskService.UpdateTask(r.Context(), req.UserID, id, req, service.SaveOptions{})
	if err != nil {
		respondServiceError(w, "failed to update task", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Lists handles GET /api/lists
func (h *TaskHandler) Lists(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	lists, err := h.taskService.GetLists(userID)
	if err != nil {
		respondServiceError(w, "failed to retrieve task lists", err)
		return
	}
	respondJSON(w, http.StatusOK, lists)
}

// Push handles POST /api/tasks/push, the dispatch target for pushing one
// local task edit to its provider. A conflict skip is a recognized outcome
// and reported as such, not as a failure.
func (h *TaskHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req request.PushTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.TaskID == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "user_id and task_id are required",
		})
		return
	}

	err := h.syncService.PushTask(r.Context(), req.UserID, req.TaskID)
	if errors.Is(err, apperrors.ErrConflictSkip) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "skipped",
			"reason": err.Error(),
		})
		return
	}
	if err != nil {
		respondServiceError(w, "failed to push task", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "pushed"})
}
