package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/dispatch"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/repository"
)

// PushEndpoint is the dispatch target that pushes one local task edit to its
// provider. Deliveries must stay idempotent: pushing an unchanged task is a
// no-op on the remote side.
const PushEndpoint = "/api/tasks/push"

// Built-in virtual lists. They exist for every user and group tasks by
// attribute rather than by membership.
var specialLists = []model.TaskList{
	{Name: "Important", ListCode: "important", ListType: model.ListTypeSpecial},
	{Name: "Past Due", ListCode: "past_due", ListType: model.ListTypeSpecial},
	{Name: "All Tasks", ListCode: "all_tasks", ListType: model.ListTypeSpecial},
}

// SaveOptions controls side effects of saving a task.
type SaveOptions struct {
	// SuppressNotify skips the push-to-provider dispatch. Sync sets this when
	// writing remote-originated changes so a pull never triggers a push of
	// the same data.
	SuppressNotify bool
}

// TaskService handles task and task list business logic operations.
type TaskService struct {
	taskRepo   *repository.TaskRepository
	listRepo   *repository.TaskListRepository
	dispatcher dispatch.Dispatcher
}

// NewTaskService creates a new TaskService with the provided dependencies.
func NewTaskService(
	taskRepo *repository.TaskRepository,
	listRepo *repository.TaskListRepository,
	dispatcher dispatch.Dispatcher,
) *TaskService {
	return &TaskService{
		taskRepo:   taskRepo,
		listRepo:   listRepo,
		dispatcher: dispatcher,
	}
}

// GetTasks retrieves all tasks for a user.
func (s *TaskService) GetTasks(userID string) ([]model.Task, error) {
	tasks, err := s.taskRepo.GetTasks(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTasks, err)
	}
	return tasks, nil
}

// GetTask retrieves a single task owned by the user.
func (s *TaskService) GetTask(userID, id string) (model.Task, error) {
	return s.taskRepo.GetTask(userID, id)
}

// GetLists retrieves all task lists for a user, materializing the built-in
// virtual lists on first access.
func (s *TaskService) GetLists(userID string) ([]model.TaskList, error) {
	for _, defaults := range specialLists {
		if _, _, err := s.listRepo.GetOrCreateByCode(userID, defaults.ListCode, defaults); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTaskLists, err)
		}
	}

	lists, err := s.listRepo.GetLists(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveTaskLists, err)
	}
	return lists, nil
}

// CreateTask creates a new locally-sourced task.
func (s *TaskService) CreateTask(req request.CreateTaskRequest) (*model.Task, error) {
	if strings.TrimSpace(req.Name) == "" || req.UserID == "" {
		return nil, apperrors.ErrMissingRequiredField
	}

	list, err := s.listRepo.GetList(req.TaskListID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		TaskListID:     list.ID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Important:      req.Important,
		Recurrence:     req.Recurrence,
		Source:         model.SourceLocal,
		CreationDate:   now,
		LastUpdateDate: now,
	}

	if task.DueDate, err = parseOptionalDate(req.DueDate); err != nil {
		return nil, err
	}
	if task.ReminderTime, err = parseOptionalDate(req.ReminderTime); err != nil {
		return nil, err
	}

	if err := s.taskRepo.CreateTask(*task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies the non-nil fields of the request to a task and saves it.
// Edits to remote-sourced tasks enqueue a push back to the provider unless
// opts.SuppressNotify is set.
func (s *TaskService) UpdateTask(ctx context.Context, userID, id string, req request.UpdateTaskRequest, opts SaveOptions) (*model.Task, error) {
	task, err := s.taskRepo.GetTask(userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperrors.ErrMissingRequiredField
		}
		task.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.Important != nil {
		task.Important = *req.Important
	}
	if req.Recurrence != nil {
		task.Recurrence = *req.Recurrence
	}
	if req.DueDate != nil {
		if task.DueDate, err = parseOptionalDate(req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.ReminderTime != nil {
		if task.ReminderTime, err = parseOptionalDate(req.ReminderTime); err != nil {
			return nil, err
		}
	}

	task.LastUpdateDate = time.Now().UTC()

	if err := s.taskRepo.UpdateTask(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if task.IsRemote() && !opts.SuppressNotify {
		payload := request.PushTaskRequest{UserID: userID, TaskID: task.ID}
		err := s.dispatcher.Enqueue(ctx, PushEndpoint, payload, dispatch.WithName("push-"+task.ID))
		if err != nil {
			// The local save already happened; a lost push is caught by the
			// next sync's conflict check.
			log.Printf("failed to enqueue push for task %s: %v", task.ID, err)
		}
	}

	return &task, nil
}

// parseOptionalDate parses an optional timestamp string. An empty string
// clears the field.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := repository.ParseTime(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", *s, err)
	}
	return &t, nil
}
