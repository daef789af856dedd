package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/taskfolio/internal/api/request"
	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/dispatch"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/provider"
	"github.com/rdevries/taskfolio/internal/repository"
)

// ProcessEndpoint is the dispatch target that runs one (user, provider) sync.
// Deliveries must stay idempotent: re-running a sync that already applied
// produces no writes and no events.
const ProcessEndpoint = "/api/sync/process"

// maxDescriptionLength caps descriptions pushed to providers. Both provider
// APIs reject larger notes bodies.
const maxDescriptionLength = 10000

// SyncService runs the bidirectional task synchronizer.
//
// Pull side: remote changes always overwrite the local mirror (remote
// precedence). Push side: a local edit is pushed only if the remote copy has
// not been modified since; otherwise the push is skipped and the next pull
// brings the remote version down.
type SyncService struct {
	tokenRepo  *repository.TokenRepository
	taskRepo   *repository.TaskRepository
	listRepo   *repository.TaskListRepository
	statusRepo *repository.SyncStatusRepository
	dispatcher dispatch.Dispatcher
	providers  map[string]provider.Provider

	now func() time.Time
}

// NewSyncService creates a new SyncService wired to the given providers.
func NewSyncService(
	tokenRepo *repository.TokenRepository,
	taskRepo *repository.TaskRepository,
	listRepo *repository.TaskListRepository,
	statusRepo *repository.SyncStatusRepository,
	dispatcher dispatch.Dispatcher,
	providers ...provider.Provider,
) *SyncService {
	byName := make(map[string]provider.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &SyncService{
		tokenRepo:  tokenRepo,
		taskRepo:   taskRepo,
		listRepo:   listRepo,
		statusRepo: statusRepo,
		dispatcher: dispatcher,
		providers:  byName,
		now:        time.Now,
	}
}

// ProcessSync runs one full sync for a (user, provider) pair and returns the
// report of actions taken.
//
// Phases: reconcile remote lists into local lists, pull changed tasks since
// the watermark (everything on a baseline run), sweep for remote deletions
// (baseline runs only), then advance the watermark. Per-task failures are
// captured as Error events and do not abort the run, but any failure leaves
// the watermark untouched so the next run retries the same window. The
// completion flag flips only when the run produces a report; a run that
// fails outright leaves the tracker not-complete so pollers see the failure.
func (s *SyncService) ProcessSync(ctx context.Context, userID, providerName string) ([]model.SyncEvent, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidProvider, providerName)
	}

	token, err := s.tokenRepo.GetToken(userID, providerName)
	if err != nil {
		return nil, err
	}
	if token.Expired(s.now()) {
		return nil, apperrors.ErrTokenExpired
	}

	baseline := token.LastSyncedAt == nil
	syncStart := s.now().UTC()

	remoteLists, err := p.ListTaskLists(ctx, token)
	if err != nil {
		return nil, err
	}

	var events []model.SyncEvent
	clean := true
	remoteIDs := make(map[string]struct{})

	for _, rl := range remoteLists {
		name, listType := p.LocalList(rl)
		list, created, err := s.listRepo.GetOrCreateByCode(userID, rl.ID, model.TaskList{
			Name:       name,
			ListType:   listType,
			ListSource: p.Name(),
		})
		if err != nil {
			events = append(events, s.errorEvent(p.Name(), "", name, err))
			clean = false
			continue
		}
		if created {
			log.Printf("mirrored new %s list %q for user %s", p.Name(), name, userID)
		}

		tasks, err := p.ListTasks(ctx, token, rl.ID, token.LastSyncedAt)
		if err != nil {
			events = append(events, s.errorEvent(p.Name(), "", list.Name, err))
			clean = false
			continue
		}

		for _, rt := range tasks {
			if baseline {
				remoteIDs[rt.ID] = struct{}{}
			}
			event, err := s.mergeRemoteTask(userID, p.Name(), list, rt)
			if err != nil {
				events = append(events, s.errorEvent(p.Name(), rt.Title, list.Name, err))
				clean = false
				continue
			}
			if event != nil {
				events = append(events, *event)
			}
		}
	}

	// The deletion sweep needs the complete remote ID set, which only a
	// baseline run has. A run with failures may have an incomplete set, and
	// sweeping against it would complete tasks that still exist remotely.
	if baseline && clean {
		sweepEvents, err := s.sweepDeleted(userID, p.Name(), remoteIDs)
		if err != nil {
			events = append(events, s.errorEvent(p.Name(), "", "", err))
			clean = false
		} else {
			events = append(events, sweepEvents...)
		}
	}

	if clean {
		if err := s.tokenRepo.AdvanceWatermark(userID, providerName, syncStart); err != nil {
			return events, err
		}
	}

	if err := s.statusRepo.MarkComplete(userID, providerName); err != nil {
		log.Printf("failed to mark sync complete for %s/%s: %v", userID, providerName, err)
	}
	return events, nil
}

// mergeRemoteTask applies one remote task to its local mirror: create when no
// mirror exists, overwrite differing fields when it does. Returns nil when
// the mirror already matches.
func (s *SyncService) mergeRemoteTask(userID, source string, list model.TaskList, rt provider.RemoteTask) (*model.SyncEvent, error) {
	existing, found, err := s.taskRepo.FindBySource(userID, source, rt.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if !found {
		task := model.Task{
			ID:             uuid.New().String(),
			UserID:         userID,
			TaskListID:     list.ID,
			Name:           rt.Title,
			Description:    rt.Notes,
			Completed:      rt.Completed,
			DueDate:        rt.DueDate,
			Source:         source,
			SourceID:       rt.ID,
			CreationDate:   now,
			LastUpdateDate: now,
		}
		if err := s.taskRepo.CreateTask(task); err != nil {
			return nil, err
		}
		return &model.SyncEvent{
			Provider:  source,
			TaskName:  task.Name,
			ListName:  list.Name,
			Action:    model.SyncActionCreated,
			Timestamp: now,
		}, nil
	}

	var fields []string
	if existing.Name != rt.Title {
		existing.Name = rt.Title
		fields = append(fields, "task_name")
	}
	if existing.Description != rt.Notes {
		existing.Description = rt.Notes
		fields = append(fields, "task_description")
	}
	if existing.Completed != rt.Completed {
		existing.Completed = rt.Completed
		fields = append(fields, "task_completed")
	}
	if !timePtrEqual(existing.DueDate, rt.DueDate) {
		existing.DueDate = rt.DueDate
		fields = append(fields, "due_date")
	}
	if existing.TaskListID != list.ID {
		existing.TaskListID = list.ID
		fields = append(fields, "task_list")
	}

	if len(fields) == 0 {
		return nil, nil
	}

	existing.LastUpdateDate = now
	if err := s.taskRepo.UpdateTask(existing); err != nil {
		return nil, err
	}

	return &model.SyncEvent{
		Provider:      source,
		TaskName:      existing.Name,
		ListName:      list.Name,
		Action:        model.SyncActionUpdated,
		UpdatedFields: fields,
		Timestamp:     now,
	}, nil
}

// sweepDeleted marks local mirrors completed when their remote counterpart
// has disappeared. Already-completed mirrors are left untouched.
func (s *SyncService) sweepDeleted(userID, source string, remoteIDs map[string]struct{}) ([]model.SyncEvent, error) {
	local, err := s.taskRepo.GetTasksBySource(userID, source)
	if err != nil {
		return nil, err
	}

	var events []model.SyncEvent
	for _, task := range local {
		if _, present := remoteIDs[task.SourceID]; present || task.Completed {
			continue
		}

		task.Completed = true
		task.LastUpdateDate = s.now().UTC()
		if err := s.taskRepo.UpdateTask(task); err != nil {
			return events, err
		}
		events = append(events, model.SyncEvent{
			Provider:  source,
			TaskName:  task.Name,
			Action:    model.SyncActionCompleted,
			Timestamp: task.LastUpdateDate,
		})
	}
	return events, nil
}

// PushTask pushes one local task's current state to its provider.
//
// The remote copy is re-fetched first; if it was modified after the local
// task, the push is abandoned with apperrors.ErrConflictSkip and the remote
// edit wins on the next pull. Descriptions are truncated to the providers'
// limit, and the truncated form is saved back locally so local and remote
// stay identical.
func (s *SyncService) PushTask(ctx context.Context, userID, taskID string) error {
	task, err := s.taskRepo.GetTask(userID, taskID)
	if err != nil {
		return err
	}
	if !task.IsRemote() {
		// Local-only tasks have nowhere to push to.
		return nil
	}

	p, ok := s.providers[task.Source]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidProvider, task.Source)
	}

	token, err := s.tokenRepo.GetToken(userID, task.Source)
	if err != nil {
		return err
	}
	if token.Expired(s.now()) {
		return apperrors.ErrTokenExpired
	}

	list, err := s.listRepo.GetList(task.TaskListID)
	if err != nil {
		return err
	}

	remote, err := p.GetTask(ctx, token, list.ListCode, task.SourceID)
	if err != nil {
		return err
	}
	if remote.Updated.After(task.LastUpdateDate) {
		log.Printf("remote task %s modified after local edit, skipping push", task.SourceID)
		return apperrors.ErrConflictSkip
	}

	notes := task.Description
	if len(notes) > maxDescriptionLength {
		notes = notes[:maxDescriptionLength]
	}

	err = p.UpdateTask(ctx, token, list.ListCode, provider.RemoteTask{
		ID:        task.SourceID,
		Title:     task.Name,
		Notes:     notes,
		Completed: task.Completed,
		DueDate:   task.DueDate,
	})
	if err != nil {
		return err
	}

	// Saved through the repository directly, so the push dispatch path is
	// never re-triggered by this write.
	task.Description = notes
	task.LastUpdateDate = s.now().UTC()
	if err := s.taskRepo.UpdateTask(task); err != nil {
		return err
	}
	return nil
}

// TriggerAll dispatches a sync for every stored (user, provider) token and
// returns the number of syncs enqueued. Each pair's completion flag is
// cleared first so status pollers observe the new cycle.
func (s *SyncService) TriggerAll(ctx context.Context) (int, error) {
	pairs, err := s.tokenRepo.ListUserProviders()
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, pair := range pairs {
		if err := s.statusRepo.MarkPending(pair.UserID, pair.Provider); err != nil {
			log.Printf("failed to mark sync pending for %s/%s: %v", pair.UserID, pair.Provider, err)
			continue
		}

		payload := request.SyncRequest{UserID: pair.UserID, Provider: pair.Provider}
		name := "sync-" + pair.UserID + "-" + pair.Provider
		if err := s.dispatcher.Enqueue(ctx, ProcessEndpoint, payload, dispatch.WithName(name)); err != nil {
			log.Printf("failed to enqueue sync for %s/%s: %v", pair.UserID, pair.Provider, err)
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// Status reports whether the most recently dispatched sync for the pair has
// finished.
func (s *SyncService) Status(userID, providerName string) (bool, error) {
	return s.statusRepo.IsComplete(userID, providerName)
}

func (s *SyncService) errorEvent(providerName, taskName, listName string, err error) model.SyncEvent {
	return model.SyncEvent{
		Provider:  providerName,
		TaskName:  taskName,
		ListName:  listName,
		Action:    model.SyncActionError,
		Error:     err.Error(),
		Timestamp: s.now().UTC(),
	}
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
