package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/dispatch"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/provider"
	"github.com/rdevries/taskfolio/internal/service"
	"github.com/rdevries/taskfolio/internal/testutil"
)

const syncUser = "user-1"

// TestSyncService_ProcessSync tests the pull side of the synchronizer.
//
// WHY: Sync is the one code path that writes remote data into local tables.
// It must create mirrors exactly once, apply remote changes with remote
// precedence, never advance the watermark past a failure, and stay idempotent
// because dispatched deliveries can race manual triggers.
func TestSyncService_ProcessSync(t *testing.T) {
	remoteLists := func() []provider.RemoteList {
		return []provider.RemoteList{
			{ID: "list-default", Title: "My Tasks", IsDefault: true},
			{ID: "list-groceries", Title: "Groceries"},
		}
	}

	t.Run("baseline sync mirrors lists and tasks and advances the watermark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		mock.Lists = remoteLists()
		mock.Tasks["list-default"] = []provider.RemoteTask{
			{ID: "r1", Title: "Buy milk"},
			{ID: "r2", Title: "File taxes", Completed: true},
		}
		mock.Tasks["list-groceries"] = []provider.RemoteTask{
			{ID: "r3", Title: "Apples"},
		}

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)

		events, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("ProcessSync() returned unexpected error: %v", err)
		}

		created := 0
		for _, e := range events {
			if e.Action == model.SyncActionCreated {
				created++
			}
		}
		if created != 3 {
			t.Errorf("Expected 3 Created events, got %d (events: %+v)", created, events)
		}

		tasks, err := testutil.NewTestTaskService(t, db, dispatch.NewRecorder()).GetTasks(syncUser)
		if err != nil {
			t.Fatalf("GetTasks() returned unexpected error: %v", err)
		}
		if len(tasks) != 3 {
			t.Errorf("Expected 3 mirrored tasks, got %d", len(tasks))
		}

		lists, err := testutil.NewTestTaskService(t, db, dispatch.NewRecorder()).GetLists(syncUser)
		if err != nil {
			t.Fatalf("GetLists() returned unexpected error: %v", err)
		}
		var defaultName, groceriesName string
		for _, l := range lists {
			switch l.ListCode {
			case "list-default":
				defaultName = l.Name
				if l.ListType != model.ListTypeGooglePrimary {
					t.Errorf("Expected google_primary list type, got %s", l.ListType)
				}
			case "list-groceries":
				groceriesName = l.Name
			}
		}
		if defaultName != "G My Tasks" {
			t.Errorf("Expected default list named 'G My Tasks', got %q", defaultName)
		}
		if groceriesName != "G Groceries" {
			t.Errorf("Expected prefixed list name 'G Groceries', got %q", groceriesName)
		}

		token, err := tokenRepo.GetToken(syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("GetToken() returned unexpected error: %v", err)
		}
		if token.LastSyncedAt == nil {
			t.Error("Expected watermark to be advanced after a clean run")
		}

		complete, err := svc.Status(syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("Status() returned unexpected error: %v", err)
		}
		if !complete {
			t.Error("Expected sync to be marked complete")
		}
	})

	t.Run("re-running an applied sync produces no events", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		mock.Lists = remoteLists()
		mock.Tasks["list-default"] = []provider.RemoteTask{{ID: "r1", Title: "Buy milk"}}

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)

		if _, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle); err != nil {
			t.Fatalf("first ProcessSync() returned unexpected error: %v", err)
		}

		events, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("second ProcessSync() returned unexpected error: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("Expected no events on re-run, got %+v", events)
		}

		// Incremental run passed the watermark to the provider.
		if mock.LastUpdatedSince() == nil {
			t.Error("Expected second run to request changes since the watermark")
		}
	})

	t.Run("remote field change yields one Updated event naming the field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		mock.Lists = remoteLists()
		mock.Tasks["list-default"] = []provider.RemoteTask{{ID: "r1", Title: "Buy milk"}}

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)

		if _, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle); err != nil {
			t.Fatalf("baseline ProcessSync() returned unexpected error: %v", err)
		}

		// The task is completed remotely.
		mock.Tasks["list-default"] = []provider.RemoteTask{{ID: "r1", Title: "Buy milk", Completed: true}}

		events, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("incremental ProcessSync() returned unexpected error: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("Expected 1 event, got %+v", events)
		}
		e := events[0]
		if e.Action != model.SyncActionUpdated {
			t.Errorf("Expected Updated action, got %q", e.Action)
		}
		if len(e.UpdatedFields) != 1 || e.UpdatedFields[0] != "task_completed" {
			t.Errorf("Expected updated fields [task_completed], got %v", e.UpdatedFields)
		}
	})

	t.Run("baseline sweep completes local mirrors deleted remotely", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		mock.Lists = remoteLists()
		mock.Tasks["list-default"] = []provider.RemoteTask{
			{ID: "r1", Title: "Still here"},
			{ID: "r2", Title: "Also here"},
			{ID: "r3", Title: "Here too"},
		}

		// A mirror of a task that no longer exists remotely.
		list := testutil.NewTaskList().WithUser(syncUser).WithCode("old-list").WithSource(model.SourceGoogle).Build(t, db)
		stale := testutil.NewTask(list.ID).WithUser(syncUser).FromProvider(model.SourceGoogle, "r-gone").Build(t, db)
		// An already-completed mirror must be left alone.
		done := testutil.NewTask(list.ID).WithUser(syncUser).FromProvider(model.SourceGoogle, "r-done").WithCompleted().Build(t, db)

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)

		events, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("ProcessSync() returned unexpected error: %v", err)
		}

		completedEvents := 0
		for _, e := range events {
			if e.Action == model.SyncActionCompleted {
				completedEvents++
				if e.TaskName != stale.Name {
					t.Errorf("Expected sweep event for %q, got %q", stale.Name, e.TaskName)
				}
			}
		}
		if completedEvents != 1 {
			t.Errorf("Expected exactly 1 sweep event, got %d (events: %+v)", completedEvents, events)
		}

		taskSvc := testutil.NewTestTaskService(t, db, dispatch.NewRecorder())
		swept, err := taskSvc.GetTask(syncUser, stale.ID)
		if err != nil {
			t.Fatalf("GetTask() returned unexpected error: %v", err)
		}
		if !swept.Completed {
			t.Error("Expected stale mirror to be marked completed")
		}
		untouched, err := taskSvc.GetTask(syncUser, done.ID)
		if err != nil {
			t.Fatalf("GetTask() returned unexpected error: %v", err)
		}
		if !untouched.LastUpdateDate.Equal(done.LastUpdateDate) {
			t.Error("Expected already-completed mirror to be untouched")
		}
	})

	t.Run("list failure records an error event and holds the watermark", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		mock.Lists = remoteLists()
		mock.Tasks["list-default"] = []provider.RemoteTask{{ID: "r1", Title: "Buy milk"}}
		mock.TasksErr["list-groceries"] = errors.New("boom")

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)

		events, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("ProcessSync() returned unexpected error: %v", err)
		}

		var sawError, sawCreated bool
		for _, e := range events {
			switch e.Action {
			case model.SyncActionError:
				sawError = true
			case model.SyncActionCreated:
				sawCreated = true
			}
		}
		if !sawError {
			t.Error("Expected an Error event for the failed list")
		}
		if !sawCreated {
			t.Error("Expected the healthy list to still be processed")
		}

		token, err := tokenRepo.GetToken(syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("GetToken() returned unexpected error: %v", err)
		}
		if token.LastSyncedAt != nil {
			t.Error("Expected watermark to stay unset after a failed run")
		}

		// Per-list errors were absorbed into the report, so this run still
		// counts as finished and pollers are released.
		complete, err := svc.Status(syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("Status() returned unexpected error: %v", err)
		}
		if !complete {
			t.Error("Expected completion flag to be set when errors were reported as events")
		}
	})

	t.Run("expired token fails the run and leaves status not complete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		expired := time.Now().UTC().Add(-time.Hour)
		token := testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)
		token.TokenExpiresAt = &expired
		if err := tokenRepo.SaveToken(token); err != nil {
			t.Fatalf("SaveToken() returned unexpected error: %v", err)
		}

		_, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle)
		if !errors.Is(err, apperrors.ErrTokenExpired) {
			t.Errorf("Expected ErrTokenExpired, got %v", err)
		}

		complete, err := svc.Status(syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("Status() returned unexpected error: %v", err)
		}
		if complete {
			t.Error("Expected a failed run to leave the completion flag unset")
		}
	})

	t.Run("aborted run leaves status not complete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		mock.ListsErr = errors.New("boom")

		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)

		if _, err := svc.ProcessSync(context.Background(), syncUser, model.SourceGoogle); err == nil {
			t.Fatal("Expected the run to fail when lists cannot be fetched")
		}

		complete, err := svc.Status(syncUser, model.SourceGoogle)
		if err != nil {
			t.Fatalf("Status() returned unexpected error: %v", err)
		}
		if complete {
			t.Error("Expected an aborted run to leave the completion flag unset")
		}
	})

	t.Run("unknown provider is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestSyncService(t, db, dispatch.NewRecorder())

		_, err := svc.ProcessSync(context.Background(), syncUser, "carrier-pigeon")
		if !errors.Is(err, apperrors.ErrInvalidProvider) {
			t.Errorf("Expected ErrInvalidProvider, got %v", err)
		}
	})
}

// TestSyncService_PushTask tests the push side of the synchronizer.
//
// WHY: Push is where local edits can clobber remote edits. The conflict check
// (remote modified after local) must skip the push, and oversized
// descriptions must be truncated identically on both sides.
func TestSyncService_PushTask(t *testing.T) {
	setup := func(t *testing.T) (*testutil.MockProvider, *dbFixture) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		mock := testutil.NewMockProvider()
		svc, tokenRepo := testutil.NewTestSyncService(t, db, dispatch.NewRecorder(), mock)
		testutil.SeedToken(t, tokenRepo, syncUser, model.SourceGoogle, nil)
		return mock, &dbFixture{db: db, svc: svc}
	}

	t.Run("pushes local state to the provider", func(t *testing.T) {
		mock, fx := setup(t)

		list := testutil.NewTaskList().WithUser(syncUser).WithCode("remote-list").WithSource(model.SourceGoogle).Build(t, fx.db)
		task := testutil.NewTask(list.ID).WithUser(syncUser).
			WithName("Pay rent").
			FromProvider(model.SourceGoogle, "r1").
			UpdatedAtTime(time.Now().UTC()).
			Build(t, fx.db)

		// Remote copy untouched since before the local edit.
		mock.Remote["r1"] = provider.RemoteTask{ID: "r1", Title: "Pay rent (old)", Updated: time.Now().UTC().Add(-time.Hour)}

		if err := fx.svc.PushTask(context.Background(), syncUser, task.ID); err != nil {
			t.Fatalf("PushTask() returned unexpected error: %v", err)
		}

		pushed := mock.UpdatedTasks()
		if len(pushed) != 1 {
			t.Fatalf("Expected 1 pushed task, got %d", len(pushed))
		}
		if pushed[0].Title != "Pay rent" {
			t.Errorf("Expected pushed title 'Pay rent', got %q", pushed[0].Title)
		}
	})

	t.Run("skips when the remote copy is newer", func(t *testing.T) {
		mock, fx := setup(t)

		list := testutil.NewTaskList().WithUser(syncUser).WithCode("remote-list").WithSource(model.SourceGoogle).Build(t, fx.db)
		task := testutil.NewTask(list.ID).WithUser(syncUser).
			FromProvider(model.SourceGoogle, "r1").
			UpdatedAtTime(time.Now().UTC().Add(-time.Hour)).
			Build(t, fx.db)

		mock.Remote["r1"] = provider.RemoteTask{ID: "r1", Title: "Edited remotely", Updated: time.Now().UTC()}

		err := fx.svc.PushTask(context.Background(), syncUser, task.ID)
		if !errors.Is(err, apperrors.ErrConflictSkip) {
			t.Fatalf("Expected ErrConflictSkip, got %v", err)
		}
		if len(mock.UpdatedTasks()) != 0 {
			t.Error("Expected no remote update after a conflict skip")
		}
	})

	t.Run("truncates oversized descriptions on both sides", func(t *testing.T) {
		mock, fx := setup(t)

		list := testutil.NewTaskList().WithUser(syncUser).WithCode("remote-list").WithSource(model.SourceGoogle).Build(t, fx.db)
		task := testutil.NewTask(list.ID).WithUser(syncUser).
			FromProvider(model.SourceGoogle, "r1").
			UpdatedAtTime(time.Now().UTC()).
			Build(t, fx.db)

		long := strings.Repeat("x", 12000)
		if _, err := fx.db.Exec(`UPDATE task SET task_description = ? WHERE id = ?`, long, task.ID); err != nil {
			t.Fatalf("Failed to set long description: %v", err)
		}

		mock.Remote["r1"] = provider.RemoteTask{ID: "r1", Updated: time.Now().UTC().Add(-time.Hour)}

		if err := fx.svc.PushTask(context.Background(), syncUser, task.ID); err != nil {
			t.Fatalf("PushTask() returned unexpected error: %v", err)
		}

		pushed := mock.UpdatedTasks()
		if len(pushed) != 1 {
			t.Fatalf("Expected 1 pushed task, got %d", len(pushed))
		}
		if len(pushed[0].Notes) != 10000 {
			t.Errorf("Expected pushed notes truncated to 10000, got %d", len(pushed[0].Notes))
		}

		var local string
		if err := fx.db.QueryRow(`SELECT task_description FROM task WHERE id = ?`, task.ID).Scan(&local); err != nil {
			t.Fatalf("Failed to read back description: %v", err)
		}
		if len(local) != 10000 {
			t.Errorf("Expected local description truncated to 10000, got %d", len(local))
		}
	})

	t.Run("local-only tasks are a no-op", func(t *testing.T) {
		mock, fx := setup(t)

		list := testutil.NewTaskList().WithUser(syncUser).Build(t, fx.db)
		task := testutil.NewTask(list.ID).WithUser(syncUser).Build(t, fx.db)

		if err := fx.svc.PushTask(context.Background(), syncUser, task.ID); err != nil {
			t.Fatalf("PushTask() returned unexpected error: %v", err)
		}
		if len(mock.UpdatedTasks()) != 0 {
			t.Error("Expected no remote update for a local-only task")
		}
	})
}

// TestSyncService_TriggerAll tests the fan-out trigger.
//
// WHY: The trigger is the bridge between the scheduler and the sync pipeline.
// It must clear completion flags before enqueueing so a poller that starts
// watching immediately does not see a stale "complete".
func TestSyncService_TriggerAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	recorder := dispatch.NewRecorder()
	mock := testutil.NewMockProvider()
	svc, tokenRepo := testutil.NewTestSyncService(t, db, recorder, mock)

	testutil.SeedToken(t, tokenRepo, "user-a", model.SourceGoogle, nil)
	testutil.SeedToken(t, tokenRepo, "user-b", model.SourceGoogle, nil)

	enqueued, err := svc.TriggerAll(context.Background())
	if err != nil {
		t.Fatalf("TriggerAll() returned unexpected error: %v", err)
	}
	if enqueued != 2 {
		t.Errorf("Expected 2 enqueued syncs, got %d", enqueued)
	}

	calls := recorder.Calls()
	if len(calls) != 2 {
		t.Fatalf("Expected 2 dispatches, got %d", len(calls))
	}
	for _, c := range calls {
		if c.Endpoint != "/api/sync/process" {
			t.Errorf("Expected dispatch to /api/sync/process, got %q", c.Endpoint)
		}
		if c.Name == "" {
			t.Error("Expected dispatches to be named for deduplication")
		}
	}

	complete, err := svc.Status("user-a", model.SourceGoogle)
	if err != nil {
		t.Fatalf("Status() returned unexpected error: %v", err)
	}
	if complete {
		t.Error("Expected completion flag cleared after trigger")
	}
}

// dbFixture bundles the pieces push tests need.
type dbFixture struct {
	db  *sql.DB
	svc *service.SyncService
}
