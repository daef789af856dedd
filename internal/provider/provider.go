// Package provider contains the adapters for the external task providers.
//
// Each adapter translates one provider's wire format (status vocabulary,
// date shapes, pagination convention) into the neutral RemoteList/RemoteTask
// types. The sync engine runs one merge algorithm against this interface and
// never sees provider-specific payloads.
package provider

import (
	"context"
	"time"

	"github.com/rdevries/taskfolio/internal/model"
)

// RemoteList is a provider-neutral view of one remote task list.
type RemoteList struct {
	ID        string
	Title     string
	IsDefault bool
}

// RemoteTask is a provider-neutral view of one remote task.
// Updated carries the provider's last-modified timestamp and drives both
// incremental change detection and push conflict resolution.
type RemoteTask struct {
	ID        string
	Title     string
	Notes     string
	Completed bool
	DueDate   *time.Time
	Updated   time.Time
}

// Provider is the adapter interface one external task provider implements.
//
// All calls authenticate with the given token's access token; token refresh
// is the caller's concern. updatedSince of nil requests a full (baseline)
// listing; otherwise only tasks modified at or after the watermark.
type Provider interface {
	// Name returns the provider key stored in task.source and
	// user_token.provider ("google" or "microsoft").
	Name() string

	// ListTaskLists returns all of the user's remote task lists.
	ListTaskLists(ctx context.Context, token model.UserToken) ([]RemoteList, error)

	// ListTasks returns the tasks of one remote list, optionally limited to
	// those modified since the watermark. A baseline listing (nil watermark)
	// is also what the deletion sweep diffs local mirrors against.
	ListTasks(ctx context.Context, token model.UserToken, listID string, updatedSince *time.Time) ([]RemoteTask, error)

	// GetTask fetches one remote task by ID.
	GetTask(ctx context.Context, token model.UserToken, listID, taskID string) (RemoteTask, error)

	// UpdateTask pushes local field values onto an existing remote task.
	UpdateTask(ctx context.Context, token model.UserToken, listID string, task RemoteTask) error

	// LocalList maps a remote list to the local display name and list type
	// it is mirrored under.
	LocalList(remote RemoteList) (name, listType string)
}
