package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/provider"
)

// MockProvider is a mock implementation of provider.Provider for testing the
// sync engine without HTTP.
type MockProvider struct {
	mu sync.Mutex

	// ProviderName is returned by Name. Defaults to "google" so mirrored
	// tasks count as remote-sourced.
	ProviderName string

	// Lists are the remote task lists.
	Lists []provider.RemoteList
	// Tasks maps list ID to its remote tasks.
	Tasks map[string][]provider.RemoteTask

	// ListsErr fails ListTaskLists; TasksErr fails ListTasks per list ID.
	ListsErr error
	TasksErr map[string]error

	// Remote maps task ID to the task returned by GetTask.
	Remote map[string]provider.RemoteTask
	// GetErr fails GetTask; UpdateErr fails UpdateTask.
	GetErr    error
	UpdateErr error

	// updated captures UpdateTask calls.
	updated []provider.RemoteTask
	// lastUpdatedSince captures the watermark passed to ListTasks.
	lastUpdatedSince *time.Time
}

// NewMockProvider creates an empty mock provider named "google".
func NewMockProvider() *MockProvider {
	return &MockProvider{
		ProviderName: model.SourceGoogle,
		Tasks:        map[string][]provider.RemoteTask{},
		TasksErr:     map[string]error{},
		Remote:       map[string]provider.RemoteTask{},
	}
}

// Name implements provider.Provider.
func (m *MockProvider) Name() string { return m.ProviderName }

// ListTaskLists implements provider.Provider.
func (m *MockProvider) ListTaskLists(_ context.Context, _ model.UserToken) ([]provider.RemoteList, error) {
	if m.ListsErr != nil {
		return nil, m.ListsErr
	}
	return m.Lists, nil
}

// ListTasks implements provider.Provider.
func (m *MockProvider) ListTasks(_ context.Context, _ model.UserToken, listID string, updatedSince *time.Time) ([]provider.RemoteTask, error) {
	m.mu.Lock()
	m.lastUpdatedSince = updatedSince
	m.mu.Unlock()

	if err := m.TasksErr[listID]; err != nil {
		return nil, err
	}
	return m.Tasks[listID], nil
}

// GetTask implements provider.Provider.
func (m *MockProvider) GetTask(_ context.Context, _ model.UserToken, _, taskID string) (provider.RemoteTask, error) {
	if m.GetErr != nil {
		return provider.RemoteTask{}, m.GetErr
	}
	return m.Remote[taskID], nil
}

// UpdateTask implements provider.Provider.
func (m *MockProvider) UpdateTask(_ context.Context, _ model.UserToken, _ string, task provider.RemoteTask) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	m.updated = append(m.updated, task)
	m.mu.Unlock()
	return nil
}

// LocalList implements provider.Provider with the google naming scheme.
func (m *MockProvider) LocalList(remote provider.RemoteList) (string, string) {
	if remote.IsDefault {
		return "G My Tasks", model.ListTypeGooglePrimary
	}
	return "G " + remote.Title, model.ListTypeNormal
}

// UpdatedTasks returns the tasks pushed via UpdateTask.
func (m *MockProvider) UpdatedTasks() []provider.RemoteTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]provider.RemoteTask(nil), m.updated...)
}

// LastUpdatedSince returns the watermark passed to the most recent ListTasks.
func (m *MockProvider) LastUpdatedSince() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdatedSince
}
