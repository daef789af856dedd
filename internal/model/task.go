package model

import "time"

// Task sources
const (
	SourceLocal     = "local"
	SourceGoogle    = "google"
	SourceMicrosoft = "microsoft"
)

// Task list types
const (
	ListTypeSpecial          = "special"
	ListTypeGooglePrimary    = "google_primary"
	ListTypeMicrosoftPrimary = "microsoft_primary"
	ListTypeNormal           = "normal"
)

// Task represents a user-owned work item, possibly mirrored from an external
// provider. For remote-origin tasks, (UserID, Source, SourceID) uniquely
// identifies the remote record and drives create-vs-update during sync.
type Task struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	TaskListID     string     `json:"taskListId"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Completed      bool       `json:"completed"`
	Important      bool       `json:"important"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	ReminderTime   *time.Time `json:"reminderTime,omitempty"`
	Recurrence     string     `json:"recurrence,omitempty"`
	Source         string     `json:"source"`
	SourceID       string     `json:"sourceId,omitempty"`
	CreationDate   time.Time  `json:"creationDate"`
	LastUpdateDate time.Time  `json:"lastUpdateDate"`
}

// IsRemote reports whether the task originates from an external provider.
func (t Task) IsRemote() bool {
	return t.Source == SourceGoogle || t.Source == SourceMicrosoft
}

// TaskList is a named grouping of tasks. ListCode is a stable identifier:
// the provider's list ID for synced lists, or a fixed code for built-in
// virtual lists ("important", "past_due", "all_tasks").
type TaskList struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	ListCode   string `json:"listCode"`
	ListType   string `json:"listType"`
	ListSource string `json:"listSource,omitempty"`
}
