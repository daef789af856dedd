package model

import "time"

// Sync event actions
const (
	SyncActionCreated   = "Created"
	SyncActionUpdated   = "Updated"
	SyncActionCompleted = "Marked as Completed (deleted from provider)"
	SyncActionError     = "Error"
)

// SyncEvent records one action taken during a sync run. A slice of these is
// the sync report returned to the caller.
type SyncEvent struct {
	Provider      string    `json:"provider"`
	TaskName      string    `json:"taskName,omitempty"`
	ListName      string    `json:"listName,omitempty"`
	Action        string    `json:"action"`
	UpdatedFields []string  `json:"updatedFields,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// UserToken holds a user's credentials for one external task provider.
// AccessToken and RefreshToken are plaintext in memory; the repository
// encrypts them at rest. LastSyncedAt is the incremental sync watermark:
// nil means no successful sync has run yet (next run is a baseline sync).
type UserToken struct {
	ID             string
	UserID         string
	Provider       string
	AccessToken    string
	RefreshToken   string
	TokenType      string
	TokenExpiresAt *time.Time
	LastSyncedAt   *time.Time
}

// Expired reports whether the access token is past its expiry. Tokens with
// no recorded expiry are assumed valid.
func (t UserToken) Expired(now time.Time) bool {
	if t.TokenExpiresAt == nil {
		return false
	}
	return !now.Before(*t.TokenExpiresAt)
}
