package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncStatusRepository tracks per-(user, provider) sync completion flags.
// A polling client reads the flag to learn when an asynchronously dispatched
// sync has finished; it carries no other sync state.
type SyncStatusRepository struct {
	db *sql.DB
}

// NewSyncStatusRepository creates a new SyncStatusRepository with the provided database connection.
func NewSyncStatusRepository(db *sql.DB) *SyncStatusRepository {
	return &SyncStatusRepository{db: db}
}

// IsComplete reports the completion flag for (user, provider).
// A pair that was never observed defaults to false.
func (r *SyncStatusRepository) IsComplete(userID, provider string) (bool, error) {
	var complete bool
	err := r.db.QueryRow(`
		SELECT is_complete FROM task_sync_status
		WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(&complete)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query task_sync_status: %w", err)
	}
	return complete, nil
}

// MarkComplete sets the completion flag for (user, provider).
func (r *SyncStatusRepository) MarkComplete(userID, provider string) error {
	return r.setComplete(userID, provider, true)
}

// MarkPending clears the completion flag for (user, provider).
// Called when a new sync is dispatched so pollers see a fresh cycle.
func (r *SyncStatusRepository) MarkPending(userID, provider string) error {
	return r.setComplete(userID, provider, false)
}

func (r *SyncStatusRepository) setComplete(userID, provider string, complete bool) error {
	_, err := r.db.Exec(`
		INSERT INTO task_sync_status (id, user_id, provider, is_complete, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			is_complete = excluded.is_complete,
			updated_at = excluded.updated_at
	`,
		uuid.New().String(),
		userID,
		provider,
		complete,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task_sync_status: %w", err)
	}
	return nil
}
