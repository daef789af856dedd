package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
)

// TaskRepository provides data access methods for the task table.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository with the provided database connection.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, task_list_id, task_name, task_description, task_completed,
	task_importance, due_date, reminder_time, recurrence, source, source_id,
	creation_date, last_update_date`

// GetTask retrieves a single task by ID, scoped to the owning user.
// Returns apperrors.ErrTaskNotFound if no row exists.
func (r *TaskRepository) GetTask(userID, id string) (model.Task, error) {
	row := r.db.QueryRow(`
		SELECT `+taskColumns+` FROM task WHERE id = ? AND user_id = ?
	`, id, userID)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, apperrors.ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// GetTasks retrieves all tasks for a user, newest update first.
func (r *TaskRepository) GetTasks(userID string) ([]model.Task, error) {
	rows, err := r.db.Query(`
		SELECT `+taskColumns+`
		FROM task
		WHERE user_id = ?
		ORDER BY last_update_date DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task table: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// FindBySource looks up the local mirror of a remote task by its
// (user, source, source_id) identity. Returns ok=false when the remote task
// has no local counterpart yet; sync treats that as "create".
func (r *TaskRepository) FindBySource(userID, source, sourceID string) (model.Task, bool, error) {
	row := r.db.QueryRow(`
		SELECT `+taskColumns+`
		FROM task
		WHERE user_id = ? AND source = ? AND source_id = ?
	`, userID, source, sourceID)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return model.Task{}, false, nil
	}
	if err != nil {
		return model.Task{}, false, fmt.Errorf("failed to query task by source: %w", err)
	}
	return t, true, nil
}

// GetTasksBySource retrieves every task a user has from one provider.
// Used by the baseline deletion sweep.
func (r *TaskRepository) GetTasksBySource(userID, source string) ([]model.Task, error) {
	rows, err := r.db.Query(`
		SELECT `+taskColumns+`
		FROM task
		WHERE user_id = ? AND source = ?
	`, userID, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by source: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// CreateTask inserts a new task row.
func (r *TaskRepository) CreateTask(t model.Task) error {
	_, err := r.db.Exec(`
		INSERT INTO task (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.UserID,
		t.TaskListID,
		t.Name,
		t.Description,
		t.Completed,
		t.Important,
		formatNullTime(t.DueDate),
		formatNullTime(t.ReminderTime),
		t.Recurrence,
		t.Source,
		nullString(t.SourceID),
		t.CreationDate.UTC().Format(time.RFC3339Nano),
		t.LastUpdateDate.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateTask overwrites the mutable fields of a task row.
func (r *TaskRepository) UpdateTask(t model.Task) error {
	result, err := r.db.Exec(`
		UPDATE task
		SET task_list_id = ?, task_name = ?, task_description = ?, task_completed = ?,
			task_importance = ?, due_date = ?, reminder_time = ?, recurrence = ?,
			last_update_date = ?
		WHERE id = ? AND user_id = ?
	`,
		t.TaskListID,
		t.Name,
		t.Description,
		t.Completed,
		t.Important,
		formatNullTime(t.DueDate),
		formatNullTime(t.ReminderTime),
		t.Recurrence,
		t.LastUpdateDate.UTC().Format(time.RFC3339Nano),
		t.ID,
		t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanTask(row rowScanner) (model.Task, error) {
	var t model.Task
	var description, recurrence, sourceID sql.NullString
	var dueStr, reminderStr sql.NullString
	var creationStr, updateStr string

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TaskListID,
		&t.Name,
		&description,
		&t.Completed,
		&t.Important,
		&dueStr,
		&reminderStr,
		&recurrence,
		&t.Source,
		&sourceID,
		&creationStr,
		&updateStr,
	)
	if err != nil {
		return model.Task{}, err
	}

	t.Description = description.String
	t.Recurrence = recurrence.String
	t.SourceID = sourceID.String

	if t.DueDate, err = parseNullTime(dueStr); err != nil {
		return model.Task{}, err
	}
	if t.ReminderTime, err = parseNullTime(reminderStr); err != nil {
		return model.Task{}, err
	}
	if t.CreationDate, err = ParseTime(creationStr); err != nil {
		return model.Task{}, err
	}
	if t.LastUpdateDate, err = ParseTime(updateStr); err != nil {
		return model.Task{}, err
	}

	return t, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task table: %w", err)
	}
	return tasks, nil
}
