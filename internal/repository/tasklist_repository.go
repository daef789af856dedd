package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
)

// TaskListRepository provides data access methods for the task_list table.
type TaskListRepository struct {
	db *sql.DB
}

// NewTaskListRepository creates a new TaskListRepository with the provided database connection.
func NewTaskListRepository(db *sql.DB) *TaskListRepository {
	return &TaskListRepository{db: db}
}

const taskListColumns = `id, user_id, list_name, list_code, list_type, list_source`

// GetLists retrieves all task lists for a user, ordered by name.
func (r *TaskListRepository) GetLists(userID string) ([]model.TaskList, error) {
	rows, err := r.db.Query(`
		SELECT `+taskListColumns+`
		FROM task_list
		WHERE user_id = ?
		ORDER BY list_name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task_list table: %w", err)
	}
	defer rows.Close()

	lists := []model.TaskList{}
	for rows.Next() {
		l, err := scanTaskList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// GetList retrieves a single task list by ID.
// Returns apperrors.ErrTaskListNotFound if no row exists.
func (r *TaskListRepository) GetList(id string) (model.TaskList, error) {
	row := r.db.QueryRow(`
		SELECT `+taskListColumns+` FROM task_list WHERE id = ?
	`, id)

	l, err := scanTaskList(row)
	if err == sql.ErrNoRows {
		return model.TaskList{}, apperrors.ErrTaskListNotFound
	}
	if err != nil {
		return model.TaskList{}, fmt.Errorf("failed to query task_list: %w", err)
	}
	return l, nil
}

// GetOrCreateByCode returns the list identified by (user, list_code),
// creating it with the given defaults when absent. The created flag reports
// whether a new row was inserted. Mirrors the reconciliation step of sync:
// an existing list keeps its name and type even if the defaults differ.
func (r *TaskListRepository) GetOrCreateByCode(userID, listCode string, defaults model.TaskList) (model.TaskList, bool, error) {
	row := r.db.QueryRow(`
		SELECT `+taskListColumns+`
		FROM task_list
		WHERE user_id = ? AND list_code = ?
	`, userID, listCode)

	l, err := scanTaskList(row)
	if err == nil {
		return l, false, nil
	}
	if err != sql.ErrNoRows {
		return model.TaskList{}, false, fmt.Errorf("failed to query task_list by code: %w", err)
	}

	l = defaults
	l.ID = uuid.New().String()
	l.UserID = userID
	l.ListCode = listCode

	_, err = r.db.Exec(`
		INSERT INTO task_list (`+taskListColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.UserID, l.Name, l.ListCode, l.ListType, l.ListSource)
	if err != nil {
		return model.TaskList{}, false, fmt.Errorf("failed to insert task_list: %w", err)
	}

	return l, true, nil
}

func scanTaskList(row rowScanner) (model.TaskList, error) {
	var l model.TaskList
	var source sql.NullString

	err := row.Scan(&l.ID, &l.UserID, &l.Name, &l.ListCode, &l.ListType, &source)
	if err != nil {
		return model.TaskList{}, err
	}
	l.ListSource = source.String
	return l, nil
}
