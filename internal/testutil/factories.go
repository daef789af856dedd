package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/repository"
)

// MakeID returns a fresh UUID string.
func MakeID() string {
	return uuid.New().String()
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	portfolio := testutil.NewPortfolio().WithUser("user-1").Build(t, db)
type PortfolioBuilder struct {
	ID     string
	UserID string
	Name   string
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:     MakeID(),
		UserID: "test-user",
		Name:   "Test Portfolio",
	}
}

// WithUser sets the owning user.
func (b *PortfolioBuilder) WithUser(userID string) *PortfolioBuilder {
	b.UserID = userID
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Build inserts the portfolio and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	p := model.Portfolio{
		ID:        b.ID,
		UserID:    b.UserID,
		Name:      b.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := repository.NewPortfolioRepository(db).CreatePortfolio(p); err != nil {
		t.Fatalf("Failed to insert test portfolio: %v", err)
	}
	return p
}

// TransactionBuilder provides a fluent interface for creating ledger entries.
type TransactionBuilder struct {
	ID            string
	PortfolioID   string
	Symbol        string
	Type          string
	Quantity      string
	PricePerShare string
	Date          time.Time
}

// NewTransaction creates a TransactionBuilder with sensible defaults:
// a buy of 10 AAPL at 100.
func NewTransaction(portfolioID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:            MakeID(),
		PortfolioID:   portfolioID,
		Symbol:        "AAPL",
		Type:          model.TransactionBuy,
		Quantity:      "10",
		PricePerShare: "100",
		Date:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

// WithSymbol sets the symbol.
func (b *TransactionBuilder) WithSymbol(symbol string) *TransactionBuilder {
	b.Symbol = symbol
	return b
}

// Sell marks the entry as a sell.
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.Type = model.TransactionSell
	return b
}

// WithQuantity sets the quantity (decimal string).
func (b *TransactionBuilder) WithQuantity(quantity string) *TransactionBuilder {
	b.Quantity = quantity
	return b
}

// WithPrice sets the price per share (decimal string).
func (b *TransactionBuilder) WithPrice(price string) *TransactionBuilder {
	b.PricePerShare = price
	return b
}

// WithDate sets the transaction date. Replay order follows these dates.
func (b *TransactionBuilder) WithDate(date time.Time) *TransactionBuilder {
	b.Date = date
	return b
}

// Build inserts the ledger entry and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	tx := model.Transaction{
		ID:            b.ID,
		PortfolioID:   b.PortfolioID,
		Symbol:        b.Symbol,
		Type:          b.Type,
		Quantity:      mustDecimal(t, b.Quantity),
		PricePerShare: mustDecimal(t, b.PricePerShare),
		Date:          b.Date,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repository.NewTransactionRepository(db).CreateTransaction(tx); err != nil {
		t.Fatalf("Failed to insert test transaction: %v", err)
	}
	return tx
}

// TaskListBuilder provides a fluent interface for creating task lists.
type TaskListBuilder struct {
	ID         string
	UserID     string
	Name       string
	ListCode   string
	ListType   string
	ListSource string
}

// NewTaskList creates a TaskListBuilder with sensible defaults.
func NewTaskList() *TaskListBuilder {
	id := MakeID()
	return &TaskListBuilder{
		ID:       id,
		UserID:   "test-user",
		Name:     "Test List",
		ListCode: "list-" + id,
		ListType: model.ListTypeNormal,
	}
}

// WithUser sets the owning user.
func (b *TaskListBuilder) WithUser(userID string) *TaskListBuilder {
	b.UserID = userID
	return b
}

// WithName sets the display name.
func (b *TaskListBuilder) WithName(name string) *TaskListBuilder {
	b.Name = name
	return b
}

// WithCode sets the stable list code (provider list ID for synced lists).
func (b *TaskListBuilder) WithCode(code string) *TaskListBuilder {
	b.ListCode = code
	return b
}

// WithSource sets the provider the list is mirrored from.
func (b *TaskListBuilder) WithSource(source string) *TaskListBuilder {
	b.ListSource = source
	return b
}

// Build inserts the list and returns it.
func (b *TaskListBuilder) Build(t *testing.T, db *sql.DB) model.TaskList {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO task_list (id, user_id, list_name, list_code, list_type, list_source)
		VALUES (?, ?, ?, ?, ?, ?)
	`, b.ID, b.UserID, b.Name, b.ListCode, b.ListType, b.ListSource)
	if err != nil {
		t.Fatalf("Failed to insert test task list: %v", err)
	}
	return model.TaskList{
		ID:         b.ID,
		UserID:     b.UserID,
		Name:       b.Name,
		ListCode:   b.ListCode,
		ListType:   b.ListType,
		ListSource: b.ListSource,
	}
}

// TaskBuilder provides a fluent interface for creating tasks.
type TaskBuilder struct {
	ID         string
	UserID     string
	TaskListID string
	Name       string
	Completed  bool
	Source     string
	SourceID   string
	DueDate    *time.Time
	UpdatedAt  time.Time
}

// NewTask creates a TaskBuilder with sensible defaults: a local, open task.
func NewTask(taskListID string) *TaskBuilder {
	return &TaskBuilder{
		ID:         MakeID(),
		UserID:     "test-user",
		TaskListID: taskListID,
		Name:       "Test Task",
		Source:     model.SourceLocal,
		UpdatedAt:  time.Now().UTC(),
	}
}

// WithUser sets the owning user.
func (b *TaskBuilder) WithUser(userID string) *TaskBuilder {
	b.UserID = userID
	return b
}

// WithName sets the task name.
func (b *TaskBuilder) WithName(name string) *TaskBuilder {
	b.Name = name
	return b
}

// Completed marks the task completed.
func (b *TaskBuilder) WithCompleted() *TaskBuilder {
	b.Completed = true
	return b
}

// FromProvider marks the task as mirrored from a provider.
func (b *TaskBuilder) FromProvider(source, sourceID string) *TaskBuilder {
	b.Source = source
	b.SourceID = sourceID
	return b
}

// WithDueDate sets the due date.
func (b *TaskBuilder) WithDueDate(due time.Time) *TaskBuilder {
	b.DueDate = &due
	return b
}

// UpdatedAtTime sets the last update timestamp, for conflict tests.
func (b *TaskBuilder) UpdatedAtTime(ts time.Time) *TaskBuilder {
	b.UpdatedAt = ts
	return b
}

// Build inserts the task and returns it.
func (b *TaskBuilder) Build(t *testing.T, db *sql.DB) model.Task {
	t.Helper()

	task := model.Task{
		ID:             b.ID,
		UserID:         b.UserID,
		TaskListID:     b.TaskListID,
		Name:           b.Name,
		Completed:      b.Completed,
		Source:         b.Source,
		SourceID:       b.SourceID,
		DueDate:        b.DueDate,
		CreationDate:   b.UpdatedAt,
		LastUpdateDate: b.UpdatedAt,
	}
	if err := repository.NewTaskRepository(db).CreateTask(task); err != nil {
		t.Fatalf("Failed to insert test task: %v", err)
	}
	return task
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", s, err)
	}
	return d
}
