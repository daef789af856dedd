// Package request defines the JSON request bodies accepted by the API.
// Decimal amounts travel as strings so values round-trip exactly.
package request

// CreatePortfolioRequest is the body for POST /api/portfolios.
type CreatePortfolioRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// CreateTransactionRequest is the body for POST /api/portfolios/{uuid}/transactions.
type CreateTransactionRequest struct {
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
	Quantity      string `json:"quantity"`
	PricePerShare string `json:"pricePerShare"`
	Date          string `json:"date"`
}

// UpdateTransactionRequest is the body for PUT /api/transactions/{uuid}.
type UpdateTransactionRequest struct {
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
	Quantity      string `json:"quantity"`
	PricePerShare string `json:"pricePerShare"`
	Date          string `json:"date"`
}

// CreateTaskRequest is the body for POST /api/tasks.
type CreateTaskRequest struct {
	UserID       string  `json:"userId"`
	TaskListID   string  `json:"taskListId"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Important    bool    `json:"important"`
	DueDate      *string `json:"dueDate"`
	ReminderTime *string `json:"reminderTime"`
	Recurrence   string  `json:"recurrence"`
}

// UpdateTaskRequest is the body for PUT /api/tasks/{uuid}.
// Nil fields are left unchanged.
type UpdateTaskRequest struct {
	UserID       string  `json:"userId"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Completed    *bool   `json:"completed"`
	Important    *bool   `json:"important"`
	DueDate      *string `json:"dueDate"`
	ReminderTime *string `json:"reminderTime"`
	Recurrence   *string `json:"recurrence"`
}

// SyncRequest is the body for POST /api/sync/process.
type SyncRequest struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
}

// PushTaskRequest is the body for POST /api/tasks/push.
type PushTaskRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// RefreshStocksRequest is the body for POST /api/stocks/refresh.
// An empty symbol list refreshes every symbol in the ledger.
type RefreshStocksRequest struct {
	Symbols []string `json:"symbols"`
}
