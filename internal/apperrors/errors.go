package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTaskNotFound indicates that a task with the given ID does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskListNotFound indicates that a task list with the given ID does not exist.
	ErrTaskListNotFound = errors.New("task list not found")

	// ErrTokenNotFound indicates that no provider token is stored for the user.
	ErrTokenNotFound = errors.New("provider token not found")

	// ErrStockNotFound indicates that a symbol lookup returned no results.
	ErrStockNotFound = errors.New("stock not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrInvalidTransactionType indicates a transaction type other than BUY or SELL.
	ErrInvalidTransactionType = errors.New("transaction type must be BUY or SELL")

	// ErrNegativeQuantity indicates a transaction quantity that is zero or negative.
	ErrNegativeQuantity = errors.New("quantity must be positive")

	// ErrInvalidProvider indicates a task provider other than google or microsoft.
	ErrInvalidProvider = errors.New("unknown task provider")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Synchronization errors. ErrConflictSkip is a recognized outcome rather than
// a failure: the push was abandoned because the remote copy is newer.
var (
	// ErrConflictSkip indicates a push was skipped because the remote edit wins.
	ErrConflictSkip = errors.New("remote task is newer; push skipped")

	// ErrSyncProvider indicates a remote task API failure during sync.
	ErrSyncProvider = errors.New("task provider request failed")

	// ErrTokenExpired indicates the stored provider token is expired and could
	// not be refreshed; the user must re-authenticate with the provider.
	ErrTokenExpired = errors.New("provider token expired; re-authentication required")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data.
var (
	ErrFailedToRetrievePortfolios   = errors.New("failed to retrieve portfolios")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTasks        = errors.New("failed to retrieve tasks")
	ErrFailedToRetrieveTaskLists    = errors.New("failed to retrieve task lists")
	ErrFailedToComputeHoldings      = errors.New("failed to compute holdings")
)
