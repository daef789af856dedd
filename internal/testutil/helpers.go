package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rdevries/taskfolio/internal/dispatch"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/provider"
	"github.com/rdevries/taskfolio/internal/repository"
	"github.com/rdevries/taskfolio/internal/service"
	"github.com/rdevries/taskfolio/internal/stockcache"
	"github.com/rdevries/taskfolio/internal/tokens"
)

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	return service.NewPortfolioService(repository.NewPortfolioRepository(db))
}

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	return service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewPortfolioRepository(db),
	)
}

// NewTestStockCache creates a stock cache over the given fetcher with long
// TTLs, so entries never expire mid-test.
func NewTestStockCache(t *testing.T, db *sql.DB, fetcher *MockQuoteFetcher) *stockcache.Service {
	t.Helper()

	return stockcache.NewService(
		fetcher,
		repository.NewStockRepository(db),
		time.Hour,
		24*time.Hour,
		time.Minute,
	)
}

func NewTestHoldingsService(t *testing.T, db *sql.DB, cache *stockcache.Service) *service.HoldingsService {
	t.Helper()

	return service.NewHoldingsService(
		repository.NewPortfolioRepository(db),
		repository.NewTransactionRepository(db),
		cache,
	)
}

func NewTestTaskService(t *testing.T, db *sql.DB, dispatcher dispatch.Dispatcher) *service.TaskService {
	t.Helper()

	return service.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewTaskListRepository(db),
		dispatcher,
	)
}

// NewTestTokenRepo creates a token repository with a fresh random vault.
func NewTestTokenRepo(t *testing.T, db *sql.DB) *repository.TokenRepository {
	t.Helper()

	vault, err := tokens.NewRandomVault()
	if err != nil {
		t.Fatalf("Failed to create test vault: %v", err)
	}
	return repository.NewTokenRepository(db, vault)
}

// NewTestSyncService wires a sync service over the test database, the given
// providers and dispatcher. The returned token repository shares the
// service's vault; use it to seed tokens.
func NewTestSyncService(t *testing.T, db *sql.DB, dispatcher dispatch.Dispatcher, providers ...provider.Provider) (*service.SyncService, *repository.TokenRepository) {
	t.Helper()

	tokenRepo := NewTestTokenRepo(t, db)
	svc := service.NewSyncService(
		tokenRepo,
		repository.NewTaskRepository(db),
		repository.NewTaskListRepository(db),
		repository.NewSyncStatusRepository(db),
		dispatcher,
		providers...,
	)
	return svc, tokenRepo
}

// SeedToken stores a provider token for a user. lastSyncedAt of nil seeds a
// baseline (never-synced) token.
func SeedToken(t *testing.T, repo *repository.TokenRepository, userID, providerName string, lastSyncedAt *time.Time) model.UserToken {
	t.Helper()

	token := model.UserToken{
		UserID:       userID,
		Provider:     providerName,
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		TokenType:    "Bearer",
		LastSyncedAt: lastSyncedAt,
	}
	if err := repo.SaveToken(token); err != nil {
		t.Fatalf("Failed to seed token: %v", err)
	}
	return token
}
