package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the embedded goose migrations.
//
//nolint:funlen // Database schema DDL
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Portfolio table
		CREATE TABLE portfolio (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			name VARCHAR(100) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		-- Stock table
		CREATE TABLE stock (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			symbol VARCHAR(10) NOT NULL UNIQUE,
			name VARCHAR(200)
		);

		CREATE INDEX idx_stock_symbol ON stock(symbol);

		-- Transaction ledger
		CREATE TABLE stock_transaction (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			portfolio_id VARCHAR(36) NOT NULL,
			symbol VARCHAR(10) NOT NULL,
			type VARCHAR(4) NOT NULL,
			quantity TEXT NOT NULL,
			price_per_share TEXT NOT NULL,
			transaction_date DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(portfolio_id) REFERENCES portfolio(id) ON DELETE CASCADE
		);

		CREATE INDEX idx_stock_transaction_symbol ON stock_transaction(symbol);

		-- Task list table
		CREATE TABLE task_list (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			list_name VARCHAR(100) NOT NULL,
			list_code VARCHAR(255) NOT NULL,
			list_type VARCHAR(20) NOT NULL DEFAULT 'normal',
			list_source VARCHAR(50),
			CONSTRAINT unique_user_list_code UNIQUE (user_id, list_code)
		);

		-- Task table
		CREATE TABLE task (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			task_list_id VARCHAR(36) NOT NULL,
			task_name VARCHAR(255) NOT NULL,
			task_description TEXT,
			task_completed BOOLEAN NOT NULL DEFAULT FALSE,
			task_importance BOOLEAN NOT NULL DEFAULT FALSE,
			due_date DATETIME,
			reminder_time DATETIME,
			recurrence VARCHAR(20),
			source VARCHAR(20) NOT NULL DEFAULT 'local',
			source_id VARCHAR(255),
			creation_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_update_date DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(task_list_id) REFERENCES task_list(id) ON DELETE CASCADE,
			CONSTRAINT unique_user_source_task UNIQUE (user_id, source, source_id)
		);

		CREATE INDEX idx_task_user_completed_due ON task(user_id, task_completed, due_date);
		CREATE INDEX idx_task_source ON task(source, source_id);

		-- Provider token table
		CREATE TABLE user_token (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			provider VARCHAR(20) NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			token_type VARCHAR(20),
			token_expires_at DATETIME,
			last_synced_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT unique_user_provider_token UNIQUE (user_id, provider)
		);

		-- Sync completion flag
		CREATE TABLE task_sync_status (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			provider VARCHAR(20) NOT NULL,
			is_complete BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT unique_user_provider_status UNIQUE (user_id, provider)
		);
	`

	_, err := db.Exec(schema)
	return err
}
