package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rdevries/taskfolio/internal/apperrors"
	"github.com/rdevries/taskfolio/internal/model"
	"github.com/rdevries/taskfolio/internal/tokens"
)

// TokenRepository provides data access methods for the user_token table.
// Access and refresh tokens are encrypted at rest via the vault; callers
// always work with plaintext tokens.
type TokenRepository struct {
	db    *sql.DB
	vault *tokens.Vault
}

// NewTokenRepository creates a new TokenRepository with the provided database
// connection and token vault.
func NewTokenRepository(db *sql.DB, vault *tokens.Vault) *TokenRepository {
	return &TokenRepository{db: db, vault: vault}
}

// GetToken retrieves the token record for a (user, provider) pair.
// Returns apperrors.ErrTokenNotFound if none is stored.
func (r *TokenRepository) GetToken(userID, provider string) (model.UserToken, error) {
	var t model.UserToken
	var accessEnc string
	var refreshEnc, tokenType, expiresStr, syncedStr sql.NullString

	err := r.db.QueryRow(`
		SELECT id, user_id, provider, access_token, refresh_token, token_type, token_expires_at, last_synced_at
		FROM user_token
		WHERE user_id = ? AND provider = ?
	`, userID, provider).Scan(&t.ID, &t.UserID, &t.Provider, &accessEnc, &refreshEnc, &tokenType, &expiresStr, &syncedStr)
	if err == sql.ErrNoRows {
		return model.UserToken{}, apperrors.ErrTokenNotFound
	}
	if err != nil {
		return model.UserToken{}, fmt.Errorf("failed to query user_token: %w", err)
	}

	if t.AccessToken, err = r.vault.Decrypt(accessEnc); err != nil {
		return model.UserToken{}, err
	}
	if t.RefreshToken, err = r.vault.Decrypt(refreshEnc.String); err != nil {
		return model.UserToken{}, err
	}
	t.TokenType = tokenType.String

	if t.TokenExpiresAt, err = parseNullTime(expiresStr); err != nil {
		return model.UserToken{}, err
	}
	if t.LastSyncedAt, err = parseNullTime(syncedStr); err != nil {
		return model.UserToken{}, err
	}

	return t, nil
}

// ListUserProviders returns every (user, provider) pair with a stored token.
// Used by the background sync trigger to fan out work.
func (r *TokenRepository) ListUserProviders() ([]model.UserToken, error) {
	rows, err := r.db.Query(`
		SELECT user_id, provider FROM user_token ORDER BY user_id, provider
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query user_token pairs: %w", err)
	}
	defer rows.Close()

	pairs := []model.UserToken{}
	for rows.Next() {
		var t model.UserToken
		if err := rows.Scan(&t.UserID, &t.Provider); err != nil {
			return nil, fmt.Errorf("failed to scan user_token pair: %w", err)
		}
		pairs = append(pairs, t)
	}
	return pairs, rows.Err()
}

// SaveToken inserts or updates the token record for (user, provider),
// encrypting token material before it hits the database.
func (r *TokenRepository) SaveToken(t model.UserToken) error {
	accessEnc, err := r.vault.Encrypt(t.AccessToken)
	if err != nil {
		return err
	}
	refreshEnc, err := r.vault.Encrypt(t.RefreshToken)
	if err != nil {
		return err
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	_, err = r.db.Exec(`
		INSERT INTO user_token (id, user_id, provider, access_token, refresh_token, token_type, token_expires_at, last_synced_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			token_expires_at = excluded.token_expires_at,
			last_synced_at = excluded.last_synced_at,
			updated_at = excluded.updated_at
	`,
		t.ID,
		t.UserID,
		t.Provider,
		accessEnc,
		refreshEnc,
		t.TokenType,
		formatNullTime(t.TokenExpiresAt),
		formatNullTime(t.LastSyncedAt),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save user_token: %w", err)
	}
	return nil
}

// AdvanceWatermark sets last_synced_at for a (user, provider) pair.
// Called only after a fully successful sync run.
func (r *TokenRepository) AdvanceWatermark(userID, provider string, syncedAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE user_token
		SET last_synced_at = ?, updated_at = ?
		WHERE user_id = ? AND provider = ?
	`,
		syncedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		userID,
		provider,
	)
	if err != nil {
		return fmt.Errorf("failed to advance sync watermark: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}
