// Package tokens provides encryption-at-rest for provider OAuth tokens.
// Access and refresh tokens are fernet-encrypted before they reach the
// database and decrypted on the way out; the rest of the codebase only ever
// sees plaintext tokens in memory.
package tokens

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// Vault encrypts and decrypts token strings with a fernet key.
type Vault struct {
	keys []*fernet.Key
}

// NewVault creates a Vault from a base64-encoded fernet key.
func NewVault(encodedKey string) (*Vault, error) {
	if encodedKey == "" {
		return nil, fmt.Errorf("token encryption key is not configured")
	}
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token encryption key: %w", err)
	}
	return &Vault{keys: []*fernet.Key{key}}, nil
}

// NewRandomVault creates a Vault with a freshly generated key.
// Intended for tests and single-run tooling; tokens encrypted with it cannot
// be decrypted after the process exits.
func NewRandomVault() (*Vault, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return nil, fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return &Vault{keys: []*fernet.Key{&key}}, nil
}

// Encrypt seals a plaintext token. Empty strings pass through unencrypted so
// optional columns (e.g. a missing refresh token) stay empty.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed, err := fernet.EncryptAndSign([]byte(plaintext), v.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to encrypt token: %w", err)
	}
	return string(sealed), nil
}

// Decrypt opens a sealed token. The fernet TTL check is disabled (ttl=0):
// token expiry is tracked separately on the user_token row.
func (v *Vault) Decrypt(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	plaintext := fernet.VerifyAndDecrypt([]byte(sealed), 0, v.keys)
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt token")
	}
	return string(plaintext), nil
}
