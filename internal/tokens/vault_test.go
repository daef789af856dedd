package tokens_test

import (
	"testing"

	"github.com/rdevries/taskfolio/internal/tokens"
)

// TestVault tests token encryption round trips.
//
// WHY: Provider tokens are the most sensitive data the system stores. A
// vault that cannot round-trip, or that silently decrypts with the wrong
// key, would either lock users out or defeat encryption at rest.
func TestVault(t *testing.T) {
	t.Run("round trips a token", func(t *testing.T) {
		vault, err := tokens.NewRandomVault()
		if err != nil {
			t.Fatalf("NewRandomVault() returned unexpected error: %v", err)
		}

		sealed, err := vault.Encrypt("ya29.secret-access-token")
		if err != nil {
			t.Fatalf("Encrypt() returned unexpected error: %v", err)
		}
		if sealed == "ya29.secret-access-token" {
			t.Fatal("Encrypt() returned the plaintext")
		}

		plaintext, err := vault.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt() returned unexpected error: %v", err)
		}
		if plaintext != "ya29.secret-access-token" {
			t.Errorf("Round trip mismatch: got %q", plaintext)
		}
	})

	t.Run("empty strings pass through", func(t *testing.T) {
		vault, err := tokens.NewRandomVault()
		if err != nil {
			t.Fatalf("NewRandomVault() returned unexpected error: %v", err)
		}

		sealed, err := vault.Encrypt("")
		if err != nil || sealed != "" {
			t.Errorf("Expected empty passthrough, got %q, %v", sealed, err)
		}
		plaintext, err := vault.Decrypt("")
		if err != nil || plaintext != "" {
			t.Errorf("Expected empty passthrough, got %q, %v", plaintext, err)
		}
	})

	t.Run("wrong key fails to decrypt", func(t *testing.T) {
		vault, err := tokens.NewRandomVault()
		if err != nil {
			t.Fatalf("NewRandomVault() returned unexpected error: %v", err)
		}
		other, err := tokens.NewRandomVault()
		if err != nil {
			t.Fatalf("NewRandomVault() returned unexpected error: %v", err)
		}

		sealed, err := vault.Encrypt("secret")
		if err != nil {
			t.Fatalf("Encrypt() returned unexpected error: %v", err)
		}
		if _, err := other.Decrypt(sealed); err == nil {
			t.Error("Expected decryption with the wrong key to fail")
		}
	})

	t.Run("rejects a missing configured key", func(t *testing.T) {
		if _, err := tokens.NewVault(""); err == nil {
			t.Error("Expected an error for an empty key")
		}
	})
}
