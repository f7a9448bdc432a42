package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keygate/keygate/internal/token"
)

// TestCredentialLifecycle walks the full path: signup, login, token
// verification, key creation, validation, duplicate naming, revocation,
// and name reuse, with both services sharing one store.
func TestCredentialLifecycle(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	ctx := context.Background()

	issuer, err := token.NewIssuer(testJWTSecret, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	users := NewAuthService(store, issuer, nil)
	keys := newKeyService(store, 5*time.Minute)

	alice, err := users.Signup(ctx, "alice@x.com", "alice", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	signed, err := users.Login(ctx, "alice", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	subject, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if subject != alice.ID {
		t.Fatalf("token resolves to %s, want %s", subject, alice.ID)
	}

	key, plaintext, err := keys.CreateKey(ctx, alice.ID, "ci", 30)
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	identity, err := keys.ValidateKey(ctx, plaintext)
	if err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}
	if identity == nil || identity.KeyID != key.ID || identity.UserID != alice.ID || identity.Name != "ci" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	if _, _, err := keys.CreateKey(ctx, alice.ID, "ci", 30); !errors.Is(err, ErrDuplicateKeyName) {
		t.Fatalf("second ci key: got %v, want ErrDuplicateKeyName", err)
	}

	if _, err := keys.RevokeKey(ctx, key.ID, alice.ID); err != nil {
		t.Fatalf("RevokeKey failed: %v", err)
	}

	identity, err = keys.ValidateKey(ctx, plaintext)
	if err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}
	if identity != nil {
		t.Fatal("revoked key validated")
	}

	// The partial uniqueness rule: the revoked key no longer holds "ci".
	if _, _, err := keys.CreateKey(ctx, alice.ID, "ci", 30); err != nil {
		t.Fatalf("recreating ci after revoke: %v", err)
	}
}
