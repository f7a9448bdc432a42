package auth

import (
	"context"

	"github.com/keygate/keygate/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userIDContextKey holds the subject of a verified session token.
	userIDContextKey contextKey = "user_id"
	// keyIdentityContextKey holds the identity of a validated API key.
	keyIdentityContextKey contextKey = "key_identity"
)

// ContextWithUserID records the authenticated user on the context.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext retrieves the authenticated user ID.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(userIDContextKey).(string)
	if !ok {
		return ""
	}
	return id
}

// ContextWithKeyIdentity records a validated API key identity on the context.
func ContextWithKeyIdentity(ctx context.Context, identity *model.KeyIdentity) context.Context {
	return context.WithValue(ctx, keyIdentityContextKey, identity)
}

// KeyIdentityFromContext retrieves the validated API key identity.
// Returns nil if not present.
func KeyIdentityFromContext(ctx context.Context) *model.KeyIdentity {
	identity, ok := ctx.Value(keyIdentityContextKey).(*model.KeyIdentity)
	if !ok {
		return nil
	}
	return identity
}
