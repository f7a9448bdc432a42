// Package service provides business logic for credential issuance,
// validation, and revocation.
package service

import (
	"context"
	"time"

	"github.com/keygate/keygate/internal/model"
)

// Store is the persistence contract the services depend on.
// Each method is one atomic operation against the backing database;
// read-then-write sequences are not atomic, so callers treat a unique
// violation on insert as the authoritative duplicate signal.
// *repository.Repository is the production implementation.
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByDigest(ctx context.Context, digest string) (*model.APIKey, error)
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUser(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
	DeleteAPIKey(ctx context.Context, id string) error
	TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error
}
