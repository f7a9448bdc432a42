package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/keygate/keygate/internal/model"
)

// Common errors for API key repository operations.
var (
	ErrAPIKeyNotFound = errors.New("API key not found")
	ErrKeyNameExists  = errors.New("API key name already exists")
)

// Unique constraint names from migrations/0002_api_keys.up.sql.
// The name index is partial: it only covers non-revoked keys, so a
// revoked key frees its name for reuse.
const (
	apiKeysDigestConstraint = "api_keys_key_digest_key"
	apiKeysNameConstraint   = "api_keys_user_name_live_idx"
)

// CreateAPIKey inserts a new API key into the database.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	query := `
		INSERT INTO api_keys (id, user_id, key_digest, name, created_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		key.ID,
		key.UserID,
		key.KeyDigest,
		key.Name,
		key.CreatedAt,
		key.ExpiresAt,
		key.Revoked,
	)

	if err != nil {
		if violatedConstraint(err) == apiKeysNameConstraint {
			return ErrKeyNameExists
		}
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return nil
}

// GetAPIKeyByDigest retrieves a non-revoked API key by its digest.
// Revoked keys are excluded at the query level so a revoked credential
// is indistinguishable from an unknown one.
func (r *Repository) GetAPIKeyByDigest(ctx context.Context, digest string) (*model.APIKey, error) {
	query := `
		SELECT id, user_id, key_digest, name, created_at, expires_at, revoked, last_used_at
		FROM api_keys
		WHERE key_digest = $1 AND NOT revoked
	`

	return r.scanAPIKey(r.pool.QueryRow(ctx, query, digest))
}

// GetAPIKeyByID retrieves an API key by its ID, revoked or not.
func (r *Repository) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	query := `
		SELECT id, user_id, key_digest, name, created_at, expires_at, revoked, last_used_at
		FROM api_keys
		WHERE id = $1
	`

	return r.scanAPIKey(r.pool.QueryRow(ctx, query, id))
}

// ListAPIKeysByUser retrieves all API keys owned by a user.
func (r *Repository) ListAPIKeysByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	query := `
		SELECT id, user_id, key_digest, name, created_at, expires_at, revoked, last_used_at
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		key, err := scanAPIKeyColumns(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}

	return keys, nil
}

// RevokeAPIKey marks an API key as revoked (soft delete).
func (r *Repository) RevokeAPIKey(ctx context.Context, id string) error {
	query := `
		UPDATE api_keys
		SET revoked = TRUE
		WHERE id = $1 AND NOT revoked
	`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// DeleteAPIKey hard-deletes an API key row.
func (r *Repository) DeleteAPIKey(ctx context.Context, id string) error {
	query := `DELETE FROM api_keys WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// TouchAPIKey advances last_used_at to the given instant.
// The guard keeps the column monotonically non-decreasing even when
// concurrent validators race each other.
func (r *Repository) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	query := `
		UPDATE api_keys
		SET last_used_at = $2
		WHERE id = $1 AND (last_used_at IS NULL OR last_used_at < $2)
	`

	if _, err := r.pool.Exec(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("failed to update API key last used: %w", err)
	}

	return nil
}

// scanAPIKey scans a single row into an APIKey model.
func (r *Repository) scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	key, err := scanAPIKeyColumns(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to scan API key: %w", err)
	}
	return key, nil
}

func scanAPIKeyColumns(row pgx.Row) (*model.APIKey, error) {
	var key model.APIKey
	err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.KeyDigest,
		&key.Name,
		&key.CreatedAt,
		&key.ExpiresAt,
		&key.Revoked,
		&key.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
