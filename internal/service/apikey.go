package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/cache"
	"github.com/keygate/keygate/internal/metrics"
	"github.com/keygate/keygate/internal/model"
	"github.com/keygate/keygate/internal/repository"
)

// Service errors for API key operations.
var (
	ErrDuplicateKeyName = errors.New("API key name already in use")
	ErrInvalidKeyName   = errors.New("key name must be 1-100 characters")
	ErrInvalidKeyTTL    = errors.New("key TTL must be between 1 and 3650 days")
	// ErrKeyNotFound covers both an unknown key ID and a key owned by
	// someone else, so existence never leaks across owners.
	ErrKeyNotFound = errors.New("API key not found")
	// ErrKeyExpired is distinct from an invalid key: callers commonly
	// want to tell an unauthenticated caller apart from one holding an
	// expired credential.
	ErrKeyExpired = errors.New("API key has expired")
)

const (
	maxKeyNameLength = 100
	maxKeyTTLDays    = 3650
)

// APIKeyService generates, validates, and revokes API keys. It owns
// the validation cache; separate instances never share cache state.
type APIKeyService struct {
	store          Store
	digester       *auth.Digester
	cache          *cache.ValidationCache
	cacheTTL       time.Duration
	defaultTTLDays int
	metrics        metrics.Recorder
}

// NewAPIKeyService creates a new APIKeyService with its own cache.
func NewAPIKeyService(store Store, digester *auth.Digester, cacheTTL time.Duration, defaultTTLDays int, recorder metrics.Recorder) *APIKeyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &APIKeyService{
		store:          store,
		digester:       digester,
		cache:          cache.NewValidationCache(),
		cacheTTL:       cacheTTL,
		defaultTTLDays: defaultTTLDays,
		metrics:        recorder,
	}
}

// CreateKey generates a new API key for the owner, persists only its
// digest, and returns the record together with the plaintext secret.
// The plaintext is never retrievable again after this call returns.
// A ttlDays of 0 selects the configured default.
func (s *APIKeyService) CreateKey(ctx context.Context, ownerID, name string, ttlDays int) (*model.APIKey, string, error) {
	if len(name) == 0 || len(name) > maxKeyNameLength {
		return nil, "", ErrInvalidKeyName
	}
	if ttlDays == 0 {
		ttlDays = s.defaultTTLDays
	}
	if ttlDays < 1 || ttlDays > maxKeyTTLDays {
		return nil, "", ErrInvalidKeyTTL
	}

	generated, err := auth.GenerateKey(s.digester)
	if err != nil {
		return nil, "", fmt.Errorf("generate key: %w", err)
	}

	now := time.Now().UTC()
	key := &model.APIKey{
		ID:        ulid.Make().String(),
		UserID:    ownerID,
		KeyDigest: generated.Digest,
		Name:      name,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, ttlDays),
		Revoked:   false,
	}

	// The partial unique index is the duplicate-name check; a racing
	// creator gets a deterministic ErrDuplicateKeyName, never two rows.
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		if errors.Is(err, repository.ErrKeyNameExists) {
			return nil, "", ErrDuplicateKeyName
		}
		return nil, "", fmt.Errorf("create key: %w", err)
	}

	s.metrics.IncKeyCreated()

	return key, generated.Plaintext, nil
}

// ValidateKey resolves a plaintext key to its identity. An unknown or
// revoked key returns (nil, nil); an expired key returns ErrKeyExpired.
//
// Results are cached by digest for at most the cache TTL, capped at the
// key's own expiration instant so an entry can never outlive its key.
// A cache hit deliberately skips the last_used_at update: repeated use
// inside the TTL window does not advance the timestamp until the entry
// expires and the store path runs again.
func (s *APIKeyService) ValidateKey(ctx context.Context, plaintext string) (*model.KeyIdentity, error) {
	if !auth.ValidateKeyFormat(plaintext) {
		s.metrics.IncValidation("invalid")
		return nil, nil
	}

	digest := s.digester.DigestKey(plaintext)

	if identity := s.cache.Get(digest); identity != nil {
		s.metrics.IncValidationCacheHit()
		s.metrics.IncValidation("success")
		return identity, nil
	}
	s.metrics.IncValidationCacheMiss()

	// Stamp before the store lookup: a revoke observed between here and
	// the Put below must win over our result.
	since := s.cache.Begin()

	key, err := s.store.GetAPIKeyByDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			s.metrics.IncValidation("invalid")
			return nil, nil
		}
		return nil, fmt.Errorf("lookup key: %w", err)
	}

	now := time.Now()
	if key.IsExpired(now) {
		s.metrics.IncValidation("expired")
		return nil, ErrKeyExpired
	}

	if err := s.store.TouchAPIKey(ctx, key.ID, now); err != nil {
		return nil, fmt.Errorf("touch key: %w", err)
	}

	identity := model.KeyIdentity{
		KeyID:  key.ID,
		UserID: key.UserID,
		Name:   key.Name,
	}

	ttl := s.cacheTTL
	if remaining := key.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	s.cache.Put(digest, identity, ttl, since)

	s.metrics.IncValidation("success")

	return &identity, nil
}

// ListKeys returns all keys owned by a user, metadata only.
func (s *APIKeyService) ListKeys(ctx context.Context, ownerID string) ([]*model.APIKey, error) {
	keys, err := s.store.ListAPIKeysByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// RevokeKey soft-deletes a key owned by ownerID and synchronously
// evicts it from the validation cache. Once RevokeKey returns, the next
// validation of that key misses the cache and sees the revoked row.
func (s *APIKeyService) RevokeKey(ctx context.Context, keyID, ownerID string) (*model.APIKey, error) {
	key, err := s.authorizeKey(ctx, keyID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.store.RevokeAPIKey(ctx, keyID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			// Already revoked, or deleted since the ownership check.
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("revoke key: %w", err)
	}

	s.cache.InvalidateKey(keyID)
	s.metrics.IncKeyRevoked()

	key.Revoked = true
	return key, nil
}

// DeleteKey hard-deletes a key owned by ownerID. The cache is
// invalidated before the row is deleted so a concurrent hit can never
// reference a row that no longer exists.
func (s *APIKeyService) DeleteKey(ctx context.Context, keyID, ownerID string) error {
	if _, err := s.authorizeKey(ctx, keyID, ownerID); err != nil {
		return err
	}

	s.cache.InvalidateKey(keyID)

	if err := s.store.DeleteAPIKey(ctx, keyID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("delete key: %w", err)
	}

	s.metrics.IncKeyDeleted()

	return nil
}

// authorizeKey loads a key and checks ownership. Both "no such key"
// and "not yours" come back as ErrKeyNotFound.
func (s *APIKeyService) authorizeKey(ctx context.Context, keyID, ownerID string) (*model.APIKey, error) {
	key, err := s.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("lookup key: %w", err)
	}
	if key.UserID != ownerID {
		return nil, ErrKeyNotFound
	}
	return key, nil
}
