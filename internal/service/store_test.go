package service

import (
	"context"
	"sync"
	"time"

	"github.com/keygate/keygate/internal/model"
	"github.com/keygate/keygate/internal/repository"
)

// memStore is an in-memory Store used by service tests. It mirrors the
// repository contract, including sentinel errors and the uniqueness
// rules enforced by the schema.
type memStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	keys  map[string]*model.APIKey

	// digestLookups counts GetAPIKeyByDigest calls so tests can tell a
	// cache hit from a store round trip.
	digestLookups int
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*model.User),
		keys:  make(map[string]*model.APIKey),
	}
}

func (m *memStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}

	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range m.keys {
		if k.KeyDigest == key.KeyDigest {
			return repository.ErrAPIKeyNotFound // digest collision; unreachable in tests
		}
		// Name uniqueness only applies among live keys.
		if k.UserID == key.UserID && k.Name == key.Name && !k.Revoked {
			return repository.ErrKeyNameExists
		}
	}

	k := *key
	m.keys[key.ID] = &k
	return nil
}

func (m *memStore) GetAPIKeyByDigest(ctx context.Context, digest string) (*model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.digestLookups++

	for _, k := range m.keys {
		if k.KeyDigest == digest && !k.Revoked {
			copied := *k
			return &copied, nil
		}
	}
	return nil, repository.ErrAPIKeyNotFound
}

func (m *memStore) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	copied := *k
	return &copied, nil
}

func (m *memStore) ListAPIKeysByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []*model.APIKey
	for _, k := range m.keys {
		if k.UserID == userID {
			copied := *k
			keys = append(keys, &copied)
		}
	}
	return keys, nil
}

func (m *memStore) RevokeAPIKey(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok || k.Revoked {
		return repository.ErrAPIKeyNotFound
	}
	k.Revoked = true
	return nil
}

func (m *memStore) DeleteAPIKey(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.keys[id]; !ok {
		return repository.ErrAPIKeyNotFound
	}
	delete(m.keys, id)
	return nil
}

func (m *memStore) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok {
		return repository.ErrAPIKeyNotFound
	}
	if k.LastUsedAt == nil || k.LastUsedAt.Before(usedAt) {
		k.LastUsedAt = &usedAt
	}
	return nil
}

func (m *memStore) lastUsed(id string) *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	k, ok := m.keys[id]
	if !ok || k.LastUsedAt == nil {
		return nil
	}
	t := *k.LastUsedAt
	return &t
}

func (m *memStore) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.digestLookups
}
