package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/model"
	"github.com/keygate/keygate/internal/repository"
	"github.com/keygate/keygate/internal/service"
	"github.com/keygate/keygate/internal/token"
)

const (
	testPassword     = "Sup3r-Secret!"
	testJWTSecret    = "test-signing-secret-0123456789abcdef"
	testDigestSecret = "test-digest-secret-0123456789abcdef"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubStore is a minimal in-memory service.Store for handler tests.
type stubStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	keys  map[string]*model.APIKey
}

func newStubStore() *stubStore {
	return &stubStore{
		users: make(map[string]*model.User),
		keys:  make(map[string]*model.APIKey),
	}
}

func (s *stubStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *stubStore) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.UserID == key.UserID && k.Name == key.Name && !k.Revoked {
			return repository.ErrKeyNameExists
		}
	}
	k := *key
	s.keys[key.ID] = &k
	return nil
}

func (s *stubStore) GetAPIKeyByDigest(ctx context.Context, digest string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.KeyDigest == digest && !k.Revoked {
			copied := *k
			return &copied, nil
		}
	}
	return nil, repository.ErrAPIKeyNotFound
}

func (s *stubStore) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	copied := *k
	return &copied, nil
}

func (s *stubStore) ListAPIKeysByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []*model.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			copied := *k
			keys = append(keys, &copied)
		}
	}
	return keys, nil
}

func (s *stubStore) RevokeAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.Revoked {
		return repository.ErrAPIKeyNotFound
	}
	k.Revoked = true
	return nil
}

func (s *stubStore) DeleteAPIKey(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[id]; !ok {
		return repository.ErrAPIKeyNotFound
	}
	delete(s.keys, id)
	return nil
}

func (s *stubStore) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok {
		return repository.ErrAPIKeyNotFound
	}
	if k.LastUsedAt == nil || k.LastUsedAt.Before(usedAt) {
		k.LastUsedAt = &usedAt
	}
	return nil
}

func newAuthServices(t *testing.T) (*service.AuthService, *service.APIKeyService, *stubStore) {
	t.Helper()

	store := newStubStore()
	issuer, err := token.NewIssuer(testJWTSecret, 30*time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	authSvc := service.NewAuthService(store, issuer, nil)
	keySvc := service.NewAPIKeyService(store, auth.NewDigester(testDigestSecret), 5*time.Minute, 365, nil)
	return authSvc, keySvc, store
}

// keyRouter mounts the API key handler the way the server does, with a
// stand-in auth middleware that injects a fixed user ID.
func keyRouter(h *APIKeyHandler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/keys", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := req.Context()
				if userID != "" {
					ctx = auth.ContextWithUserID(ctx, userID)
				}
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/{key_id}/revoke", h.Revoke)
		r.Delete("/{key_id}", h.Delete)
	})
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error.Code
}
