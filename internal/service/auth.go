package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/metrics"
	"github.com/keygate/keygate/internal/model"
	"github.com/keygate/keygate/internal/repository"
	"github.com/keygate/keygate/internal/token"
)

// Service errors for signup and login.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidUsername    = errors.New("username must be 3-50 characters")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveAccount    = errors.New("inactive user account")
)

// emailRegex is a pragmatic format check, not full RFC 5322.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
)

// AuthService handles signup and login. It is the only component that
// touches both password hashing and token issuance.
type AuthService struct {
	store   Store
	issuer  *token.Issuer
	metrics metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(store Store, issuer *token.Issuer, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		store:   store,
		issuer:  issuer,
		metrics: recorder,
	}
}

// Signup registers a new user. Only the argon2id digest of the password
// is stored. Duplicates fail with ErrDuplicateEmail or
// ErrDuplicateUsername; a weak password fails with *auth.WeakPasswordError.
func (s *AuthService) Signup(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, ErrInvalidUsername
	}
	if err := auth.CheckPassword(password); err != nil {
		return nil, err
	}

	// Pre-checks give a fast answer under no contention; the insert
	// below remains the authoritative duplicate signal.
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
		IsActive:     true,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrDuplicateEmail
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncSignup()

	return user, nil
}

// Login verifies credentials and issues a session token for the user.
// Unknown username and wrong password collapse into the same
// ErrInvalidCredentials so usernames cannot be enumerated. A correct
// password against a deactivated account fails with ErrInactiveAccount.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin("failure")
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		s.metrics.IncLogin("failure")
		return "", ErrInvalidCredentials
	}

	if !user.IsActive {
		s.metrics.IncLogin("failure")
		return "", ErrInactiveAccount
	}

	signed, err := s.issuer.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLogin("success")

	return signed, nil
}
