package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/model"
	"github.com/keygate/keygate/internal/service"
)

// AuthHandler handles signup and login endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.service.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "DUPLICATE_EMAIL", "Email already registered")
		case errors.Is(err, service.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "DUPLICATE_USERNAME", "Username already taken")
		case errors.Is(err, service.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
		case errors.Is(err, service.ErrInvalidUsername):
			writeError(w, http.StatusBadRequest, "INVALID_USERNAME", "Username must be 3-50 characters")
		case errors.As(err, &weak):
			writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password "+weak.Rule)
		default:
			h.logger.Error("signup failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account")
		}
		return
	}

	h.logger.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	signed, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect username or password")
		case errors.Is(err, service.ErrInactiveAccount):
			writeError(w, http.StatusBadRequest, "INACTIVE_ACCOUNT", "Inactive user account")
		default:
			h.logger.Error("login failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		}
		return
	}

	writeJSON(w, http.StatusOK, model.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
	})
}
