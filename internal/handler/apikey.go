package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/model"
	"github.com/keygate/keygate/internal/service"
)

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	service *service.APIKeyService
	logger  *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(svc *service.APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{service: svc, logger: logger}
}

// Create handles POST /api/v1/keys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req model.APIKeyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	key, plaintext, err := h.service.CreateKey(r.Context(), userID, req.Name, req.TTLDays)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateKeyName):
			writeError(w, http.StatusBadRequest, "DUPLICATE_KEY_NAME", "A key with this name already exists")
		case errors.Is(err, service.ErrInvalidKeyName):
			writeError(w, http.StatusBadRequest, "INVALID_KEY_NAME", "Key name must be 1-100 characters")
		case errors.Is(err, service.ErrInvalidKeyTTL):
			writeError(w, http.StatusBadRequest, "INVALID_KEY_TTL", "Key TTL must be between 1 and 3650 days")
		default:
			h.logger.Error("failed to create API key", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key")
		}
		return
	}

	h.logger.Info("API key created",
		slog.String("key_id", key.ID),
		slog.String("user_id", key.UserID),
	)

	// Plaintext key is shown once only; it is never stored or logged.
	writeJSON(w, http.StatusCreated, model.APIKeyCreateResponse{
		ID:        key.ID,
		Key:       plaintext,
		Name:      key.Name,
		CreatedAt: key.CreatedAt,
		ExpiresAt: key.ExpiresAt,
	})
}

// List handles GET /api/v1/keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keys, err := h.service.ListKeys(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list API keys", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}

	writeJSON(w, http.StatusOK, responses)
}

// Revoke handles POST /api/v1/keys/{key_id}/revoke
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keyID := chi.URLParam(r, "key_id")

	key, err := h.service.RevokeKey(r.Context(), keyID, userID)
	if err != nil {
		if errors.Is(err, service.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found")
			return
		}
		h.logger.Error("failed to revoke API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key")
		return
	}

	h.logger.Info("API key revoked",
		slog.String("key_id", key.ID),
		slog.String("user_id", userID),
	)

	writeJSON(w, http.StatusOK, key.ToResponse())
}

// Delete handles DELETE /api/v1/keys/{key_id}
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keyID := chi.URLParam(r, "key_id")

	if err := h.service.DeleteKey(r.Context(), keyID, userID); err != nil {
		if errors.Is(err, service.ErrKeyNotFound) {
			writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found")
			return
		}
		h.logger.Error("failed to delete API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete API key")
		return
	}

	h.logger.Info("API key deleted",
		slog.String("key_id", keyID),
		slog.String("user_id", userID),
	)

	w.WriteHeader(http.StatusNoContent)
}

// WhoAmI handles GET /api/v1/service/whoami.
// Exercises the key validation path: the identity in the response is
// whatever the API key middleware resolved.
func (h *APIKeyHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	identity := auth.KeyIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	writeJSON(w, http.StatusOK, identity)
}
