package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/service"
)

// APIKeyAuth returns middleware that authenticates service-to-service
// requests with an API key. A validated key identity is injected into
// the request context. Unknown, revoked, and malformed keys all get the
// same 401; an expired key gets an actionable message.
func APIKeyAuth(logger *slog.Logger, keys *service.APIKeyService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plaintext := extractAPIKey(r)
			if plaintext == "" {
				logAuthFailure(logger, r, "missing_key")
				writeAuthError(w)
				return
			}

			identity, err := keys.ValidateKey(r.Context(), plaintext)
			if err != nil {
				if errors.Is(err, service.ErrKeyExpired) {
					logAuthFailure(logger, r, "expired_key")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"error":{"code":"KEY_EXPIRED","message":"API key has expired"}}`))
					return
				}
				logger.Error("key validation error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}
			if identity == nil {
				logAuthFailure(logger, r, "invalid_key")
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithKeyIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}
