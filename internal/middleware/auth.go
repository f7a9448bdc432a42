package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/token"
)

// SessionAuth returns middleware that authenticates requests with a
// bearer session token. On success the subject user ID is injected into
// the request context. Expired and malformed tokens both map to 401,
// but are logged with distinct reasons.
func SessionAuth(logger *slog.Logger, issuer *token.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				logAuthFailure(logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			subjectID, err := issuer.Verify(raw)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, token.ErrTokenExpired) {
					reason = "expired_token"
				}
				logAuthFailure(logger, r, reason)
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), subjectID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearer pulls the token from "Authorization: Bearer <token>".
func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing credentials"}}`))
}
