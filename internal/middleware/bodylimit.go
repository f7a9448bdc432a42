package middleware

import "net/http"

// BodyLimit returns middleware that caps request body size.
// Oversized bodies fail inside the handler's decode with a read error
// rather than buffering unbounded input.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
