package middleware

import (
	"net/http"
)

// RequestSizeLimit creates middleware that limits the maximum request body
// size. Handlers observe the limit as an *http.MaxBytesError when decoding.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Limit request body size to prevent memory exhaustion
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}
