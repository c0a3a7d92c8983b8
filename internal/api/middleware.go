package api

import (
	"crypto/subtle"
	"net/http"
)

// requireAPIKey enforces a Bearer token on every route except the
// probe endpoints.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Missing Authorization header")
			return
		}

		expected := "Bearer " + s.apiKey
		if subtle.ConstantTimeCompare([]byte(authHeader), []byte(expected)) != 1 {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
