// Package httpapi exposes a read-only debug/inspection surface over the
// engine's Store and query API, adapted from the teacher's internal/api:
// the same chi router + Bearer-token AuthMiddleware + writeJSON helper
// shape, repointed at hierarchy/backlinks/audit views instead of notes
// CRUD.
package httpapi

import (
	"net/http"
	"strings"
)

// AuthMiddleware validates a Bearer token when enabled; a no-op otherwise.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
