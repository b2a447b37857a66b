package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"research-assessment/internal/auth"
)

// RequireAPIToken guards admin and catalog routes with the configured token.
func RequireAPIToken(want string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok || want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errResp{"unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type sessionTokenKey struct{}

// RequireSessionToken takes the wizard session token from the bearer header.
// Ownership is checked by the service against the stored hash.
func RequireSessionToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errResp{"missing bearer"})
			return
		}
		ctx := context.WithValue(r.Context(), sessionTokenKey{}, tok)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	tok, _ := r.Context().Value(sessionTokenKey{}).(string)
	return tok
}
