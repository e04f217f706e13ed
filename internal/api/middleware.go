// Package api implements the dagaz REST API using chi.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// Authorizer decides whether a session token may access the journal.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware returns middleware that rejects requests while the journal is
// locked. The session token is read from "Authorization: Bearer <token>", or
// from the "token" query parameter for EventSource clients. A nil authorizer
// disables the check.
func AuthMiddleware(auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := auth.Authorize(r.Context(), bearerToken(r))
			if err != nil {
				slog.Error("authorize failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
				return
			}
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("journal is locked"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
