package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
)

// RequireAuth is middleware that validates a Bearer access token
// and injects its user into the request context
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Extract Bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header", "unauthorized")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization header format", "unauthorized")
				return
			}

			token := strings.TrimSpace(parts[1])
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "empty token", "unauthorized")
				return
			}

			user, err := s.tokens.Authenticate(token)
			if errors.Is(err, errors.ErrTokenExpired) {
				writeJSONError(w, http.StatusUnauthorized, "token expired", "token_expired")
				return
			}
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid token", "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// UserFromContext returns the user injected by RequireAuth
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok && user != nil
}
