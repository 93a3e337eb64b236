package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-phonestore/identity"
	"go-phonestore/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// Verifier turns a bearer token into the authenticated principal
type Verifier interface {
	Verify(ctx context.Context, token string) (*identity.Principal, error)
}

// CurrentUser returns the principal attached by AuthMiddleware
func CurrentUser(r *http.Request) (*identity.Principal, bool) {
	p, ok := r.Context().Value(UserContextKey).(*identity.Principal)
	return p, ok && p != nil
}

// WithUser attaches p to ctx
func WithUser(ctx context.Context, p *identity.Principal) context.Context {
	return context.WithValue(ctx, UserContextKey, p)
}

// AuthMiddleware verifies bearer tokens and attaches the principal to the context
func AuthMiddleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			p, err := v.Verify(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				var ae *identity.AuthError
				if errors.As(err, &ae) {
					utils.RespondError(w, http.StatusUnauthorized, ae.Message())
					return
				}
				utils.RespondError(w, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), p)))
		})
	}
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := CurrentUser(r)
		if !ok || !p.Admin {
			utils.RespondError(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
