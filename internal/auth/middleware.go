package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package
// can create a key of type contextKey, so only this package can read
// or write the userID value in a request context.
type contextKey string

const userIDKey contextKey = "userID"

var errNoBearerToken = errors.New("auth: no bearer token in Authorization header")

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the session token from the "Authorization: Bearer <token>"
// header, validates it, and stores the userID in the request context.
// A missing, malformed, expired, or tampered token short-circuits the
// chain with 401 before any handler runs. No database lookup happens
// here — the token's claims are the acting identity.
//
// The SPA keeps the token in memory and attaches the header itself, so
// bearer auth (rather than a cookie) is the contract with the frontend.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the
// request context.
//
// Returns ("", false) if the request carried no valid token.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // unauthenticated
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID pulls the bearer token out of the Authorization header
// and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoBearerToken
	}

	// Scheme comparison is case-insensitive per RFC 7235.
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errNoBearerToken
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
