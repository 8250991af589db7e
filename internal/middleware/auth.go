package middleware

import (
	"context"
	"net/http"
	"strings"

	"arch-community-backend/internal/auth"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware creates a middleware that authenticates the bearer access
// token and stores the resulting identity in the request context. A missing
// token is an authentication failure, not an anonymous identity.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := tokens.VerifyAccess(parts[1])
			if err != nil {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity extracts the authenticated identity from the context. The
// boolean is false on routes that did not pass through AuthMiddleware.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
