package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/antochhka/voltqueue/internal/admin"
)

type contextKey string

const adminAliasKey contextKey = "adminAlias"

// AdminAuth validates the bearer token minted by the admin login endpoint.
func AdminAuth(tokens *admin.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminAliasKey, claims.Alias)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAliasFromContext retrieves the authenticated admin alias.
func AdminAliasFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(adminAliasKey)
	if val == nil {
		return "", false
	}
	alias, ok := val.(string)
	return alias, ok
}
