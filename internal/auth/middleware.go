package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dohyunkim-dev/marketgate/internal/models"
	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the verified token claims of the current request.
func ClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*models.TokenClaims)
	return claims, ok
}

// ContextWithClaims attaches verified claims to a context, the same way
// RequireAuth does for incoming requests.
func ContextWithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// RequireAuth validates the bearer access token and injects its claims into
// the request context. Refresh tokens are rejected here; they are only valid
// at the refresh endpoint.
func RequireAuth(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.Verify(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			if claims.Type != models.TokenTypeAccess {
				pkghttp.WriteUnauthorized(w, "token cannot be used for API access")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the verified claims carry
// the given role. Must be mounted after RequireAuth.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				pkghttp.WriteUnauthorized(w, "authentication required")
				return
			}

			if claims.Role != role {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
