package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// OwnerContextKey is the context key for the authenticated owner id
	OwnerContextKey ContextKey = "owner"

	// OwnerHeader carries the caller identity when authentication is disabled.
	OwnerHeader = "X-Owner-Id"
)

// AuthMiddleware requires a valid bearer token and stores its owner id in the
// request context.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), claims.OwnerID)))
		})
	}
}

// HeaderIdentity trusts the X-Owner-Id header. It is meant for local
// development with authentication disabled.
func HeaderIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if err := domain.ValidateOwnerID(ownerID); err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing "+OwnerHeader+" header")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), ownerID)))
	})
}

// WithOwner returns a context carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	annotateOwner(ctx, ownerID)
	return context.WithValue(ctx, OwnerContextKey, ownerID)
}

// OwnerFromContext extracts the authenticated owner id from context
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(OwnerContextKey).(string)
	return ownerID, ok && ownerID != ""
}
