package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/notely/notely-go/internal/crypto"
	"github.com/notely/notely-go/internal/model"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserResolver checks that a token subject still refers to a stored user.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// JWTAuth returns middleware that validates a Bearer token from the
// Authorization header and resolves its subject against the user store.
// Tokens whose user no longer exists are rejected like any other bad token.
func JWTAuth(secret string, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "access token required")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeAuthError(w, "invalid authorization format")
				return
			}

			claims, err := crypto.ValidateToken(token, secret)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			if _, err := users.GetByID(r.Context(), claims.UserID); err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// WithUserID returns a context carrying the authenticated user ID.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
