package middleware

import (
	"context"
	"net/http"
	"strings"

	"moneypot-backend/internal/api/httpx"
	"moneypot-backend/internal/auth"
)

type ctxKey string

const (
	ctxUserIDKey ctxKey = "uid"
	ctxRoleKey   ctxKey = "role"
)

func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxUserIDKey).(string)
	return v, ok
}

func Role(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxRoleKey).(string)
	return v, ok
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Auth requires a Bearer access token and puts the resolved identity on the
// request context.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, isRefresh, err := m.TM.ParseAny(token)
		if err != nil || isRefresh {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, ctxRoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
