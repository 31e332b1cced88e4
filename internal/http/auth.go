package httpapi

import (
	"context"
	"net/http"
	"strings"

	"gymcore-backend-go/internal/policy"
	"gymcore-backend-go/internal/services"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			p, err := tokenService.Principal(tokenStr)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			ctx := context.WithValue(r.Context(), ctxPrincipal, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentPrincipal returns the caller set by WithAuth.
func CurrentPrincipal(r *http.Request) policy.Principal {
	if value, ok := r.Context().Value(ctxPrincipal).(policy.Principal); ok {
		return value
	}
	return policy.Principal{}
}
