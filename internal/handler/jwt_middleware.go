package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"cinerec/internal/service"
)

type ctxKey string

const (
	CtxUser     ctxKey = "user"
	CtxUserRole ctxKey = "role"
)

// tokenClaims lo que firma AuthService.Login.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth valida el Bearer token (HS256, exp obligatorio) y deja user y
// role en el contexto.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}

			var claims tokenClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.Subject == "" {
				http.Error(w, "invalid sub in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), CtxUser, claims.Subject)
			ctx = context.WithValue(ctx, CtxUserRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly solo deja pasar a role == "admin".
func AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role, _ := r.Context().Value(CtxUserRole).(string); role != service.RoleAdmin {
				http.Error(w, "admin only", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext usuario autenticado, "" si no hay.
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(CtxUser).(string)
	return user
}
