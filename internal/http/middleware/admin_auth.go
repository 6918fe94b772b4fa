package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turnohq/turno-platform/internal/tenancy"
)

// AdminClaims carries the operator identity for admin endpoints. A platform
// operator has SuperOperator set and no tenant binding.
type AdminClaims struct {
	TenantID      string `json:"tenant_id,omitempty"`
	SuperOperator bool   `json:"super_operator,omitempty"`
	jwt.RegisteredClaims
}

// AdminJWT enforces an HMAC-signed JWT for admin endpoints and loads the
// operator's tenant into the request context. Super-operator tokens skip the
// tenant binding; downstream reads check the role explicitly.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := AdminClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if claims.TenantID == "" && !claims.SuperOperator {
				http.Error(w, "token carries no tenant", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if claims.TenantID != "" {
				ctx = tenancy.WithTenantID(ctx, claims.TenantID)
			}
			if claims.SuperOperator {
				ctx = tenancy.WithSuperOperator(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
