package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/glossline/salon-bookings/internal/http/response"
	"github.com/glossline/salon-bookings/internal/platform/tokens"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// JWT guards routes with bearer-token authentication. Parsed claims land in
// the request context for handlers and the role middleware.
type JWT struct {
	authority *tokens.Authority
}

func NewJWT(authority *tokens.Authority) *JWT {
	return &JWT{authority: authority}
}

func (m *JWT) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			response.Unauthorized(w, "missing or invalid authorization header")
			return
		}
		raw := strings.TrimPrefix(authz, "Bearer ")
		claims, err := m.authority.Parse(raw)
		if err != nil {
			response.FromError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), CtxClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only the listed roles through. Must sit behind Require.
func (m *JWT) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := Claims(r)
			if claims == nil {
				response.Unauthorized(w, "authentication required")
				return
			}
			if !allowed[claims.Role] {
				response.Forbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Claims returns the parsed token claims, or nil outside a guarded route.
func Claims(r *http.Request) *tokens.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*tokens.Claims)
}
