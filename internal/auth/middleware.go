package auth

import (
	"context"
	"net/http"
	"strings"

	"quizpal-service/internal/domain"
)

type contextKey string

const claimsKey contextKey = "authClaims"

// ClaimsFromContext returns the claims attached by the middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// Middleware validates bearer tokens and attaches claims to the request context.
type Middleware struct {
	secret []byte
}

func NewMiddleware(secret []byte) *Middleware {
	return &Middleware{secret: secret}
}

// RequireAuth rejects requests without a valid token. The token is read from
// the Authorization header, or from the "token" query parameter for websocket
// clients that cannot set headers.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing auth token"})
			return
		}
		claims, err := ParseToken(raw, m.secret)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid auth token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireAdmin additionally checks the role claim.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != domain.RoleAdmin {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// ParseRequestToken validates the request's token without going through the
// handler-wrapping middleware; used by the websocket endpoint.
func (m *Middleware) ParseRequestToken(r *http.Request) (*Claims, error) {
	return ParseToken(bearerToken(r), m.secret)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
