package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/radieske/opinion-trade-platform/internal/identity"
	"github.com/radieske/opinion-trade-platform/internal/ledger/ledgererr"
)

type ctxKey int

const claimsKey ctxKey = iota

// claimsFrom recupera os claims postos no contexto pelo requireAuth
func claimsFrom(ctx context.Context) (*identity.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*identity.Claims)
	return c, ok
}

// requireAuth valida o Bearer token e injeta os claims no contexto
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, ledgererr.New(ledgererr.Unauthorized, "missing or invalid Authorization header"))
			return
		}
		claims, err := s.ids.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// requireAdmin exige role admin; roda depois do requireAuth
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			writeError(w, ledgererr.New(ledgererr.Unauthorized, "missing identity"))
			return
		}
		if claims.Role != "admin" {
			writeError(w, ledgererr.New(ledgererr.Forbidden, "admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
