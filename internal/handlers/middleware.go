package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nans-shop/apiserver/internal/auth"
	"github.com/nans-shop/apiserver/types"
)

// Guard gates protected operations on a verified bearer token. The
// status contract distinguishes authentication from authorization: a
// missing or malformed Authorization header is 401, a present but
// invalid/expired token or an insufficient role is 403.
type Guard struct {
	tokens *auth.TokenService
}

func NewGuard(tokens *auth.TokenService) *Guard {
	return &Guard{tokens: tokens}
}

// RequireAuth admits any request carrying a valid token.
func (g *Guard) RequireAuth() func(http.Handler) http.Handler {
	return g.guard("")
}

// RequireAdmin admits only tokens carrying the admin role claim.
func (g *Guard) RequireAdmin() func(http.Handler) http.Handler {
	return g.guard(types.RoleAdmin)
}

func (g *Guard) guard(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized: no token provided")
				return
			}

			claims, err := g.tokens.Verify(tokenString)
			if err != nil {
				writeError(w, http.StatusForbidden, "forbidden: invalid token")
				return
			}

			if requiredRole != "" && claims.Role != requiredRole {
				message := "forbidden: insufficient role"
				if requiredRole == types.RoleAdmin {
					message = "forbidden: admin access required"
				}
				writeError(w, http.StatusForbidden, message)
				return
			}

			ctx := withPrincipal(r.Context(), Principal{ID: claims.ID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("malformed authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("malformed authorization header")
	}
	return token, nil
}
