package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nans-shop/apiserver/internal/auth"
	"github.com/nans-shop/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	tokens, err := auth.NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)

	userToken, err := tokens.Issue("user-1", "")
	require.NoError(t, err)
	adminToken, err := tokens.Issue("admin-1", types.RoleAdmin)
	require.NoError(t, err)

	expired, err := auth.NewTokenService("test_secret", time.Millisecond)
	require.NoError(t, err)
	expiredToken, err := expired.Issue("user-1", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	tests := []struct {
		name              string
		adminOnly         bool
		header            string
		expectedStatus    int
		expectedPrincipal *Principal
	}{
		{
			name:           "no header is an authentication failure",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed header is an authentication failure",
			header:         "Token abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bearer with empty token is an authentication failure",
			header:         "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token is an authorization failure",
			header:         "Bearer not-a-token",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "tampered token is an authorization failure",
			header:         "Bearer " + userToken + "x",
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "expired token is an authorization failure",
			header:         "Bearer " + expiredToken,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:              "valid user token passes plain auth",
			header:            "Bearer " + userToken,
			expectedStatus:    http.StatusOK,
			expectedPrincipal: &Principal{ID: "user-1"},
		},
		{
			name:           "user token without role claim is denied on admin route",
			adminOnly:      true,
			header:         "Bearer " + userToken,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:              "admin token passes admin route",
			adminOnly:         true,
			header:            "Bearer " + adminToken,
			expectedStatus:    http.StatusOK,
			expectedPrincipal: &Principal{ID: "admin-1", Role: types.RoleAdmin},
		},
	}

	guard := NewGuard(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			middleware := guard.RequireAuth()
			if tt.adminOnly {
				middleware = guard.RequireAdmin()
			}

			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				principal, ok := PrincipalFromContext(r.Context())
				require.True(t, ok, "allowed requests must carry the principal")
				if tt.expectedPrincipal != nil {
					assert.Equal(t, *tt.expectedPrincipal, principal)
				}
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestBearerToken_CaseInsensitiveScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Header.Set("Authorization", "bearer sometoken")

	token, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "sometoken", token)
}
