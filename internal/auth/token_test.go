package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService("   ", time.Hour)
	assert.Error(t, err)

	svc, err := NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, err := NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue("account-1", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", claims.ID)
	assert.Empty(t, claims.Role, "user tokens carry no role claim")
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenService_AdminRoleClaim(t *testing.T) {
	svc, err := NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.Issue("admin-1", "admin")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.ID)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenService_VerifyFailures(t *testing.T) {
	svc, err := NewTokenService("test_secret", time.Hour)
	require.NoError(t, err)

	otherSvc, err := NewTokenService("other_secret", time.Hour)
	require.NoError(t, err)
	foreign, err := otherSvc.Issue("account-1", "")
	require.NoError(t, err)

	valid, err := svc.Issue("account-1", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.Verify(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc, err := NewTokenService("test_secret", time.Millisecond)
	require.NoError(t, err)

	token, err := svc.Issue("account-1", "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	claims, err := svc.Verify(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired tokens are indistinguishable from invalid ones")
}
