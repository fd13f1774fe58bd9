package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Passw0rd!", nil},
		{"valid with underscore", "Passw0rd_", nil},
		{"too short", "P0w!", ErrPasswordTooShort},
		{"exactly seven", "Passw0!", ErrPasswordTooShort},
		{"no uppercase", "passw0rd!", ErrPasswordNoUpper},
		{"no lowercase", "PASSW0RD!", ErrPasswordNoLower},
		{"no digit", "Password!", ErrPasswordNoDigit},
		{"no special", "Passw0rdd", ErrPasswordNoSymbol},
		{"empty", "", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword_FirstViolationWins(t *testing.T) {
	// Short and missing everything else: length is checked first.
	assert.ErrorIs(t, ValidatePassword("abc"), ErrPasswordTooShort)
	// Long enough but missing upper and digit: upper is reported first.
	assert.ErrorIs(t, ValidatePassword("password!"), ErrPasswordNoUpper)
}

func TestHashPassword_Salted(t *testing.T) {
	const password = "Passw0rd!"

	first, err := HashPassword(password)
	require.NoError(t, err)
	second, err := HashPassword(password)
	require.NoError(t, err)

	assert.NotEqual(t, password, first)
	assert.NotEqual(t, first, second, "salted hashes of the same input must differ")
	assert.True(t, VerifyPassword(password, first))
	assert.True(t, VerifyPassword(password, second))
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Passw0rd!")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("Passw0rd!", hash))
	assert.False(t, VerifyPassword("wrong", hash))
	assert.False(t, VerifyPassword("", hash))
	assert.False(t, VerifyPassword("Passw0rd!", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("Passw0rd!", ""))
}
