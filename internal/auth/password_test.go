package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_LengthLimits(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"empty", "", ErrPasswordTooShort},
		{"7 bytes", "1234567", ErrPasswordTooShort},
		{"8 bytes", "12345678", nil},
		{"72 bytes", strings.Repeat("a", 72), nil},
		{"73 bytes", strings.Repeat("a", 73), ErrPasswordTooLong},
		// 5 three-byte runes plus 5 ASCII bytes
		{"multibyte", "パスワード12345", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, "$2a$12$"), hash)
		})
	}
}

func TestHashPassword_ErrorNamesLength(t *testing.T) {
	_, err := HashPassword("short")

	assert.EqualError(t, err, "password too short: need at least 8 characters, got 5")
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("staff-password")
	require.NoError(t, err)
	second, err := HashPassword("staff-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("staff-password", first))
	assert.True(t, CheckPassword("staff-password", second))
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"match", "Password123", hash, true},
		{"wrong password", "wrongpassword", hash, false},
		{"case differs", "password123", hash, false},
		{"empty password", "", hash, false},
		{"malformed hash", "Password123", "invalid-hash", false},
		{"empty hash", "Password123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password, tt.hash))
		})
	}
}
