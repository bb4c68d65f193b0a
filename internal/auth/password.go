package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
	// bcrypt silently ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// HashPassword validates the length of a login or useradd password and hashes it
func HashPassword(password string) (string, error) {
	switch n := len(password); {
	case n < minPasswordLength:
		return "", fmt.Errorf("%w: need at least %d characters, got %d", ErrPasswordTooShort, minPasswordLength, n)
	case n > maxPasswordBytes:
		return "", fmt.Errorf("%w: at most %d bytes, got %d", ErrPasswordTooLong, maxPasswordBytes, n)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches a hash from HashPassword.
// Malformed hashes never match.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
