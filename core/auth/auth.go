package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// ErrPasswordTooLong is returned for passwords over MaxPasswordLength bytes.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordTooLong reports whether bcrypt would reject password.
func PasswordTooLong(password string) bool {
	return len(password) > MaxPasswordLength
}

// HashPassword hashes password with a fresh bcrypt salt.
func HashPassword(password string) (string, error) {
	if PasswordTooLong(password) {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordHash reports whether password matches hash. Malformed hashes never match.
func CheckPasswordHash(password, hash string) bool {
	if PasswordTooLong(password) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
