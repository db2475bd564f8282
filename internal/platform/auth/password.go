package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort = fmt.Errorf("password shorter than %d characters", MinPasswordLength)
	ErrPasswordTooLong  = errors.New("password longer than 72 bytes")
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the most bcrypt will hash.
	MaxPasswordBytes = 72
)

// HashPassword returns the bcrypt hash of password. Length violations return
// ErrPasswordTooShort or ErrPasswordTooLong; any other error is a hashing
// failure.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
