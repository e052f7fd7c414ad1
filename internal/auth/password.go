package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotConfigured = errors.New("admin login is not configured")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AdminCredentials is the single configured admin account
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// Verify reports ErrInvalidCredentials for any mismatch, and ErrAdminNotConfigured when no hash is set.
func (a AdminCredentials) Verify(username, password string) error {
	if a.PasswordHash == "" {
		return ErrAdminNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	passOK := CheckPassword(password, a.PasswordHash)
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
