package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt. The result is what
// goes into the auth.password_hash configuration value.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies that the provided password matches the stored hash
func VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyAdminPassword checks a password against the configured credential.
// The config value is normally a bcrypt hash, but a plain value is accepted
// for local setups and compared in constant time.
func VerifyAdminPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return VerifyPassword(stored, password)
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}
