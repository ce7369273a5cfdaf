package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerifyAdminSecret checks a provided credential against the configured
// admin secret. The configured value may be a bcrypt hash (recommended for
// production) or a plain value, which is compared in constant time.
// An empty configured secret always fails: admin endpoints fail closed when
// the server is misconfigured.
func VerifyAdminSecret(configured, provided string) bool {
	if configured == "" || provided == "" {
		return false
	}

	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(provided)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(configured), []byte(provided)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashSecret produces a bcrypt hash suitable for storing in ADMIN_SECRET.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
