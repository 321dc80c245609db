// Package auth implements credential verification, password hashing, and
// token issuance for the account service.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor. High enough to resist offline brute
// force while keeping login latency bounded.
const hashCost = 10

// PasswordHasher provides one-way salted hashing and constant-time
// verification of passwords.
type PasswordHasher struct{}

// NewPasswordHasher creates a new PasswordHasher
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{}
}

// Hash applies a salted one-way function to the plaintext and returns the
// encoded hash (algorithm tag, cost, salt, and digest). Hashing failures are
// fatal to the calling operation.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares the plaintext against the stored hash in constant time.
// It never errors: a malformed hash simply fails verification.
func (h *PasswordHasher) Verify(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
