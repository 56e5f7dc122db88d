// Package password provides one-way hashing for stored credentials.
package password

import "golang.org/x/crypto/bcrypt"

// Hash returns a bcrypt hash of the plaintext. Each call uses a fresh
// salt, so two hashes of the same input differ.
func Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash.
// Malformed hashes are treated as a mismatch, never an error.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
