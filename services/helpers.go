package services

import (
	"crypto/rand"
	"fmt"
)

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateRandomPassword builds a random password for implicitly created
// accounts. It is only ever delivered out-of-band, never in an HTTP response.
func generateRandomPassword(length int) (string, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random password: %w", err)
	}
	b := make([]byte, length)
	for i, rb := range randomBytes {
		b[i] = passwordCharset[int(rb)%len(passwordCharset)]
	}
	return string(b), nil
}
