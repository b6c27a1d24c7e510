package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretBytes is the entropy of a generated signing secret.
const SecretBytes = 32

// randRead is swapped in tests.
var randRead = rand.Read

// GenerateSecret returns a hex-encoded random secret suitable for
// JWT_SECRET (64 characters).
func GenerateSecret() (string, error) {
	b := make([]byte, SecretBytes)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
