package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretBytes is the entropy of generated JWT secrets (256-bit)
const SecretBytes = 32

// GenerateSecret returns n random bytes hex encoded
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWTSecrets returns an access and a refresh secret. The two always differ,
// which config validation requires.
func GenerateJWTSecrets() (accessSecret, refreshSecret string, err error) {
	accessSecret, err = GenerateSecret(SecretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access secret: %w", err)
	}

	for refreshSecret == "" || refreshSecret == accessSecret {
		refreshSecret, err = GenerateSecret(SecretBytes)
		if err != nil {
			return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
		}
	}

	return accessSecret, refreshSecret, nil
}
