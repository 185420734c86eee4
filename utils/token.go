package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// TokenBytes is the entropy of an API token; its hex form is 40 characters.
const TokenBytes = 20

// GenerateSecureToken returns length random bytes hex-encoded.
func GenerateSecureToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateAPIToken returns a new 40-character bearer token key.
func GenerateAPIToken() (string, error) {
	return GenerateSecureToken(TokenBytes)
}
