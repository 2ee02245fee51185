package auth

import (
	"crypto/rand"
	"fmt"
)

// stateLength matches the 16-character nonce Spotify's own examples use.
const stateLength = 16

const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateState creates a random alphanumeric nonce for CSRF protection of
// the authorization redirect. Each login attempt gets a fresh nonce; storing
// it replaces any previous one, so at most one login attempt is in flight.
func GenerateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	for i, v := range b {
		b[i] = stateAlphabet[int(v)%len(stateAlphabet)]
	}
	return string(b), nil
}
