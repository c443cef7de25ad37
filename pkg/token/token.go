package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Session tokens are 32 random bytes hex-encoded (64 characters). Agent and
// observer sessions use the same format but live in separate tables, so the
// token spaces never collide in a single lookup.
const sessionTokenBytes = 32

// NewSessionToken generates a random bearer session token.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NewObserverID generates an observer identifier of the form
// "obs-" followed by 16 hex characters.
func NewObserverID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate observer id: %w", err)
	}
	return "obs-" + hex.EncodeToString(buf), nil
}

// HashSHA256 returns the hex-encoded SHA-256 digest of s. Observer
// registration secrets are stored only in this form; the digest doubles as
// the login lookup key, which is why the hash is deterministic and unsalted.
func HashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
