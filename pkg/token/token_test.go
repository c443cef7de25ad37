package token

import (
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionToken(t *testing.T) {
	tok, err := NewSessionToken()
	require.NoError(t, err)

	assert.Len(t, tok, 64)
	_, err = hex.DecodeString(tok)
	assert.NoError(t, err, "token should be valid hex")
}

func TestNewSessionToken_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := NewSessionToken()
		require.NoError(t, err)

		_, dup := seen[tok]
		require.False(t, dup, "duplicate token generated")
		seen[tok] = struct{}{}
	}
}

func TestNewObserverID(t *testing.T) {
	id, err := NewObserverID()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^obs-[0-9a-f]{16}$`), id)
}

func TestHashSHA256(t *testing.T) {
	// Deterministic: the digest is the observer login lookup key.
	assert.Equal(t, HashSHA256("secret"), HashSHA256("secret"))
	assert.NotEqual(t, HashSHA256("secret"), HashSHA256("secret2"))

	// Known vector for the empty string.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashSHA256(""))

	assert.Len(t, HashSHA256("anything"), 64)
}
