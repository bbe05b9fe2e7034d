package security

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// salt = 0x00..0x0f, password "secret1"
const knownHash = "AAECAwQFBgcICQoLDA0OD9EysYFfMJJuuWdb7iHc2xSszPWuaQxRHUVv4HBLHN2b"

func TestHashPassword_RoundTrip(t *testing.T) {
	for _, pw := range []string{"secret1", "correct horse battery staple", "pässwörd✓", ""} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)

		assert.True(t, VerifyPassword(pw, hash), "password %q should verify", pw)
		assert.False(t, VerifyPassword(pw+"x", hash), "password %q+x should not verify", pw)
	}
}

func TestHashPassword_Encoding(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(hash)
	require.NoError(t, err)
	assert.Len(t, raw, saltLen+keyLen)
}

func TestHashPassword_RandomSalt(t *testing.T) {
	h1, err := HashPassword("secret1")
	require.NoError(t, err)
	h2, err := HashPassword("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword("secret1", h1))
	assert.True(t, VerifyPassword("secret1", h2))
}

func TestVerifyPassword_KnownVector(t *testing.T) {
	assert.True(t, VerifyPassword("secret1", knownHash))
	assert.False(t, VerifyPassword("secret2", knownHash))
}

func TestVerifyPassword_FailsClosed(t *testing.T) {
	short := base64.StdEncoding.EncodeToString(make([]byte, saltLen+keyLen-1))
	long := base64.StdEncoding.EncodeToString(make([]byte, saltLen+keyLen+1))

	for name, encoded := range map[string]string{
		"empty":      "",
		"not_base64": "%%%not-base64%%%",
		"too_short":  short,
		"too_long":   long,
		"bcrypt":     "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, VerifyPassword("secret1", encoded))
		})
	}
}
