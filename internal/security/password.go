package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Encoded hashes are base64(salt || key). The layout and parameters are fixed:
// changing any of them invalidates every stored hash.
const (
	saltLen    = 16
	keyLen     = 32
	iterations = 10000
	encodedLen = saltLen + keyLen
)

// HashPassword derives a PBKDF2-SHA256 key from plain with a fresh random salt.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, saltLen)

	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(plain, salt)

	out := make([]byte, 0, encodedLen)
	out = append(out, salt...)
	out = append(out, key...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// VerifyPassword reports whether plain matches encoded. Malformed hashes never match.
func VerifyPassword(plain, encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != encodedLen {
		return false
	}

	salt, want := raw[:saltLen], raw[saltLen:]
	got := deriveKey(plain, salt)

	return subtle.ConstantTimeCompare(got, want) == 1
}

func deriveKey(plain string, salt []byte) []byte {
	return pbkdf2.Key([]byte(plain), salt, iterations, keyLen, sha256.New)
}
