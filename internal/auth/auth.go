package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewToken returns a fresh plaintext session token and its stored hash.
func NewToken() (token, hash string) {
	token = uuid.NewString()
	return token, HashToken(token)
}

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether tok hashes to hash.
func Matches(tok, hash string) bool {
	if tok == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(tok)), []byte(hash)) == 1
}

// BearerToken extracts the token from an "Authorization: Bearer <tok>" value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
