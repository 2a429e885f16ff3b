package security

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

var tokenHashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// HashToken returns a SHA-256 hash of the token string, hex-encoded.
// Applied to both the signed access token and the opaque refresh token:
// only the hash is persisted, never the plaintext.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// IsTokenHash reports whether s already looks like a stored hash (64
// lowercase hex characters). Legacy rows hold raw token values instead.
func IsTokenHash(s string) bool {
	return tokenHashRe.MatchString(s)
}
