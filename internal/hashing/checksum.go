// Package hashing computes the content checksum used as the dedup key.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes raw document text before hashing and chunking:
// Windows line endings become "\n" and leading/trailing whitespace is
// trimmed. Two fetches of the same content must normalize identically or
// dedup breaks.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}

// Checksum returns the hex-encoded SHA-256 digest of the normalized text.
func Checksum(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
