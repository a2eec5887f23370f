package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyPrefix starts every key so they are recognisable in logs and can be
	// rejected without hashing when malformed.
	KeyPrefix = "csk_live_"

	secretBytes      = 16
	displayPrefixLen = 16
)

// GenerateKey returns a new random key: KeyPrefix followed by 32 hex chars.
func GenerateKey() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}

// HasKeyPrefix is the cheap shape check done before any hashing.
func HasKeyPrefix(candidate string) bool {
	return strings.HasPrefix(candidate, KeyPrefix) && len(candidate) > len(KeyPrefix)
}

// DisplayPrefix is the non-secret part of key shown in listings.
func DisplayPrefix(key string) string {
	if len(key) <= displayPrefixLen {
		return key
	}
	return key[:displayPrefixLen]
}

// digest normalises any key to 64 bytes, inside bcrypt's 72-byte input limit.
func digest(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}

// HashKey returns the value stored for key.
func HashKey(key string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword(digest(key), cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash API key")
	}
	return string(h), nil
}

// CompareKey reports whether candidate hashes to hash.
func CompareKey(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(candidate)) == nil
}
