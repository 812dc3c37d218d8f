// Package pii derives stable, non-reversible references to identity numbers
// for logs and audit events.
package pii

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Hasher computes keyed BLAKE2b-256 digests.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher keyed with key. Keys longer than 64 bytes are
// truncated; BLAKE2b accepts at most 64.
func NewHasher(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Hasher{key: k}
}

// Hash returns the hex digest of value with whitespace removed, so
// "1234 5678 9012" and "123456789012" hash alike. Empty input hashes to "".
func (h *Hasher) Hash(value string) string {
	normalized := strings.Join(strings.Fields(value), "")
	if normalized == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// only reachable with an oversized key, which NewHasher prevents
		return ""
	}
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}
