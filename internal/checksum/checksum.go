// Package checksum computes content digests: Sum for ETags and optimistic
// concurrency on note writes, Key for in-memory cache keys.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Key returns a fast non-cryptographic 64-bit hash of s.
func Key(s string) uint64 {
	return xxhash.Sum64String(s)
}
