package utils

import (
	"crypto/md5"
	"fmt"
)

// RequestHasher provides consistent request-identity hashing across the
// application. The canonical form of a request hashes to the same value no
// matter where the hash is computed.
type RequestHasher struct{}

// NewRequestHasher creates a new request hasher instance.
func NewRequestHasher() *RequestHasher {
	return &RequestHasher{}
}

// CalculateRequestHash generates a consistent MD5 hash for a canonical
// request string. This is the single source of truth for request identity.
func (h *RequestHasher) CalculateRequestHash(canonical string) string {
	if canonical == "" {
		return ""
	}

	hash := md5.Sum([]byte(canonical))
	return fmt.Sprintf("%x", hash)
}

// CalculateRequestHashShort generates a short hash (first 8 characters),
// useful for logging and file names.
func (h *RequestHasher) CalculateRequestHashShort(canonical string) string {
	fullHash := h.CalculateRequestHash(canonical)
	if len(fullHash) >= 8 {
		return fullHash[:8]
	}
	return fullHash
}

// Global instance for convenience
var globalHasher = NewRequestHasher()

// CalculateRequestHash is a convenience function that uses the global hasher.
func CalculateRequestHash(canonical string) string {
	return globalHasher.CalculateRequestHash(canonical)
}

// CalculateRequestHashShort is a convenience function that uses the global hasher.
func CalculateRequestHashShort(canonical string) string {
	return globalHasher.CalculateRequestHashShort(canonical)
}
