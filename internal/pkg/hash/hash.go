// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// ArtifactID generates a deterministic artifact ID from model name, version,
// and the content hash of its serialized bytes.
func ArtifactID(name, version, contentHash string) string {
	return SHA256Short([]byte(name+":"+version+":"+contentHash), 16)
}

// RecordID generates a deterministic record ID from query ID, URL, and row index.
func RecordID(queryID, url string, row int) string {
	return SHA256Short([]byte(fmt.Sprintf("%s:%s:%d", queryID, url, row)), 16)
}
