// Package hashutil computes the digests difftbx writes into package
// metadata records.
package hashutil

import (
	"crypto/sha256"
	"encoding/base64"
)

// Checksum returns the sha256 digest of content in the notation RECORD
// files use: urlsafe base64 without padding, prefixed with the algorithm
// name.
func Checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256=" + base64.RawURLEncoding.EncodeToString(sum[:])
}
