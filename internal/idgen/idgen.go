// Package idgen produces short random identifiers for request tracing.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// Hex returns a random hex string covering numBytes of entropy, so the
// result is 2*numBytes characters long.
func Hex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		// rand.Read never fails on supported platforms.
		panic("idgen: " + err.Error())
	}
	return hex.EncodeToString(b)
}
