package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRun returns a short identifier stamped on every log line, span, and
// webhook payload a run produces.
func NewRun() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "run-fallback-id"
	}
	return "run-" + hex.EncodeToString(b[:])
}
