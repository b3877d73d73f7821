// Package id provides unique identifier generation utilities.
// This is the canonical source for ID generation across the codebase.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// New generates a UUID v4 string.
func New() string {
	return uuid.NewString()
}

// Rule generates an identifier for a mounted rule.
// Format: "rule-" followed by a UUID v4.
func Rule() string {
	return "rule-" + uuid.NewString()
}

// Entry generates an identifier for a request log entry.
// Format: "req-" followed by a UUID v4.
func Entry() string {
	return "req-" + uuid.NewString()
}

// Short generates a short random hex ID (16 characters).
// Suitable for user-facing IDs where brevity matters.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// IsRule reports whether s looks like an identifier produced by Rule.
func IsRule(s string) bool {
	if !strings.HasPrefix(s, "rule-") {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(s, "rule-"))
	return err == nil
}
