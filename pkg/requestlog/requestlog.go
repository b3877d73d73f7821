// Package requestlog records every request received by the mock server for
// later inspection by the test harness.
package requestlog

import (
	"time"
)

// Entry is an immutable snapshot of a received request, captured atomically
// at receipt time. Entries are never mutated after creation.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request arrived.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value, case-insensitive keys
	// stored in canonical form).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the raw request body.
	Body []byte `json:"body,omitempty"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr,omitempty"`

	// MatchedRuleID is the id of the rule that responded, empty if the
	// request fell through to the default response.
	MatchedRuleID string `json:"matchedRuleId,omitempty"`

	// ResponseStatus is the HTTP status returned.
	ResponseStatus int `json:"responseStatus"`
}

// Store is the interface for request history storage.
type Store interface {
	// Append records an entry. Entries appear in List in append order.
	Append(e *Entry)

	// List returns a snapshot of all entries. The returned slice is a copy:
	// appends after the call are not observable through it.
	List() []*Entry

	// Get retrieves an entry by ID. Returns nil if not found.
	Get(id string) *Entry

	// Count returns the number of stored entries.
	Count() int

	// Clear removes all entries.
	Clear()
}
