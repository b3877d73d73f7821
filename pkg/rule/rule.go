// Package rule defines the unit of programmable behavior for the mock
// server: a set of request matchers bound to a canned response and a
// call-count expectation.
package rule

import (
	"github.com/getstubd/stubd/internal/matching"
)

// Scope is the lifetime policy of a mounted rule.
type Scope string

const (
	// ScopeGlobal rules live until the server stops; their expectations are
	// verified during shutdown.
	ScopeGlobal Scope = "global"

	// ScopeScoped rules live until their scope guard is released; release
	// unmounts the rule and verifies its expectation immediately.
	ScopeScoped Scope = "scoped"
)

// Response is the canned HTTP response returned when a rule matches.
// Immutable once the rule is mounted.
type Response struct {
	// StatusCode is the HTTP status to return.
	StatusCode int

	// Headers are set verbatim on the response.
	Headers map[string]string

	// Body is written as the response body.
	Body []byte

	// DelayMs delays the response by the given number of milliseconds,
	// simulating a slow upstream.
	DelayMs int
}

// Rule binds matchers (AND-combined) to a response and an expectation.
// A Rule is a definition: identity and the call counter are assigned when it
// is mounted on a server.
type Rule struct {
	// Matchers are AND-combined; all must match for the rule to respond.
	// An empty set matches every request.
	Matchers []matching.Matcher

	// Response is returned when the rule is selected.
	Response Response

	// Expect is the required call-count range, checked at verification.
	// The Expectation zero value means "exactly zero calls"; when
	// constructing a Rule literal directly, set AnyCount() explicitly for
	// the unconstrained default the builder applies.
	Expect Expectation
}

// Matcher returns the AND-combination of the rule's matchers.
func (r *Rule) Matcher() matching.Matcher {
	return matching.And(r.Matchers...)
}

// Describe returns a human-readable description of the rule's match
// conditions, used in violation reports.
func (r *Rule) Describe() string {
	return r.Matcher().Describe()
}
