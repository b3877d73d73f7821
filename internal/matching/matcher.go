// Package matching provides composable request matchers for mock rules.
//
// A Matcher is a predicate over an incoming HTTP request. Matchers are pure
// with respect to server state: they may read request fields and the
// pre-captured body, nothing else. Evaluation is fail-closed — a matcher that
// panics while inspecting a request is treated as a non-match by Evaluate.
package matching

import (
	"fmt"
	"net/http"
	"strings"
)

// Matcher decides whether an incoming request satisfies a condition.
type Matcher interface {
	// Matches reports whether the request satisfies the condition.
	// The body is captured once by the caller; implementations must not
	// consume r.Body.
	Matches(r *http.Request, body []byte) bool

	// Describe returns a short human-readable description of the condition,
	// used in expectation violation reports.
	Describe() string
}

// Evaluate runs m against the request, converting any panic into a non-match.
// All rule selection goes through this so that a misbehaving matcher can
// never surface as a request-level error.
func Evaluate(m Matcher, r *http.Request, body []byte) (matched bool) {
	if m == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return m.Matches(r, body)
}

// Func adapts a plain function into a Matcher. The description is used in
// violation reports; keep it short.
func Func(desc string, fn func(r *http.Request, body []byte) bool) Matcher {
	return &funcMatcher{desc: desc, fn: fn}
}

type funcMatcher struct {
	desc string
	fn   func(r *http.Request, body []byte) bool
}

func (m *funcMatcher) Matches(r *http.Request, body []byte) bool { return m.fn(r, body) }
func (m *funcMatcher) Describe() string                          { return m.desc }

// And combines matchers with logical AND. All must match. And of zero
// matchers matches every request (the catch-all used by default rules).
func And(ms ...Matcher) Matcher {
	return conjunction(ms)
}

type conjunction []Matcher

func (c conjunction) Matches(r *http.Request, body []byte) bool {
	for _, m := range c {
		if !Evaluate(m, r, body) {
			return false
		}
	}
	return true
}

func (c conjunction) Describe() string {
	if len(c) == 0 {
		return "any request"
	}
	parts := make([]string, len(c))
	for i, m := range c {
		parts[i] = m.Describe()
	}
	return strings.Join(parts, " AND ")
}

// Any matches every request. Useful as the sole matcher of a fallback rule.
func Any() Matcher {
	return Func("any request", func(*http.Request, []byte) bool { return true })
}

// Method matches the HTTP method, case-insensitively.
func Method(method string) Matcher {
	return Func(fmt.Sprintf("method=%s", strings.ToUpper(method)),
		func(r *http.Request, _ []byte) bool {
			return strings.EqualFold(method, r.Method)
		})
}
