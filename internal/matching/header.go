package matching

import (
	"net/http"
	"strings"
)

// Header matches a request header value. Header names are case-insensitive
// per the HTTP spec. The expected value supports simple single-wildcard
// patterns: "prefix*", "*suffix", "*middle*" and "pre*fix".
func Header(name, value string) Matcher {
	return Func("header "+name+"="+value, func(r *http.Request, _ []byte) bool {
		return matchValuePattern(value, r.Header.Get(name))
	})
}

// HeaderPresent matches when a request header is set, regardless of value.
func HeaderPresent(name string) Matcher {
	return Func("header "+name+" present", func(r *http.Request, _ []byte) bool {
		return r.Header.Get(name) != ""
	})
}

// Query matches a query parameter value exactly.
func Query(name, value string) Matcher {
	return Func("query "+name+"="+value, func(r *http.Request, _ []byte) bool {
		return r.URL.Query().Get(name) == value
	})
}

// QueryPresent matches when a query parameter exists, regardless of value.
func QueryPresent(name string) Matcher {
	return Func("query "+name+" present", func(r *http.Request, _ []byte) bool {
		_, ok := r.URL.Query()[name]
		return ok
	})
}

// matchValuePattern matches an actual value against a pattern holding at
// most one "*" wildcard, in leading, trailing or interior position. A
// pattern without "*" requires equality.
func matchValuePattern(pattern, actual string) bool {
	if actual == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return actual == pattern
	}

	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(actual, strings.Trim(pattern, "*"))
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(actual, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(actual, strings.TrimPrefix(pattern, "*"))
	}

	// Interior wildcard, e.g. "application/*json". The length check keeps
	// the prefix and suffix from overlapping in the actual value.
	prefix, suffix, _ := strings.Cut(pattern, "*")
	return len(actual) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(actual, prefix) &&
		strings.HasSuffix(actual, suffix)
}
