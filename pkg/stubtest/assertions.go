package stubtest

import (
	"encoding/json"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/getstubd/stubd/pkg/requestlog"
)

// Recorded wraps a request-log entry with assertion helpers.
type Recorded struct {
	Entry *requestlog.Entry
}

// AssertMethod asserts the request's HTTP method.
func (r *Recorded) AssertMethod(t testing.TB, expected string) {
	t.Helper()

	if !strings.EqualFold(r.Entry.Method, expected) {
		t.Errorf("request method does not match\nexpected: %s\nactual: %s",
			expected, r.Entry.Method)
	}
}

// AssertPath asserts the request's URL path.
func (r *Recorded) AssertPath(t testing.TB, expected string) {
	t.Helper()

	if r.Entry.Path != expected {
		t.Errorf("request path does not match\nexpected: %s\nactual: %s",
			expected, r.Entry.Path)
	}
}

// AssertBody asserts that the request body exactly matches the expected
// string.
func (r *Recorded) AssertBody(t testing.TB, expected string) {
	t.Helper()

	if string(r.Entry.Body) != expected {
		t.Errorf("request body does not match\nexpected: %q\nactual: %q",
			expected, r.Entry.Body)
	}
}

// AssertBodyContains asserts that the request body contains the substring.
func (r *Recorded) AssertBodyContains(t testing.TB, substr string) {
	t.Helper()

	if !strings.Contains(string(r.Entry.Body), substr) {
		t.Errorf("request body does not contain %q\nbody: %s", substr, r.Entry.Body)
	}
}

// AssertJSONBody asserts that the request body matches the expected JSON.
// The expected value can be a string, []byte, or any value that will be
// JSON encoded for comparison.
func (r *Recorded) AssertJSONBody(t testing.TB, expected any) {
	t.Helper()

	var expectedJSON, actualJSON any

	switch v := expected.(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	case []byte:
		if err := json.Unmarshal(v, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Errorf("failed to marshal expected value: %v", err)
			return
		}
		if err := json.Unmarshal(data, &expectedJSON); err != nil {
			t.Errorf("failed to parse expected JSON: %v", err)
			return
		}
	}

	if err := json.Unmarshal(r.Entry.Body, &actualJSON); err != nil {
		t.Errorf("request body is not valid JSON: %v\nbody: %s", err, r.Entry.Body)
		return
	}

	if !reflect.DeepEqual(actualJSON, expectedJSON) {
		expectedBytes, _ := json.MarshalIndent(expectedJSON, "", "  ")
		actualBytes, _ := json.MarshalIndent(actualJSON, "", "  ")
		t.Errorf("request body does not match expected JSON\nexpected:\n%s\nactual:\n%s",
			expectedBytes, actualBytes)
	}
}

// AssertHeader asserts that the request carried the header with the
// expected value. Header name comparison is case-insensitive.
func (r *Recorded) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	for name, values := range r.Entry.Headers {
		if !strings.EqualFold(name, key) {
			continue
		}
		for _, v := range values {
			if v == expected {
				return
			}
		}
		t.Errorf("header %s does not match\nexpected: %q\nactual: %q",
			key, expected, values)
		return
	}
	t.Errorf("header %s not present in request", key)
}

// AssertQueryParam asserts that the request's query string carried the
// parameter with the expected value.
func (r *Recorded) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params, err := url.ParseQuery(r.Entry.QueryString)
	if err != nil {
		t.Errorf("failed to parse query string %q: %v", r.Entry.QueryString, err)
		return
	}
	if !params.Has(key) {
		t.Errorf("query parameter %s not present in request", key)
		return
	}
	if got := params.Get(key); got != expected {
		t.Errorf("query parameter %s does not match\nexpected: %q\nactual: %q",
			key, expected, got)
	}
}

// AssertMatched asserts that the request was answered by the given rule.
func (r *Recorded) AssertMatched(t testing.TB, ruleID string) {
	t.Helper()

	if r.Entry.MatchedRuleID != ruleID {
		t.Errorf("request matched rule %q, expected %q", r.Entry.MatchedRuleID, ruleID)
	}
}

// AssertUnmatched asserts that the request fell through to the 404 default.
func (r *Recorded) AssertUnmatched(t testing.TB) {
	t.Helper()

	if r.Entry.MatchedRuleID != "" {
		t.Errorf("request unexpectedly matched rule %q", r.Entry.MatchedRuleID)
	}
}
