package matching

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// BodyJSONPath matches when the request body is JSON and every condition
// holds. Each key is a JSONPath expression ("$.user.name"); the value is the
// expected result. A value of map{"exists": true/false} is an existence
// check instead of a comparison. JSON numbers compare numerically, so an
// expected int matches a float64 decoded from the body.
//
// A body that fails to parse as JSON, or an invalid JSONPath expression, is
// a non-match — never an error.
func BodyJSONPath(conditions map[string]any) Matcher {
	return &jsonPathMatcher{conditions: conditions}
}

type jsonPathMatcher struct {
	conditions map[string]any
}

func (m *jsonPathMatcher) Matches(_ *http.Request, body []byte) bool {
	if len(m.conditions) == 0 {
		return false
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	for path, expected := range m.conditions {
		if !matchJSONPathCondition(path, expected, doc) {
			return false
		}
	}
	return true
}

func (m *jsonPathMatcher) Describe() string {
	paths := make([]string, 0, len(m.conditions))
	for p := range m.conditions {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return "body jsonpath " + strings.Join(paths, ",")
}

func matchJSONPathCondition(path string, expected, doc any) bool {
	expr, err := jp.ParseString(path)
	if err != nil {
		return false
	}
	results := expr.Get(doc)

	if wantExists, ok := existenceCheck(expected); ok {
		return wantExists == (len(results) > 0)
	}
	for _, got := range results {
		if jsonValuesEqual(got, expected) {
			return true
		}
	}
	return false
}

// existenceCheck reports whether expected is an {"exists": bool} condition
// and, if so, the desired presence.
func existenceCheck(expected any) (want, ok bool) {
	m, isMap := expected.(map[string]any)
	if !isMap || len(m) != 1 {
		return false, false
	}
	b, isBool := m["exists"].(bool)
	return b, isBool
}

// jsonValuesEqual compares a decoded JSON value against an expected value,
// coercing numeric types so that 42 matches float64(42).
func jsonValuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	an, aok := asFloat64(actual)
	en, eok := asFloat64(expected)
	if aok && eok {
		return an == en
	}
	return false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ValidateJSONPath validates a JSONPath expression at rule construction
// time. Returns an error if the expression is invalid.
func ValidateJSONPath(path string) error {
	if _, err := jp.ParseString(path); err != nil {
		return fmt.Errorf("invalid JSONPath expression %q: %w", path, err)
	}
	return nil
}
