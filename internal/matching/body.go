package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BodyEquals matches when the request body is byte-identical to the expected
// content.
func BodyEquals(expected string) Matcher {
	return Func("body="+truncate(expected), func(_ *http.Request, body []byte) bool {
		return bytes.Equal(body, []byte(expected))
	})
}

// BodyContains matches when the request body contains the substring.
func BodyContains(substr string) Matcher {
	return Func("body contains "+truncate(substr), func(_ *http.Request, body []byte) bool {
		return bytes.Contains(body, []byte(substr))
	})
}

// BodyPattern matches the request body against a regular expression (RE2).
// Returns an error if the pattern does not compile.
func BodyPattern(pattern string) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid body pattern %q: %w", pattern, err)
	}
	return Func("body~/"+pattern+"/", func(_ *http.Request, body []byte) bool {
		return re.Match(body)
	}), nil
}

// BodyJSONSchema matches when the request body is JSON that validates
// against the given JSON Schema document. A body that is not valid JSON, or
// fails validation, is a non-match.
func BodyJSONSchema(schema string) (Matcher, error) {
	compiled, err := jsonschema.CompileString("rule-body.schema.json", schema)
	if err != nil {
		return nil, fmt.Errorf("invalid body schema: %w", err)
	}
	return Func("body valid against schema", func(_ *http.Request, body []byte) bool {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			return false
		}
		return compiled.Validate(doc) == nil
	}), nil
}

// truncate bounds matcher descriptions so violation reports stay readable
// when rules match on large bodies.
func truncate(s string) string {
	const max = 40
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
