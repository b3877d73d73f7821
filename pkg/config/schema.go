// Package config loads mock rules from YAML files for CLI use. A rule file
// holds either a single rule mapping, a sequence of rules, or a mapping with
// a top-level "rules" list; file contents pass through environment-variable
// expansion (${VAR} and ${VAR:-default}) before parsing.
package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/getstubd/stubd/pkg/rule"
)

// RuleConfig is the YAML schema for one mock rule.
type RuleConfig struct {
	// Match defines the request conditions; all listed conditions must
	// hold (AND). An empty match block matches every request.
	Match MatchConfig `yaml:"match,omitempty"`

	// Respond defines the canned response. Defaults to 200, empty body.
	Respond RespondConfig `yaml:"respond,omitempty"`

	// Expect constrains the rule's call count, verified at shutdown.
	// Absent means no constraint.
	Expect *ExpectConfig `yaml:"expect,omitempty"`
}

// MatchConfig holds the request-matching conditions of a rule.
type MatchConfig struct {
	// Method is the HTTP method to match (case-insensitive).
	Method string `yaml:"method,omitempty"`

	// Path is the URL path to match; supports path parameters like
	// /users/{id}.
	Path string `yaml:"path,omitempty"`

	// PathPrefix matches any path under the given prefix.
	PathPrefix string `yaml:"pathPrefix,omitempty"`

	// PathGlob is a glob path pattern with ** support ("/api/**").
	PathGlob string `yaml:"pathGlob,omitempty"`

	// PathPattern is a regex pattern for path matching.
	PathPattern string `yaml:"pathPattern,omitempty"`

	// Headers are required headers; values support "prefix*", "*suffix"
	// and "*middle*" wildcards.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Query are required query parameters.
	Query map[string]string `yaml:"query,omitempty"`

	// BodyEquals requires the body to equal the given string exactly.
	BodyEquals string `yaml:"bodyEquals,omitempty"`

	// BodyContains requires the body to contain the given substring.
	BodyContains string `yaml:"bodyContains,omitempty"`

	// BodyPattern is a regex the body must match.
	BodyPattern string `yaml:"bodyPattern,omitempty"`

	// BodyJSONPath maps JSONPath expressions to expected values over a
	// JSON body; {"exists": bool} values are existence checks.
	BodyJSONPath map[string]any `yaml:"bodyJSONPath,omitempty"`

	// BodySchema is a JSON Schema the body must validate against.
	BodySchema string `yaml:"bodySchema,omitempty"`

	// Expr is a boolean expression over {method, path, query, headers,
	// body}.
	Expr string `yaml:"expr,omitempty"`
}

// RespondConfig holds the response template of a rule.
type RespondConfig struct {
	// Status is the HTTP status code (default: 200).
	Status int `yaml:"status,omitempty"`

	// Headers are response headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Body is the response body as a literal string.
	Body string `yaml:"body,omitempty"`

	// BodyFile reads the response body from a file, resolved relative to
	// the rule file's directory.
	BodyFile string `yaml:"bodyFile,omitempty"`

	// JSON sets the response body to the JSON encoding of the value and
	// the Content-Type header to application/json.
	JSON any `yaml:"json,omitempty"`

	// Delay is a duration string ("50ms", "1s") to wait before
	// responding.
	Delay string `yaml:"delay,omitempty"`
}

// ExpectConfig holds a call-count expectation. Exactly wins over the range
// fields; min without max means at-least, max without min means at-most.
type ExpectConfig struct {
	Exactly *int `yaml:"exactly,omitempty"`
	Min     *int `yaml:"min,omitempty"`
	Max     *int `yaml:"max,omitempty"`
}

// ToRule converts the YAML schema to a runtime rule. Relative bodyFile
// paths resolve against baseDir.
func (c *RuleConfig) ToRule(baseDir string) (*rule.Rule, error) {
	b := rule.New()

	m := c.Match
	if m.Method != "" {
		b.Method(m.Method)
	}
	if m.Path != "" {
		if strings.Contains(m.Path, "{") {
			b.PathParams(m.Path)
		} else {
			b.Path(m.Path)
		}
	}
	if m.PathPrefix != "" {
		b.PathPrefix(m.PathPrefix)
	}
	if m.PathGlob != "" {
		b.PathGlob(m.PathGlob)
	}
	if m.PathPattern != "" {
		b.PathPattern(m.PathPattern)
	}
	for _, name := range sortedKeys(m.Headers) {
		b.HeaderMatch(name, m.Headers[name])
	}
	for _, name := range sortedKeys(m.Query) {
		b.QueryMatch(name, m.Query[name])
	}
	if m.BodyEquals != "" {
		b.BodyEquals(m.BodyEquals)
	}
	if m.BodyContains != "" {
		b.BodyContains(m.BodyContains)
	}
	if m.BodyPattern != "" {
		b.BodyPattern(m.BodyPattern)
	}
	if len(m.BodyJSONPath) > 0 {
		b.BodyJSONPath(m.BodyJSONPath)
	}
	if m.BodySchema != "" {
		b.BodyJSONSchema(m.BodySchema)
	}
	if m.Expr != "" {
		b.MatchExpr(m.Expr)
	}

	resp := c.Respond
	if resp.Status != 0 {
		b.Status(resp.Status)
	}
	for _, name := range sortedKeys(resp.Headers) {
		b.Header(name, resp.Headers[name])
	}
	switch {
	case resp.BodyFile != "":
		data, err := os.ReadFile(ResolvePath(baseDir, resp.BodyFile))
		if err != nil {
			return nil, fmt.Errorf("respond.bodyFile: %w", err)
		}
		b.BodyBytes(data)
	case resp.JSON != nil:
		b.JSON(resp.JSON)
	case resp.Body != "":
		b.Body(resp.Body)
	}
	if resp.Delay != "" {
		d, err := time.ParseDuration(resp.Delay)
		if err != nil {
			return nil, fmt.Errorf("respond.delay %q: %w", resp.Delay, err)
		}
		b.Delay(int(d.Milliseconds()))
	}

	if c.Expect != nil {
		switch {
		case c.Expect.Exactly != nil:
			b.Times(*c.Expect.Exactly)
		case c.Expect.Min != nil && c.Expect.Max != nil:
			b.Between(*c.Expect.Min, *c.Expect.Max)
		case c.Expect.Min != nil:
			b.AtLeast(*c.Expect.Min)
		case c.Expect.Max != nil:
			b.AtMost(*c.Expect.Max)
		}
	}

	return b.Build()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}
