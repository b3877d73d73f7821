package rule

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getstubd/stubd/internal/matching"
)

// Builder assembles rules with a fluent API. Match conditions accumulate
// with AND semantics; errors from invalid patterns or expressions are
// recorded and surfaced by Build (first error wins).
//
//	r, err := rule.New().
//	    Method("POST").
//	    Path("/api/orders").
//	    HeaderMatch("Content-Type", "application/json").
//	    Status(201).
//	    JSON(map[string]any{"id": 1}).
//	    Times(1).
//	    Build()
type Builder struct {
	rule Rule
	err  error
}

// New creates a rule builder. Without further configuration the rule matches
// every request, responds 200 with an empty body, and carries no call-count
// constraint.
func New() *Builder {
	return &Builder{
		rule: Rule{
			Response: Response{StatusCode: http.StatusOK},
			Expect:   AnyCount(),
		},
	}
}

// setError records the first error encountered during building.
func (b *Builder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) match(m matching.Matcher) *Builder {
	b.rule.Matchers = append(b.rule.Matchers, m)
	return b
}

// Method adds an HTTP method condition (case-insensitive).
func (b *Builder) Method(method string) *Builder {
	return b.match(matching.Method(method))
}

// Path adds an exact URL path condition.
func (b *Builder) Path(path string) *Builder {
	return b.match(matching.Path(path))
}

// PathPrefix adds a URL path prefix condition.
func (b *Builder) PathPrefix(prefix string) *Builder {
	return b.match(matching.PathPrefix(prefix))
}

// PathGlob adds a glob path condition with ** support ("/api/**").
func (b *Builder) PathGlob(pattern string) *Builder {
	return b.match(matching.PathGlob(pattern))
}

// PathParams adds a template path condition ("/users/{id}").
func (b *Builder) PathParams(template string) *Builder {
	return b.match(matching.PathParams(template))
}

// PathPattern adds a regular-expression path condition.
func (b *Builder) PathPattern(pattern string) *Builder {
	m, err := matching.PathPattern(pattern)
	if err != nil {
		b.setError(fmt.Errorf("PathPattern: %w", err))
		return b
	}
	return b.match(m)
}

// HeaderMatch adds a header condition. The value supports "prefix*",
// "*suffix" and "*middle*" wildcards.
func (b *Builder) HeaderMatch(name, value string) *Builder {
	return b.match(matching.Header(name, value))
}

// QueryMatch adds a query-parameter condition.
func (b *Builder) QueryMatch(name, value string) *Builder {
	return b.match(matching.Query(name, value))
}

// BodyEquals adds an exact body condition.
func (b *Builder) BodyEquals(body string) *Builder {
	return b.match(matching.BodyEquals(body))
}

// BodyContains adds a body substring condition.
func (b *Builder) BodyContains(substr string) *Builder {
	return b.match(matching.BodyContains(substr))
}

// BodyPattern adds a body regular-expression condition.
func (b *Builder) BodyPattern(pattern string) *Builder {
	m, err := matching.BodyPattern(pattern)
	if err != nil {
		b.setError(fmt.Errorf("BodyPattern: %w", err))
		return b
	}
	return b.match(m)
}

// BodyJSONPath adds JSONPath conditions over a JSON body. Keys are JSONPath
// expressions, values the expected results; {"exists": bool} values are
// existence checks.
func (b *Builder) BodyJSONPath(conditions map[string]any) *Builder {
	for path := range conditions {
		if err := matching.ValidateJSONPath(path); err != nil {
			b.setError(fmt.Errorf("BodyJSONPath: %w", err))
			return b
		}
	}
	return b.match(matching.BodyJSONPath(conditions))
}

// BodyJSONSchema requires the body to validate against a JSON Schema.
func (b *Builder) BodyJSONSchema(schema string) *Builder {
	m, err := matching.BodyJSONSchema(schema)
	if err != nil {
		b.setError(fmt.Errorf("BodyJSONSchema: %w", err))
		return b
	}
	return b.match(m)
}

// MatchExpr adds an expr-lang boolean expression condition over
// {method, path, query, headers, body}.
func (b *Builder) MatchExpr(src string) *Builder {
	m, err := matching.Expr(src)
	if err != nil {
		b.setError(fmt.Errorf("MatchExpr: %w", err))
		return b
	}
	return b.match(m)
}

// MatchFunc adds a custom condition. Panics during evaluation are treated as
// a non-match by the server, never propagated.
func (b *Builder) MatchFunc(desc string, fn func(r *http.Request, body []byte) bool) *Builder {
	return b.match(matching.Func(desc, fn))
}

// Status sets the response status code. Default is 200.
func (b *Builder) Status(code int) *Builder {
	b.rule.Response.StatusCode = code
	return b
}

// Header sets a response header.
func (b *Builder) Header(name, value string) *Builder {
	if b.rule.Response.Headers == nil {
		b.rule.Response.Headers = make(map[string]string)
	}
	b.rule.Response.Headers[name] = value
	return b
}

// Body sets the response body.
func (b *Builder) Body(body string) *Builder {
	b.rule.Response.Body = []byte(body)
	return b
}

// BodyBytes sets the response body from raw bytes.
func (b *Builder) BodyBytes(body []byte) *Builder {
	b.rule.Response.Body = body
	return b
}

// JSON sets the response body to the JSON encoding of v and the
// Content-Type header to application/json.
func (b *Builder) JSON(v any) *Builder {
	data, err := json.Marshal(v)
	if err != nil {
		b.setError(fmt.Errorf("JSON: failed to marshal body: %w", err))
		return b
	}
	b.rule.Response.Body = data
	return b.Header("Content-Type", "application/json")
}

// Delay delays the response by the given number of milliseconds.
func (b *Builder) Delay(ms int) *Builder {
	b.rule.Response.DelayMs = ms
	return b
}

// Times requires the rule to be called exactly n times.
func (b *Builder) Times(n int) *Builder {
	b.rule.Expect = Exactly(n)
	return b
}

// AtLeast requires the rule to be called n or more times.
func (b *Builder) AtLeast(n int) *Builder {
	b.rule.Expect = AtLeast(n)
	return b
}

// AtMost requires the rule to be called no more than n times.
func (b *Builder) AtMost(n int) *Builder {
	b.rule.Expect = AtMost(n)
	return b
}

// Between requires the call count to fall in [min, max].
func (b *Builder) Between(min, max int) *Builder {
	b.rule.Expect = Between(min, max)
	return b
}

// Build returns the assembled rule, or the first error recorded while
// building.
func (b *Builder) Build() (*Rule, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := b.rule
	return &r, nil
}

// MustBuild is Build that panics on error, for test setup where an invalid
// rule is a programming mistake.
func (b *Builder) MustBuild() *Rule {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}
