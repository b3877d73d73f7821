package matching

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr matches requests against an expr-lang boolean expression, compiled
// once at construction. The expression environment exposes:
//
//	method  string              — HTTP method, upper case
//	path    string              — URL path
//	query   map[string]string   — first value per query parameter
//	headers map[string]string   — first value per header, canonical keys
//	body    string              — request body
//
// Example: `method == "POST" && path startsWith "/api/" && body contains "id"`.
//
// Returns an error if the expression does not compile or is not boolean.
func Expr(src string) (Matcher, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv(nil, nil)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid match expression %q: %w", src, err)
	}
	return &exprMatcher{src: src, program: program}, nil
}

type exprMatcher struct {
	src     string
	program *vm.Program
}

func (m *exprMatcher) Matches(r *http.Request, body []byte) bool {
	out, err := expr.Run(m.program, exprEnv(r, body))
	if err != nil {
		return false
	}
	matched, ok := out.(bool)
	return ok && matched
}

func (m *exprMatcher) Describe() string {
	return "expr(" + m.src + ")"
}

// exprEnv builds the expression environment for a request. With a nil
// request it returns the zero-valued environment used for type checking at
// compile time.
func exprEnv(r *http.Request, body []byte) map[string]any {
	env := map[string]any{
		"method":  "",
		"path":    "",
		"query":   map[string]string{},
		"headers": map[string]string{},
		"body":    "",
	}
	if r == nil {
		return env
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}
	headers := make(map[string]string)
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	env["method"] = strings.ToUpper(r.Method)
	env["path"] = r.URL.Path
	env["query"] = query
	env["headers"] = headers
	env["body"] = string(body)
	return env
}
