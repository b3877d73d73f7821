package matching

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Path matches the URL path exactly.
func Path(path string) Matcher {
	return Func("path="+path, func(r *http.Request, _ []byte) bool {
		return r.URL.Path == path
	})
}

// PathPrefix matches any URL path beginning with the given prefix.
func PathPrefix(prefix string) Matcher {
	return Func("path^="+prefix, func(r *http.Request, _ []byte) bool {
		return strings.HasPrefix(r.URL.Path, prefix)
	})
}

// PathGlob matches the URL path against a glob pattern with ** support,
// e.g. "/api/*/items" or "/api/**". Segment separator is "/".
// An invalid pattern never matches.
func PathGlob(pattern string) Matcher {
	return Func("path~glob:"+pattern, func(r *http.Request, _ []byte) bool {
		ok, err := doublestar.Match(pattern, r.URL.Path)
		return err == nil && ok
	})
}

// PathParams matches a path template with {name} segments, e.g.
// "/users/{id}". A template segment matches any single path segment.
func PathParams(template string) Matcher {
	return Func("path~"+template, func(r *http.Request, _ []byte) bool {
		return matchPathTemplate(template, r.URL.Path)
	})
}

// PathPattern matches the URL path against a regular expression (RE2).
// Returns an error if the pattern does not compile.
func PathPattern(pattern string) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid path pattern %q: %w", pattern, err)
	}
	return Func("path~/"+pattern+"/", func(r *http.Request, _ []byte) bool {
		return re.MatchString(r.URL.Path)
	}), nil
}

// PathCaptures extracts {name} template variables from a path.
// Example: template "/users/{id}" with path "/users/123" yields {"id": "123"}.
// Returns nil if the path does not match the template.
func PathCaptures(template, path string) map[string]string {
	if !matchPathTemplate(template, path) {
		return nil
	}
	tparts := splitPath(template)
	pparts := splitPath(path)
	captures := make(map[string]string)
	for i, tp := range tparts {
		if isTemplateSegment(tp) {
			captures[tp[1:len(tp)-1]] = pparts[i]
		}
	}
	return captures
}

func matchPathTemplate(template, path string) bool {
	tparts := splitPath(template)
	pparts := splitPath(path)
	if len(tparts) != len(pparts) {
		return false
	}
	for i, tp := range tparts {
		if isTemplateSegment(tp) {
			continue
		}
		if tp != pparts[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func isTemplateSegment(s string) bool {
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}
