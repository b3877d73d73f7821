package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseRulesSingleMapping(t *testing.T) {
	rules, err := ParseRules([]byte(`
match:
  method: GET
  path: /users/{id}
respond:
  status: 200
  body: hello
expect:
  exactly: 2
`))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "GET", rules[0].Match.Method)
	assert.Equal(t, "/users/{id}", rules[0].Match.Path)
	assert.Equal(t, "hello", rules[0].Respond.Body)
	require.NotNil(t, rules[0].Expect)
	require.NotNil(t, rules[0].Expect.Exactly)
	assert.Equal(t, 2, *rules[0].Expect.Exactly)
}

func TestParseRulesSequence(t *testing.T) {
	rules, err := ParseRules([]byte(`
- match:
    path: /a
- match:
    path: /b
  respond:
    status: 503
`))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "/a", rules[0].Match.Path)
	assert.Equal(t, 503, rules[1].Respond.Status)
}

func TestParseRulesWrapper(t *testing.T) {
	rules, err := ParseRules([]byte(`
rules:
  - match:
      pathGlob: /api/**
    respond:
      status: 201
`))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "/api/**", rules[0].Match.PathGlob)
}

func TestParseRulesInvalid(t *testing.T) {
	_, err := ParseRules([]byte(`{`))
	assert.Error(t, err)

	_, err = ParseRules([]byte(``))
	assert.Error(t, err)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	empty := writeFile(t, t.TempDir(), "empty.yaml", "")
	_, err = LoadFile(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file is empty")
}

func TestLoadFileEnvExpansion(t *testing.T) {
	t.Setenv("STUBD_TEST_STATUS", "418")

	path := writeFile(t, t.TempDir(), "rule.yaml", `
match:
  path: /tea
respond:
  status: ${STUBD_TEST_STATUS}
  body: ${STUBD_TEST_MISSING:-fallback}
`)
	rules, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 418, rules[0].Respond.Status)
	assert.Equal(t, "fallback", rules[0].Respond.Body)
}

func TestLoadGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rules/b.yaml", "match:\n  path: /b\n")
	writeFile(t, dir, "rules/a.yaml", "match:\n  path: /a\n")
	writeFile(t, dir, "rules/nested/c.yaml", "match:\n  path: /c\n")

	rules, err := LoadGlob(filepath.Join(dir, "rules", "*.yaml"))
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "/a", rules[0].Match.Path)
	assert.Equal(t, "/b", rules[1].Match.Path)

	rules, err = LoadGlob(filepath.Join(dir, "**", "*.yaml"))
	require.NoError(t, err)
	assert.Len(t, rules, 3)

	rules, err = LoadGlob(filepath.Join(dir, "none", "*.yaml"))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestToRuleMatchingAndResponse(t *testing.T) {
	rules, err := ParseRules([]byte(`
match:
  method: POST
  path: /api/orders
  headers:
    Content-Type: application/json
  bodyContains: widget
respond:
  status: 201
  headers:
    X-Store: main
  json:
    id: 1
expect:
  min: 1
  max: 3
`))
	require.NoError(t, err)

	r, err := rules[0].ToRule("")
	require.NoError(t, err)

	assert.Equal(t, 201, r.Response.StatusCode)
	assert.Equal(t, "main", r.Response.Headers["X-Store"])
	assert.Equal(t, "application/json", r.Response.Headers["Content-Type"])
	assert.JSONEq(t, `{"id":1}`, string(r.Response.Body))
	assert.Equal(t, 1, r.Expect.Min)
	assert.Equal(t, 3, r.Expect.Max)

	req := httptest.NewRequest(http.MethodPost, "/api/orders",
		strings.NewReader(`{"item":"widget"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.True(t, r.Matcher().Matches(req, []byte(`{"item":"widget"}`)))

	miss := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	assert.False(t, r.Matcher().Matches(miss, nil))
}

func TestToRulePathParams(t *testing.T) {
	cfg := RuleConfig{Match: MatchConfig{Path: "/users/{id}"}}
	r, err := cfg.ToRule("")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	assert.True(t, r.Matcher().Matches(req, nil))
	req = httptest.NewRequest(http.MethodGet, "/users/42/posts", nil)
	assert.False(t, r.Matcher().Matches(req, nil))
}

func TestToRuleBodyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payload.json", `{"ok":true}`)

	cfg := RuleConfig{Respond: RespondConfig{BodyFile: "payload.json"}}
	r, err := cfg.ToRule(dir)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), r.Response.Body)

	cfg = RuleConfig{Respond: RespondConfig{BodyFile: "missing.json"}}
	_, err = cfg.ToRule(dir)
	assert.Error(t, err)
}

func TestToRuleDelay(t *testing.T) {
	cfg := RuleConfig{Respond: RespondConfig{Delay: "250ms"}}
	r, err := cfg.ToRule("")
	require.NoError(t, err)
	assert.Equal(t, 250, r.Response.DelayMs)

	cfg = RuleConfig{Respond: RespondConfig{Delay: "soon"}}
	_, err = cfg.ToRule("")
	assert.Error(t, err)
}

func TestToRuleExpectations(t *testing.T) {
	two, five := 2, 5

	tests := []struct {
		name     string
		expect   *ExpectConfig
		min, max int
	}{
		{"absent means any count", nil, 0, -1},
		{"exactly", &ExpectConfig{Exactly: &two}, 2, 2},
		{"at least", &ExpectConfig{Min: &two}, 2, -1},
		{"at most", &ExpectConfig{Max: &five}, 0, 5},
		{"range", &ExpectConfig{Min: &two, Max: &five}, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RuleConfig{Expect: tt.expect}
			r, err := cfg.ToRule("")
			require.NoError(t, err)
			assert.Equal(t, tt.min, r.Expect.Min)
			assert.Equal(t, tt.max, r.Expect.Max)
		})
	}
}

func TestToRuleInvalidPattern(t *testing.T) {
	cfg := RuleConfig{Match: MatchConfig{PathPattern: "["}}
	_, err := cfg.ToRule("")
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/abs/file", ResolvePath("/base", "/abs/file"))
	assert.Equal(t, filepath.Join("/base", "rel"), ResolvePath("/base", "rel"))
	assert.Equal(t, "", ResolvePath("/base", ""))
}
