package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		name    string
		match   string
		pattern string
		header  string
		value   string
		want    bool
	}{
		{name: "exact match", match: "Content-Type", pattern: "application/json", header: "Content-Type", value: "application/json", want: true},
		{name: "case-insensitive name", match: "content-type", pattern: "application/json", header: "Content-Type", value: "application/json", want: true},
		{name: "value mismatch", match: "Content-Type", pattern: "application/json", header: "Content-Type", value: "text/plain", want: false},
		{name: "missing header", match: "Authorization", pattern: "Bearer x", header: "Content-Type", value: "application/json", want: false},
		{name: "prefix wildcard", match: "Authorization", pattern: "Bearer *", header: "Authorization", value: "Bearer abc123", want: true},
		{name: "suffix wildcard", match: "Accept", pattern: "*json", header: "Accept", value: "application/json", want: true},
		{name: "contains wildcard", match: "Accept", pattern: "*json*", header: "Accept", value: "application/json; charset=utf-8", want: true},
		{name: "interior wildcard", match: "Content-Type", pattern: "application/*json", header: "Content-Type", value: "application/problem+json", want: true},
		{name: "interior wildcard empty middle", match: "Content-Type", pattern: "application/*json", header: "Content-Type", value: "application/json", want: true},
		{name: "interior wildcard suffix mismatch", match: "Content-Type", pattern: "application/*json", header: "Content-Type", value: "application/xml", want: false},
		{name: "interior wildcard overlap rejected", match: "X-Tag", pattern: "abc*cde", header: "X-Tag", value: "abcde", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRequest("GET", "/")
			r.Header.Set(tt.header, tt.value)
			got := Evaluate(Header(tt.match, tt.pattern), r, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderPresent(t *testing.T) {
	r := newRequest("GET", "/")
	r.Header.Set("X-Request-ID", "abc")

	assert.True(t, Evaluate(HeaderPresent("X-Request-Id"), r, nil))
	assert.False(t, Evaluate(HeaderPresent("X-Trace-Id"), r, nil))
}

func TestQuery(t *testing.T) {
	r := newRequest("GET", "/search?q=go&page=2")

	assert.True(t, Evaluate(Query("q", "go"), r, nil))
	assert.True(t, Evaluate(Query("page", "2"), r, nil))
	assert.False(t, Evaluate(Query("q", "rust"), r, nil))
	assert.False(t, Evaluate(Query("missing", ""), r, nil))
}

func TestQueryPresent(t *testing.T) {
	r := newRequest("GET", "/search?q=&page=2")

	assert.True(t, Evaluate(QueryPresent("q"), r, nil), "empty value still counts as present")
	assert.False(t, Evaluate(QueryPresent("sort"), r, nil))
}
