package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyEquals(t *testing.T) {
	m := BodyEquals(`{"id":1}`)

	assert.True(t, Evaluate(m, newRequest("POST", "/"), []byte(`{"id":1}`)))
	assert.False(t, Evaluate(m, newRequest("POST", "/"), []byte(`{"id":2}`)))
	assert.False(t, Evaluate(m, newRequest("POST", "/"), nil))
}

func TestBodyContains(t *testing.T) {
	m := BodyContains("user")

	assert.True(t, Evaluate(m, newRequest("POST", "/"), []byte(`{"user":"ana"}`)))
	assert.False(t, Evaluate(m, newRequest("POST", "/"), []byte(`{"order":7}`)))
}

func TestBodyPattern(t *testing.T) {
	m, err := BodyPattern(`"id":\s*\d+`)
	require.NoError(t, err)

	assert.True(t, Evaluate(m, newRequest("POST", "/"), []byte(`{"id": 42}`)))
	assert.False(t, Evaluate(m, newRequest("POST", "/"), []byte(`{"id": "x"}`)))

	_, err = BodyPattern(`[bad`)
	assert.Error(t, err)
}

func TestBodyJSONSchema(t *testing.T) {
	m, err := BodyJSONSchema(`{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer", "minimum": 0}
		}
	}`)
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "valid document", body: `{"name":"ana","age":30}`, want: true},
		{name: "missing required field", body: `{"age":30}`, want: false},
		{name: "wrong type", body: `{"name":"ana","age":"old"}`, want: false},
		{name: "not json", body: `not json at all`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(m, newRequest("POST", "/"), []byte(tt.body))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBodyJSONSchemaInvalidSchema(t *testing.T) {
	_, err := BodyJSONSchema(`{"type": 12}`)
	require.Error(t, err)
}

func TestBodyJSONPath(t *testing.T) {
	body := []byte(`{"user":{"name":"ana","age":30},"tags":["a","b"]}`)

	tests := []struct {
		name       string
		conditions map[string]any
		want       bool
	}{
		{name: "string equality", conditions: map[string]any{"$.user.name": "ana"}, want: true},
		{name: "numeric coercion", conditions: map[string]any{"$.user.age": 30}, want: true},
		{name: "value mismatch", conditions: map[string]any{"$.user.name": "bob"}, want: false},
		{name: "all conditions must hold", conditions: map[string]any{"$.user.name": "ana", "$.user.age": 31}, want: false},
		{name: "wildcard any element", conditions: map[string]any{"$.tags[*]": "b"}, want: true},
		{name: "exists true", conditions: map[string]any{"$.user.age": map[string]any{"exists": true}}, want: true},
		{name: "exists false on missing", conditions: map[string]any{"$.user.email": map[string]any{"exists": false}}, want: true},
		{name: "exists false on present", conditions: map[string]any{"$.user.name": map[string]any{"exists": false}}, want: false},
		{name: "invalid jsonpath is a non-match", conditions: map[string]any{"$..[": "x"}, want: false},
		{name: "empty conditions never match", conditions: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(BodyJSONPath(tt.conditions), newRequest("POST", "/"), body)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBodyJSONPathNonJSONBody(t *testing.T) {
	m := BodyJSONPath(map[string]any{"$.id": 1})
	assert.False(t, Evaluate(m, newRequest("POST", "/"), []byte("plain text")))
}

func TestValidateJSONPath(t *testing.T) {
	assert.NoError(t, ValidateJSONPath("$.user.name"))
	assert.Error(t, ValidateJSONPath("$..["))
}
