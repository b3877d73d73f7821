package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpr(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{name: "method and path", src: `method == "POST" && path == "/api/orders"`, want: true},
		{name: "path prefix", src: `path startsWith "/api/"`, want: true},
		{name: "query value", src: `query["dry"] == "true"`, want: true},
		{name: "header value", src: `headers["Content-Type"] == "application/json"`, want: true},
		{name: "body substring", src: `body contains "amount"`, want: true},
		{name: "false condition", src: `method == "GET"`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Expr(tt.src)
			require.NoError(t, err)

			r := newRequest("POST", "/api/orders?dry=true")
			r.Header.Set("Content-Type", "application/json")
			got := Evaluate(m, r, []byte(`{"amount": 10}`))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExprCompileErrors(t *testing.T) {
	_, err := Expr(`method ==`)
	assert.Error(t, err, "syntax error must fail at construction")

	_, err = Expr(`path`)
	assert.Error(t, err, "non-boolean expressions are rejected")
}

func TestExprDescribe(t *testing.T) {
	m, err := Expr(`method == "GET"`)
	require.NoError(t, err)
	assert.Equal(t, `expr(method == "GET")`, m.Describe())
}
