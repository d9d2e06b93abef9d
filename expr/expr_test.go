package expr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/dsp/expr"
)

func TestEval(t *testing.T) {
	tests := []struct {
		text     string
		expected expr.Value
	}{
		{text: "#t", expected: expr.Boolean(true)},
		{text: "#f", expected: expr.Boolean(false)},
		{text: "42", expected: expr.Integer(42)},
		{text: "-7", expected: expr.Integer(-7)},
		{text: `"speaker_eq"`, expected: expr.String("speaker_eq")},
		{text: "(not #f)", expected: expr.Boolean(true)},
		{text: "(not #t)", expected: expr.Boolean(false)},
		{text: "(not 0)", expected: expr.Boolean(false)},
		{text: "(and #t #t 3)", expected: expr.Integer(3)},
		{text: "(and #t #f 3)", expected: expr.Boolean(false)},
		{text: "(and)", expected: expr.Boolean(true)},
		{text: "(or #f #f)", expected: expr.Boolean(false)},
		{text: "(or #f 2 3)", expected: expr.Integer(2)},
		{text: "(or)", expected: expr.Boolean(false)},
		{text: "(equal? 1 1 1)", expected: expr.Boolean(true)},
		{text: "(equal? 1 1 2)", expected: expr.Boolean(false)},
		{text: `(equal? 1 "1")`, expected: expr.Boolean(false)},
		{text: `(equal? "a" "a")`, expected: expr.Boolean(true)},
		{text: "(equal?)", expected: expr.Boolean(true)},
		{text: "(equal? not not)", expected: expr.Boolean(true)},
		{text: "(equal? not and)", expected: expr.Boolean(false)},
		{text: "(not (and #t (or #f #t)))", expected: expr.Boolean(false)},
		{text: "  ( not\t#f )  ", expected: expr.Boolean(true)},
		{text: "dsp_name", expected: expr.String("speaker")},
		{text: `(equal? dsp_name "speaker")`, expected: expr.Boolean(true)},
		{text: "disable_eq?", expected: expr.Boolean(true)},
		// errors yield none
		{text: "missing", expected: expr.None{}},
		{text: "()", expected: expr.None{}},
		{text: "(1 2)", expected: expr.None{}},
		{text: "(not #t #t)", expected: expr.None{}},
	}
	env := expr.NewEnv()
	env.Set("dsp_name", expr.String("speaker"))
	env.Set("disable_eq?", expr.Boolean(true))
	for _, test := range tests {
		e, err := expr.Parse(test.text)
		require.NoError(t, err, test.text)
		assert.Equal(t, test.expected, expr.Eval(e, env), test.text)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"(not #t",
		")",
		"#x",
		"#true",
		"12ab",
		"(not #f) #t",
		"@",
	}
	for _, text := range tests {
		e, err := expr.Parse(text)
		assert.Nil(t, e, text)
		assert.True(t, errors.Is(err, expr.ErrSyntax), text)
	}
}

func TestUnterminatedString(t *testing.T) {
	e, err := expr.Parse(`"abc`)
	require.NoError(t, err)
	assert.Equal(t, expr.String(""), expr.Eval(e, expr.NewEnv()))
}

func TestTypedEval(t *testing.T) {
	env := expr.NewEnv()
	env.Set("rate", expr.Integer(48000))

	e, err := expr.Parse("(not #f)")
	require.NoError(t, err)
	b, err := expr.EvalBoolean(e, env)
	assert.NoError(t, err)
	assert.True(t, b)
	_, err = expr.EvalInt(e, env)
	assert.True(t, errors.Is(err, expr.ErrType))

	e, err = expr.Parse("rate")
	require.NoError(t, err)
	i, err := expr.EvalInt(e, env)
	assert.NoError(t, err)
	assert.Equal(t, 48000, i)
	_, err = expr.EvalBoolean(e, env)
	assert.True(t, errors.Is(err, expr.ErrType))

	_, err = expr.EvalBoolean(nil, env)
	assert.True(t, errors.Is(err, expr.ErrType))
}

func TestEnv(t *testing.T) {
	env := expr.NewEnv()
	env.Set("a", expr.String("first"))
	env.Set("a", expr.Integer(1))
	env.Set("b", nil)

	v, ok := env.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, expr.Integer(1), v)
	v, ok = env.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, expr.None{}, v)
	_, ok = env.Lookup("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, env.Variables())

	not, ok := env.Lookup("not")
	assert.True(t, ok)
	assert.Equal(t, expr.TypeFunction, not.Type())
}

func TestString(t *testing.T) {
	e, err := expr.Parse(`(and (not disable_eq) (equal? dsp_name "x") 3 #t)`)
	require.NoError(t, err)
	assert.Equal(t, `(and (not disable_eq) (equal? dsp_name "x") 3 #t)`, e.String())
}
