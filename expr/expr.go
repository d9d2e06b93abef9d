// Package expr implements a tiny prefix expression language used to
// guard plugins of the DSP graph. The language has booleans (#t, #f),
// integers, strings, variables and compounds (op arg...). It has no
// loops and no user functions, so every evaluation terminates.
package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp/log"
)

var (
	// ErrSyntax is returned when expression text cannot be parsed.
	ErrSyntax = errors.New("syntax error")
	// ErrEval is returned when compound cannot be evaluated.
	ErrEval = errors.New("evaluation error")
	// ErrType is returned by typed evaluators on type mismatch.
	ErrType = errors.New("type mismatch")
)

var logger = log.NewShared("expr")

// SetLogger replaces the logger of the package. It's safe to call it
// while the package is in use.
func SetLogger(l *logrus.Logger) {
	logger.Set(l)
}

// Expression is an immutable parsed expression. It's one of Literal,
// Variable or Compound.
type Expression interface {
	String() string
	eval(env *Env) Value
}

type (
	// Literal evaluates to its value.
	Literal struct {
		Value Value
	}
	// Variable evaluates to the value bound in environment.
	Variable string
	// Compound evaluates children left to right and applies the first
	// to the list.
	Compound []Expression
)

func (l Literal) String() string { return l.Value.String() }

func (v Variable) String() string { return string(v) }

func (c Compound) String() string {
	parts := make([]string, len(c))
	for i := range c {
		parts[i] = c[i].String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (l Literal) eval(*Env) Value {
	return l.Value
}

func (v Variable) eval(env *Env) Value {
	if val, ok := env.Lookup(string(v)); ok {
		return val
	}
	logger.Entry().Errorf("undefined variable %q", string(v))
	return None{}
}

func (c Compound) eval(env *Env) Value {
	if len(c) == 0 {
		logger.Entry().Error("empty compound expression")
		return None{}
	}
	args := make([]Value, len(c))
	for i := range c {
		args[i] = c[i].eval(env)
	}
	fn, ok := args[0].(*Function)
	if !ok {
		logger.Entry().Errorf("%v is not a function in %v", args[0], c)
		return None{}
	}
	result, err := fn.fn(args)
	if err != nil {
		logger.Entry().Errorf("%v: %v", c, err)
		return None{}
	}
	return result
}

// Eval evaluates the expression. Errors are logged and yield None.
func Eval(e Expression, env *Env) Value {
	if e == nil {
		return None{}
	}
	return e.eval(env)
}

// EvalBoolean evaluates the expression and requires boolean result.
func EvalBoolean(e Expression, env *Env) (bool, error) {
	v := Eval(e, env)
	b, ok := v.(Boolean)
	if !ok {
		return false, fmt.Errorf("%w: %v evaluated to %v, want boolean", ErrType, e, v.Type())
	}
	return bool(b), nil
}

// EvalInt evaluates the expression and requires integer result.
func EvalInt(e Expression, env *Env) (int, error) {
	v := Eval(e, env)
	i, ok := v.(Integer)
	if !ok {
		return 0, fmt.Errorf("%w: %v evaluated to %v, want integer", ErrType, e, v.Type())
	}
	return int(i), nil
}
