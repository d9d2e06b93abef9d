package expr

import "sort"

// Env maps variable names to values. The last write wins. Env is not
// safe for concurrent use.
type Env struct {
	vars map[string]Value
}

// NewEnv returns an environment with builtins installed.
func NewEnv() *Env {
	e := &Env{vars: make(map[string]Value)}
	for _, f := range builtins {
		e.vars[f.Name] = f
	}
	return e
}

// Set assigns the value to the variable. Nil value is stored as None.
func (e *Env) Set(name string, v Value) {
	if v == nil {
		v = None{}
	}
	e.vars[name] = v
}

// Lookup returns the value of variable.
func (e *Env) Lookup(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Variables returns sorted names of all non-function variables.
func (e *Env) Variables() []string {
	names := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		if v.Type() == TypeFunction {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
