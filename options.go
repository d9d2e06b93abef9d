package dsp

import (
	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/module"
)

// Option provides a way to set optional parameters of the engine.
type Option func(*Engine)

// WithLoader sets the loader of modules. By default builtin modules are
// loaded from the registry and other libraries are opened as Go plugins.
func WithLoader(l module.Loader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithLogger sets the logger of the engine.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithDefaults adds variables to the environment of every new context.
func WithDefaults(vars map[string]expr.Value) Option {
	return func(e *Engine) {
		for k, v := range vars {
			e.defaults[k] = v
		}
	}
}
