// Package module defines the interface between pipeline and signal
// processing modules. Modules are created by a Loader from the library
// and label of a plugin.
//
// Port indices passed to ConnectPort follow the declaration order of
// plugin: all inputs first, then all outputs. Audio ports are connected
// to buffers of maximum block size, control ports are connected to a
// single-element slice.
package module

import (
	"errors"
	"fmt"
	"sync"

	"pipelined.dev/dsp/graph"
)

// ErrNotFound is returned when loader doesn't know requested module.
var ErrNotFound = errors.New("module not found")

// Property is a set of module property flags.
type Property uint

const (
	// InPlaceBroken means module can't use the same buffer for input
	// and output.
	InPlaceBroken Property = 1 << iota
)

// Module is a signal processing unit. Run is called from real-time
// context and must not allocate or block.
type Module interface {
	Instantiate(sampleRate int) error
	ConnectPort(port int, data []float64)
	Delay() int
	Run(samples int)
	Deinstantiate()
	Free()
	Properties() Property
}

// Loader creates modules.
type Loader interface {
	Load(library, label string) (Module, error)
}

// LoaderFunc allows to use a function as Loader.
type LoaderFunc func(library, label string) (Module, error)

// Load calls the function.
func (fn LoaderFunc) Load(library, label string) (Module, error) {
	return fn(library, label)
}

// Factory creates a new module instance.
type Factory func() Module

// Registry is a Loader of registered factories. Unknown libraries are
// delegated to the fallback loader if it's set.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]map[string]Factory
	fallback  Loader
}

// NewRegistry returns registry with builtin modules registered.
func NewRegistry(fallback Loader) *Registry {
	r := &Registry{
		factories: make(map[string]map[string]Factory),
		fallback:  fallback,
	}
	for label, f := range builtins {
		r.Register(graph.Builtin, label, f)
	}
	return r
}

// Register adds factory for library and label. Previously registered
// factory is replaced.
func (r *Registry) Register(library, label string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	labels, ok := r.factories[library]
	if !ok {
		labels = make(map[string]Factory)
		r.factories[library] = labels
	}
	labels[label] = f
}

// Load creates module with registered factory.
func (r *Registry) Load(library, label string) (Module, error) {
	r.mu.RLock()
	labels, ok := r.factories[library]
	var f Factory
	if ok {
		f = labels[label]
	}
	r.mu.RUnlock()
	if f != nil {
		return f(), nil
	}
	if !ok && r.fallback != nil && library != graph.Builtin {
		return r.fallback.Load(library, label)
	}
	return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, library, label)
}
