package module

import (
	"fmt"
	"plugin"
	"sync"
)

// NewModuleSymbol is the symbol looked up in Go plugins.
const NewModuleSymbol = "NewModule"

// NewModuleFunc is the signature of NewModule symbol.
type NewModuleFunc = func(label string) (Module, error)

// PluginLoader loads modules from Go plugins. Library is a path to
// shared object built with -buildmode=plugin which exports
//
//	func NewModule(label string) (module.Module, error)
//
// Opened shared objects are cached, they can't be unloaded.
type PluginLoader struct {
	mu     sync.Mutex
	opened map[string]NewModuleFunc
}

// NewPluginLoader creates a new loader of Go plugins.
func NewPluginLoader() *PluginLoader {
	return &PluginLoader{opened: make(map[string]NewModuleFunc)}
}

// Load opens the library and creates module with label.
func (l *PluginLoader) Load(library, label string) (Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, ok := l.opened[library]
	if !ok {
		p, err := plugin.Open(library)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		sym, err := p.Lookup(NewModuleSymbol)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		if fn, ok = sym.(NewModuleFunc); !ok {
			return nil, fmt.Errorf("%w: %s: %s has type %T", ErrNotFound, library, NewModuleSymbol, sym)
		}
		l.opened[library] = fn
	}
	return fn(label)
}
