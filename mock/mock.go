// Package mock provides mocks for DSP modules and allows to execute
// integration tests of pipelines.
package mock

import (
	"sync"

	"pipelined.dev/dsp/module"
)

// Module mocks a module.Module interface. By default it copies the
// k-th audio input to the k-th output. Ports with index less than
// Inputs are inputs.
type Module struct {
	counter
	Hooks
	Label         string
	Inputs        int
	Latency       int
	Props         module.Property
	Scale         float64
	SampleRate    int
	ErrorOnCreate error

	ports [][]float64
}

// Instantiate implements module.Module.
func (m *Module) Instantiate(sampleRate int) error {
	if m.ErrorOnInstantiate != nil {
		return m.ErrorOnInstantiate
	}
	m.Instantiated = true
	m.Deinstantiated = false
	m.SampleRate = sampleRate
	m.reset()
	return nil
}

// ConnectPort implements module.Module.
func (m *Module) ConnectPort(port int, data []float64) {
	for len(m.ports) <= port {
		m.ports = append(m.ports, nil)
	}
	m.ports[port] = data
}

// Port returns data connected to the port.
func (m *Module) Port(i int) []float64 {
	if i < len(m.ports) {
		return m.ports[i]
	}
	return nil
}

// Delay implements module.Module.
func (m *Module) Delay() int {
	return m.Latency
}

// Run implements module.Module.
func (m *Module) Run(samples int) {
	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	for i := 0; i < m.Inputs && m.Inputs+i < len(m.ports); i++ {
		in, out := m.ports[i], m.ports[m.Inputs+i]
		if len(in) < samples || len(out) < samples {
			continue
		}
		for j := 0; j < samples; j++ {
			out[j] = in[j] * scale
		}
	}
	m.advance(samples)
}

// Deinstantiate implements module.Module.
func (m *Module) Deinstantiate() {
	m.Deinstantiated = true
	m.Instantiated = false
}

// Free implements module.Module.
func (m *Module) Free() {
	m.Freed = true
	m.ports = nil
}

// Properties implements module.Module.
func (m *Module) Properties() module.Property {
	return m.Props
}

// Hooks allows to mock module hooks.
type Hooks struct {
	Instantiated   bool
	Deinstantiated bool
	Freed          bool

	ErrorOnInstantiate error
}

// counter counts runs and samples.
type counter struct {
	runs    int
	samples int
}

// reset resets counter's metrics.
func (c *counter) reset() {
	c.runs, c.samples = 0, 0
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.runs++
	c.samples = c.samples + size
}

// Count returns runs and samples metrics.
func (c *counter) Count() (int, int) {
	return c.runs, c.samples
}

// Loader mocks a module.Loader. Labels without factory are loaded as
// builtin modules.
type Loader struct {
	Modules     map[string]func() *Module
	ErrorOnLoad error

	mu      sync.Mutex
	loaded  []*Module
	builtin *module.Registry
}

// Load implements module.Loader.
func (l *Loader) Load(library, label string) (module.Module, error) {
	if l.ErrorOnLoad != nil {
		return nil, l.ErrorOnLoad
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if fn, ok := l.Modules[label]; ok {
		m := fn()
		if m.ErrorOnCreate != nil {
			return nil, m.ErrorOnCreate
		}
		m.Label = label
		l.loaded = append(l.loaded, m)
		return m, nil
	}
	if l.builtin == nil {
		l.builtin = module.NewRegistry(nil)
	}
	return l.builtin.Load(library, label)
}

// Loaded returns mocks created by the loader.
func (l *Loader) Loaded() []*Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Module(nil), l.loaded...)
}

// Find returns last loaded mock with provided label.
func (l *Loader) Find(label string) *Module {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.loaded) - 1; i >= 0; i-- {
		if l.loaded[i].Label == label {
			return l.loaded[i]
		}
	}
	return nil
}
