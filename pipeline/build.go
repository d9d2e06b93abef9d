package pipeline

import (
	"fmt"

	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/graph"
)

// plugin states of the walk.
const (
	unvisited = iota
	visiting
	visited
)

type builder struct {
	graph     *graph.Graph
	disabled  map[*graph.Plugin]bool
	instances map[*graph.Plugin]*Instance
}

// Build creates pipeline for the purpose. Disable expressions of
// plugins are evaluated with env. ErrUnavailable is returned if graph
// doesn't have enabled source and sink for the purpose.
func Build(g *graph.Graph, env *expr.Env, purpose string) (*Pipeline, error) {
	b := builder{
		graph:     g,
		disabled:  make(map[*graph.Plugin]bool, len(g.Plugins)),
		instances: make(map[*graph.Plugin]*Instance),
	}
	for _, p := range g.Plugins {
		b.disabled[p] = p.Disabled(env)
	}
	source, err := b.find(graph.LabelSource, purpose)
	if err != nil {
		return nil, err
	}
	sink, err := b.find(graph.LabelSink, purpose)
	if err != nil {
		return nil, err
	}

	order, err := b.walk(sink)
	if err != nil {
		return nil, err
	}
	p := Pipeline{
		id:      newID(),
		purpose: purpose,
	}
	for _, plugin := range order {
		if b.disabled[plugin] {
			continue
		}
		inst := newInstance(plugin)
		b.instances[plugin] = inst
		p.instances = append(p.instances, inst)
	}
	if p.source = b.instances[source]; p.source == nil {
		return nil, fmt.Errorf("%w: source %s is not connected to sink %s", ErrWiring, source.Name, sink.Name)
	}
	p.sink = b.instances[sink]

	for _, inst := range p.instances {
		if err := b.connect(inst); err != nil {
			return nil, err
		}
	}
	if in, out := p.NumInputChannels(), p.NumOutputChannels(); out > in {
		return nil, fmt.Errorf("%w: sink %s has %d channels, but source %s has only %d", ErrWiring, sink.Name, out, source.Name, in)
	}
	p.allocate()
	logger.Entry().WithField("pipeline", p.id).Debugf("built %s pipeline: %v, %d buffers", purpose, p.instances, len(p.buffers))
	return &p, nil
}

// find returns the only enabled builtin with label and purpose.
func (b *builder) find(label, purpose string) (*graph.Plugin, error) {
	var found *graph.Plugin
	for _, p := range b.graph.Plugins {
		if !p.IsBuiltin(label) || p.Purpose != purpose || b.disabled[p] {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s and %s are %s of %q", ErrRole, found.Name, p.Name, label, purpose)
		}
		found = p
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no %s of %q", ErrUnavailable, label, purpose)
	}
	return found, nil
}

// walk returns plugins reachable upstream from the sink, every plugin
// comes after its producers. Disabled plugins are walked through too.
func (b *builder) walk(sink *graph.Plugin) ([]*graph.Plugin, error) {
	type frame struct {
		plugin *graph.Plugin
		next   int
	}
	var (
		order []*graph.Plugin
		state = map[*graph.Plugin]int{sink: visiting}
		stack = []frame{{plugin: sink}}
	)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.plugin.Ports) {
			state[top.plugin] = visited
			order = append(order, top.plugin)
			stack = stack[:len(stack)-1]
			continue
		}
		port := top.plugin.Ports[top.next]
		top.next++
		if port.Direction != graph.In || port.Flow == graph.NoFlow {
			continue
		}
		producer := b.graph.Flows[port.Flow].From
		if producer == nil {
			continue
		}
		switch state[producer] {
		case visiting:
			return nil, fmt.Errorf("%w: cycle through %s and %s", ErrWiring, top.plugin.Name, producer.Name)
		case visited:
			continue
		}
		state[producer] = visiting
		stack = append(stack, frame{plugin: producer})
	}
	return order, nil
}

// connect resolves producers of instance inputs.
func (b *builder) connect(inst *Instance) error {
	for _, in := range inst.ports {
		if in.Direction != graph.In {
			continue
		}
		f := b.graph.Flow(inst.Plugin, in.index)
		if f == nil {
			continue
		}
		peer, value, err := b.resolve(f)
		if err != nil {
			return fmt.Errorf("%w: %s input %d: %v", ErrWiring, inst.Plugin.Name, in.index, err)
		}
		in.peer = peer
		if peer == nil {
			in.value[0] = value
		}
	}
	return nil
}

// resolve follows the flow upstream through disabled plugins until
// enabled producer is found. Constant control input of disabled plugin
// resolves to its value.
func (b *builder) resolve(f *graph.Flow) (*port, float64, error) {
	for {
		if f.From == nil {
			return nil, 0, fmt.Errorf("flow %s has no producer", f.Name)
		}
		if inst, ok := b.instances[f.From]; ok {
			return inst.ports[f.FromPort], 0, nil
		}
		in, err := f.From.PassThrough(f.FromPort)
		if err != nil {
			return nil, 0, err
		}
		next := b.graph.Flow(f.From, in)
		if next == nil {
			return nil, f.From.Ports[in].Value, nil
		}
		f = next
	}
}

func newInstance(p *graph.Plugin) *Instance {
	inst := Instance{
		Plugin: p,
		ports:  make([]*port, len(p.Ports)),
	}
	for i, gp := range p.Ports {
		inst.ports[i] = &port{
			Direction: gp.Direction,
			Kind:      gp.Kind,
			index:     i,
			owner:     &inst,
			buf:       -1,
			value:     [1]float64{gp.Value},
		}
	}
	return &inst
}
