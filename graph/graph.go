// Package graph is the static model of DSP configuration. Every section
// of configuration declares a plugin with its ports. Ports reference
// named flows: {name} is an audio flow and <name> is a control flow.
// Any other port value is a constant control value.
//
// Graph is immutable once parsed and can be shared between goroutines.
package graph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp/config"
	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/log"
)

// ErrConfig is returned when configuration doesn't describe a valid
// graph.
var ErrConfig = errors.New("config error")

// Builtin is the library name of modules provided by the engine itself.
const Builtin = "builtin"

// Labels of builtin boundary plugins.
const (
	LabelSource = "source"
	LabelSink   = "sink"
)

// NoFlow is the flow of constant ports.
const NoFlow = -1

var logger = log.NewShared("graph")

// SetLogger replaces the logger of the package. It's safe to call it
// while the package is in use.
func SetLogger(l *logrus.Logger) {
	logger.Set(l)
}

// Direction of port.
type Direction int

// Port directions.
const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "input"
	}
	return "output"
}

// Kind of port.
type Kind int

// Port kinds.
const (
	Audio Kind = iota
	Control
)

func (k Kind) String() string {
	if k == Audio {
		return "audio"
	}
	return "control"
}

type (
	// Graph is a set of plugins connected with flows.
	Graph struct {
		Plugins []*Plugin
		Flows   []*Flow
	}

	// Plugin is a declared signal processing unit.
	Plugin struct {
		Name    string
		Library string
		Label   string
		Purpose string
		// Disable is nil if plugin is never disabled.
		Disable expr.Expression
		Ports   []Port
	}

	// Port belongs to a plugin. It either references a flow or holds
	// a constant control value.
	Port struct {
		Direction
		Kind
		Flow  int
		Value float64
	}

	// Flow connects one producer port with one consumer port. From and
	// To are nil if flow has no producer or consumer.
	Flow struct {
		Name     string
		Kind     Kind
		From     *Plugin
		FromPort int
		To       *Plugin
		ToPort   int
	}
)

// Load reads configuration file and parses the graph.
func Load(path string) (*Graph, error) {
	d, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return Parse(d)
}

// Parse builds the graph from the dictionary.
func Parse(d *config.Dictionary) (*Graph, error) {
	g := &Graph{}
	flows := make(map[string]int)
	for _, s := range d.Sections {
		p, err := parsePlugin(s, g, flows)
		if err != nil {
			return nil, err
		}
		g.Plugins = append(g.Plugins, p)
	}
	if err := g.connectFlows(); err != nil {
		return nil, err
	}
	return g, nil
}

func parsePlugin(s *config.Section, g *Graph, flows map[string]int) (*Plugin, error) {
	p := Plugin{Name: s.Name}
	var ok bool
	if p.Library, ok = s.Lookup("library"); !ok {
		return nil, fmt.Errorf("%w: plugin %s: missing library", ErrConfig, s.Name)
	}
	if p.Label, ok = s.Lookup("label"); !ok {
		return nil, fmt.Errorf("%w: plugin %s: missing label", ErrConfig, s.Name)
	}
	p.Purpose, _ = s.Lookup("purpose")
	if text, ok := s.Lookup("disable"); ok {
		e, err := expr.Parse(text)
		if err != nil {
			logger.Entry().WithField("plugin", s.Name).Errorf("disable expression ignored: %v", err)
		}
		p.Disable = e
	}
	for _, dir := range []Direction{In, Out} {
		for i := 0; ; i++ {
			text, ok := s.Lookup(fmt.Sprintf("%s_%d", dir, i))
			if !ok {
				break
			}
			port, err := parsePort(dir, text, g, flows)
			if err != nil {
				return nil, fmt.Errorf("%w: plugin %s: %v", ErrConfig, s.Name, err)
			}
			p.Ports = append(p.Ports, port)
		}
	}
	return &p, nil
}

func parsePort(dir Direction, text string, g *Graph, flows map[string]int) (Port, error) {
	port := Port{Direction: dir, Flow: NoFlow, Kind: Control}
	text = strings.TrimSpace(text)
	if text == "" {
		return port, fmt.Errorf("empty %s port", dir)
	}
	var closing byte
	switch text[0] {
	case '{':
		port.Kind, closing = Audio, '}'
	case '<':
		port.Kind, closing = Control, '>'
	default:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			logger.Entry().Errorf("cannot parse number from %q, using 0", text)
			v = 0
		}
		port.Value = v
		return port, nil
	}
	if len(text) < 3 || text[len(text)-1] != closing {
		return port, fmt.Errorf("malformed flow reference %q", text)
	}
	name := text[1 : len(text)-1]
	id, ok := flows[name]
	if !ok {
		id = len(g.Flows)
		flows[name] = id
		g.Flows = append(g.Flows, &Flow{Name: name, Kind: port.Kind, FromPort: -1, ToPort: -1})
	}
	port.Flow = id
	return port, nil
}

// connectFlows fills producers and consumers of flows.
func (g *Graph) connectFlows() error {
	for _, p := range g.Plugins {
		for i, port := range p.Ports {
			if port.Flow == NoFlow {
				continue
			}
			f := g.Flows[port.Flow]
			if f.Kind != port.Kind {
				return fmt.Errorf("%w: flow %s is %s, but plugin %s uses it as %s", ErrConfig, f.Name, f.Kind, p.Name, port.Kind)
			}
			switch port.Direction {
			case Out:
				if f.From != nil {
					return fmt.Errorf("%w: flow %s has more than one producer: %s and %s", ErrConfig, f.Name, f.From.Name, p.Name)
				}
				f.From, f.FromPort = p, i
			case In:
				if f.To != nil {
					return fmt.Errorf("%w: flow %s has more than one consumer: %s and %s", ErrConfig, f.Name, f.To.Name, p.Name)
				}
				f.To, f.ToPort = p, i
			}
		}
	}
	return nil
}

// Flow returns the flow referenced by the port of plugin.
func (g *Graph) Flow(p *Plugin, port int) *Flow {
	id := p.Ports[port].Flow
	if id == NoFlow {
		return nil
	}
	return g.Flows[id]
}

// IsBuiltin returns true if plugin is a builtin with provided label.
func (p *Plugin) IsBuiltin(label string) bool {
	return p.Library == Builtin && p.Label == label
}

// Disabled evaluates the disable expression. Expressions which fail to
// evaluate to boolean never disable the plugin.
func (p *Plugin) Disabled(env *expr.Env) bool {
	if p.Disable == nil {
		return false
	}
	disabled, err := expr.EvalBoolean(p.Disable, env)
	if err != nil {
		logger.Entry().WithField("plugin", p.Name).Errorf("disable expression ignored: %v", err)
		return false
	}
	return disabled
}

// Count returns the number of ports with provided direction and kind.
func (p *Plugin) Count(dir Direction, kind Kind) int {
	n := 0
	for _, port := range p.Ports {
		if port.Direction == dir && port.Kind == kind {
			n++
		}
	}
	return n
}

// PassThrough returns the input port that corresponds to the output
// port when plugin is taken out of the graph: the k-th output of a kind
// maps to the k-th input of the same kind. Plugins with different
// number of inputs and outputs of that kind have no correspondence.
func (p *Plugin) PassThrough(out int) (int, error) {
	kind := p.Ports[out].Kind
	if ins, outs := p.Count(In, kind), p.Count(Out, kind); ins != outs {
		return -1, fmt.Errorf("plugin %s has %d %s inputs and %d %s outputs", p.Name, ins, kind, outs, kind)
	}
	k := 0
	for i := 0; i < out; i++ {
		if p.Ports[i].Direction == Out && p.Ports[i].Kind == kind {
			k++
		}
	}
	for i, port := range p.Ports {
		if port.Direction != In || port.Kind != kind {
			continue
		}
		if k == 0 {
			return i, nil
		}
		k--
	}
	return -1, fmt.Errorf("plugin %s has no %s input for output %d", p.Name, kind, out)
}

func (p *Plugin) String() string {
	return fmt.Sprintf("%s(%s:%s)", p.Name, p.Library, p.Label)
}
