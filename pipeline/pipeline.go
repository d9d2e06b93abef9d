// Package pipeline turns static graph into executable pipeline.
//
// Build selects plugins reachable from the sink of a purpose, skips
// disabled ones and allocates the minimal number of audio buffers.
// Load attaches modules, Instantiate wires them to buffers. Once
// instantiated, Run and Apply can be called from real-time context:
// they never allocate or block.
package pipeline

import (
	"errors"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp/graph"
	"pipelined.dev/dsp/log"
	"pipelined.dev/dsp/metric"
	"pipelined.dev/dsp/module"
	"pipelined.dev/dsp/signal"
)

// MaxBlockSize is the maximum number of frames processed by single Run.
const MaxBlockSize = 2048

var (
	// ErrUnavailable is returned when graph has no enabled source or
	// sink for the purpose.
	ErrUnavailable = errors.New("pipeline unavailable")
	// ErrRole is returned when graph has more than one enabled source
	// or sink for the purpose.
	ErrRole = errors.New("ambiguous pipeline boundary")
	// ErrWiring is returned when plugins can't be connected.
	ErrWiring = errors.New("wiring error")
	// ErrModule is returned when module fails to load or instantiate.
	ErrModule = errors.New("module error")
)

var logger = log.NewShared("pipeline")

// SetLogger replaces the logger of the package. It's safe to call it
// while the package is in use.
func SetLogger(l *logrus.Logger) {
	logger.Set(l)
}

type (
	// Pipeline is a topologically ordered list of instances sharing a
	// pool of buffers.
	Pipeline struct {
		id         string
		purpose    string
		sampleRate int
		instances  []*Instance
		source     *Instance
		sink       *Instance
		buffers    signal.Float64

		// buffers of source outputs and sink inputs used by Apply.
		sourceBuffers [][]float64
		sinkBuffers   [][]float64

		loaded       bool
		instantiated bool

		stats stats
		meter metric.MeasureFunc
	}

	// Instance is the live counterpart of enabled plugin.
	Instance struct {
		Plugin     *graph.Plugin
		module     module.Module
		properties module.Property
		ports      []*port
		delay      int
	}

	// port of instance. Inputs are connected to the producer port.
	port struct {
		graph.Direction
		graph.Kind
		index int
		owner *Instance
		peer  *port
		// buf is the slot of audio buffer.
		buf int
		// pending is the number of consumers which haven't read the
		// audio buffer yet.
		pending int
		value   [1]float64
	}
)

// ID of the pipeline.
func (p *Pipeline) ID() string {
	return p.id
}

// Purpose returns the purpose pipeline is built for.
func (p *Pipeline) Purpose() string {
	return p.purpose
}

// Instances returns instances in execution order.
func (p *Pipeline) Instances() []*Instance {
	return p.instances
}

// Source returns the source instance.
func (p *Pipeline) Source() *Instance {
	return p.source
}

// Sink returns the sink instance.
func (p *Pipeline) Sink() *Instance {
	return p.sink
}

// NumBuffers returns number of allocated audio buffers.
func (p *Pipeline) NumBuffers() int {
	return len(p.buffers)
}

// NumInputChannels returns number of audio channels consumed by Apply.
func (p *Pipeline) NumInputChannels() int {
	return p.source.Count(graph.Out)
}

// NumOutputChannels returns number of audio channels produced by Apply.
func (p *Pipeline) NumOutputChannels() int {
	return p.sink.Count(graph.In)
}

// Count returns number of audio ports in direction.
func (i *Instance) Count(dir graph.Direction) int {
	return i.Plugin.Count(dir, graph.Audio)
}

// Delay returns cumulative delay of the instance in frames.
func (i *Instance) Delay() int {
	return i.delay
}

// Module returns attached module. It's nil before Load.
func (i *Instance) Module() module.Module {
	return i.module
}

// Peer returns producer of the input port. Nil is returned for outputs
// and constant inputs.
func (i *Instance) Peer(port int) (*Instance, int) {
	peer := i.ports[port].peer
	if peer == nil {
		return nil, -1
	}
	return peer.owner, peer.index
}

// Buffer returns the audio buffer slot used by port or -1 for control
// ports.
func (i *Instance) Buffer(port int) int {
	p := i.ports[port]
	if p.Kind != graph.Audio {
		return -1
	}
	if p.Direction == graph.In {
		return p.peer.buf
	}
	return p.buf
}

// Value returns current value of control port.
func (i *Instance) Value(port int) float64 {
	p := i.ports[port]
	if p.Direction == graph.In && p.peer != nil {
		return p.peer.value[0]
	}
	return p.value[0]
}

func (i *Instance) String() string {
	return i.Plugin.Name
}

func newID() string {
	return xid.New().String()
}

// counter of pipeline statistics.
type stats struct {
	blocks  atomic.Int64
	samples atomic.Int64
	total   atomic.Int64
	min     atomic.Int64
	max     atomic.Int64
}
