package dsp

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/pipeline"
)

// Context couples purpose and sample rate with the pipeline built for
// them.
type Context struct {
	id         string
	engine     *Engine
	sampleRate int
	purpose    string
	log        *logrus.Entry
	closed     atomic.Bool

	// owned by worker.
	env *expr.Env

	// active is the published pipeline.
	active atomic.Pointer[handle]
	// held is the handle taken by GetPipeline.
	held atomic.Pointer[handle]

	inputChannels  atomic.Int32
	outputChannels atomic.Int32
}

// handle counts references of real-time side to the pipeline.
type handle struct {
	pipeline *pipeline.Pipeline
	refs     atomic.Int32
}

func newContext(e *Engine, sampleRate int, purpose string) *Context {
	c := Context{
		id:         xid.New().String(),
		engine:     e,
		sampleRate: sampleRate,
		purpose:    purpose,
		env:        expr.NewEnv(),
	}
	for k, v := range e.defaults {
		c.env.Set(k, v)
	}
	c.log = e.log.WithFields(logrus.Fields{
		"context": c.id,
		"purpose": purpose,
	})
	return &c
}

// ID of the context.
func (c *Context) ID() string {
	return c.id
}

// Purpose of the context.
func (c *Context) Purpose() string {
	return c.purpose
}

// SampleRate of the context.
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// SetVariable sets variable in the environment of context. The new value
// is used by the next LoadPipeline.
func (c *Context) SetVariable(key string, v expr.Value) error {
	return c.engine.post(func() {
		c.env.Set(key, v)
	})
}

// SetVariableString sets string variable.
func (c *Context) SetVariableString(key, v string) error {
	return c.SetVariable(key, expr.String(v))
}

// SetVariableBoolean sets boolean variable.
func (c *Context) SetVariableBoolean(key string, v bool) error {
	return c.SetVariable(key, expr.Boolean(v))
}

// SetVariableInteger sets integer variable.
func (c *Context) SetVariableInteger(key string, v int) error {
	return c.SetVariable(key, expr.Integer(v))
}

// LoadPipeline rebuilds the pipeline of context. While it's being built,
// GetPipeline returns nil.
func (c *Context) LoadPipeline() error {
	return c.engine.post(c.load)
}

// Free releases the pipeline of context. Pipeline that is being built
// for the context is discarded.
func (c *Context) Free() error {
	c.closed.Store(true)
	return c.engine.post(func() {
		c.engine.remove(c)
		c.release()
	})
}

// GetPipeline returns the active pipeline or nil. Every call must be
// followed by PutPipeline from the same goroutine.
func (c *Context) GetPipeline() *pipeline.Pipeline {
	h := c.active.Load()
	if h == nil {
		return nil
	}
	h.refs.Add(1)
	if c.active.Load() != h {
		h.refs.Add(-1)
		return nil
	}
	c.held.Store(h)
	return h.pipeline
}

// PutPipeline releases the pipeline returned by GetPipeline.
func (c *Context) PutPipeline() {
	if h := c.held.Swap(nil); h != nil {
		h.refs.Add(-1)
	}
}

// NumInputChannels returns number of input channels of the last built
// pipeline or 0.
func (c *Context) NumInputChannels() int {
	return int(c.inputChannels.Load())
}

// NumOutputChannels returns number of output channels of the last built
// pipeline or 0.
func (c *Context) NumOutputChannels() int {
	return int(c.outputChannels.Load())
}

// load builds the pipeline and publishes it. Previous pipeline is
// unpublished while the new one is being built and is published back
// if the new one fails because of wiring or modules.
func (c *Context) load() {
	if c.closed.Load() {
		return
	}
	old := c.active.Swap(nil)
	p, err := c.build()
	if c.closed.Load() {
		p.Free()
		c.retire(old)
		return
	}
	switch {
	case err == nil:
		c.publish(&handle{pipeline: p})
		c.retire(old)
		c.log.WithField("pipeline", p.ID()).Infof("pipeline loaded: %d instances, delay %d", len(p.Instances()), p.Delay())
	case errors.Is(err, pipeline.ErrUnavailable), errors.Is(err, pipeline.ErrRole):
		c.publish(nil)
		c.retire(old)
		c.log.Infof("pipeline unavailable: %v", err)
	default:
		c.active.Store(old)
		c.log.Errorf("failed to load pipeline: %v", err)
	}
}

// build creates, loads and instantiates the pipeline.
func (c *Context) build() (*pipeline.Pipeline, error) {
	g := c.engine.graph
	if g == nil {
		return nil, fmt.Errorf("%w: no config", pipeline.ErrUnavailable)
	}
	p, err := pipeline.Build(g, c.env, c.purpose)
	if err != nil {
		return nil, err
	}
	if err := p.Load(c.engine.loader); err != nil {
		return nil, err
	}
	if err := p.Instantiate(c.sampleRate); err != nil {
		p.Free()
		return nil, err
	}
	return p, nil
}

func (c *Context) publish(h *handle) {
	var in, out int
	if h != nil {
		in, out = h.pipeline.NumInputChannels(), h.pipeline.NumOutputChannels()
	}
	c.inputChannels.Store(int32(in))
	c.outputChannels.Store(int32(out))
	c.active.Store(h)
}

const (
	// retirePoll is the interval of checks if pipeline is released.
	retirePoll = time.Millisecond
	// retireWarn is how long retire waits before it warns about held
	// pipeline.
	retireWarn = 100 * time.Millisecond
)

// retire waits until real-time side releases the pipeline and frees it.
func (c *Context) retire(h *handle) {
	if h == nil {
		return
	}
	start, warned := time.Now(), false
	for h.refs.Load() > 0 {
		if !warned && time.Since(start) > retireWarn {
			c.log.WithField("pipeline", h.pipeline.ID()).Warnf("pipeline is still held after %v", retireWarn)
			warned = true
		}
		time.Sleep(retirePoll)
	}
	h.pipeline.Free()
}

// release unpublishes and frees the pipeline.
func (c *Context) release() {
	h := c.active.Swap(nil)
	c.publish(nil)
	c.retire(h)
}

func (c *Context) dump(w io.Writer) {
	fmt.Fprintf(w, "context %s: %s %d Hz\n", c.id, c.purpose, c.sampleRate)
	for _, name := range c.env.Variables() {
		v, _ := c.env.Lookup(name)
		fmt.Fprintf(w, "  %s = %v\n", name, v)
	}
	h := c.active.Load()
	if h == nil {
		fmt.Fprintln(w, "  no pipeline")
		return
	}
	h.pipeline.Dump(w)
}
