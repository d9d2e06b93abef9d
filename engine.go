package dsp

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/graph"
	"pipelined.dev/dsp/internal/worker"
	"pipelined.dev/dsp/log"
	"pipelined.dev/dsp/module"
	"pipelined.dev/dsp/pipeline"
)

// ErrStopped is returned when operation is requested after the engine
// is stopped.
var ErrStopped = errors.New("engine stopped")

// DefaultVariables are set in the environment of every new context.
var DefaultVariables = map[string]expr.Value{
	"disable_eq":       expr.Boolean(false),
	"disable_drc":      expr.Boolean(false),
	"swap_lr_disabled": expr.Boolean(true),
	"dsp_name":         expr.String(""),
}

// Engine holds the graph parsed from configuration and the contexts
// built from it. Graph and contexts are owned by the worker.
type Engine struct {
	path     string
	loader   module.Loader
	logger   *logrus.Logger
	log      *logrus.Entry
	defaults map[string]expr.Value
	worker   *worker.Worker

	// owned by worker.
	graph    *graph.Graph
	contexts []*Context
}

// New creates the engine and starts loading the configuration file.
// Configuration errors are logged, the engine stays functional but
// pipelines are unavailable until configuration is reloaded.
//
// Logger provided with WithLogger also replaces the loggers of expr,
// graph and pipeline packages. Those loggers are process-wide.
func New(path string, options ...Option) *Engine {
	e := Engine{
		path:     path,
		defaults: make(map[string]expr.Value, len(DefaultVariables)),
	}
	for k, v := range DefaultVariables {
		e.defaults[k] = v
	}
	for _, option := range options {
		option(&e)
	}
	if e.logger == nil {
		e.logger = log.GetLogger()
	} else {
		expr.SetLogger(e.logger)
		graph.SetLogger(e.logger)
		pipeline.SetLogger(e.logger)
	}
	if e.loader == nil {
		e.loader = module.NewRegistry(module.NewPluginLoader())
	}
	e.log = log.Component(e.logger, "dsp")
	e.worker = worker.New()
	_ = e.post(func() { e.loadGraph() })
	return &e
}

// post adds job to the worker queue.
func (e *Engine) post(j worker.Job) error {
	if err := e.worker.Post(j); err != nil {
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	return nil
}

// loadGraph parses configuration file. Previous graph is kept if
// configuration is not valid.
func (e *Engine) loadGraph() bool {
	g, err := graph.Load(e.path)
	if err != nil {
		e.log.WithField("path", e.path).Errorf("failed to load config: %v", err)
		return false
	}
	e.graph = g
	e.log.WithField("path", e.path).Debugf("loaded config: %d plugins, %d flows", len(g.Plugins), len(g.Flows))
	return true
}

// NewContext creates a context for the purpose and sample rate. The
// environment of context has default variables. Pipeline is not built
// until LoadPipeline is called.
func (e *Engine) NewContext(sampleRate int, purpose string) (*Context, error) {
	c := newContext(e, sampleRate, purpose)
	if err := e.post(func() { e.contexts = append(e.contexts, c) }); err != nil {
		return nil, err
	}
	return c, nil
}

// ReloadConfig parses the configuration file again and rebuilds
// pipelines of all contexts. If configuration is not valid, previous
// one stays active.
func (e *Engine) ReloadConfig() error {
	return e.post(func() {
		if !e.loadGraph() {
			return
		}
		for _, c := range e.contexts {
			c.load()
		}
	})
}

// Sync blocks until all requested operations are executed.
func (e *Engine) Sync() error {
	if err := e.worker.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	return nil
}

// Dump writes the state of all contexts and their pipelines.
func (e *Engine) Dump(w io.Writer) error {
	done := make(chan struct{})
	err := e.post(func() {
		defer close(done)
		fmt.Fprintf(w, "config: %s\n", e.path)
		for _, c := range e.contexts {
			c.dump(w)
		}
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Stop frees all contexts and stops the worker. Contexts can't be used
// after engine is stopped.
func (e *Engine) Stop() {
	_ = e.post(func() {
		for _, c := range e.contexts {
			c.closed.Store(true)
			c.release()
		}
		e.contexts = nil
	})
	e.worker.Stop()
}

// remove context from the list of live contexts.
func (e *Engine) remove(c *Context) {
	for i := range e.contexts {
		if e.contexts[i] == c {
			e.contexts = append(e.contexts[:i], e.contexts[i+1:]...)
			return
		}
	}
}
