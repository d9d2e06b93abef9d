package pipeline

import (
	"fmt"
	"time"

	"pipelined.dev/dsp/graph"
	"pipelined.dev/dsp/metric"
	"pipelined.dev/dsp/module"
	"pipelined.dev/dsp/signal"
)

// Load creates modules of all instances with the loader and caches
// their properties. Buffers are reallocated with respect to modules
// which can't process in place. If any module fails to load, already
// loaded modules are freed.
func (p *Pipeline) Load(loader module.Loader) error {
	if p.loaded {
		return nil
	}
	var errs moduleErrors
	for _, inst := range p.instances {
		m, err := loader.Load(inst.Plugin.Library, inst.Plugin.Label)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: load %v: %w", ErrModule, inst.Plugin, err))
			continue
		}
		inst.module = m
		inst.properties = m.Properties()
	}
	if err := errs.ret(); err != nil {
		p.free()
		return err
	}
	p.loaded = true
	p.allocate()
	return nil
}

// Instantiate instantiates modules with the sample rate, connects their
// ports and computes delays. If any module fails, the ones instantiated
// before are deinstantiated.
func (p *Pipeline) Instantiate(sampleRate int) error {
	if !p.loaded {
		return fmt.Errorf("%w: pipeline is not loaded", ErrModule)
	}
	if p.instantiated {
		return fmt.Errorf("%w: pipeline is already instantiated", ErrModule)
	}
	for i, inst := range p.instances {
		if err := inst.module.Instantiate(sampleRate); err != nil {
			for _, done := range p.instances[:i] {
				done.module.Deinstantiate()
			}
			return fmt.Errorf("%w: instantiate %v: %w", ErrModule, inst.Plugin, err)
		}
	}
	for _, inst := range p.instances {
		inst.connect(p.buffers)
		inst.delay = inst.module.Delay()
		upstream := 0
		for _, in := range inst.ports {
			if in.peer != nil && in.peer.owner.delay > upstream {
				upstream = in.peer.owner.delay
			}
		}
		inst.delay += upstream
	}
	p.sourceBuffers = p.sourceBuffers[:0]
	for _, out := range p.source.audio(graph.Out) {
		p.sourceBuffers = append(p.sourceBuffers, p.buffers[out.buf])
	}
	p.sinkBuffers = p.sinkBuffers[:0]
	for _, in := range p.sink.audio(graph.In) {
		p.sinkBuffers = append(p.sinkBuffers, p.buffers[in.peer.buf])
	}
	p.sampleRate = sampleRate
	p.meter = metric.Meter(p.purpose, sampleRate)
	p.instantiated = true
	return nil
}

// connect ports of module to buffers and control values.
func (i *Instance) connect(buffers signal.Float64) {
	for _, port := range i.ports {
		var data []float64
		switch {
		case port.Kind == graph.Audio && port.Direction == graph.Out:
			data = buffers[port.buf]
		case port.Kind == graph.Audio:
			data = buffers[port.peer.buf]
		case port.Direction == graph.In && port.peer != nil:
			data = port.peer.value[:]
		default:
			data = port.value[:]
		}
		i.module.ConnectPort(port.index, data)
	}
}

// Run processes samples by every instance in execution order. Samples
// must not exceed MaxBlockSize.
func (p *Pipeline) Run(samples int) {
	for _, inst := range p.instances {
		inst.module.Run(samples)
	}
}

// Apply processes interleaved buffer in place. Frames are converted
// into source buffers and processed in blocks of at most MaxBlockSize,
// results are written back from sink buffers. Buffer must hold frames
// of input channels. Nil pipeline doesn't change the buffer.
func (p *Pipeline) Apply(buf []int16, frames int) {
	if p == nil || frames == 0 {
		return
	}
	start := time.Now()
	inCh, outCh := len(p.sourceBuffers), len(p.sinkBuffers)
	var read, write int
	for remaining := frames; remaining > 0; {
		chunk := remaining
		if chunk > MaxBlockSize {
			chunk = MaxBlockSize
		}
		signal.Deinterleave16(buf[read:], p.sourceBuffers, chunk)
		p.Run(chunk)
		signal.Interleave16(p.sinkBuffers, buf[write:], chunk)
		read += chunk * inCh
		write += chunk * outCh
		remaining -= chunk
	}
	elapsed := time.Since(start)
	p.stats.add(int64(frames), elapsed)
	if p.meter != nil {
		p.meter(int64(frames), elapsed)
	}
}

// SourceBuffer returns buffer of i-th source output channel.
func (p *Pipeline) SourceBuffer(i int) []float64 {
	return p.sourceBuffers[i]
}

// SinkBuffer returns buffer of i-th sink input channel.
func (p *Pipeline) SinkBuffer(i int) []float64 {
	return p.sinkBuffers[i]
}

// Delay returns total delay of pipeline in frames. It's valid only
// after Instantiate.
func (p *Pipeline) Delay() int {
	return p.sink.delay
}

// SampleRate returns sample rate pipeline is instantiated with.
func (p *Pipeline) SampleRate() int {
	return p.sampleRate
}

// Deinstantiate releases resources of instantiated modules. Pipeline
// can be instantiated again, possibly with another sample rate.
func (p *Pipeline) Deinstantiate() {
	if !p.instantiated {
		return
	}
	for _, inst := range p.instances {
		inst.module.Deinstantiate()
	}
	p.instantiated = false
}

// Free deinstantiates and frees all modules.
func (p *Pipeline) Free() {
	if p == nil {
		return
	}
	p.Deinstantiate()
	p.free()
	p.loaded = false
}

func (p *Pipeline) free() {
	for _, inst := range p.instances {
		if inst.module != nil {
			inst.module.Free()
			inst.module = nil
		}
	}
}
