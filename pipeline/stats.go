package pipeline

import (
	"fmt"
	"io"
	"time"

	"pipelined.dev/dsp/graph"
)

// Stats of applied blocks.
type Stats struct {
	Blocks  int64
	Samples int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
}

// Stats returns statistics of Apply calls. It's safe to call it
// concurrently with Apply.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Blocks:  p.stats.blocks.Load(),
		Samples: p.stats.samples.Load(),
		Total:   time.Duration(p.stats.total.Load()),
		Max:     time.Duration(p.stats.max.Load()),
	}
	s.Min = time.Duration(p.stats.min.Load())
	return s
}

func (s *stats) add(samples int64, elapsed time.Duration) {
	d := int64(elapsed)
	s.blocks.Add(1)
	s.samples.Add(samples)
	s.total.Add(d)
	for {
		cur := s.min.Load()
		if cur != 0 && d >= cur || s.min.CompareAndSwap(cur, d) {
			break
		}
	}
	for {
		cur := s.max.Load()
		if d <= cur || s.max.CompareAndSwap(cur, d) {
			break
		}
	}
}

// Dump writes description of pipeline: instances with their wiring,
// buffers, channels, delay and statistics.
func (p *Pipeline) Dump(w io.Writer) {
	fmt.Fprintf(w, "pipeline %s (%s)\n", p.id, p.purpose)
	fmt.Fprintf(w, "  sample rate: %d\n", p.sampleRate)
	fmt.Fprintf(w, "  channels: %d in, %d out\n", p.NumInputChannels(), p.NumOutputChannels())
	fmt.Fprintf(w, "  buffers: %d\n", len(p.buffers))
	fmt.Fprintf(w, "  delay: %d\n", p.Delay())
	for _, inst := range p.instances {
		fmt.Fprintf(w, "  %v delay=%d\n", inst.Plugin, inst.delay)
		for _, port := range inst.ports {
			fmt.Fprintf(w, "    %s %d %s", port.Kind, port.index, port.Direction)
			switch {
			case port.peer != nil:
				fmt.Fprintf(w, " <- %s:%d", port.peer.owner.Plugin.Name, port.peer.index)
			case port.Direction == graph.In && port.Kind == graph.Control:
				fmt.Fprintf(w, " = %g", port.value[0])
			}
			if b := inst.Buffer(port.index); b >= 0 {
				fmt.Fprintf(w, " [%d]", b)
			}
			fmt.Fprintln(w)
		}
	}
	s := p.Stats()
	fmt.Fprintf(w, "  blocks: %d samples: %d total: %v min: %v max: %v\n", s.Blocks, s.Samples, s.Total, s.Min, s.Max)
}
