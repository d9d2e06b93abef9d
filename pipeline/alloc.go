package pipeline

import (
	"math/bits"

	"pipelined.dev/dsp/graph"
	"pipelined.dev/dsp/module"
	"pipelined.dev/dsp/signal"
)

// slots is a bitset of busy buffer slots.
type slots struct {
	words []uint64
	peak  int
}

// acquire returns the lowest free slot.
func (s *slots) acquire() int {
	for i, w := range s.words {
		if w != ^uint64(0) {
			b := bits.TrailingZeros64(^w)
			s.words[i] |= 1 << b
			return s.mark(i*64 + b)
		}
	}
	s.words = append(s.words, 1)
	return s.mark((len(s.words) - 1) * 64)
}

func (s *slots) mark(slot int) int {
	if slot+1 > s.peak {
		s.peak = slot + 1
	}
	return slot
}

func (s *slots) release(slot int) {
	s.words[slot/64] &^= 1 << (slot % 64)
}

// allocate assigns buffer slots to audio outputs in execution order and
// creates the buffers. Slot is reused once all consumers of the buffer
// are executed. Outputs of in-place-broken modules are allocated before
// their inputs are released.
func (p *Pipeline) allocate() {
	for _, inst := range p.instances {
		for _, out := range inst.audio(graph.Out) {
			out.pending = 0
		}
	}
	for _, inst := range p.instances {
		for _, in := range inst.audio(graph.In) {
			in.peer.pending++
		}
	}

	var s slots
	for _, inst := range p.instances {
		if inst.properties&module.InPlaceBroken != 0 {
			inst.acquire(&s)
			inst.release(&s)
		} else {
			inst.release(&s)
			inst.acquire(&s)
		}
		// outputs nobody reads are scratch space of the module.
		for _, out := range inst.audio(graph.Out) {
			if out.pending == 0 {
				s.release(out.buf)
			}
		}
	}
	if len(p.buffers) != s.peak {
		p.buffers = signal.EmptyFloat64(s.peak, MaxBlockSize)
	}
}

func (i *Instance) acquire(s *slots) {
	for _, out := range i.audio(graph.Out) {
		out.buf = s.acquire()
	}
}

func (i *Instance) release(s *slots) {
	for _, in := range i.audio(graph.In) {
		in.peer.pending--
		if in.peer.pending == 0 {
			s.release(in.peer.buf)
		}
	}
}

// audio returns audio ports in direction. Inputs without producer are
// skipped.
func (i *Instance) audio(dir graph.Direction) []*port {
	var ports []*port
	for _, p := range i.ports {
		if p.Kind != graph.Audio || p.Direction != dir {
			continue
		}
		if dir == graph.In && p.peer == nil {
			continue
		}
		ports = append(ports, p)
	}
	return ports
}
