package module

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Builtin module labels.
const (
	LabelSource    = "source"
	LabelSink      = "sink"
	LabelSwapLR    = "swap_lr"
	LabelInvertLR  = "invert_lr"
	LabelMixStereo = "mix_stereo"
	LabelDCBlock   = "dcblock"
	LabelGain      = "gain"
)

// builtins are modules provided by the engine. Stereo modules take
// ports 0 and 1 as left and right inputs, ports 2 and 3 as left and
// right outputs. Mono modules take port 0 as audio input, port 1 as
// control input and port 2 as audio output.
var builtins = map[string]Factory{
	LabelSource:    func() Module { return &boundary{} },
	LabelSink:      func() Module { return &boundary{} },
	LabelSwapLR:    func() Module { return &swapLR{} },
	LabelInvertLR:  func() Module { return &invertLR{} },
	LabelMixStereo: func() Module { return &mixStereo{} },
	LabelDCBlock:   func() Module { return &dcBlock{} },
	LabelGain:      func() Module { return &gain{} },
}

// ports keeps connected port data.
type ports struct {
	data       [][]float64
	sampleRate int
}

func (p *ports) Instantiate(sampleRate int) error {
	p.sampleRate = sampleRate
	return nil
}

func (p *ports) ConnectPort(port int, data []float64) {
	for len(p.data) <= port {
		p.data = append(p.data, nil)
	}
	p.data[port] = data
}

func (p *ports) port(i int) []float64 {
	if i < len(p.data) {
		return p.data[i]
	}
	return nil
}

// connected reports if all ports are connected.
func (p *ports) connected(indices ...int) bool {
	for _, i := range indices {
		if p.port(i) == nil {
			return false
		}
	}
	return true
}

func (*ports) Delay() int           { return 0 }
func (*ports) Deinstantiate()       {}
func (p *ports) Free()              { p.data = nil }
func (*ports) Properties() Property { return 0 }

// boundary is source and sink. Pipeline reads and writes their buffers
// directly.
type boundary struct {
	ports
}

func (*boundary) Run(int) {}

type swapLR struct {
	ports
}

func (m *swapLR) Run(samples int) {
	if !m.connected(0, 1, 2, 3) {
		return
	}
	l, r := m.port(0)[:samples], m.port(1)[:samples]
	outL, outR := m.port(2)[:samples], m.port(3)[:samples]
	for i := range l {
		outL[i], outR[i] = r[i], l[i]
	}
}

// invertLR inverts the phase of the left channel.
type invertLR struct {
	ports
}

func (m *invertLR) Run(samples int) {
	if !m.connected(0, 1, 2, 3) {
		return
	}
	// outputs may alias either input.
	in0, in1 := m.port(0)[:samples], m.port(1)[:samples]
	out0, out1 := m.port(2)[:samples], m.port(3)[:samples]
	for i := range in0 {
		l, r := in0[i], in1[i]
		out0[i], out1[i] = -l, r
	}
}

// mixStereo puts average of channels to both outputs.
type mixStereo struct {
	ports
}

func (m *mixStereo) Run(samples int) {
	if !m.connected(0, 1, 2, 3) {
		return
	}
	outL := m.port(2)[:samples]
	floats.AddTo(outL, m.port(0)[:samples], m.port(1)[:samples])
	floats.Scale(0.5, outL)
	copy(m.port(3)[:samples], outL)
}

// defaultDCBlockR is used when dcblock has no control port.
const defaultDCBlockR = 0.995

type dcBlock struct {
	ports
	x1, y1 float64
}

func (m *dcBlock) Instantiate(sampleRate int) error {
	m.x1, m.y1 = 0, 0
	return m.ports.Instantiate(sampleRate)
}

func (m *dcBlock) Run(samples int) {
	r := defaultDCBlockR
	if ctl := m.port(1); len(ctl) > 0 {
		r = ctl[0]
	}
	if !m.connected(0, 2) {
		return
	}
	in, out := m.port(0)[:samples], m.port(2)[:samples]
	for i, x := range in {
		y := x - m.x1 + r*m.y1
		m.x1, m.y1 = x, y
		out[i] = y
	}
}

// gain multiplies signal by the control value in decibels.
type gain struct {
	ports
}

func (m *gain) Run(samples int) {
	var db float64
	if ctl := m.port(1); len(ctl) > 0 {
		db = ctl[0]
	}
	if !m.connected(0, 2) {
		return
	}
	floats.ScaleTo(m.port(2)[:samples], math.Pow(10, db/20), m.port(0)[:samples])
}
