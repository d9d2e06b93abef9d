package dsp_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pipelined.dev/dsp"
	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/mock"
	"pipelined.dev/dsp/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errLoad = errors.New("load error")

const speaker = `
[src]
library=builtin
label=source
purpose=playback
output_0={l}
output_1={r}

[eq]
library=ext
label=eq
disable=(not (equal? dsp_name "speaker_eq"))
input_0={l}
input_1={r}
output_0={l1}
output_1={r1}

[swap]
library=builtin
label=swap_lr
disable=swap_lr_disabled
input_0={l1}
input_1={r1}
output_0={l2}
output_1={r2}

[sink]
library=builtin
label=sink
purpose=playback
input_0={l2}
input_1={r2}
`

const mono = `
[src]
library=builtin
label=source
purpose=playback
output_0={l}
output_1={r}

[sink]
library=builtin
label=sink
purpose=playback
input_0={l}
`

func writeConfig(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func newLoader() *mock.Loader {
	return &mock.Loader{
		Modules: map[string]func() *mock.Module{
			"eq": func() *mock.Module { return &mock.Module{Inputs: 2} },
		},
	}
}

func newEngine(t *testing.T, text string, options ...dsp.Option) (*dsp.Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dsp.ini")
	writeConfig(t, path, text)
	l := logrus.New()
	l.SetOutput(io.Discard)
	e := dsp.New(path, append([]dsp.Option{dsp.WithLogger(l)}, options...)...)
	t.Cleanup(e.Stop)
	return e, path
}

func names(p *pipeline.Pipeline) []string {
	var result []string
	for _, inst := range p.Instances() {
		result = append(result, inst.Plugin.Name)
	}
	return result
}

func get(t *testing.T, c *dsp.Context) *pipeline.Pipeline {
	t.Helper()
	p := c.GetPipeline()
	c.PutPipeline()
	return p
}

func TestLoadPipeline(t *testing.T) {
	loader := newLoader()
	e, _ := newEngine(t, speaker, dsp.WithLoader(loader))
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	assert.Nil(t, get(t, c))
	assert.Equal(t, 48000, c.SampleRate())
	assert.Equal(t, "playback", c.Purpose())

	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	p := get(t, c)
	require.NotNil(t, p)
	assert.Equal(t, []string{"src", "sink"}, names(p))
	assert.Equal(t, 48000, p.SampleRate())
	assert.Equal(t, 2, c.NumInputChannels())
	assert.Equal(t, 2, c.NumOutputChannels())

	require.NoError(t, c.SetVariableString("dsp_name", "speaker_eq"))
	require.NoError(t, c.SetVariableBoolean("swap_lr_disabled", false))
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	p = get(t, c)
	require.NotNil(t, p)
	assert.Equal(t, []string{"src", "eq", "swap", "sink"}, names(p))

	buf := []int16{1, 2, 3, 4}
	p = c.GetPipeline()
	p.Apply(buf, 2)
	c.PutPipeline()
	assert.Equal(t, []int16{2, 1, 4, 3}, buf)
}

func TestDefaults(t *testing.T) {
	e, _ := newEngine(t, speaker,
		dsp.WithLoader(newLoader()),
		dsp.WithDefaults(map[string]expr.Value{"dsp_name": expr.String("speaker_eq")}),
	)
	c, err := e.NewContext(44100, "playback")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	assert.Equal(t, []string{"src", "eq", "sink"}, names(get(t, c)))
}

func TestUnavailable(t *testing.T) {
	e, _ := newEngine(t, speaker, dsp.WithLoader(newLoader()))
	c, err := e.NewContext(48000, "capture")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	assert.Nil(t, get(t, c))
	assert.Equal(t, 0, c.NumInputChannels())
	assert.Equal(t, 0, c.NumOutputChannels())
}

func TestMissingConfig(t *testing.T) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	e := dsp.New(filepath.Join(t.TempDir(), "missing.ini"), dsp.WithLogger(l))
	defer e.Stop()
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	assert.Nil(t, get(t, c))
}

func TestModuleError(t *testing.T) {
	loader := newLoader()
	e, _ := newEngine(t, speaker,
		dsp.WithLoader(loader),
		dsp.WithDefaults(map[string]expr.Value{"dsp_name": expr.String("speaker_eq")}),
	)
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	before := get(t, c)
	require.NotNil(t, before)

	loader.ErrorOnLoad = errLoad
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	assert.Equal(t, before, get(t, c))
}

func TestReloadConfig(t *testing.T) {
	loader := newLoader()
	e, path := newEngine(t, speaker,
		dsp.WithLoader(loader),
		dsp.WithDefaults(map[string]expr.Value{"dsp_name": expr.String("speaker_eq")}),
	)
	playback, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	capture, err := e.NewContext(48000, "capture")
	require.NoError(t, err)
	require.NoError(t, playback.LoadPipeline())
	require.NoError(t, capture.LoadPipeline())
	require.NoError(t, e.Sync())
	require.NotNil(t, get(t, playback))
	eq := loader.Find("eq")
	require.NotNil(t, eq)

	// invalid config keeps previous graph.
	writeConfig(t, path, "[broken]\nlabel=source\n")
	require.NoError(t, e.ReloadConfig())
	require.NoError(t, e.Sync())
	assert.Equal(t, 2, playback.NumOutputChannels())
	assert.False(t, eq.Freed)

	writeConfig(t, path, mono)
	require.NoError(t, e.ReloadConfig())
	require.NoError(t, e.Sync())
	p := get(t, playback)
	require.NotNil(t, p)
	assert.Equal(t, []string{"src", "sink"}, names(p))
	assert.Equal(t, 2, playback.NumInputChannels())
	assert.Equal(t, 1, playback.NumOutputChannels())
	assert.True(t, eq.Freed)
	assert.Nil(t, get(t, capture))

	// contexts are rebuilt from the new graph.
	require.NoError(t, playback.LoadPipeline())
	require.NoError(t, e.Sync())
	assert.Equal(t, []string{"src", "sink"}, names(get(t, playback)))
}

func TestDeferredTeardown(t *testing.T) {
	loader := newLoader()
	l, hook := test.NewNullLogger()
	e, _ := newEngine(t, speaker,
		dsp.WithLoader(loader),
		dsp.WithLogger(l),
		dsp.WithDefaults(map[string]expr.Value{"dsp_name": expr.String("speaker_eq")}),
	)
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())

	held := c.GetPipeline()
	require.NotNil(t, held)
	eq := loader.Find("eq")
	require.NotNil(t, eq)

	require.NoError(t, c.LoadPipeline())
	done := make(chan struct{})
	go func() {
		_ = e.Sync()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("held pipeline is released")
	case <-time.After(150 * time.Millisecond):
	}
	c.PutPipeline()
	<-done
	assert.True(t, eq.Freed)
	p := get(t, c)
	require.NotNil(t, p)
	assert.NotEqual(t, held.ID(), p.ID())

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
			assert.Equal(t, held.ID(), entry.Data["pipeline"])
			assert.Equal(t, "dsp", entry.Data["component"])
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestLogger(t *testing.T) {
	l, hook := test.NewNullLogger()
	e, _ := newEngine(t, `
[A]
library=builtin
label=source
purpose=playback
output_0={a}

[B]
library=builtin
label=gain
input_0={a}
input_1=loud
output_0={b}

[S]
library=builtin
label=sink
purpose=playback
input_0={b}
`, dsp.WithLogger(l))
	require.NoError(t, e.Sync())

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Data["component"] == "graph" {
			found = true
			assert.Contains(t, entry.Message, "loud")
		}
	}
	assert.True(t, found)
}

func TestFree(t *testing.T) {
	loader := newLoader()
	e, _ := newEngine(t, speaker,
		dsp.WithLoader(loader),
		dsp.WithDefaults(map[string]expr.Value{"dsp_name": expr.String("speaker_eq")}),
	)
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, c.Free())
	// rebuild after free is discarded.
	require.NoError(t, c.LoadPipeline())
	require.NoError(t, e.Sync())
	assert.Nil(t, get(t, c))
	for _, m := range loader.Loaded() {
		assert.True(t, m.Freed)
	}

	var b bytes.Buffer
	require.NoError(t, e.Dump(&b))
	assert.NotContains(t, b.String(), c.ID())
}

func TestDump(t *testing.T) {
	e, _ := newEngine(t, speaker, dsp.WithLoader(newLoader()))
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	capture, err := e.NewContext(16000, "capture")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())

	var b bytes.Buffer
	require.NoError(t, e.Dump(&b))
	out := b.String()
	assert.Contains(t, out, c.ID())
	assert.Contains(t, out, "playback 48000 Hz")
	assert.Contains(t, out, `dsp_name = ""`)
	assert.Contains(t, out, "src(builtin:source)")
	assert.Contains(t, out, capture.ID())
	assert.Contains(t, out, "no pipeline")
}

func TestStop(t *testing.T) {
	loader := newLoader()
	e, _ := newEngine(t, speaker,
		dsp.WithLoader(loader),
		dsp.WithDefaults(map[string]expr.Value{"dsp_name": expr.String("speaker_eq")}),
	)
	c, err := e.NewContext(48000, "playback")
	require.NoError(t, err)
	require.NoError(t, c.LoadPipeline())
	e.Stop()

	assert.Nil(t, get(t, c))
	for _, m := range loader.Loaded() {
		assert.True(t, m.Freed)
	}
	_, err = e.NewContext(48000, "playback")
	assert.ErrorIs(t, err, dsp.ErrStopped)
	assert.ErrorIs(t, e.Sync(), dsp.ErrStopped)
	assert.ErrorIs(t, c.LoadPipeline(), dsp.ErrStopped)
	assert.ErrorIs(t, e.Dump(io.Discard), dsp.ErrStopped)
}
