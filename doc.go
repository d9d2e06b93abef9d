/*
Package dsp builds and runs audio processing pipelines described by a
configuration file.

Concept

Configuration declares plugins. Every plugin has a library and a label
of the module it runs, optional purpose and disable expression, and
ports connected with named flows:

	[eq]
	library=builtin
	label=gain
	disable=(not (equal? dsp_name "speaker_eq"))
	input_0={in}
	input_1=-3
	output_0={out}

Builtin plugins with labels source and sink mark the boundary of the
pipeline for their purpose, for example playback or capture.

Engine

Engine owns the configuration and a worker which builds pipelines. All
blocking operations are executed by the worker, so they can be requested
from any goroutine:

	e := dsp.New("speakerdsp.ini")
	defer e.Stop()
	ctx, err := e.NewContext(48000, "playback")
	ctx.SetVariableString("dsp_name", "speaker_eq")
	ctx.LoadPipeline()

Context

Context couples the purpose and sample rate with the pipeline built for
them. Real-time code takes the pipeline with GetPipeline and releases it
with PutPipeline. GetPipeline returns nil if there is no pipeline or a
new one is being built, in this case audio should pass unmodified:

	if p := ctx.GetPipeline(); p != nil {
		p.Apply(samples, frames)
	}
	ctx.PutPipeline()

Neither GetPipeline nor PutPipeline blocks or allocates.
*/
package dsp
