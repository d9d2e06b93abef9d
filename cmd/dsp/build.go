package main

import (
	"flag"
	"io"
)

type buildCommand struct {
	pipelineFlags
	sampleRate int
}

func (cmd *buildCommand) Name() string {
	return "build"
}

func (cmd *buildCommand) Help() string {
	return "Build the pipeline and show its structure"
}

func (cmd *buildCommand) Register(fs *flag.FlagSet) {
	cmd.register(fs)
	fs.IntVar(&cmd.sampleRate, "rate", 48000, "sample rate of the pipeline")
}

func (cmd *buildCommand) Run(w io.Writer) error {
	e, _, err := cmd.context(cmd.sampleRate)
	if err != nil {
		return err
	}
	defer e.Stop()
	return e.Dump(w)
}
