package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"pipelined.dev/dsp/graph"
)

type listCommand struct {
	config string
}

func (cmd *listCommand) Name() string {
	return "list"
}

func (cmd *listCommand) Help() string {
	return "Show plugins and flows of the config"
}

func (cmd *listCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.config, "config", os.Getenv(configEnv), "path to the config file, "+configEnv+" by default")
}

func (cmd *listCommand) Run(w io.Writer) error {
	if cmd.config == "" {
		return fmt.Errorf("missing -config flag")
	}
	g, err := graph.Load(cmd.config)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Plugins:")
	for _, p := range g.Plugins {
		fmt.Fprintf(w, "\t%v", p)
		if p.Purpose != "" {
			fmt.Fprintf(w, " purpose=%s", p.Purpose)
		}
		if p.Disable != nil {
			fmt.Fprintf(w, " disable=%v", p.Disable)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Flows:")
	for _, f := range g.Flows {
		from, to := "-", "-"
		if f.From != nil {
			from = fmt.Sprintf("%s:%d", f.From.Name, f.FromPort)
		}
		if f.To != nil {
			to = fmt.Sprintf("%s:%d", f.To.Name, f.ToPort)
		}
		fmt.Fprintf(w, "\t%s %s %s -> %s\n", f.Name, f.Kind, from, to)
	}
	return nil
}
