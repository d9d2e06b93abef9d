package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"pipelined.dev/dsp"
	"pipelined.dev/dsp/expr"
	"pipelined.dev/dsp/log"
)

// configEnv is the environment variable with default config path.
const configEnv = "DSP_CONFIG"

type config struct {
	args []string
	out  io.Writer
}

type command interface {
	Name() string
	Help() string
	Run(io.Writer) error
	Register(*flag.FlagSet)
}

func (config *config) run() int {
	cmdName, args := parseArgs(config.args)
	if cmdName == "" {
		printUsage(config.out)
		return errorExitCode
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}
		flags := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		flags.SetOutput(config.out)
		cmd.Register(flags)
		if err := flags.Parse(args); err != nil {
			return errorExitCode
		}
		if err := cmd.Run(config.out); err != nil {
			fmt.Fprintf(config.out, "Command failed: %v\n", err)
			return errorExitCode
		}
		return successExitCode
	}
	printUsage(config.out)
	return errorExitCode
}

var (
	successExitCode = 0
	errorExitCode   = 1
	commands        = []command{
		&listCommand{},
		&buildCommand{},
		&processCommand{},
		&playCommand{},
	}
)

func main() {
	c := config{
		args: os.Args,
		out:  os.Stdout,
	}
	os.Exit(c.run())
}

func parseArgs(args []string) (string, []string) {
	if len(args) < 2 {
		return "", nil
	}
	return args[1], args[2:]
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "dsp builds and runs audio processing pipelines")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: dsp <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.Help())
	}
}

// variables is a list of key=value flags.
type variables []string

func (v *variables) String() string {
	return strings.Join(*v, ",")
}

func (v *variables) Set(s string) error {
	if !strings.Contains(s, "=") {
		return fmt.Errorf("variable %q must be key=value", s)
	}
	*v = append(*v, s)
	return nil
}

// value parses literals, any other text is a string.
func value(text string) expr.Value {
	if e, err := expr.Parse(text); err == nil {
		if l, ok := e.(expr.Literal); ok {
			return l.Value
		}
	}
	return expr.String(text)
}

// pipelineFlags are common flags of commands which build a pipeline.
type pipelineFlags struct {
	config  string
	purpose string
	vars    variables
	verbose bool
}

func (f *pipelineFlags) register(fs *flag.FlagSet) {
	f.vars = nil
	fs.StringVar(&f.config, "config", os.Getenv(configEnv), "path to the config file, "+configEnv+" by default")
	fs.StringVar(&f.purpose, "purpose", "playback", "purpose of the pipeline")
	fs.Var(&f.vars, "var", "key=value variable of the pipeline environment, can be repeated")
	fs.BoolVar(&f.verbose, "v", false, "print engine logs")
}

// context starts the engine and loads pipeline of the context.
func (f *pipelineFlags) context(sampleRate int) (*dsp.Engine, *dsp.Context, error) {
	if f.config == "" {
		return nil, nil, fmt.Errorf("missing -config flag")
	}
	logger := log.GetLogger()
	if !f.verbose {
		logger.SetLevel(logrus.ErrorLevel)
	}
	e := dsp.New(f.config, dsp.WithLogger(logger))
	c, err := e.NewContext(sampleRate, f.purpose)
	if err != nil {
		e.Stop()
		return nil, nil, err
	}
	for _, kv := range f.vars {
		k, v, _ := strings.Cut(kv, "=")
		if err := c.SetVariable(k, value(v)); err != nil {
			e.Stop()
			return nil, nil, err
		}
	}
	if err := c.LoadPipeline(); err != nil {
		e.Stop()
		return nil, nil, err
	}
	if err := e.Sync(); err != nil {
		e.Stop()
		return nil, nil, err
	}
	return e, c, nil
}
