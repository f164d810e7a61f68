//go:build linux

package main

import (
	"flag"
	"fmt"
	"os"

	"tracecfg/internal/artifact"
	"tracecfg/internal/blocks"
	"tracecfg/internal/cfg"
	"tracecfg/internal/cfgindex"
	"tracecfg/internal/decode"
	"tracecfg/internal/tracer"
)

// runFlags is the flag set shared by trace, render and stats — each
// subcommand runs the same trace loop and differs only in which
// artifacts it writes at the end.
type runFlags struct {
	output       string
	intel        bool
	verbose      bool
	debug        bool
	maxSteps     int
	funcIdx      int
	verifyDecode bool
}

func newRunFlagSet(name string) (*flag.FlagSet, *runFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := &runFlags{}
	fs.StringVar(&f.output, "o", "out", "output directory")
	fs.StringVar(&f.output, "output", "out", "output directory")
	fs.BoolVar(&f.intel, "i", false, "decode with Intel syntax")
	fs.BoolVar(&f.intel, "intel", false, "decode with Intel syntax")
	fs.BoolVar(&f.verbose, "v", false, "log each executed instruction")
	fs.BoolVar(&f.verbose, "verbose", false, "log each executed instruction")
	fs.BoolVar(&f.debug, "d", false, "log tracer internals")
	fs.BoolVar(&f.debug, "debug", false, "log tracer internals")
	fs.IntVar(&f.maxSteps, "max-steps", 0, "stop after n single-steps (0 = unlimited)")
	fs.IntVar(&f.funcIdx, "func", 0, "roster index of the function to render")
	fs.BoolVar(&f.verifyDecode, "verify-decode", false, "cross-check each decoded instruction against gapstone (only takes effect when built with -tags gapstone)")
	return fs, f
}

// runResult is everything a run produced, ready for a subcommand to
// select which pieces to persist.
type runResult struct {
	index    *cfgindex.Index
	roster   *cfg.Roster
	graphs   []*blocks.Graph
	executed int
}

// run launches target under ptrace, single-steps it to completion (or
// to f.maxSteps), and builds the observed CFG plus every function's
// block graph. It is the one control loop all three subcommands share.
func run(f *runFlags, target string, targetArgs []string) (*runResult, error) {
	trc, err := tracer.Launch(target, targetArgs, os.Stdout, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("dynacfg: launch %s: %w", target, err)
	}
	if f.debug {
		fmt.Fprintf(os.Stderr, "dynacfg: traced pid %d, arch %s\n", trc.Pid(), trc.Arch())
	}

	syntax := decode.ATT
	if f.intel {
		syntax = decode.Intel
	}
	decOpts := decode.Options{Mode: trc.Arch().Mode(), Syntax: syntax}

	ix, err := cfgindex.New(cfgindex.DefaultBucketCount)
	if err != nil {
		return nil, fmt.Errorf("dynacfg: %w", err)
	}
	builder := cfg.NewBuilder(ix)

	executed := 0
	childExited := false
	for f.maxSteps <= 0 || executed < f.maxSteps {
		addr, raw, exited, err := trc.Step()
		if err != nil {
			return nil, fmt.Errorf("dynacfg: step: %w", err)
		}
		if exited {
			childExited = true
			break
		}

		decoded, decErr := decode.Decode(addr, raw, decOpts)
		if decErr != nil {
			if f.verbose {
				fmt.Fprintf(os.Stderr, "dynacfg: %v\n", decErr)
			}
		} else if f.verifyDecode {
			maybeVerifyDecode(addr, raw, decoded, decOpts.Mode)
		}

		opcodes := raw
		if decoded.Size > 0 && decoded.Size <= len(raw) {
			opcodes = raw[:decoded.Size]
		}

		if f.verbose {
			fmt.Fprintln(os.Stderr, decoded.Text)
		}

		if _, err := builder.Observe(addr, opcodes, decoded.Text); err != nil {
			return nil, fmt.Errorf("dynacfg: observe 0x%x: %w", addr, err)
		}
		executed++
	}

	// Step has already reaped a child that ran to completion.
	if !childExited {
		if _, err := trc.Wait(); err != nil {
			return nil, fmt.Errorf("dynacfg: %w", err)
		}
	}

	roster := builder.Roster()
	graphs := make([]*blocks.Graph, roster.Len())
	for i := 0; i < roster.Len(); i++ {
		graphs[i] = blocks.Synthesize(roster.At(i))
	}

	return &runResult{index: ix, roster: roster, graphs: graphs, executed: executed}, nil
}

func writeStats(dir string, res *runResult) error {
	s := artifact.CollectStats(res.index, res.roster.Len(), res.executed)
	fmt.Fprintf(os.Stderr, "dynacfg: %d instructions executed, %d unique, %d buckets, %d collisions, %d functions\n",
		s.InstructionsExecuted, s.UniqueInstructions, s.Buckets, s.Collisions, s.Functions)
	return artifact.WriteStats(dir, s)
}

func parseTarget(fs *flag.FlagSet, args []string) (target string, targetArgs []string, err error) {
	if err := fs.Parse(args); err != nil {
		return "", nil, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return "", nil, fmt.Errorf("a target executable is required (dynacfg %s [flags] -- <target> [args...])", fs.Name())
	}
	return rest[0], rest[1:], nil
}
