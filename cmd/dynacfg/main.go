// Command dynacfg drives a target program under ptrace, builds an
// observed-execution control-flow graph as it runs, and emits DOT
// graphs and run statistics from what it saw.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "trace":
		err = cmdTrace(os.Args[2:])
	case "render":
		err = cmdRender(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	case "-V", "--version":
		fmt.Println("dynacfg 0.1.0")
		os.Exit(0)
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `dynacfg — dynamic trust-bounded x86 CFG tracer

Usage:
  dynacfg trace  [flags] -- <target> [args...]   Trace target, write stats.json and every function's DOT
  dynacfg render [flags] -- <target> [args...]   Trace target, write only one function's DOT (see --func)
  dynacfg stats  [flags] -- <target> [args...]   Trace target, print run statistics only

Flags:
  -o, --output <dir>    output directory (default "out")
  -i, --intel           decode with Intel syntax (default AT&T)
  -v, --verbose         log each executed instruction to stderr
  -d, --debug           log ptrace/tracer internals to stderr
  --max-steps <n>       stop after n single-steps (0 = unlimited)
  --func <n>            (render only) roster index of the function to render (default 0)
  --verify-decode       cross-check each decode against gapstone (needs -tags gapstone; else warns once)
  -V, --version         print version and exit
  -h, --help            print this message and exit
`)
}
