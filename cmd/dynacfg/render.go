//go:build linux

package main

import (
	"fmt"

	"tracecfg/internal/artifact"
	"tracecfg/internal/render"
)

// cmdRender runs the pipeline and writes only the DOT for one
// function, picked by roster index (--func), mirroring the original C
// tracker's main() picking a single function root by list index before
// calling graph_create_function.
func cmdRender(args []string) error {
	fs, f := newRunFlagSet("render")
	target, targetArgs, err := parseTarget(fs, args)
	if err != nil {
		return err
	}

	res, err := run(f, target, targetArgs)
	if err != nil {
		return err
	}

	if f.funcIdx < 0 || f.funcIdx >= len(res.graphs) {
		return fmt.Errorf("dynacfg: --func %d out of range (roster has %d functions)", f.funcIdx, len(res.graphs))
	}

	return artifact.WriteFunctionDOT(f.output, f.funcIdx, res.graphs[f.funcIdx], render.NASA)
}
