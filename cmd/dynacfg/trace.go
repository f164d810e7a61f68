//go:build linux

package main

import (
	"tracecfg/internal/artifact"
)

// cmdTrace runs the full pipeline and writes both stats.json and every
// discovered function's DOT graph.
func cmdTrace(args []string) error {
	fs, f := newRunFlagSet("trace")
	target, targetArgs, err := parseTarget(fs, args)
	if err != nil {
		return err
	}

	res, err := run(f, target, targetArgs)
	if err != nil {
		return err
	}

	if err := writeStats(f.output, res); err != nil {
		return err
	}
	return artifact.WriteAllFunctionDOTs(f.output, res.graphs)
}
