//go:build linux

package main

// cmdStats runs the pipeline and writes only stats.json, skipping DOT
// output entirely — useful for a quick check of a trace's shape
// without paying for the graph writes.
func cmdStats(args []string) error {
	fs, f := newRunFlagSet("stats")
	target, targetArgs, err := parseTarget(fs, args)
	if err != nil {
		return err
	}

	res, err := run(f, target, targetArgs)
	if err != nil {
		return err
	}

	return writeStats(f.output, res)
}
