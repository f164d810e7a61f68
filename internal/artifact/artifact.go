// Package artifact writes a trace run's output files: aggregate
// statistics and one DOT file per function in the discovered roster.
// It adapts the teacher's internal/output package (writeJSON's
// os.Create/json.Encoder pattern, os.MkdirAll+filepath.Join layout) to
// this system's run-statistics and per-function-graph outputs instead
// of Dart snapshot/symbol/asm dumps.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zboralski/lattice"
	latticerender "github.com/zboralski/lattice/render"

	"tracecfg/internal/blocks"
	"tracecfg/internal/cfgindex"
	"tracecfg/internal/graphconv"
	"tracecfg/internal/render"
)

// Stats mirrors the end-of-run counters original_source/src/tracker.c
// prints: instructions executed vs. unique, and the hashtable's bucket
// and collision counts.
type Stats struct {
	InstructionsExecuted int `json:"instructions_executed"`
	UniqueInstructions   int `json:"unique_instructions"`
	Buckets              int `json:"buckets"`
	Collisions           int `json:"collisions"`
	Functions            int `json:"functions"`
}

// CollectStats builds a Stats value from the index and roster a run
// produced. executed is the caller's running count of Observe calls,
// since the index only knows about unique instructions.
func CollectStats(ix *cfgindex.Index, functionCount, executed int) Stats {
	return Stats{
		InstructionsExecuted: executed,
		UniqueInstructions:   ix.Entries(),
		Buckets:              ix.BucketCount(),
		Collisions:           ix.Collisions(),
		Functions:            functionCount,
	}
}

// WriteStats writes stats.json under dir.
func WriteStats(dir string, s Stats) error {
	return writeJSON(filepath.Join(dir, "stats.json"), s)
}

// WriteFunctionDOT renders one function's block graph and writes it to
// func_<index>.dot under dir/graphs.
func WriteFunctionDOT(dir string, funcIndex int, g *blocks.Graph, theme render.Theme) error {
	path := filepath.Join(dir, "graphs", fmt.Sprintf("func_%d.dot", funcIndex))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir graphs: %w", err)
	}
	name := fmt.Sprintf("func_%d", funcIndex)
	dot := render.CFGDOT(name, g, theme)
	if err := os.WriteFile(path, []byte(dot), 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}

// WriteAllFunctionDOTs converts every function in the roster to a
// lattice.FuncCFG via graphconv and renders each through
// lattice/render.DOTCFG, mirroring the teacher's disasm.go --graph path
// (one lattice.CFGGraph per function, one DOT file per function) rather
// than this project's own themed renderer.
func WriteAllFunctionDOTs(dir string, graphs []*blocks.Graph) error {
	for i, g := range graphs {
		if g == nil {
			continue
		}
		lcfg := graphconv.ToFuncCFG(g, i)
		cg := &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{lcfg}}
		dot := latticerender.DOTCFG(cg, lcfg.Name)

		path := filepath.Join(dir, "graphs", fmt.Sprintf("func_%d.dot", i))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("artifact: mkdir graphs: %w", err)
		}
		if err := os.WriteFile(path, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("artifact: write %s: %w", path, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("artifact: encode %s: %w", path, err)
	}
	return nil
}
