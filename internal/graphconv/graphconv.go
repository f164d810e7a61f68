// Package graphconv converts this system's synthesized block graph
// (internal/blocks.Graph) into github.com/zboralski/lattice's
// FuncCFG/BasicBlock/Successor types, the same interchange shape the
// teacher's internal/callgraph package builds for its own block CFGs.
package graphconv

import (
	"fmt"

	"github.com/zboralski/lattice"

	"tracecfg/internal/blocks"
)

// ToFuncCFG maps one function's synthesized block graph into a
// lattice.FuncCFG, named per its roster index since this system has no
// symbol table to recover a real function name from (spec.md §1's
// non-goal on symbolic recovery). lattice.BasicBlock has no field for
// the per-instruction text blocks.Block.Label carries, so the lattice
// path renders structure only (block IDs, edges, T/F branch labels);
// the disassembly text stays on the internal/render.CFGDOT path used
// by dynacfg render.
func ToFuncCFG(g *blocks.Graph, funcIndex int) *lattice.FuncCFG {
	lcfg := &lattice.FuncCFG{Name: fmt.Sprintf("func_%d", funcIndex)}

	for _, blk := range g.Blocks {
		lb := &lattice.BasicBlock{
			ID:   blk.ID,
			Term: len(blk.Succs) == 0,
		}
		for _, s := range blk.Succs {
			cond := ""
			if len(blk.Succs) == 2 {
				if s.BlockID == blk.Succs[0].BlockID {
					cond = "T"
				} else {
					cond = "F"
				}
			}
			lb.Succs = append(lb.Succs, lattice.Successor{
				BlockID: s.BlockID,
				Cond:    cond,
			})
		}
		lcfg.Blocks = append(lcfg.Blocks, lb)
	}

	return lcfg
}

// ToCFGGraph converts every function graph in funcs (indexed by roster
// position) into a single lattice.CFGGraph, mirroring
// callgraph.BuildCFG's one-FuncCFG-per-function loop.
func ToCFGGraph(funcs []*blocks.Graph) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for i, g := range funcs {
		if g == nil {
			continue
		}
		cg.Funcs = append(cg.Funcs, ToFuncCFG(g, i))
	}
	return cg
}
