// Package blocks synthesizes the basic-block-level graph a renderer
// expects from the per-instruction CFG the core builds (spec.md §4.4).
package blocks

import (
	"strings"

	"tracecfg/internal/cfgindex"
	"tracecfg/internal/instr"
)

// Succ is an edge from one block to another by ID.
type Succ struct {
	BlockID int
}

// Block is a maximal straight-line run of instructions with a single
// entry point, plus its outgoing edges to other blocks.
type Block struct {
	ID     int
	Label  string
	Succs  []Succ
	built  bool
	origin *cfgindex.Node
}

// Graph is the block-level control-flow graph for one function.
type Graph struct {
	Entry  int
	Blocks []*Block
}

// Synthesize walks the per-instruction CFG from a function root and
// produces the basic-block-level graph described in spec.md §4.4:
// straight-lining through BASIC and CALL nodes (a CALL's fall-through
// successor counts as an internal instruction of the block), opening a
// new block at every join point (in_degree > 1), ending the block at a
// BRANCH/JUMP (which is its last instruction) with one new block per
// successor, and closing a self-loop back to the function root with a dedicated
// tail node.
func Synthesize(root *cfgindex.Node) *Graph {
	g := &Graph{}
	byAddr := make(map[uint64]int)
	tailID := -1

	ensure := func(node *cfgindex.Node) int {
		if id, ok := byAddr[node.Instruction.Address]; ok {
			return id
		}
		id := len(g.Blocks)
		byAddr[node.Instruction.Address] = id
		g.Blocks = append(g.Blocks, &Block{ID: id, origin: node})
		return id
	}

	tail := func() int {
		if tailID >= 0 {
			return tailID
		}
		id := len(g.Blocks)
		tailID = id
		g.Blocks = append(g.Blocks, &Block{
			ID:    id,
			Label: root.DisplayText,
			Succs: []Succ{{BlockID: id}},
			built: true,
		})
		return id
	}

	var buildFrom func(node *cfgindex.Node) int

	// resolve turns a raw successor into a block reference, folding any
	// edge back to the function root into the self-loop tail node.
	resolve := func(n *cfgindex.Node) int {
		if n.Instruction.Address == root.Instruction.Address {
			return tail()
		}
		return buildFrom(n)
	}

	buildFrom = func(node *cfgindex.Node) int {
		id := ensure(node)
		block := g.Blocks[id]
		if block.built {
			return id
		}
		block.built = true

		var lines []string
		addSucc := func(targetID int) {
			for _, s := range block.Succs {
				if s.BlockID == targetID {
					return
				}
			}
			block.Succs = append(block.Succs, Succ{BlockID: targetID})
		}

		cur := node
		for cur != nil {
			lines = append(lines, cur.DisplayText)

			switch cur.Instruction.Type {
			case instr.RET:
				cur = nil

			case instr.BRANCH, instr.JUMP:
				for _, s := range cur.Successors {
					addSucc(resolve(s))
				}
				cur = nil

			default: // BASIC or CALL
				next := straightLineNext(cur)
				if next == nil {
					cur = nil
					break
				}
				if next.Instruction.Address == root.Instruction.Address {
					addSucc(tail())
					cur = nil
					break
				}
				if next.InDegree > 1 {
					addSucc(buildFrom(next))
					cur = nil
					break
				}
				cur = next
			}
		}

		block.Label = strings.Join(lines, "\n")
		return id
	}

	g.Entry = buildFrom(root)
	return g
}

// straightLineNext returns the node a BASIC or CALL instruction
// continues to when straight-lining: its sole successor for BASIC, or
// the fall-through successor (address == call.address+call.size) for
// CALL. A CALL with no matching fall-through successor (the callee
// never returned in this trace) ends the block.
func straightLineNext(cur *cfgindex.Node) *cfgindex.Node {
	if cur.Instruction.Type != instr.CALL {
		if len(cur.Successors) == 1 {
			return cur.Successors[0]
		}
		return nil
	}
	fallthroughAddr := cur.Instruction.End()
	for _, s := range cur.Successors {
		if s.Instruction.Address == fallthroughAddr {
			return s
		}
	}
	return nil
}
