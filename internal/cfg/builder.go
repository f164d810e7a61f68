// Package cfg implements the incremental control-flow-graph builder
// (spec.md §4.3): it turns a linear stream of observed instructions
// into a graph of cfgindex.Node values linked by successor edges,
// matching CALLs to RETs with a shadow stack and tagging nodes with
// the function they belong to.
//
// The algorithm is a direct translation of
// original_source/src/trace.c's cfg_insert/aux_cfg_insert, adapted to
// Go's garbage collection (no manual instruction freeing) and to a
// single-owner successor-edge API (cfgindex.Node.AppendSuccessor)
// instead of raw array indexing.
package cfg

import (
	"fmt"

	"tracecfg/internal/cfgindex"
	"tracecfg/internal/instr"
)

// Builder holds the state threaded through a trace: the index that
// owns every node, the previously observed node, the shadow call
// stack, and the function roster.
type Builder struct {
	index  *cfgindex.Index
	prev   *cfgindex.Node
	stack  shadowStack
	roster Roster
}

// NewBuilder creates a Builder backed by index. index must not be nil
// and should be empty — the builder assumes the first Observe call is
// the program's entry point.
func NewBuilder(index *cfgindex.Index) *Builder {
	return &Builder{index: index}
}

// Roster returns the function roster accumulated so far. Element 0 is
// the program entry point once the first instruction has been
// observed.
func (b *Builder) Roster() *Roster {
	return &b.roster
}

// Index returns the underlying instruction index.
func (b *Builder) Index() *cfgindex.Index {
	return b.index
}

// Observe records one traced instruction and returns the CFG node it
// resolves to (either newly allocated or the pre-existing node for
// that address). It implements the eight-step protocol of spec.md
// §4.3:
//
//  1. classify the opcode bytes,
//  2. build a candidate Instruction,
//  3. look it up in the index (dedup on address),
//  4. if this is the very first instruction ever observed, install it
//     as function 0's root,
//  5. if the predecessor was a CALL and the target is new, treat the
//     target as a fresh function entry,
//  6. if the predecessor was a CALL and the target was already known,
//     still push the call site so a later RET can match it,
//  7. add the P→N edge under the successor policy for P's type,
//  8. advance the predecessor to N.
func (b *Builder) Observe(address uint64, opcodes []byte, displayText string) (*cfgindex.Node, error) {
	i, err := instr.New(address, opcodes)
	if err != nil {
		return nil, fmt.Errorf("cfg: observe 0x%x: %w", address, err)
	}

	candidate := cfgindex.NewNode(i, displayText)
	n, firstSeen := b.index.Insert(candidate)

	if b.prev == nil {
		n.FunctionTag = 0
		b.roster.Add(n)
		b.prev = n
		return n, nil
	}

	p := b.prev
	freshCallTarget := false
	if p.Instruction.Type == instr.CALL {
		b.stack.Push(p)
		if firstSeen {
			freshCallTarget = true
		}
	}

	if !firstSeen && p.HasSuccessor(n) {
		// Already-known transition: the edge exists, nothing to do.
		b.prev = n
		return n, nil
	}

	if err := b.addEdge(p, n); err != nil {
		return nil, err
	}

	if freshCallTarget {
		n.FunctionTag = b.roster.Len()
		b.roster.Add(n)
	}

	b.prev = n
	return n, nil
}

// addEdge installs the P→N edge per spec.md §4.3's successor policy,
// mirroring aux_cfg_insert's dispatch on P's instruction type.
func (b *Builder) addEdge(p, n *cfgindex.Node) error {
	if p.OutDegree() == 0 && p.Instruction.Type != instr.RET {
		p.AppendSuccessor(n)
		return nil
	}

	switch p.Instruction.Type {
	case instr.BASIC:
		return fmt.Errorf("cfg: BASIC node at 0x%x already has an out-edge", p.Instruction.Address)

	case instr.BRANCH:
		if p.OutDegree() >= 2 {
			return fmt.Errorf("cfg: BRANCH node at 0x%x already has two out-edges", p.Instruction.Address)
		}
		p.AppendSuccessor(n)

	case instr.JUMP, instr.CALL:
		// JUMP fans out to every distinct target seen across runs; an
		// indirect CALL (0xFF /2) can likewise resolve to more than one
		// target across invocations, so it grows the same way.
		p.AppendSuccessor(n)

	case instr.RET:
		installer := p
		if top, ok := b.stack.Top(); ok && n.Instruction.Address == top.Instruction.End() {
			b.stack.Pop()
			installer = top
			if installer.HasSuccessor(n) {
				return nil
			}
		}
		installer.AppendSuccessor(n)
	}
	return nil
}
