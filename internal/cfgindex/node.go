package cfgindex

import (
	"fmt"

	"tracecfg/internal/instr"
)

// Node is a per-instruction CFG node, owned by the Index that created
// it. See spec.md §3 "CFG node".
type Node struct {
	Instruction instr.Instruction
	InDegree    uint32
	Successors  []*Node
	FunctionTag int
	DisplayText string
}

// NewNode allocates a node for i with capacity for one successor slot
// (BASIC) or two (every other type), matching the source's "successor = calloc(1 or 2, ...)" split on
// whether the instruction can ever have more than one successor.
func NewNode(i instr.Instruction, displayText string) *Node {
	cap := 2
	if i.Type == instr.BASIC {
		cap = 1
	}
	return &Node{
		Instruction: i,
		Successors:  make([]*Node, 0, cap),
		DisplayText: displayText,
	}
}

// OutDegree is the number of distinct successor edges.
func (n *Node) OutDegree() int {
	return len(n.Successors)
}

// Capacity is the current allocated capacity of the successor slice,
// tracked so tests can assert the power-of-two growth invariant from
// spec.md §8.
func (n *Node) Capacity() int {
	return cap(n.Successors)
}

// HasSuccessor reports whether target is already a successor, compared
// by instruction address per spec.md §4.3.
func (n *Node) HasSuccessor(target *Node) bool {
	for _, s := range n.Successors {
		if s.Instruction.Address == target.Instruction.Address {
			return true
		}
	}
	return false
}

// GrowIfPowerOfTwo sets capacity to twice the current length when that
// length is a power of two, mirroring original_source/src/trace.c's is_power_2 check
// before a JUMP/RET successor append.
func (n *Node) GrowIfPowerOfTwo() {
	l := len(n.Successors)
	if l == 0 || l&(l-1) != 0 {
		return
	}
	grown := make([]*Node, l, 2*l)
	copy(grown, n.Successors)
	n.Successors = grown
}

// AppendSuccessor appends target as a new successor edge and increments
// both endpoints' degree counters. It never checks for duplicates —
// callers decide when a duplicate check is needed.
//
// The function tag is inherited from n only if target has no other
// predecessor yet; a node keeps whichever tag its first predecessor (or
// its own fresh call-target assignment) gave it, regardless of how many
// more edges later point at it.
func (n *Node) AppendSuccessor(target *Node) {
	n.GrowIfPowerOfTwo()
	inheritTag := target.InDegree == 0
	n.Successors = append(n.Successors, target)
	target.InDegree++
	if inheritTag {
		target.FunctionTag = n.FunctionTag
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("Node{%s @0x%x out=%d in=%d fn=%d}",
		n.Instruction.Type, n.Instruction.Address, n.OutDegree(), n.InDegree, n.FunctionTag)
}
