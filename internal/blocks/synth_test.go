package blocks

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tracecfg/internal/cfg"
	"tracecfg/internal/cfgindex"
	"tracecfg/internal/instr"
)

// blockSnapshot is a cycle-free, unexported-field-free view of a Block,
// letting cmp.Diff compare a whole graph's shape in one assertion
// instead of a length/label/succ check per block.
type blockSnapshot struct {
	ID    int
	Label string
	Succs []Succ
}

func snapshotGraph(g *Graph) []blockSnapshot {
	out := make([]blockSnapshot, len(g.Blocks))
	for i, b := range g.Blocks {
		out[i] = blockSnapshot{ID: b.ID, Label: b.Label, Succs: b.Succs}
	}
	return out
}

func newIndex(t *testing.T) *cfgindex.Index {
	t.Helper()
	ix, err := cfgindex.New(cfgindex.DefaultBucketCount)
	if err != nil {
		t.Fatalf("cfgindex.New: %v", err)
	}
	return ix
}

func mustInstr(t *testing.T, addr uint64, op ...byte) instr.Instruction {
	t.Helper()
	i, err := instr.New(addr, op)
	if err != nil {
		t.Fatalf("instr.New: %v", err)
	}
	return i
}

// S1 — a straight run of BASIC instructions ending in RET synthesizes
// to a single block.
func TestSynthesizeLinearBasics(t *testing.T) {
	b := cfg.NewBuilder(newIndex(t))

	if _, err := b.Observe(0x1000, []byte{0x90}, "0x1000  90  nop "); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Observe(0x1001, []byte{0x90}, "0x1001  90  nop "); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Observe(0x1002, []byte{0xC3}, "0x1002  c3  ret "); err != nil {
		t.Fatal(err)
	}

	g := Synthesize(b.Roster().At(0))
	if len(g.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(g.Blocks))
	}
	block := g.Blocks[g.Entry]
	for _, want := range []string{"0x1000", "0x1001", "0x1002"} {
		if !strings.Contains(block.Label, want) {
			t.Errorf("block label missing %q: %q", want, block.Label)
		}
	}
	if len(block.Succs) != 0 {
		t.Errorf("terminal RET block should have no successors, got %v", block.Succs)
	}
}

// A CALL's fall-through successor is folded into the same block as the
// call site rather than opening a new one.
func TestSynthesizeCallFallthroughIsInternal(t *testing.T) {
	b := cfg.NewBuilder(newIndex(t))

	if _, err := b.Observe(0x1000, []byte{0xE8, 0x00, 0x00, 0x00, 0x00}, "call"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Observe(0x2000, []byte{0x90}, "callee entry"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Observe(0x2001, []byte{0xC3}, "callee ret"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Observe(0x1005, []byte{0x90}, "fallthrough"); err != nil {
		t.Fatal(err)
	}

	callerGraph := Synthesize(b.Roster().At(0))
	if len(callerGraph.Blocks) != 1 {
		t.Fatalf("caller: got %d blocks, want 1 (call+fallthrough folded together)", len(callerGraph.Blocks))
	}
	label := callerGraph.Blocks[callerGraph.Entry].Label
	if !strings.Contains(label, "call") || !strings.Contains(label, "fallthrough") {
		t.Errorf("expected call and fallthrough in the same block, got %q", label)
	}

	calleeGraph := Synthesize(b.Roster().At(1))
	if len(calleeGraph.Blocks) != 1 {
		t.Fatalf("callee: got %d blocks, want 1", len(calleeGraph.Blocks))
	}
}

// A join point (in_degree > 1) closes the current block and opens a new
// one at the join node.
func TestSynthesizeJoinPointOpensNewBlock(t *testing.T) {
	a := cfgindex.NewNode(mustInstr(t, 0x1000, 0x90), "A")
	x := cfgindex.NewNode(mustInstr(t, 0x1001, 0x90), "X")
	c := cfgindex.NewNode(mustInstr(t, 0x2000, 0xC3), "C")

	a.AppendSuccessor(c)
	x.AppendSuccessor(c) // c now has in_degree 2

	g := Synthesize(a)
	if len(g.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (A alone, then C)", len(g.Blocks))
	}
	entry := g.Blocks[g.Entry]
	if entry.Label != "A" {
		t.Errorf("entry label = %q, want %q", entry.Label, "A")
	}
	if len(entry.Succs) != 1 {
		t.Fatalf("entry should have exactly one successor block, got %v", entry.Succs)
	}
	joined := g.Blocks[entry.Succs[0].BlockID]
	if joined.Label != "C" {
		t.Errorf("joined block label = %q, want %q", joined.Label, "C")
	}
}

// A BRANCH closes the block and recurses into both successors.
func TestSynthesizeBranchRecursesIntoBothSuccessors(t *testing.T) {
	a := cfgindex.NewNode(mustInstr(t, 0x1000, 0x90), "A")
	branch := cfgindex.NewNode(mustInstr(t, 0x1001, 0x74, 0x05), "BRANCH")
	taken := cfgindex.NewNode(mustInstr(t, 0x2000, 0xC3), "TAKEN")
	fall := cfgindex.NewNode(mustInstr(t, 0x1003, 0xC3), "FALL")

	a.AppendSuccessor(branch)
	branch.AppendSuccessor(taken)
	branch.AppendSuccessor(fall)

	g := Synthesize(a)
	if len(g.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3 (A+branch, taken, fall)", len(g.Blocks))
	}
	entry := g.Blocks[g.Entry]
	if !strings.Contains(entry.Label, "A") || !strings.Contains(entry.Label, "BRANCH") {
		t.Errorf("entry block should contain both A and the branch instruction, got %q", entry.Label)
	}
	if len(entry.Succs) != 2 {
		t.Fatalf("branch block should have 2 successors, got %d", len(entry.Succs))
	}

	want := []blockSnapshot{
		{ID: 0, Label: "A\nBRANCH", Succs: []Succ{{BlockID: 1}, {BlockID: 2}}},
		{ID: 1, Label: "TAKEN", Succs: nil},
		{ID: 2, Label: "FALL", Succs: nil},
	}
	if diff := cmp.Diff(want, snapshotGraph(g)); diff != "" {
		t.Errorf("block graph shape mismatch (-want +got):\n%s", diff)
	}
}

// S5 — self-loop: re-entering the function root emits a tail node with
// the root's own label and a self-edge, then stops.
func TestSynthesizeSelfLoop(t *testing.T) {
	a := cfgindex.NewNode(mustInstr(t, 0x1000, 0x90), "A")
	a.AppendSuccessor(a)

	g := Synthesize(a)
	if len(g.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 (A, tail)", len(g.Blocks))
	}
	entry := g.Blocks[g.Entry]
	if len(entry.Succs) != 1 {
		t.Fatalf("entry should point at the tail node, got %v", entry.Succs)
	}
	tailNode := g.Blocks[entry.Succs[0].BlockID]
	if tailNode.Label != "A" {
		t.Errorf("tail label = %q, want %q", tailNode.Label, "A")
	}
	if len(tailNode.Succs) != 1 || tailNode.Succs[0].BlockID != tailNode.ID {
		t.Fatalf("tail node should have a self-edge, got %v", tailNode.Succs)
	}
}
