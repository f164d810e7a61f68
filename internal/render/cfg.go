package render

import (
	"fmt"
	"strings"

	"tracecfg/internal/blocks"
)

// CFGDOT renders one function's synthesized block graph as DOT. Each
// block is a node showing its instruction text; edges represent
// observed control flow. The entry block and the function's terminal
// blocks are highlighted, and the two edges of a block with exactly two
// successors are labelled T and F and colored by successor order: the
// first recorded successor gets T, the second F.
func CFGDOT(name string, g *blocks.Graph, t Theme) string {
	if g == nil || len(g.Blocks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
	fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"9\" color=\"%s\">%s</font>>;\n",
		t.TextColor, dotEscape(name))
	b.WriteByte('\n')

	for _, blk := range g.Blocks {
		id := fmt.Sprintf("bb%d", blk.ID)

		lines := strings.Split(blk.Label, "\n")
		for i, line := range lines {
			lines[i] = dotEscape(truncLabel(line, 80))
		}
		if len(lines) > 12 {
			head := lines[:5]
			tail := lines[len(lines)-5:]
			lines = append(append(head, fmt.Sprintf("... (%d more)", len(lines)-10)), tail...)
		}
		label := strings.Join(lines, "<br align=\"left\"/>") + "<br align=\"left\"/>"

		attrs := ""
		if blk.ID == g.Entry {
			attrs = fmt.Sprintf(", penwidth=1.5, color=%q", t.EntryBorder)
		}
		if len(blk.Succs) == 0 {
			attrs += fmt.Sprintf(", fillcolor=%q", t.TermFill)
		}
		fmt.Fprintf(&b, "  %s [label=<%s>%s];\n", id, label, attrs)
	}
	b.WriteByte('\n')

	for _, blk := range g.Blocks {
		from := fmt.Sprintf("bb%d", blk.ID)
		switch len(blk.Succs) {
		case 2:
			// Two successors, in the order they were first observed.
			fmt.Fprintf(&b, "  %s -> bb%d [color=%q, label=<<font point-size=\"7\" color=\"%s\">T</font>>];\n",
				from, blk.Succs[0].BlockID, t.EdgeTaken, t.EdgeTaken)
			fmt.Fprintf(&b, "  %s -> bb%d [color=%q, label=<<font point-size=\"7\" color=\"%s\">F</font>>];\n",
				from, blk.Succs[1].BlockID, t.EdgeNotTaken, t.EdgeNotTaken)
		default:
			for _, s := range blk.Succs {
				color := t.EdgeDirect
				if s.BlockID == blk.ID {
					color = t.EdgeSelfLoop
				}
				fmt.Fprintf(&b, "  %s -> bb%d [color=%q];\n", from, s.BlockID, color)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}
