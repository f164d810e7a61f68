package cfg

import "tracecfg/internal/cfgindex"

// Roster is the ordered sequence of function-root nodes, in the order
// functions were first entered at runtime. Element 0 is the program
// entry point. It holds non-owning references — the Index owns every
// node — and must not outlive it (spec.md §3, §5).
type Roster struct {
	roots []*cfgindex.Node
}

// Add appends a new function root.
func (r *Roster) Add(root *cfgindex.Node) {
	r.roots = append(r.roots, root)
}

// Len is the number of discovered functions.
func (r *Roster) Len() int {
	return len(r.roots)
}

// At returns the function root at index, or nil if out of range.
func (r *Roster) At(index int) *cfgindex.Node {
	if index < 0 || index >= len(r.roots) {
		return nil
	}
	return r.roots[index]
}

// All returns the roster as a slice, in discovery order.
func (r *Roster) All() []*cfgindex.Node {
	return r.roots
}
