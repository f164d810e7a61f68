// Package cfgindex implements the deduplicating instruction index
// (spec.md §3-4.2): a fixed-bucket-count hashtable mapping instruction
// identity to its owned CFG node, plus the Node type it owns.
package cfgindex

import (
	"fmt"

	"tracecfg/internal/instr"
)

// DefaultBucketCount is the hashtable's default bucket count, a power
// of two, per spec.md §3.
const DefaultBucketCount = 65536

// Index is a separate-chaining hashtable keyed by instruction identity.
// Hashing mixes in the opcode bytes for spread; equality — both for
// bucket scans and for the caller-visible Lookup — is address-only, per
// spec.md §3's identity rule.
type Index struct {
	buckets    [][]*Node
	entries    int
	collisions int
}

// New creates an Index with the given bucket count, which must be a
// nonzero power of two to keep bucket selection a cheap mask/mod.
func New(bucketCount int) (*Index, error) {
	if bucketCount <= 0 {
		return nil, fmt.Errorf("cfgindex: bucket count must be positive")
	}
	return &Index{buckets: make([][]*Node, bucketCount)}, nil
}

func (ix *Index) bucketFor(i instr.Instruction) int {
	h := Hash(i.Opcodes, i.Address)
	return int(h % uint64(len(ix.buckets)))
}

// Insert adds node to the index unless a node with the same address is
// already present, in which case it returns that existing node and
// false. Collisions is incremented whenever the bucket was already
// non-empty and the insertion actually proceeds.
func (ix *Index) Insert(node *Node) (existing *Node, inserted bool) {
	idx := ix.bucketFor(node.Instruction)
	bucket := ix.buckets[idx]

	for _, n := range bucket {
		if n.Instruction.Address == node.Instruction.Address {
			return n, false
		}
	}

	if len(bucket) > 0 {
		ix.collisions++
	}
	ix.buckets[idx] = append(bucket, node)
	ix.entries++
	return node, true
}

// Lookup returns the node for the instruction at address, matching only
// on address (spec.md §3 identity rule), or nil if absent.
func (ix *Index) Lookup(i instr.Instruction) *Node {
	idx := ix.bucketFor(i)
	for _, n := range ix.buckets[idx] {
		if n.Instruction.Address == i.Address {
			return n
		}
	}
	return nil
}

// Entries is the number of unique instructions stored.
func (ix *Index) Entries() int { return ix.entries }

// Collisions is the number of insertions into an already-nonempty
// bucket.
func (ix *Index) Collisions() int { return ix.collisions }

// BucketCount is the configured number of buckets.
func (ix *Index) BucketCount() int { return len(ix.buckets) }
