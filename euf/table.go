package euf

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/crillab/gophereuf/term"
)

// The congruence table maps signatures (a declaration and the roots of the arguments) to the canonical
// application having that signature. Only applications with congruence enabled are stored.
// The key of a node is computed from the current roots of its arguments, so a node must be erased
// before the root of one of its arguments changes, and reinserted afterwards.
type table struct {
	buckets map[uint64][]NodeID
	size    int
	buf     []byte
}

func newTable() table {
	return table{buckets: make(map[uint64][]NodeID)}
}

func (g *Graph) signature(d *term.Decl, roots []NodeID, comm bool) uint64 {
	buf := g.table.buf[:0]
	buf = binary.LittleEndian.AppendUint32(buf, uint32(d.ID()))
	if comm && len(roots) == 2 && roots[1] < roots[0] {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(roots[1]))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(roots[0]))
	} else {
		for _, r := range roots {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(r))
		}
	}
	g.table.buf = buf
	return xxhash.Sum64(buf)
}

func (g *Graph) hash(n NodeID) uint64 {
	nd := &g.nodes[n]
	var roots [4]NodeID
	rs := roots[:0]
	for _, arg := range nd.args {
		rs = append(rs, g.nodes[arg].root)
	}
	return g.signature(nd.term.Decl(), rs, nd.has(commutativeMask))
}

// insertTable inserts n in the congruence table, unless a congruent node is already there.
// It returns the canonical node of the signature and whether n matches it with swapped arguments.
func (g *Graph) insertTable(n NodeID) (NodeID, bool) {
	h := g.hash(n)
	for _, q := range g.table.buckets[h] {
		if ok, comm := g.congruent(n, q); ok {
			g.nodes[n].cg = q
			return q, comm
		}
	}
	g.table.buckets[h] = append(g.table.buckets[h], n)
	g.table.size++
	g.nodes[n].cg = n
	return n, false
}

func (g *Graph) eraseTable(n NodeID) {
	h := g.hash(n)
	bucket := g.table.buckets[h]
	for i, q := range bucket {
		if q == n {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(g.table.buckets, h)
			} else {
				g.table.buckets[h] = bucket
			}
			g.table.size--
			return
		}
	}
}

// tableContains returns true iff n itself is stored in the table.
func (g *Graph) tableContains(n NodeID) bool {
	for _, q := range g.table.buckets[g.hash(n)] {
		if q == n {
			return true
		}
	}
	return false
}

// lookup returns the canonical application of d to nodes whose roots are those of args, or NullNode.
func (g *Graph) lookup(d *term.Decl, args []NodeID) NodeID {
	roots := make([]NodeID, len(args))
	for i, arg := range args {
		roots[i] = g.nodes[arg].root
	}
	bucket := g.table.buckets[g.signature(d, roots, d.IsCommutative())]
	for _, q := range bucket {
		nq := &g.nodes[q]
		if nq.term.Decl() != d || len(nq.args) != len(roots) {
			continue
		}
		match := true
		for i, arg := range nq.args {
			if g.nodes[arg].root != roots[i] {
				match = false
				break
			}
		}
		if !match && d.IsCommutative() && len(roots) == 2 {
			match = g.nodes[nq.args[0]].root == roots[1] && g.nodes[nq.args[1]].root == roots[0]
		}
		if match {
			return q
		}
	}
	return NullNode
}

// TableSize returns the number of canonical applications in the congruence table.
func (g *Graph) TableSize() int { return g.table.size }
