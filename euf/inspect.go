package euf

import "github.com/crillab/gophereuf/term"

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumClasses returns the number of equivalence classes.
func (g *Graph) NumClasses() int {
	nb := 0
	for i := range g.nodes {
		if g.nodes[i].root == NodeID(i) {
			nb++
		}
	}
	return nb
}

// Term returns the term of n.
func (g *Graph) Term(n NodeID) *term.Term { return g.nodes[n].term }

// Root returns the representative of the class of n.
func (g *Graph) Root(n NodeID) NodeID { return g.nodes[n].root }

// Next returns the node following n in its class.
func (g *Graph) Next(n NodeID) NodeID { return g.nodes[n].next }

// Target returns the next node on the justification path from n to its root, or NullNode for a root.
func (g *Graph) Target(n NodeID) NodeID { return g.nodes[n].target }

// Args returns the argument nodes of n. The slice must not be modified.
func (g *Graph) Args(n NodeID) []NodeID { return g.nodes[n].args }

// Arg returns the i-th argument node of n.
func (g *Graph) Arg(n NodeID, i int) NodeID { return g.nodes[n].args[i] }

// Value returns the value of n.
func (g *Graph) Value(n NodeID) Lbool { return g.nodes[n].value }

// ClassSize returns the size of the class of n.
func (g *Graph) ClassSize(n NodeID) int { return int(g.nodes[g.nodes[n].root].classSize) }

// Generation returns the generation n was created with.
func (g *Graph) Generation(n NodeID) uint32 { return g.nodes[n].generation }

// IsRelevant returns true iff n is relevant.
func (g *Graph) IsRelevant(n NodeID) bool { return g.nodes[n].has(relevantMask) }

// IsEquality returns true iff n is an equality between non-boolean terms.
func (g *Graph) IsEquality(n NodeID) bool { return g.nodes[n].has(equalityMask) }

// IsInterpreted returns true iff n is a unique value.
func (g *Graph) IsInterpreted(n NodeID) bool { return g.nodes[n].has(interpretedMask) }

// CgcEnabled returns true iff n takes part in congruence closure.
func (g *Graph) CgcEnabled(n NodeID) bool { return g.nodes[n].has(cgcMask) }

// MergeTFEnabled returns true iff the boolean node n may be merged with true or false.
func (g *Graph) MergeTFEnabled(n NodeID) bool { return g.nodes[n].has(mergeTFMask) }

// IsCgr returns true iff n is the canonical node of its signature in the congruence table.
func (g *Graph) IsCgr(n NodeID) bool { return g.isCgr(n) }

// Parents returns the parents of the class of n.
func (g *Graph) Parents(n NodeID) []NodeID {
	ps := g.nodes[g.nodes[n].root].parents
	res := make([]NodeID, len(ps))
	copy(res, ps)
	return res
}

// Class returns the nodes of the class of n, starting with n.
func (g *Graph) Class(n NodeID) []NodeID {
	res := make([]NodeID, 0, g.ClassSize(n))
	g.class(n, func(c NodeID) { res = append(res, c) })
	return res
}

// NodesOf returns the applications of d, in creation order. The slice must not be modified.
func (g *Graph) NodesOf(d *term.Decl) []NodeID { return g.declNodes[d] }
