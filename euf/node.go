package euf

import "github.com/crillab/gophereuf/term"

const (
	relevantMask    uint16 = 1 << iota // Node is relevant for the search
	cgcMask                            // Node takes part in congruence closure
	mergeTFMask                        // Boolean node may be merged with true/false
	equalityMask                       // Node is an equality between non-boolean terms
	interpretedMask                    // Node is a unique value
	commutativeMask                    // Binary node whose arguments can be swapped
	mark1Mask                          // Scratch mark used by parent removal and explanations
	mark2Mask                          // Scratch mark used by LCA computation
	markValueMask                      // Scratch mark used when explaining values
)

type thVar struct {
	id TheoryID
	v  TheoryVar
}

type node struct {
	term       *term.Term
	args       []NodeID      // Arguments, sliced from the graph's arena
	root       NodeID        // Representative of the class
	next       NodeID        // Next node in the cyclic list of the class
	cg         NodeID        // Congruence root, set when the node is inserted in the table
	target     NodeID        // Edge of the justification forest
	just       Justification // Why node == target
	litJust    Justification // Why node has its value
	parents    []NodeID      // Applications using the class as argument; meaningful on roots only
	thVars     []thVar
	classSize  int32
	generation uint32
	value      Lbool
	flags      uint16
}

func (n *node) has(mask uint16) bool { return n.flags&mask != 0 }

func (n *node) set(mask uint16, b bool) {
	if b {
		n.flags |= mask
	} else {
		n.flags &^= mask
	}
}

func (n *node) thVar(id TheoryID) TheoryVar {
	for _, tv := range n.thVars {
		if tv.id == id {
			return tv.v
		}
	}
	return NullTheoryVar
}

func (n *node) addThVar(v TheoryVar, id TheoryID) {
	n.thVars = append(n.thVars, thVar{id: id, v: v})
}

func (n *node) replaceThVar(v TheoryVar, id TheoryID) {
	for i := range n.thVars {
		if n.thVars[i].id == id {
			n.thVars[i].v = v
			return
		}
	}
	panic("no theory variable to replace")
}

func (n *node) delThVar(id TheoryID) {
	for i := range n.thVars {
		if n.thVars[i].id == id {
			n.thVars = append(n.thVars[:i], n.thVars[i+1:]...)
			return
		}
	}
	panic("no theory variable to delete")
}

// class calls f on each node of the class of n, starting with n.
func (g *Graph) class(n NodeID, f func(NodeID)) {
	c := n
	for {
		f(c)
		c = g.nodes[c].next
		if c == n {
			return
		}
	}
}

func (g *Graph) isCgr(n NodeID) bool { return g.nodes[n].cg == n }

// congruent returns whether the applications p and q have the same symbol and arguments with the same roots,
// and whether that holds only once the arguments are swapped.
func (g *Graph) congruent(p, q NodeID) (ok, comm bool) {
	np, nq := &g.nodes[p], &g.nodes[q]
	if np.term.Decl() != nq.term.Decl() || len(np.args) != len(nq.args) {
		return false, false
	}
	straight := true
	for i := range np.args {
		if g.nodes[np.args[i]].root != g.nodes[nq.args[i]].root {
			straight = false
			break
		}
	}
	if straight {
		return true, false
	}
	if np.has(commutativeMask) && len(np.args) == 2 {
		r0, r1 := g.nodes[np.args[0]].root, g.nodes[np.args[1]].root
		if r0 == g.nodes[nq.args[1]].root && r1 == g.nodes[nq.args[0]].root {
			return true, true
		}
	}
	return false, false
}

// reverseJustification makes n the root of its justification tree by reversing the path from n.
func (g *Graph) reverseJustification(n NodeID) {
	curr := g.nodes[n].target
	prev := n
	js := g.nodes[n].just
	g.nodes[n].target = NullNode
	g.nodes[n].just = Axiom(NullTheory)
	for curr != NullNode {
		c := &g.nodes[curr]
		newCurr, newJs := c.target, c.just
		c.target, c.just = prev, js
		prev, js, curr = curr, newJs, newCurr
	}
}
