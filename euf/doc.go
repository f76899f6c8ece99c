/*
Package euf implements congruence closure over ground terms, with backtracking and explanations.

A Graph holds one node per term. Nodes are partitioned in equivalence classes; each class has a
representative, its root. Merging two nodes joins their classes, and the congruence table makes
sure that applications of the same symbol to equal arguments end up in the same class:

	m := term.NewManager()
	u, _ := m.DeclareSort("U")
	f, _ := m.Func("f", u, u)
	a, _ := m.Func("a", u)
	b, _ := m.Func("b", u)
	ta, tb := m.MustApp(a), m.MustApp(b)
	g := euf.New()
	na := g.MkNode(ta, 0)
	nb := g.MkNode(tb, 0)
	nfa := g.MkNode(m.MustApp(f, ta), 0, na)
	nfb := g.MkNode(m.MustApp(f, tb), 0, nb)
	g.Merge(na, nb, euf.External("a = b"))
	g.Propagate()
	// g.Root(nfa) == g.Root(nfb)

Backtracking

Push opens a scope and Pop(n) restores the state the graph had before the n innermost scopes
were opened. Every mutation is logged in an undo log; scopes are only materialized by the first
mutation that follows them, so opening scopes is cheap.

Conflicts and explanations

Merging two distinct unique values (numerals, true and false, nullary constructors), or two boolean
classes with opposite values, makes the graph inconsistent. Explain then returns the external
reasons, given by the caller as External justifications, that lead to the conflict. ExplainEq
does the same for any pair of equal nodes.

Plugins

Theory solvers implement Plugin. They attach theory variables to nodes and are notified, in FIFO
order, when classes carrying their variables are merged, or when they are asserted different.
*/
package euf
