package euf

// This file deals with the reconstruction of the reasons of equalities and conflicts.
// Each class is a tree rooted at its representative; every edge carries the justification
// of the merge that created it. Explaining a == b means collecting the justifications of
// the edges between a, b and their lowest common ancestor, recursively for congruences.

// A CCEntry records a congruence edge used by an explanation.
type CCEntry struct {
	A, B      NodeID
	Timestamp uint64
	Comm      bool
}

// A CCLog collects the congruences used by explanations.
type CCLog []CCEntry

// Explain appends to out the external reasons of the current conflict.
// If cc is not nil, the congruences used are appended to it.
// It panics if the graph is consistent.
func (g *Graph) Explain(out []interface{}, cc *CCLog) ([]interface{}, error) {
	if !g.inconsistent {
		panic("cannot explain a consistent graph")
	}
	g.beginExplain()
	defer g.endExplain()
	c := &g.confl
	if c.paths {
		g.pushTodo(c.n1)
		g.pushTodo(c.n2)
	}
	for _, p := range c.pairs {
		g.pushLCA(p[0], p[1])
	}
	out = g.explainEdge(out, cc, c.n1, c.n2, c.just)
	for _, n := range c.lits {
		out = g.explainValue(out, n)
	}
	return g.explainTodo(out, cc)
}

// ExplainEq appends to out the external reasons why a == b.
// It panics if a and b are not in the same class.
func (g *Graph) ExplainEq(out []interface{}, cc *CCLog, a, b NodeID) ([]interface{}, error) {
	if g.nodes[a].root != g.nodes[b].root {
		panic("cannot explain an equality between different classes")
	}
	g.beginExplain()
	defer g.endExplain()
	g.pushLCA(a, b)
	return g.explainTodo(out, cc)
}

// ExplainDiseq appends to out the external reasons why a != b.
// It panics if AreDiseq(a, b) is false.
func (g *Graph) ExplainDiseq(out []interface{}, cc *CCLog, a, b NodeID) ([]interface{}, error) {
	ra, rb := g.nodes[a].root, g.nodes[b].root
	g.beginExplain()
	defer g.endExplain()
	if g.nodes[ra].has(interpretedMask) && g.nodes[rb].has(interpretedMask) {
		g.pushLCA(a, ra)
		g.pushLCA(b, rb)
		return g.explainTodo(out, cc)
	}
	eq, w := g.falseEq(ra, rb)
	if eq == NullNode {
		panic("cannot explain a disequality that does not hold")
	}
	ne := &g.nodes[eq]
	a0, a1 := ne.args[0], ne.args[1]
	if g.nodes[a0].root != ra {
		a0, a1 = a1, a0
	}
	g.pushLCA(a, a0)
	g.pushLCA(b, a1)
	g.pushLCA(eq, w)
	out = g.explainValue(out, w)
	return g.explainTodo(out, cc)
}

func (g *Graph) beginExplain() {
	g.todo = g.todo[:0]
	g.valueTodo = g.valueTodo[:0]
}

func (g *Graph) endExplain() {
	for _, n := range g.todo {
		g.nodes[n].set(mark1Mask, false)
	}
	for _, n := range g.valueTodo {
		g.nodes[n].set(markValueMask, false)
	}
	g.todo = g.todo[:0]
	g.valueTodo = g.valueTodo[:0]
}

func (g *Graph) explainTodo(out []interface{}, cc *CCLog) ([]interface{}, error) {
	for i := 0; i < len(g.todo); i++ {
		if !g.limit.Inc() {
			return out, ErrIncomplete
		}
		n := g.todo[i]
		nd := &g.nodes[n]
		if nd.has(mark1Mask) || nd.target == NullNode {
			continue
		}
		nd.set(mark1Mask, true)
		out = g.explainEdge(out, cc, n, nd.target, nd.just)
	}
	return out, nil
}

func (g *Graph) explainEdge(out []interface{}, cc *CCLog, a, b NodeID, j Justification) []interface{} {
	switch j.kind {
	case externalJust:
		out = append(out, j.ext)
	case congruenceJust:
		if cc != nil {
			*cc = append(*cc, CCEntry{A: a, B: b, Timestamp: j.timestamp, Comm: j.comm})
		}
		g.pushCongruenceArgs(a, b, j.comm)
	case equalityJust:
		g.pushLCA(j.lhs, j.rhs)
	case dependentJust:
		for _, j2 := range Linearize(j.dep) {
			out = g.explainEdge(out, cc, a, b, j2)
		}
	case valueJust:
		out = g.explainValue(out, j.lhs)
	}
	return out
}

// explainValue appends the reasons why n has its value.
// Propagated values are justified by Equality(n, ante): n got the value of ante.
func (g *Graph) explainValue(out []interface{}, n NodeID) []interface{} {
	for n != NullNode && !g.nodes[n].has(markValueMask) {
		nd := &g.nodes[n]
		nd.set(markValueMask, true)
		g.valueTodo = append(g.valueTodo, n)
		j := nd.litJust
		switch j.kind {
		case externalJust:
			out = append(out, j.ext)
			n = NullNode
		case equalityJust:
			g.pushLCA(j.lhs, j.rhs)
			if j.lhs == n {
				n = j.rhs
			} else {
				n = NullNode
			}
		case dependentJust, valueJust:
			out = g.explainEdge(out, nil, n, n, j)
			n = NullNode
		default:
			n = NullNode
		}
	}
	return out
}

func (g *Graph) pushCongruenceArgs(n1, n2 NodeID, comm bool) {
	args1, args2 := g.nodes[n1].args, g.nodes[n2].args
	if comm &&
		g.nodes[args1[0]].root == g.nodes[args2[1]].root &&
		g.nodes[args1[1]].root == g.nodes[args2[0]].root {
		g.pushLCA(args1[0], args2[1])
		g.pushLCA(args1[1], args2[0])
		return
	}
	for i := range args1 {
		g.pushLCA(args1[i], args2[i])
	}
}

func (g *Graph) pushTodo(n NodeID) {
	for n != NullNode {
		g.todo = append(g.todo, n)
		n = g.nodes[n].target
	}
}

func (g *Graph) pushLCA(a, b NodeID) {
	lca := g.findLCA(a, b)
	g.pushToLCA(a, lca)
	g.pushToLCA(b, lca)
}

func (g *Graph) pushToLCA(n, lca NodeID) {
	for n != lca {
		g.todo = append(g.todo, n)
		n = g.nodes[n].target
	}
}

func (g *Graph) findLCA(a, b NodeID) NodeID {
	for n := a; n != NullNode; n = g.nodes[n].target {
		g.nodes[n].set(mark2Mask, true)
	}
	for !g.nodes[b].has(mark2Mask) {
		b = g.nodes[b].target
	}
	for n := a; n != NullNode; n = g.nodes[n].target {
		g.nodes[n].set(mark2Mask, false)
	}
	return b
}
