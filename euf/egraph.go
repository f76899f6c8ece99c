package euf

import (
	"fmt"

	"github.com/crillab/gophereuf/term"
	"github.com/sirupsen/logrus"
)

type toMergeKind byte

const (
	mergePlain     toMergeKind = iota // Congruence
	mergeComm                         // Congruence with swapped arguments
	mergeJustified                    // Merge with an explicit justification
	mergeLiteral                      // Literal propagation
)

type toMerge struct {
	a, b NodeID
	kind toMergeKind
	j    Justification
}

type conflict struct {
	n1, n2 NodeID
	just   Justification // Why n1 == n2
	paths  bool          // Explain the paths from n1 and n2 to their roots too
	pairs  [][2]NodeID   // Equalities between nodes of the same class that are part of the conflict
	lits   []NodeID      // Nodes whose value is part of the conflict
}

// A ThEq is an equality or a disequality between two theory variables, produced by the graph
// and delivered to the plugin owning them.
type ThEq struct {
	ID     TheoryID
	V1, V2 TheoryVar // Variables of the child and of the root for equalities
	Child  NodeID    // Node whose class was merged, for equalities
	Root   NodeID    // New root, for equalities
	Eq     NodeID    // Equality node assigned to false, for disequalities
	IsEq   bool
}

// A Graph maintains the congruence closure of a set of terms under asserted equalities.
// It is not safe for concurrent use.
type Graph struct {
	nodes            []node
	termNodes        []NodeID // Term ID -> node
	declNodes        map[*term.Decl][]NodeID
	table            table
	arena            arena
	updates          []update
	scopes           []scope // Materialized scopes
	numScopes        int   // Scopes pushed but not materialized yet
	toMerge          []toMerge
	thEqs            []ThEq
	thEqsQhead       int // Next theory equality for the outer scheduler
	pluginQhead      int // Next theory equality for the plugins
	plugins          [MaxPlugins]Plugin
	numPlugins       int
	propagatesDiseqs [MaxPlugins]bool
	inconsistent     bool
	confl            conflict
	todo             []NodeID
	valueTodo        []NodeID
	ccTimestamp      uint64
	stats            Stats
	log              logrus.FieldLogger
	tracing          bool
	limit            Limit
	defaultRelevant  bool
	propagator       LiteralPropagator
	onMerge          []func(root, other NodeID)
	onMake           []func(n NodeID)
}

// New returns an empty graph.
func New(options ...Option) *Graph {
	g := &Graph{
		declNodes:       make(map[*term.Decl][]NodeID),
		table:           newTable(),
		defaultRelevant: true,
	}
	for _, option := range append(options, defaults...) {
		option(g)
	}
	return g
}

// Find returns the node of t, or NullNode if t has no node.
func (g *Graph) Find(t *term.Term) NodeID {
	if t.ID() >= len(g.termNodes) {
		return NullNode
	}
	return g.termNodes[t.ID()]
}

// Lookup returns the canonical node applying the head of t to nodes equal to args, or NullNode.
func (g *Graph) Lookup(t *term.Term, args ...NodeID) NodeID {
	if len(args) == 0 {
		return g.Find(t)
	}
	return g.lookup(t.Decl(), args)
}

// MkNode creates the node of t, whose arguments are the nodes of the arguments of t.
// It panics if t already has a node.
func (g *Graph) MkNode(t *term.Term, generation uint32, args ...NodeID) NodeID {
	if g.Find(t) != NullNode {
		panic(fmt.Errorf("node already created for %s", t))
	}
	if len(args) != t.NumArgs() {
		panic(fmt.Errorf("%s expects %d argument nodes, got %d", t, t.NumArgs(), len(args)))
	}
	g.forcePush()
	n := g.mkNode(t, generation, args)
	nd := &g.nodes[n]
	if len(args) == 0 && t.IsUniqueValue() {
		nd.set(interpretedMask, true)
	}
	switch {
	case t.IsTrue():
		nd.value = True
	case t.IsFalse():
		nd.value = False
	}
	for _, fn := range g.onMake {
		fn(n)
	}
	if len(args) == 0 {
		return n
	}
	if t.IsEq() && !t.Arg(0).IsBool() {
		g.nodes[n].set(equalityMask, true)
		g.reinsertEquality(n)
	}
	n2, comm := g.insertTable(n)
	if n2 == n {
		g.updateChildren(n)
	} else {
		g.pushCongruence(n, n2, comm)
	}
	return n
}

func (g *Graph) mkNode(t *term.Term, generation uint32, args []NodeID) NodeID {
	n := NodeID(len(g.nodes))
	nd := node{
		term:       t,
		args:       g.arena.newArgs(args),
		root:       n,
		next:       n,
		cg:         NullNode,
		target:     NullNode,
		just:       Axiom(NullTheory),
		litJust:    Axiom(NullTheory),
		classSize:  1,
		generation: generation,
		flags:      cgcMask,
	}
	nd.set(relevantMask, g.defaultRelevant)
	nd.set(commutativeMask, len(args) == 2 && t.Decl().IsCommutative())
	g.nodes = append(g.nodes, nd)
	for t.ID() >= len(g.termNodes) {
		g.termNodes = append(g.termNodes, NullNode)
	}
	g.termNodes[t.ID()] = n
	if len(args) != 0 {
		g.declNodes[t.Decl()] = append(g.declNodes[t.Decl()], n)
	}
	g.pushUpdate(update{kind: addNodeUpdate, n1: n})
	for _, arg := range args {
		g.setCgcEnabled(arg, true)
	}
	return n
}

// updateChildren registers n as a parent of the roots of its arguments.
func (g *Graph) updateChildren(n NodeID) {
	for _, arg := range g.nodes[n].args {
		r := g.nodes[arg].root
		g.nodes[r].parents = append(g.nodes[r].parents, n)
	}
	g.pushUpdate(update{kind: updateChildrenUpdate, n1: n})
}

func (g *Graph) pushCongruence(a, b NodeID, comm bool) {
	kind := mergePlain
	if comm {
		kind = mergeComm
	}
	g.toMerge = append(g.toMerge, toMerge{a: a, b: b, kind: kind})
}

// PushMerge queues the merge of a and b, to be performed by the next call to Propagate.
func (g *Graph) PushMerge(a, b NodeID, j Justification) {
	g.forcePush()
	g.toMerge = append(g.toMerge, toMerge{a: a, b: b, kind: mergeJustified, j: j})
}

func (g *Graph) queueLiteral(n, ante NodeID) {
	g.toMerge = append(g.toMerge, toMerge{a: n, b: ante, kind: mergeLiteral})
}

// Merge makes a and b equal because of j.
// Merging two distinct unique values, or two boolean classes with opposite values, makes the graph inconsistent.
func (g *Graph) Merge(a, b NodeID, j Justification) {
	if !g.nodes[a].has(cgcMask) && !g.nodes[b].has(cgcMask) {
		return
	}
	r1, r2 := g.nodes[a].root, g.nodes[b].root
	if r1 == r2 {
		return
	}
	if g.tracing {
		g.log.WithFields(logrus.Fields{"n1": a, "n2": b, "just": j}).Trace("merge")
	}
	g.forcePush()
	g.stats.NbMerges++
	if g.nodes[r1].has(interpretedMask) && g.nodes[r2].has(interpretedMask) {
		g.setConflict(conflict{n1: a, n2: b, just: j, paths: true})
		return
	}
	v1, v2 := g.nodes[r1].value, g.nodes[r2].value
	if v1 != v2 && v1 != Undef && v2 != Undef {
		g.setConflict(conflict{n1: a, n2: b, just: j, pairs: [][2]NodeID{{a, r1}, {b, r2}}, lits: []NodeID{r1, r2}})
		return
	}
	n1, n2 := a, b
	if !g.nodes[r2].has(interpretedMask) &&
		(g.nodes[r1].classSize > g.nodes[r2].classSize || g.nodes[r1].has(interpretedMask) || v1 != Undef) {
		r1, r2 = r2, r1
		n1, n2 = n2, n1
	}
	g.removeParents(r1)
	g.pushUpdate(update{kind: setParentUpdate, n1: r1, n2: n1, num: len(g.nodes[r2].parents)})
	g.mergeJustification(n1, n2, j)
	g.class(n1, func(c NodeID) { g.nodes[c].root = r2 })
	g.nodes[r1].next, g.nodes[r2].next = g.nodes[r2].next, g.nodes[r1].next
	g.nodes[r2].classSize += g.nodes[r1].classSize
	g.mergeThEq(r1, r2)
	g.reinsertParents(r1, r2)
	t2 := g.nodes[r2].term
	switch {
	case j.IsCongruence() && (t2.IsTrue() || t2.IsFalse()):
		g.queueLiteral(n1, r2)
	case g.nodes[n2].value != Undef && g.nodes[n1].value != g.nodes[n2].value:
		g.queueLiteral(n1, n2)
	case g.nodes[n1].value != Undef && g.nodes[n2].value != g.nodes[n1].value:
		g.queueLiteral(n2, n1)
	}
	for _, fn := range g.onMerge {
		fn(r2, r1)
	}
}

// removeParents takes the parents of r1 out of the congruence table before the roots of their arguments change.
func (g *Graph) removeParents(r1 NodeID) {
	for _, p := range g.nodes[r1].parents {
		np := &g.nodes[p]
		if np.has(mark1Mask) {
			continue
		}
		if np.has(cgcMask) {
			if !g.isCgr(p) {
				continue
			}
			np.set(mark1Mask, true)
			g.eraseTable(p)
		} else if np.has(equalityMask) {
			np.set(mark1Mask, true)
		}
	}
}

// reinsertParents puts back the parents of r1 once its class was merged into r2's.
// Parents colliding with an existing signature are queued for a congruence merge.
func (g *Graph) reinsertParents(r1, r2 NodeID) {
	for _, p := range g.nodes[r1].parents {
		np := &g.nodes[p]
		if !np.has(mark1Mask) {
			continue
		}
		np.set(mark1Mask, false)
		if np.has(cgcMask) {
			other, comm := g.insertTable(p)
			if other != p {
				g.pushCongruence(other, p, comm)
			} else {
				g.nodes[r2].parents = append(g.nodes[r2].parents, p)
			}
			if g.nodes[p].has(equalityMask) {
				g.reinsertEquality(p)
			}
		} else if np.has(equalityMask) {
			g.nodes[r2].parents = append(g.nodes[r2].parents, p)
			g.reinsertEquality(p)
		}
	}
}

// reinsertEquality propagates the equality p when both its arguments are in the same class.
func (g *Graph) reinsertEquality(p NodeID) {
	np := &g.nodes[p]
	a0, a1 := np.args[0], np.args[1]
	if np.value == True || g.nodes[a0].root != g.nodes[a1].root {
		return
	}
	g.queueLiteral(p, NullNode)
	if np.value == False && g.propagator == nil {
		g.setConflict(conflict{n1: a0, n2: a1, just: Equality(a0, a1), lits: []NodeID{p}})
	}
}

func (g *Graph) mergeJustification(n1, n2 NodeID, j Justification) {
	g.reverseJustification(n1)
	g.nodes[n1].target = n2
	g.nodes[n1].just = j
}

func (g *Graph) unmergeJustification(n1 NodeID) {
	g.nodes[n1].target = NullNode
	g.nodes[n1].just = Axiom(NullTheory)
	g.reverseJustification(g.nodes[n1].root)
}

// Propagate performs the pending merges until a fixpoint, a conflict, or the exhaustion of the limit.
// Theory equalities are delivered to plugins before their Propagate method is called.
// It returns true if theory equalities are waiting for the outer scheduler or the graph is inconsistent.
// On ErrIncomplete, pending merges are dropped and the closure may be partial.
func (g *Graph) Propagate() (bool, error) {
	if len(g.toMerge) != 0 || g.hasPluginWork() {
		g.forcePush()
	}
	var err error
	i := 0
	for {
		g.propagatePlugins()
		for ; i < len(g.toMerge) && !g.inconsistent; i++ {
			if !g.limit.Inc() {
				err = ErrIncomplete
				break
			}
			w := g.toMerge[i]
			switch w.kind {
			case mergePlain, mergeComm:
				g.Merge(w.a, w.b, Congruence(w.kind == mergeComm, g.ccTimestamp))
				g.ccTimestamp++
			case mergeJustified:
				g.Merge(w.a, w.b, w.j)
			case mergeLiteral:
				g.addLiteral(w.a, w.b)
			}
		}
		if err != nil || g.inconsistent || (i == len(g.toMerge) && !g.hasPluginWork()) {
			break
		}
	}
	if err != nil && g.tracing {
		g.log.WithField("pending", len(g.toMerge)-i).Trace("propagation interrupted")
	}
	g.toMerge = g.toMerge[:0]
	return g.thEqsQhead < len(g.thEqs) || g.inconsistent, err
}

func (g *Graph) hasPluginWork() bool {
	return g.numPlugins != 0 && g.pluginQhead < len(g.thEqs)
}

func (g *Graph) propagatePlugins() {
	if g.numPlugins == 0 {
		return
	}
	if g.pluginQhead < len(g.thEqs) {
		g.pushUpdate(update{kind: pluginQheadUpdate, num: g.pluginQhead})
	}
	for ; g.pluginQhead < len(g.thEqs) && !g.inconsistent; g.pluginQhead++ {
		eq := g.thEqs[g.pluginQhead]
		p := g.plugins[eq.ID]
		if p == nil {
			continue
		}
		if eq.IsEq {
			p.MergeEh(eq.Child, eq.Root)
		} else {
			p.DiseqEh(eq.Eq)
		}
	}
	for _, p := range g.plugins {
		if p != nil && !g.inconsistent {
			p.Propagate()
		}
	}
}

// addLiteral propagates the value of ante to the members of the class of n.
// When ante is NullNode, n is an equality whose arguments were merged.
func (g *Graph) addLiteral(n, ante NodeID) {
	if ante == NullNode {
		g.stats.NbEqs++
		g.propagateLiteral(n, NullNode)
		return
	}
	g.stats.NbLits++
	av := g.nodes[ante].value
	if av == Undef {
		return
	}
	g.class(n, func(k NodeID) {
		if k != ante && g.nodes[k].value != av {
			g.propagateLiteral(k, ante)
		}
	})
}

func (g *Graph) propagateLiteral(k, ante NodeID) {
	if g.propagator != nil {
		g.propagator(k, ante)
		return
	}
	nk := &g.nodes[k]
	if ante == NullNode {
		a0, a1 := nk.args[0], nk.args[1]
		switch nk.value {
		case Undef:
			g.assign(k, True, Equality(a0, a1))
		case False:
			g.setConflict(conflict{n1: a0, n2: a1, just: Equality(a0, a1), lits: []NodeID{k}})
		}
		return
	}
	av := g.nodes[ante].value
	switch nk.value {
	case Undef:
		// The class of k is being walked already.
		g.setValue(k, av, Equality(k, ante))
	case av:
	default:
		g.setConflict(conflict{n1: k, n2: ante, just: Equality(k, ante), lits: []NodeID{k, ante}})
	}
}

// SetValue assigns a value to the boolean node n. Assigning false to an equality node
// records a disequality between its arguments. Assigning a value opposite to the current
// one makes the graph inconsistent.
func (g *Graph) SetValue(n NodeID, v Lbool, j Justification) {
	if v == Undef {
		panic("cannot assign an undefined value")
	}
	switch g.nodes[n].value {
	case v:
		return
	case Undef:
		g.forcePush()
		g.assign(n, v, j)
	default:
		g.forcePush()
		g.setConflict(conflict{n1: n, n2: n, just: j, lits: []NodeID{n}})
	}
}

// assign sets the value of n and, without a literal propagator, queues its propagation to the class of n.
func (g *Graph) assign(n NodeID, v Lbool, j Justification) {
	g.setValue(n, v, j)
	if g.propagator == nil {
		g.queueLiteral(n, n)
	}
}

func (g *Graph) setValue(n NodeID, v Lbool, j Justification) {
	nd := &g.nodes[n]
	nd.value = v
	nd.litJust = j
	g.pushUpdate(update{kind: valueAssignmentUpdate, n1: n})
	if g.tracing {
		g.log.WithFields(logrus.Fields{"node": n, "value": v, "just": j}).Trace("assign")
	}
	if nd.has(equalityMask) {
		if v == False {
			g.newDiseq(n)
		} else if g.propagator == nil && g.nodes[nd.args[0]].root != g.nodes[nd.args[1]].root {
			g.PushMerge(nd.args[0], nd.args[1], valueOf(n))
		}
	}
}

// NewDiseq asserts the equality node eq to be false because of j.
func (g *Graph) NewDiseq(eq NodeID, j Justification) {
	ne := &g.nodes[eq]
	if !ne.term.IsEq() {
		panic(fmt.Errorf("%s is not an equality", ne.term))
	}
	g.forcePush()
	a, b := ne.args[0], ne.args[1]
	if g.nodes[a].root == g.nodes[b].root {
		g.setConflict(conflict{n1: a, n2: b, just: j, pairs: [][2]NodeID{{a, b}}})
		return
	}
	g.SetValue(eq, False, j)
}

// newDiseq handles the equality n that was just assigned false.
func (g *Graph) newDiseq(n NodeID) {
	a0, a1 := g.nodes[n].args[0], g.nodes[n].args[1]
	r1, r2 := g.nodes[a0].root, g.nodes[a1].root
	if r1 == r2 {
		if g.propagator != nil {
			g.addLiteral(n, NullNode)
		} else {
			g.setConflict(conflict{n1: a0, n2: a1, just: Equality(a0, a1), lits: []NodeID{n}})
		}
		return
	}
	nr1, nr2 := &g.nodes[r1], &g.nodes[r2]
	if len(nr1.thVars) == 0 || len(nr2.thVars) == 0 {
		return
	}
	if len(nr1.thVars) == 1 && len(nr2.thVars) == 1 && nr1.thVars[0].id == nr2.thVars[0].id {
		id := nr1.thVars[0].id
		if g.propagatesDiseqs[id] {
			g.addThDiseq(id, g.ClosestThVar(a0, id), g.ClosestThVar(a1, id), n)
		}
		return
	}
	for _, p := range nr1.thVars {
		if !g.propagatesDiseqs[p.id] {
			continue
		}
		if v2 := nr2.thVar(p.id); v2 != NullTheoryVar {
			g.addThDiseq(p.id, p.v, v2, n)
		}
	}
}

// SetConflict makes the graph inconsistent because a and b, which are in the same class, must differ.
// j explains why they are equal. Plugins call it to report theory conflicts.
func (g *Graph) SetConflict(a, b NodeID, j Justification) {
	g.forcePush()
	g.setConflict(conflict{n1: a, n2: b, just: j})
}

func (g *Graph) setConflict(c conflict) {
	g.stats.NbConflicts++
	if g.inconsistent {
		return
	}
	if g.tracing {
		g.log.WithFields(logrus.Fields{"n1": c.n1, "n2": c.n2, "just": c.just}).Trace("conflict")
	}
	g.inconsistent = true
	g.pushUpdate(update{kind: inconsistentUpdate})
	g.confl = c
}

// Inconsistent returns true iff a conflict was found.
func (g *Graph) Inconsistent() bool { return g.inconsistent }

// Conflict returns the two nodes of the current conflict and the justification of their equality.
func (g *Graph) Conflict() (NodeID, NodeID, Justification) {
	if !g.inconsistent {
		panic("no conflict")
	}
	return g.confl.n1, g.confl.n2, g.confl.just
}

// AreDiseq returns true iff a and b are known to be different.
func (g *Graph) AreDiseq(a, b NodeID) bool {
	ra, rb := g.nodes[a].root, g.nodes[b].root
	if ra == rb {
		return false
	}
	if g.nodes[ra].has(interpretedMask) && g.nodes[rb].has(interpretedMask) {
		return true
	}
	if g.nodes[ra].term.Sort() != g.nodes[rb].term.Sort() {
		return true
	}
	eq, _ := g.falseEq(ra, rb)
	return eq != NullNode
}

// falseEq returns an equality node between the classes of ra and rb, and a node of its class
// whose value is false. It returns NullNode twice if there is none.
// Equalities congruent to the one found in the parents are in its class, so the whole class is searched.
func (g *Graph) falseEq(ra, rb NodeID) (eq, witness NodeID) {
	if len(g.nodes[rb].parents) < len(g.nodes[ra].parents) {
		ra, rb = rb, ra
	}
	for _, p := range g.nodes[ra].parents {
		np := &g.nodes[p]
		if !np.has(equalityMask) {
			continue
		}
		r0, r1 := g.nodes[np.args[0]].root, g.nodes[np.args[1]].root
		if (r0 != ra || r1 != rb) && (r0 != rb || r1 != ra) {
			continue
		}
		if w := g.falseMember(p); w != NullNode {
			return p, w
		}
	}
	return NullNode, NullNode
}

// falseMember returns a node of the class of n whose value is false, or NullNode.
func (g *Graph) falseMember(n NodeID) NodeID {
	if g.nodes[n].value == False {
		return n
	}
	if r := g.nodes[n].root; g.nodes[r].value == False {
		return r
	}
	w := NullNode
	g.class(n, func(k NodeID) {
		if w == NullNode && g.nodes[k].value == False {
			w = k
		}
	})
	return w
}

func (g *Graph) classValue(n NodeID) Lbool {
	if v := g.nodes[n].value; v != Undef {
		return v
	}
	return g.nodes[g.nodes[n].root].value
}

// SetCgcEnabled enables or disables congruence closure on n.
func (g *Graph) SetCgcEnabled(n NodeID, enable bool) {
	g.forcePush()
	g.setCgcEnabled(n, enable)
}

// setCgcEnabled toggles congruence on n. The undo record keeps, in num, whether n was
// canonical before being disabled and, in n2, the node that replaced it in the table,
// or the former congruence root of n when it is enabled.
func (g *Graph) setCgcEnabled(n NodeID, enable bool) {
	nd := &g.nodes[n]
	if enable == nd.has(cgcMask) {
		return
	}
	nd.set(cgcMask, enable)
	u := update{kind: toggleCgcUpdate, n1: n, n2: nd.cg}
	if len(nd.args) != 0 {
		if enable {
			n2, comm := g.insertTable(n)
			if n2 == n {
				g.updateChildren(n)
			} else {
				g.pushCongruence(n, n2, comm)
			}
		} else if g.isCgr(n) {
			g.eraseTable(n)
			g.nodes[n].cg = NullNode
			u.num = 1
			u.n2 = g.recanonicalize(n)
		} else {
			u.n2 = NullNode
		}
	}
	g.pushUpdate(u)
}

// recanonicalize puts in the table an enabled node congruent to n, which was just taken out of it,
// and returns it. It returns NullNode if there is no such node.
func (g *Graph) recanonicalize(n NodeID) NodeID {
	for _, p := range g.declNodes[g.nodes[n].term.Decl()] {
		np := &g.nodes[p]
		if p == n || !np.has(cgcMask) {
			continue
		}
		if ok, _ := g.congruent(p, n); !ok {
			continue
		}
		g.insertTable(p)
		g.updateChildren(p)
		return p
	}
	return NullNode
}

func (g *Graph) undoToggleCgc(u update) {
	n := u.n1
	nd := &g.nodes[n]
	enabled := nd.has(cgcMask)
	nd.set(cgcMask, !enabled)
	if len(nd.args) == 0 {
		return
	}
	if enabled {
		if g.isCgr(n) {
			g.eraseTable(n)
		}
		g.nodes[n].cg = u.n2
		return
	}
	if u.num == 0 {
		return
	}
	if q := u.n2; q != NullNode {
		g.eraseTable(q)
		g.nodes[q].cg = n
	}
	g.insertTable(n)
}

// SetMergeTFEnabled sets whether the boolean node n may be merged with true or false.
func (g *Graph) SetMergeTFEnabled(n NodeID, enable bool) {
	nd := &g.nodes[n]
	if !nd.term.IsBool() || nd.has(mergeTFMask) == enable {
		return
	}
	g.forcePush()
	nd.set(mergeTFMask, enable)
	g.pushUpdate(update{kind: toggleMergeTFUpdate, n1: n})
}

// SetRelevant marks n as relevant.
func (g *Graph) SetRelevant(n NodeID) {
	if g.nodes[n].has(relevantMask) {
		return
	}
	g.forcePush()
	g.nodes[n].set(relevantMask, true)
	g.pushUpdate(update{kind: setRelevantUpdate, n1: n})
}
