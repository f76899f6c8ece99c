package euf

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type updateKind byte

const (
	addNodeUpdate updateKind = iota
	toggleCgcUpdate
	toggleMergeTFUpdate
	setParentUpdate
	addThVarUpdate
	replaceThVarUpdate
	newThEqUpdate
	newThEqQheadUpdate
	pluginQheadUpdate
	inconsistentUpdate
	valueAssignmentUpdate
	setRelevantUpdate
	updateChildrenUpdate
	pluginUndoUpdate
	trailUpdate
)

// An update is an entry of the undo log.
type update struct {
	kind   updateKind
	n1, n2 NodeID    // Node concerned; for merges, the former root and the node that was merged
	num    int       // Parent count of the new root for merges, saved queue head or toggle flag otherwise
	id     TheoryID  // Theory of variable and plugin records
	v      TheoryVar // Replaced variable
	undoer Undoer
}

// A scope records where the undo log stood when it was opened, and the merges that were
// pending at that time. They belong to the enclosing scope and survive a pop.
type scope struct {
	numUpdates int
	toMerge    []toMerge
}

// An Undoer is a custom entry of the undo log.
type Undoer interface {
	Undo()
}

func (g *Graph) pushUpdate(u update) {
	g.updates = append(g.updates, u)
}

// PushTrail logs u. Its Undo method is called when the current scope is popped.
func (g *Graph) PushTrail(u Undoer) {
	g.forcePush()
	g.pushUpdate(update{kind: trailUpdate, undoer: u})
}

// Push opens a new scope. Scopes are materialized on the first mutation that follows.
func (g *Graph) Push() {
	g.numScopes++
}

// NumScopes returns the number of open scopes.
func (g *Graph) NumScopes() int {
	return len(g.scopes) + g.numScopes
}

func (g *Graph) forcePush() {
	if g.numScopes == 0 {
		return
	}
	var pending []toMerge
	if len(g.toMerge) != 0 {
		pending = append(pending, g.toMerge...)
	}
	for ; g.numScopes > 0; g.numScopes-- {
		g.scopes = append(g.scopes, scope{numUpdates: len(g.updates), toMerge: pending})
		g.arena.pushScope()
		for _, p := range g.plugins {
			if p != nil {
				p.PushScopeEh()
			}
		}
	}
	g.pushUpdate(update{kind: newThEqQheadUpdate, num: g.thEqsQhead})
}

// Pop closes the nb innermost scopes and restores the state the graph had when they were opened.
func (g *Graph) Pop(nb int) {
	if nb > g.NumScopes() {
		panic(fmt.Errorf("cannot pop %d scopes out of %d", nb, g.NumScopes()))
	}
	if nb <= g.numScopes {
		g.numScopes -= nb
		return
	}
	nb -= g.numScopes
	g.numScopes = 0
	lim := len(g.scopes) - nb
	numUpdates := g.scopes[lim].numUpdates
	if g.tracing {
		g.log.WithFields(logrus.Fields{"scopes": nb, "updates": len(g.updates) - numUpdates}).Trace("pop")
	}
	for i := len(g.updates) - 1; i >= numUpdates; i-- {
		g.undo(g.updates[i])
	}
	g.updates = g.updates[:numUpdates]
	g.toMerge = append(g.toMerge[:0], g.scopes[lim].toMerge...)
	g.scopes = g.scopes[:lim]
	g.arena.popScope(nb)
}

func (g *Graph) undo(u update) {
	switch u.kind {
	case addNodeUpdate:
		g.undoNode()
	case toggleCgcUpdate:
		g.undoToggleCgc(u)
	case toggleMergeTFUpdate:
		nd := &g.nodes[u.n1]
		nd.set(mergeTFMask, !nd.has(mergeTFMask))
	case setParentUpdate:
		g.undoEq(u.n1, u.n2, u.num)
	case addThVarUpdate:
		g.undoAddThVar(u.n1, u.id)
	case replaceThVarUpdate:
		g.nodes[u.n1].replaceThVar(u.v, u.id)
	case newThEqUpdate:
		g.thEqs = g.thEqs[:len(g.thEqs)-1]
	case newThEqQheadUpdate:
		g.thEqsQhead = u.num
	case pluginQheadUpdate:
		g.pluginQhead = u.num
	case inconsistentUpdate:
		g.inconsistent = false
	case valueAssignmentUpdate:
		nd := &g.nodes[u.n1]
		nd.value = Undef
		nd.litJust = Axiom(NullTheory)
	case setRelevantUpdate:
		g.nodes[u.n1].set(relevantMask, false)
	case updateChildrenUpdate:
		for _, arg := range g.nodes[u.n1].args {
			r := &g.nodes[g.nodes[arg].root]
			r.parents = r.parents[:len(r.parents)-1]
		}
	case pluginUndoUpdate:
		g.plugins[u.id].Undo()
	case trailUpdate:
		u.undoer.Undo()
	default:
		panic("invalid update")
	}
}

// undoNode removes the last created node.
func (g *Graph) undoNode() {
	n := NodeID(len(g.nodes) - 1)
	nd := &g.nodes[n]
	if len(nd.args) != 0 {
		if g.isCgr(n) {
			g.eraseTable(n)
		}
		d := nd.term.Decl()
		ns := g.declNodes[d][:len(g.declNodes[d])-1]
		if len(ns) == 0 {
			delete(g.declNodes, d)
		} else {
			g.declNodes[d] = ns
		}
	}
	g.termNodes[nd.term.ID()] = NullNode
	g.nodes[n] = node{}
	g.nodes = g.nodes[:n]
}

// undoEq splits the class of r1, whose node n1 was merged into the class of another root,
// which had r2NumParents parents before the merge.
func (g *Graph) undoEq(r1, n1 NodeID, r2NumParents int) {
	r2 := g.nodes[r1].root
	nr1, nr2 := &g.nodes[r1], &g.nodes[r2]
	nr2.classSize -= nr1.classSize
	nr1.next, nr2.next = nr2.next, nr1.next
	for _, p := range nr2.parents[r2NumParents:] {
		if g.nodes[p].has(cgcMask) {
			g.eraseTable(p)
		}
	}
	g.class(r1, func(c NodeID) { g.nodes[c].root = r1 })
	for _, p := range g.nodes[r1].parents {
		if !g.nodes[p].has(cgcMask) {
			continue
		}
		if g.isCgr(p) || !g.stillCongruent(p) {
			g.insertTable(p)
		}
	}
	nr2 = &g.nodes[r2]
	nr2.parents = nr2.parents[:r2NumParents]
	g.unmergeJustification(n1)
}

// stillCongruent returns true iff p is congruent to the node it was found equal to in the table.
func (g *Graph) stillCongruent(p NodeID) bool {
	cg := g.nodes[p].cg
	if cg == NullNode || int(cg) >= len(g.nodes) {
		return false
	}
	ok, _ := g.congruent(p, cg)
	return ok
}

func (g *Graph) undoAddThVar(n NodeID, id TheoryID) {
	nd := &g.nodes[n]
	v := nd.thVar(id)
	nd.delThVar(id)
	if r := nd.root; r != n && g.nodes[r].thVar(id) == v {
		g.nodes[r].delThVar(id)
	}
}
