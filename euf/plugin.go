package euf

import (
	"fmt"
	"io"
)

// A Plugin is a theory solver attached to the graph.
// It owns theory variables attached to nodes and is told when their classes are merged.
type Plugin interface {
	// ID returns the slot of the plugin, between 0 and MaxPlugins-1.
	ID() TheoryID
	// RegisterNode is called when n receives one of the plugin's variables.
	RegisterNode(n NodeID)
	// MergeEh is called when the class of child, carrying a variable of the plugin, was merged into the class of root.
	MergeEh(child, root NodeID)
	// DiseqEh is called when the equality node eq between two classes carrying variables of the plugin became false.
	DiseqEh(eq NodeID)
	// Propagate is called once per propagation round, after all pending notifications were delivered.
	Propagate()
	// PushScopeEh is called when a scope is materialized.
	PushScopeEh()
	// Undo reverts the last record the plugin logged with PushPluginUndo.
	Undo()
	Display(w io.Writer)
	CollectStatistics(st Statistics)
}

// AddPlugin installs p in the slot p.ID(). It panics if the slot is invalid or taken.
func (g *Graph) AddPlugin(p Plugin) {
	id := p.ID()
	if id < 0 || int(id) >= MaxPlugins {
		panic(fmt.Errorf("invalid plugin id %d", id))
	}
	if g.plugins[id] != nil {
		panic(fmt.Errorf("plugin slot %d already in use", id))
	}
	g.plugins[id] = p
	g.numPlugins++
}

// Plugin returns the plugin installed in slot id, or nil.
func (g *Graph) Plugin(id TheoryID) Plugin {
	if id < 0 || int(id) >= MaxPlugins {
		return nil
	}
	return g.plugins[id]
}

// SetThPropagatesDiseqs asks the graph to produce disequalities between variables of theory id.
func (g *Graph) SetThPropagatesDiseqs(id TheoryID) {
	g.propagatesDiseqs[id] = true
}

// ThPropagatesDiseqs returns true iff theory id receives disequalities.
func (g *Graph) ThPropagatesDiseqs(id TheoryID) bool {
	return g.propagatesDiseqs[id]
}

// PushPluginUndo logs a record private to plugin id. Its Undo method is called when the record is popped.
func (g *Graph) PushPluginUndo(id TheoryID) {
	g.forcePush()
	g.pushUpdate(update{kind: pluginUndoUpdate, id: id})
}

// AddThVar attaches the variable v of theory id to n.
// If the root of n already carries a variable of that theory, a theory equality is produced.
func (g *Graph) AddThVar(n NodeID, v TheoryVar, id TheoryID) {
	g.forcePush()
	nd := &g.nodes[n]
	w := nd.thVar(id)
	r := nd.root
	if p := g.plugins[id]; p != nil {
		p.RegisterNode(n)
	}
	nd = &g.nodes[n]
	if w == NullTheoryVar {
		nd.addThVar(v, id)
		g.pushUpdate(update{kind: addThVarUpdate, n1: n, id: id})
		if r == n {
			return
		}
		if u := g.nodes[r].thVar(id); u == NullTheoryVar {
			g.nodes[r].addThVar(v, id)
			g.addThDiseqs(id, v, r)
		} else {
			g.addThEq(id, v, u, n, r)
		}
		return
	}
	u := g.nodes[r].thVar(id)
	nd.replaceThVar(v, id)
	g.pushUpdate(update{kind: replaceThVarUpdate, n1: n, id: id, v: w})
	if u != NullTheoryVar && u != v {
		g.addThEq(id, v, u, n, r)
	}
}

// ThVar returns the variable of theory id attached to n, or NullTheoryVar.
func (g *Graph) ThVar(n NodeID, id TheoryID) TheoryVar {
	return g.nodes[n].thVar(id)
}

// ClosestThVar returns the variable of theory id attached to n, or else to its root.
func (g *Graph) ClosestThVar(n NodeID, id TheoryID) TheoryVar {
	if v := g.nodes[n].thVar(id); v != NullTheoryVar {
		return v
	}
	return g.nodes[g.nodes[n].root].thVar(id)
}

// HasThVars returns true iff n carries at least one theory variable.
func (g *Graph) HasThVars(n NodeID) bool {
	return len(g.nodes[n].thVars) != 0
}

// mergeThEq moves the variables of r1 to r2 after their classes were merged,
// producing a theory equality for each theory present on both.
func (g *Graph) mergeThEq(r1, r2 NodeID) {
	for _, tv := range g.nodes[r1].thVars {
		u := g.nodes[r2].thVar(tv.id)
		if u == NullTheoryVar {
			g.nodes[r2].addThVar(tv.v, tv.id)
			g.pushUpdate(update{kind: addThVarUpdate, n1: r2, id: tv.id})
			g.addThDiseqs(tv.id, tv.v, r2)
		} else {
			g.addThEq(tv.id, tv.v, u, r1, r2)
		}
	}
}

func (g *Graph) addThEq(id TheoryID, v1, v2 TheoryVar, child, root NodeID) {
	g.thEqs = append(g.thEqs, ThEq{ID: id, V1: v1, V2: v2, Child: child, Root: root, Eq: NullNode, IsEq: true})
	g.pushUpdate(update{kind: newThEqUpdate})
	g.stats.NbThEqs++
}

func (g *Graph) addThDiseq(id TheoryID, v1, v2 TheoryVar, eq NodeID) {
	if !g.propagatesDiseqs[id] {
		return
	}
	g.thEqs = append(g.thEqs, ThEq{ID: id, V1: v1, V2: v2, Child: NullNode, Root: NullNode, Eq: eq})
	g.pushUpdate(update{kind: newThEqUpdate})
	g.stats.NbThDiseqs++
}

// addThDiseqs produces the disequalities between v1, now attached to the root r,
// and the variables of the classes r is known to differ from.
func (g *Graph) addThDiseqs(id TheoryID, v1 TheoryVar, r NodeID) {
	if !g.propagatesDiseqs[id] {
		return
	}
	for _, p := range g.nodes[r].parents {
		np := &g.nodes[p]
		if !np.has(equalityMask) || g.classValue(p) != False {
			continue
		}
		other := g.nodes[np.args[0]].root
		if other == r {
			other = g.nodes[np.args[1]].root
		}
		if v2 := g.ClosestThVar(other, id); v2 != NullTheoryVar {
			g.addThDiseq(id, v1, v2, p)
		}
	}
}

// HasThEq returns true iff a theory equality is waiting for the outer scheduler.
func (g *Graph) HasThEq() bool {
	return g.thEqsQhead < len(g.thEqs) && !g.inconsistent
}

// ThEq returns the next theory equality for the outer scheduler.
func (g *Graph) ThEq() ThEq {
	return g.thEqs[g.thEqsQhead]
}

// NextThEq consumes the current theory equality.
func (g *Graph) NextThEq() {
	g.forcePush()
	g.thEqsQhead++
}
