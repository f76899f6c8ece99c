// Package datatype is a plugin deciding equalities between constructor applications.
//
// Two applications of the same constructor are equal iff their arguments are pairwise equal
// (injectivity), and applications of different constructors are always different (clash).
package datatype

import (
	"fmt"
	"io"

	"github.com/crillab/gophereuf/euf"
	"github.com/sirupsen/logrus"
)

type trailKind byte

const (
	newVarTrail trailKind = iota
	setCtorTrail
	pushPairTrail
	qheadTrail
)

type trailEntry struct {
	kind trailKind
	v    euf.TheoryVar
	old  euf.NodeID // Former constructor of v, or former queue head
}

type pair struct {
	c1, c2 euf.NodeID
}

// Stats are statistics about the work done by the plugin.
type Stats struct {
	NbInjectivity int // How many pairs of applications of the same constructor were found
	NbClashes     int // How many pairs of applications of different constructors were found
}

// A Plugin tracks, for each class of datatype sort, one constructor application it contains.
type Plugin struct {
	g     *euf.Graph
	id    euf.TheoryID
	log   logrus.FieldLogger
	nodes []euf.NodeID // Theory variable -> node it was attached to
	ctors []euf.NodeID // Theory variable -> constructor application of its class, if known
	queue []pair
	qhead int
	trail []trailEntry
	stats Stats
}

// New installs a datatype plugin in slot id of g. log may be nil.
func New(g *euf.Graph, id euf.TheoryID, log logrus.FieldLogger) *Plugin {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	p := &Plugin{g: g, id: id, log: log.WithField("theory", "datatype")}
	g.AddPlugin(p)
	return p
}

// Attach gives n, a node of datatype sort, a theory variable of the plugin.
// It panics if n is not of a datatype sort.
func (p *Plugin) Attach(n euf.NodeID) euf.TheoryVar {
	if v := p.g.ThVar(n, p.id); v != euf.NullTheoryVar {
		return v
	}
	t := p.g.Term(n)
	if !t.Sort().IsDatatype() {
		panic(fmt.Errorf("%s is not of a datatype sort", t))
	}
	v := euf.TheoryVar(len(p.nodes))
	ctor := euf.NullNode
	if t.Decl().IsConstructor() {
		ctor = n
	}
	p.nodes = append(p.nodes, n)
	p.ctors = append(p.ctors, ctor)
	p.pushTrail(trailEntry{kind: newVarTrail, v: v})
	p.g.AddThVar(n, v, p.id)
	return v
}

// Constructor returns the constructor application known in the class of n, or NullNode.
func (p *Plugin) Constructor(n euf.NodeID) euf.NodeID {
	v := p.g.ClosestThVar(p.g.Root(n), p.id)
	if v == euf.NullTheoryVar {
		return euf.NullNode
	}
	return p.ctors[v]
}

// Stats returns the statistics of the plugin.
func (p *Plugin) Stats() Stats { return p.stats }

func (p *Plugin) pushTrail(e trailEntry) {
	p.trail = append(p.trail, e)
	p.g.PushPluginUndo(p.id)
}

// ID implements euf.Plugin.
func (p *Plugin) ID() euf.TheoryID { return p.id }

// RegisterNode implements euf.Plugin.
func (p *Plugin) RegisterNode(n euf.NodeID) {
	p.log.WithField("node", n).Debug("attached")
}

// MergeEh implements euf.Plugin.
func (p *Plugin) MergeEh(child, root euf.NodeID) {
	v1, v2 := p.g.ThVar(child, p.id), p.g.ThVar(root, p.id)
	c1, c2 := p.ctors[v1], p.ctors[v2]
	switch {
	case c1 == euf.NullNode:
	case c2 == euf.NullNode:
		p.pushTrail(trailEntry{kind: setCtorTrail, v: v2, old: c2})
		p.ctors[v2] = c1
	default:
		p.queue = append(p.queue, pair{c1, c2})
		p.pushTrail(trailEntry{kind: pushPairTrail})
	}
}

// DiseqEh implements euf.Plugin. Disequalities never trigger datatype reasoning.
func (p *Plugin) DiseqEh(eq euf.NodeID) {}

// Propagate implements euf.Plugin.
func (p *Plugin) Propagate() {
	if p.qhead == len(p.queue) {
		return
	}
	p.pushTrail(trailEntry{kind: qheadTrail, old: euf.NodeID(p.qhead)})
	for ; p.qhead < len(p.queue) && !p.g.Inconsistent(); p.qhead++ {
		c1, c2 := p.queue[p.qhead].c1, p.queue[p.qhead].c2
		j := euf.Equality(c1, c2)
		if p.g.Term(c1).Decl() != p.g.Term(c2).Decl() {
			p.stats.NbClashes++
			p.log.WithFields(logrus.Fields{"c1": c1, "c2": c2}).Debug("clash")
			p.g.SetConflict(c1, c2, j)
			continue
		}
		p.stats.NbInjectivity++
		args1, args2 := p.g.Args(c1), p.g.Args(c2)
		for i := range args1 {
			p.g.PushMerge(args1[i], args2[i], j)
		}
	}
}

// PushScopeEh implements euf.Plugin. The state of the plugin is restored through its undo records.
func (p *Plugin) PushScopeEh() {}

// Undo implements euf.Plugin.
func (p *Plugin) Undo() {
	e := p.trail[len(p.trail)-1]
	p.trail = p.trail[:len(p.trail)-1]
	switch e.kind {
	case newVarTrail:
		p.nodes = p.nodes[:len(p.nodes)-1]
		p.ctors = p.ctors[:len(p.ctors)-1]
	case setCtorTrail:
		p.ctors[e.v] = e.old
	case pushPairTrail:
		p.queue = p.queue[:len(p.queue)-1]
	case qheadTrail:
		p.qhead = int(e.old)
	}
}

// Display implements euf.Plugin.
func (p *Plugin) Display(w io.Writer) {
	fmt.Fprintf(w, "datatype: %d vars, %d pending\n", len(p.nodes), len(p.queue)-p.qhead)
	for v, n := range p.nodes {
		if c := p.ctors[v]; c != euf.NullNode {
			fmt.Fprintf(w, "v%d #%d := %s\n", v, n, p.g.Term(c))
		}
	}
}

// CollectStatistics implements euf.Plugin.
func (p *Plugin) CollectStatistics(st euf.Statistics) {
	st.Update("datatype injectivity", uint64(p.stats.NbInjectivity))
	st.Update("datatype clashes", uint64(p.stats.NbClashes))
}
