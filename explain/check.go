// Package explain provides facilities to check problems and understand why they are inconsistent.
package explain

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/crillab/gophereuf/euf"
	"github.com/crillab/gophereuf/term"
	"github.com/crillab/gophereuf/theory/datatype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options is a set of options used during the checking process.
type Options struct {
	// Log receives the traces of the graph and the progress of minimizations. If nil, nothing is logged.
	Log logrus.FieldLogger
	// MaxSteps bounds the number of merges performed during a check or a minimization. 0 means no bound.
	MaxSteps uint64
	// Display, if not nil, receives a dump of the graph at the end of Check.
	Display io.Writer
	// Irrelevant makes the nodes of the graph irrelevant until their literal is asserted.
	Irrelevant bool
}

// Status is the result of a check.
type Status byte

const (
	// Indet means the check was interrupted before a result was found.
	Indet = Status(iota)
	// Consistent means the literals have a model.
	Consistent
	// Inconsistent means the literals have no model.
	Inconsistent
)

func (s Status) String() string {
	switch s {
	case Indet:
		return "UNKNOWN"
	case Consistent:
		return "CONSISTENT"
	case Inconsistent:
		return "INCONSISTENT"
	default:
		panic(fmt.Errorf("invalid status %d", s))
	}
}

// A Result is the outcome of a check.
type Result struct {
	Status Status
	Core   []int // Indices of the literals explaining the inconsistency, in increasing order
	Stats  euf.StatsMap
}

// An engine is a graph holding the nodes of every term of a problem.
// Literals are asserted in nested scopes, so that one engine serves several checks.
type engine struct {
	pb  *Problem
	g   *euf.Graph
	dt  *datatype.Plugin
	log logrus.FieldLogger
}

func newEngine(ctx context.Context, pb *Problem) *engine {
	log := pb.Options.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	g := euf.New(
		euf.WithLogger(log),
		euf.WithLimit(euf.NewLimit(ctx, pb.Options.MaxSteps)),
		euf.WithDefaultRelevant(!pb.Options.Irrelevant),
	)
	e := &engine{pb: pb, g: g, log: log}
	e.dt = datatype.New(g, 0, log)
	for _, lit := range pb.Lits {
		e.internalize(lit.Atom)
	}
	// Congruences between the terms themselves hold in every scope.
	if _, err := g.Propagate(); err != nil {
		log.WithError(err).Debug("could not propagate terms")
	}
	return e
}

// internalize creates the nodes of the terms and of their subterms.
func (e *engine) internalize(terms ...*term.Term) {
	for _, t := range terms {
		if e.g.Find(t) != euf.NullNode {
			continue
		}
		args := make([]euf.NodeID, t.NumArgs())
		for i, arg := range t.Args() {
			e.internalize(arg)
			args[i] = e.g.Find(arg)
		}
		n := e.g.MkNode(t, 0, args...)
		if t.Sort().IsDatatype() {
			e.dt.Attach(n)
		}
	}
}

// assert asserts the literal with index i.
func (e *engine) assert(i int) {
	lit := e.pb.Lits[i]
	j := euf.External(i)
	atom := lit.Atom
	n := e.g.Find(atom)
	if e.pb.Options.Irrelevant {
		e.g.SetRelevant(n)
	}
	switch {
	case atom.IsEq() && atom.Arg(0).IsBool():
		e.g.Merge(e.g.Find(atom.Arg(0)), e.g.Find(atom.Arg(1)), j)
	case atom.IsEq() && lit.Neg:
		e.g.NewDiseq(n, j)
	case lit.Neg:
		e.g.SetValue(n, euf.False, j)
	default:
		e.g.SetValue(n, euf.True, j)
	}
}

// check asserts the literals whose indices are in lits and propagates them.
// The caller is in charge of the scopes.
func (e *engine) check(lits []int) (Result, error) {
	for _, i := range lits {
		if e.g.Inconsistent() {
			break
		}
		e.assert(i)
	}
	res := Result{Stats: make(euf.StatsMap)}
	_, err := e.g.Propagate()
	e.g.CollectStatistics(res.Stats)
	if err != nil {
		if errors.Is(err, euf.ErrIncomplete) {
			return res, nil
		}
		return res, errors.Wrap(err, "could not propagate")
	}
	if !e.g.Inconsistent() {
		res.Status = Consistent
		return res, nil
	}
	res.Status = Inconsistent
	res.Core = e.core(lits)
	return res, nil
}

// core returns the indices of the literals explaining the current conflict.
// If the explanation cannot be completed, all of lits is returned.
func (e *engine) core(lits []int) []int {
	reasons, err := e.g.Explain(nil, nil)
	if err != nil {
		e.log.WithError(err).Debug("incomplete explanation")
		core := make([]int, len(lits))
		copy(core, lits)
		sort.Ints(core)
		return core
	}
	core := make([]int, 0, len(reasons))
	for _, r := range reasons {
		core = append(core, r.(int))
	}
	sort.Ints(core)
	k := 0
	for i, idx := range core {
		if i == 0 || idx != core[k-1] {
			core[k] = idx
			k++
		}
	}
	return core[:k]
}

func (pb *Problem) all() []int {
	lits := make([]int, len(pb.Lits))
	for i := range lits {
		lits[i] = i
	}
	return lits
}

// Check decides whether the literals of pb have a model.
// If they do not, the returned core is the set of literals used to derive the conflict.
func (pb *Problem) Check(ctx context.Context) (Result, error) {
	e := newEngine(ctx, pb)
	res, err := e.check(pb.all())
	if pb.Options.Display != nil {
		e.g.Display(pb.Options.Display)
	}
	return res, err
}

// UnsatSubset returns an inconsistent subset of the problem.
// The subset is not guaranteed to be a MUS, meaning some literals of the resulting
// problem might be removed while still keeping the problem inconsistent.
// However, this method is much more efficient than extracting a MUS, as it only checks
// the problem once.
func (pb *Problem) UnsatSubset(ctx context.Context) (subset *Problem, err error) {
	res, err := pb.Check(ctx)
	if err != nil {
		return nil, err
	}
	switch res.Status {
	case Consistent:
		return nil, errors.New("problem is consistent")
	case Indet:
		return nil, errors.Wrap(euf.ErrIncomplete, "could not check problem")
	}
	return pb.Sub(res.Core), nil
}
