package explain

import (
	"context"

	"github.com/crillab/gophereuf/euf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// checkScoped checks lits in a new scope of e, and leaves e as it was.
func (e *engine) checkScoped(lits []int) (Result, error) {
	e.g.Push()
	defer e.g.Pop(1)
	return e.check(lits)
}

// initialCore returns the core of the whole problem, or an error if there is none.
func (e *engine) initialCore() ([]int, error) {
	res, err := e.checkScoped(e.pb.all())
	if err != nil {
		return nil, errors.Wrap(err, "could not extract MUS")
	}
	switch res.Status {
	case Consistent:
		return nil, errors.New("cannot extract MUS from consistent problem")
	case Indet:
		return nil, errors.Wrap(euf.ErrIncomplete, "could not extract MUS")
	}
	return res.Core, nil
}

// MUSInsertion returns a Minimal Unsatisfiable Subset for the problem using the insertion method.
// A MUS is an inconsistent subset such that, if any of its literals is removed,
// the problem becomes consistent.
// The insertion method asserts the literals of a core one at a time in the same scope,
// until the problem becomes inconsistent: the last literal is then part of the MUS, and the
// literals that were not asserted are not.
// It performs at most n*(n+1)/2 assertions, where n is the size of the first core.
func (pb *Problem) MUSInsertion(ctx context.Context) (mus *Problem, err error) {
	e := newEngine(ctx, pb)
	lits, err := e.initialCore()
	if err != nil {
		return nil, err
	}
	var core []int
	for {
		e.log.WithField("size", len(core)).Debug("mus insertion")
		e.g.Push()
		res, err := e.check(core)
		if err != nil || res.Status != Consistent {
			e.g.Pop(1)
			if err == nil && res.Status == Inconsistent {
				return pb.Sub(res.Core), nil
			}
			return nil, errors.Wrap(euf.ErrIncomplete, "could not extract MUS")
		}
		idx := 0
		for ; idx < len(lits); idx++ {
			if res, err = e.check(lits[idx : idx+1]); err != nil || res.Status != Consistent {
				break
			}
		}
		e.g.Pop(1)
		if err != nil || res.Status == Indet {
			return nil, errors.Wrap(euf.ErrIncomplete, "could not extract MUS")
		}
		if idx == len(lits) {
			return nil, errors.New("core became consistent")
		}
		e.log.WithField("removed", len(lits)-idx-1).Debug("mus insertion")
		core = append(core, lits[idx])
		lits = lits[:idx]
	}
}

// MUSDeletion returns a Minimal Unsatisfiable Subset for the problem using the deletion method.
// A MUS is an inconsistent subset such that, if any of its literals is removed,
// the problem becomes consistent.
// Each literal of a core is removed in turn: if the rest is still inconsistent, the core is
// replaced by the new, smaller, core; otherwise the literal is part of the MUS.
// It performs at most n checks, where n is the size of the first core.
func (pb *Problem) MUSDeletion(ctx context.Context) (mus *Problem, err error) {
	e := newEngine(ctx, pb)
	core, err := e.initialCore()
	if err != nil {
		return nil, err
	}
	cand := make([]int, 0, len(core))
	for i := 0; i < len(core); {
		cand = append(append(cand[:0], core[:i]...), core[i+1:]...)
		res, err := e.checkScoped(cand)
		if err != nil {
			return nil, errors.Wrap(err, "could not extract MUS")
		}
		switch res.Status {
		case Consistent:
			e.log.WithField("lit", core[i]).Debug("mus deletion: kept")
			i++
		case Inconsistent:
			// The literals kept so far are necessary, so they belong to the new core too.
			e.log.WithFields(logrus.Fields{"lit": core[i], "size": len(res.Core)}).Debug("mus deletion: removed")
			core = res.Core
		default:
			return nil, errors.Wrap(euf.ErrIncomplete, "could not extract MUS")
		}
	}
	return pb.Sub(core), nil
}

// MUS returns a Minimal Unsatisfiable Subset for the problem.
// A MUS is an inconsistent subset such that, if any of its literals is removed,
// the problem becomes consistent.
// The exact algorithm used to compute the MUS is not guaranteed. If you want to use a given algorithm,
// use the relevant functions.
func (pb *Problem) MUS(ctx context.Context) (mus *Problem, err error) {
	return pb.MUSDeletion(ctx)
}
