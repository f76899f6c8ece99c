package euf

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrIncomplete is returned when the resource limit was reached before a fixpoint or a full explanation.
// The state of the graph is still consistent, but the caller must treat the outcome as unknown.
var ErrIncomplete = errors.New("euf: resource limit reached")

// A Limit is queried at the boundaries of long-running loops.
type Limit interface {
	// Inc accounts for one more step and returns false once the budget is exhausted.
	Inc() bool
}

type limit struct {
	ctx      context.Context
	steps    uint64
	maxSteps uint64
}

// NewLimit returns a limit tripping when ctx is done or after maxSteps steps. 0 means no step budget.
func NewLimit(ctx context.Context, maxSteps uint64) Limit {
	return &limit{ctx: ctx, maxSteps: maxSteps}
}

func (l *limit) Inc() bool {
	l.steps++
	if l.maxSteps != 0 && l.steps > l.maxSteps {
		return false
	}
	return l.ctx.Err() == nil
}

type noLimit struct{}

func (noLimit) Inc() bool { return true }

// A LiteralPropagator is told that n must take the value of ante, because both are in the same class.
// When ante is NullNode, n is an equality whose arguments are now equal.
type LiteralPropagator func(n, ante NodeID)

// An Option configures a Graph.
type Option func(g *Graph)

// WithLogger sets the logger. Merges, conflicts and backtracks are traced at trace level.
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Graph) {
		g.log = log
	}
}

// WithLimit sets the resource limit checked during propagation and explanation.
func WithLimit(l Limit) Option {
	return func(g *Graph) {
		g.limit = l
	}
}

// WithDefaultRelevant makes new nodes relevant, or not, at creation.
func WithDefaultRelevant(relevant bool) Option {
	return func(g *Graph) {
		g.defaultRelevant = relevant
	}
}

// WithLiteralPropagator hands literal propagation to the caller.
// Without it, the graph assigns propagated values itself.
func WithLiteralPropagator(fn LiteralPropagator) Option {
	return func(g *Graph) {
		g.propagator = fn
	}
}

// WithMergeHook calls fn after each merge with the new root and the former root of the other class.
func WithMergeHook(fn func(root, other NodeID)) Option {
	return func(g *Graph) {
		g.onMerge = append(g.onMerge, fn)
	}
}

// WithMakeHook calls fn after each node creation.
func WithMakeHook(fn func(n NodeID)) Option {
	return func(g *Graph) {
		g.onMake = append(g.onMake, fn)
	}
}

var defaults = []Option{
	func(g *Graph) {
		if g.log == nil {
			l := logrus.New()
			l.SetOutput(io.Discard)
			g.log = l
		}
	},
	func(g *Graph) {
		if g.limit == nil {
			g.limit = noLimit{}
		}
	},
	func(g *Graph) {
		g.tracing = traceEnabled(g.log)
	},
}

func traceEnabled(log logrus.FieldLogger) bool {
	switch l := log.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.TraceLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.TraceLevel)
	default:
		return false
	}
}
