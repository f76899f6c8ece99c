package euf

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/crillab/gophereuf/term"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assertedMerge struct {
	a, b *term.Term
}

// replay builds a fresh graph over the terms of fx and asserts only the merges named by reasons.
func replay(t *testing.T, fx *fixture, terms []*term.Term, merges []assertedMerge, reasons []interface{}) *fixture {
	fy := &fixture{t: t, m: fx.m, u: fx.u, g: New()}
	for _, tm := range terms {
		fy.node(tm)
	}
	for _, r := range reasons {
		k := r.(int)
		fy.g.Merge(fy.node(merges[k].a), fy.node(merges[k].b), External(k))
	}
	fy.propagate()
	return fy
}

// TestExplanationSoundness checks that the reasons returned by an explanation are enough
// to derive the explained equality on their own.
func TestExplanationSoundness(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))
			fx := newFixture(t)
			var terms []*term.Term
			for i := 0; i < 5; i++ {
				terms = append(terms, fx.app(fmt.Sprintf("c%d", i)))
			}
			pick := func() *term.Term { return terms[rnd.Intn(len(terms))] }
			for len(terms) < 20 {
				var tm *term.Term
				if rnd.Intn(2) == 0 {
					tm = fx.app("f", pick())
				} else {
					tm = fx.app("g", pick(), pick())
				}
				if fx.g.Find(tm) == NullNode {
					fx.node(tm)
					terms = append(terms, tm)
				}
			}
			var merges []assertedMerge
			for k := 0; k < 6; k++ {
				m := assertedMerge{pick(), pick()}
				merges = append(merges, m)
				fx.g.Merge(fx.node(m.a), fx.node(m.b), External(k))
			}
			fx.propagate()
			require.False(t, fx.g.Inconsistent())
			checkClosure(t, fx.g)
			for i, a := range terms {
				for _, b := range terms[i+1:] {
					na, nb := fx.g.Find(a), fx.g.Find(b)
					if fx.g.Root(na) != fx.g.Root(nb) {
						continue
					}
					reasons := fx.explainEq(na, nb)
					fy := replay(t, fx, terms, merges, reasons)
					assert.Equal(t, fy.g.Root(fy.g.Find(a)), fy.g.Root(fy.g.Find(b)), "%s = %s from %v", a, b, reasons)
				}
			}
		})
	}
}

func TestExplainAfterPop(t *testing.T) {
	fx := newFixture(t)
	a, b, c := fx.app("a"), fx.app("b"), fx.app("c")
	na, nb, nc := fx.node(a), fx.node(b), fx.node(c)
	nfa, nfc := fx.node(fx.app("f", a)), fx.node(fx.app("f", c))
	fx.g.Merge(na, nb, External("a = b"))
	fx.g.Push()
	fx.g.Merge(nb, nc, External("b = c"))
	fx.propagate()
	assert.ElementsMatch(t, []interface{}{"a = b", "b = c"}, fx.explainEq(nfa, nfc))
	fx.g.Pop(1)
	fx.g.Merge(na, nc, External("a = c"))
	fx.propagate()
	assert.Equal(t, []interface{}{"a = c"}, fx.explainEq(nfa, nfc))
}

func TestExplainIsRepeatable(t *testing.T) {
	fx := newFixture(t)
	a, b := fx.app("a"), fx.app("b")
	pa, pb := fx.node(fx.pred("p", a)), fx.node(fx.pred("p", b))
	fx.g.SetValue(pa, True, External(1))
	fx.g.SetValue(pb, False, External(2))
	fx.g.Merge(fx.node(a), fx.node(b), External(3))
	fx.propagate()
	require.True(t, fx.g.Inconsistent())
	first := fx.explain()
	var cc CCLog
	second, err := fx.g.Explain(nil, &cc)
	require.NoError(t, err)
	assert.ElementsMatch(t, first, second)
	assert.Len(t, cc, 1)
	for i := range fx.g.nodes {
		assert.Zero(t, fx.g.nodes[i].flags&scratchMasks, "node #%d", i)
	}
}
