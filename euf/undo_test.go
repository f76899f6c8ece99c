package euf

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/crillab/gophereuf/term"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshot is the observable state of a graph.
type snapshot struct {
	Roots        []NodeID
	Nexts        []NodeID
	Targets      []NodeID
	Justs        []string
	Sizes        []int32
	Values       []Lbool
	Flags        []uint16
	Parents      map[NodeID][]NodeID
	ThVars       map[NodeID][]string
	Table        []NodeID
	TableSize    int
	ThEqs        int
	ThEqsQhead   int
	Inconsistent bool
}

const scratchMasks = mark1Mask | mark2Mask | markValueMask

func takeSnapshot(g *Graph) snapshot {
	s := snapshot{
		Parents:      make(map[NodeID][]NodeID),
		ThVars:       make(map[NodeID][]string),
		TableSize:    g.TableSize(),
		ThEqs:        len(g.thEqs),
		ThEqsQhead:   g.thEqsQhead,
		Inconsistent: g.inconsistent,
	}
	for i := range g.nodes {
		n, nd := NodeID(i), &g.nodes[i]
		s.Roots = append(s.Roots, nd.root)
		s.Nexts = append(s.Nexts, nd.next)
		s.Targets = append(s.Targets, nd.target)
		s.Justs = append(s.Justs, nd.just.String())
		s.Sizes = append(s.Sizes, nd.classSize)
		s.Values = append(s.Values, nd.value)
		s.Flags = append(s.Flags, nd.flags&^scratchMasks)
		if nd.root == n {
			s.Parents[n] = append([]NodeID(nil), nd.parents...)
		}
		for _, tv := range nd.thVars {
			s.ThVars[n] = append(s.ThVars[n], fmt.Sprintf("%d:%d", tv.id, tv.v))
		}
		if g.tableContains(n) {
			s.Table = append(s.Table, n)
		}
	}
	sort.Slice(s.Table, func(i, j int) bool { return s.Table[i] < s.Table[j] })
	return s
}

func checkSnapshot(t *testing.T, want snapshot, g *Graph) {
	t.Helper()
	if diff := cmp.Diff(want, takeSnapshot(g), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("state not restored (-want +got):\n%s", diff)
	}
}

func TestNestedScopes(t *testing.T) {
	fx := newFixture(t)
	a, b := fx.app("a"), fx.app("b")
	fx.node(fx.app("f", a))
	fx.node(b)
	base := takeSnapshot(fx.g)

	fx.g.Push()
	c := fx.app("c")
	fx.node(c)
	fx.g.Push()
	d := fx.app("d")
	fx.g.Merge(fx.node(c), fx.node(d), External("c = d"))
	fx.propagate()
	numNodes, numClasses, tableSize := fx.g.NumNodes(), fx.g.NumClasses(), fx.g.TableSize()
	afterTwo := takeSnapshot(fx.g)

	fx.g.Push()
	e := fx.app("e")
	fx.node(fx.app("f", e))
	fx.node(fx.app("f", b))
	fx.node(fx.app("f", c))
	fx.node(fx.app("h"))
	assert.Equal(t, numNodes+5, fx.g.NumNodes())
	fx.g.Merge(fx.node(a), fx.node(b), External("a = b"))
	fx.g.Merge(fx.node(e), fx.node(c), External("e = c"))
	fx.propagate()
	assert.Equal(t, 3, fx.g.NumScopes())
	checkClosure(t, fx.g)

	fx.g.Pop(1)
	assert.Equal(t, 2, fx.g.NumScopes())
	assert.Equal(t, numNodes, fx.g.NumNodes())
	assert.Equal(t, numClasses, fx.g.NumClasses())
	assert.Equal(t, tableSize, fx.g.TableSize())
	checkSnapshot(t, afterTwo, fx.g)
	checkClosure(t, fx.g)
	assert.Equal(t, NullNode, fx.g.Find(e))

	fx.g.Pop(2)
	assert.Equal(t, 0, fx.g.NumScopes())
	checkSnapshot(t, base, fx.g)
	assert.Equal(t, 1, fx.g.arena.size())
}

func TestPopRestoresConflict(t *testing.T) {
	fx := newFixture(t)
	a, b := fx.app("a"), fx.app("b")
	pa, pb := fx.node(fx.pred("p", a)), fx.node(fx.pred("p", b))
	fx.g.SetValue(pa, True, External(1))
	fx.g.SetValue(pb, False, External(2))
	fx.propagate()
	before := takeSnapshot(fx.g)
	fx.g.Push()
	fx.g.Merge(fx.node(a), fx.node(b), External(3))
	fx.propagate()
	require.True(t, fx.g.Inconsistent())
	fx.g.Pop(1)
	assert.False(t, fx.g.Inconsistent())
	checkSnapshot(t, before, fx.g)
	assert.NotEqual(t, fx.g.Root(pa), fx.g.Root(pb))
}

func TestLazyScopes(t *testing.T) {
	fx := newFixture(t)
	fx.node(fx.app("a"))
	for i := 0; i < 100; i++ {
		fx.g.Push()
	}
	assert.Equal(t, 100, fx.g.NumScopes())
	assert.Empty(t, fx.g.scopes)
	fx.g.Pop(60)
	assert.Equal(t, 40, fx.g.NumScopes())
	fx.node(fx.app("b"))
	assert.Len(t, fx.g.scopes, 40)
	assert.Equal(t, 0, fx.g.numScopes)
	fx.g.Pop(40)
	assert.Equal(t, 1, fx.g.NumNodes())
	assert.Empty(t, fx.g.scopes)
}

func TestLazyScopesWithoutMutation(t *testing.T) {
	fx := newFixture(t)
	na, nb := fx.node(fx.app("a")), fx.node(fx.app("b"))
	fx.g.Merge(na, nb, External(1))
	fx.g.Push()
	fx.g.Merge(na, nb, External(2))
	fx.g.SetRelevant(na)
	fx.propagate()
	assert.Empty(t, fx.g.scopes)
	fx.g.Pop(1)
	assert.Equal(t, fx.g.Root(na), fx.g.Root(nb))
}

func TestPopFlags(t *testing.T) {
	fx := newFixture(t, WithDefaultRelevant(false))
	a := fx.app("a")
	na := fx.node(a)
	p := fx.node(fx.pred("p", a))
	fa := fx.node(fx.app("f", a))
	assert.False(t, fx.g.IsRelevant(na))
	before := takeSnapshot(fx.g)
	fx.g.Push()
	fx.g.SetRelevant(na)
	fx.g.SetMergeTFEnabled(p, true)
	fx.g.SetMergeTFEnabled(fa, true)
	fx.g.SetCgcEnabled(fa, false)
	assert.True(t, fx.g.IsRelevant(na))
	assert.True(t, fx.g.MergeTFEnabled(p))
	assert.False(t, fx.g.MergeTFEnabled(fa))
	assert.False(t, fx.g.IsCgr(fa) && fx.g.tableContains(fa))
	fx.g.Pop(1)
	checkSnapshot(t, before, fx.g)
	assert.False(t, fx.g.IsRelevant(na))
	assert.True(t, fx.g.tableContains(fa))
}

func TestPushTrail(t *testing.T) {
	fx := newFixture(t)
	fx.node(fx.app("a"))
	var undone []int
	fx.g.Push()
	fx.g.PushTrail(undoFunc(func() { undone = append(undone, 1) }))
	fx.g.Push()
	fx.g.PushTrail(undoFunc(func() { undone = append(undone, 2) }))
	fx.g.PushTrail(undoFunc(func() { undone = append(undone, 3) }))
	fx.g.Pop(1)
	assert.Equal(t, []int{3, 2}, undone)
	fx.g.Pop(1)
	assert.Equal(t, []int{3, 2, 1}, undone)
}

type undoFunc func()

func (f undoFunc) Undo() { f() }

func TestPopKeepsPendingMerges(t *testing.T) {
	fx := newFixture(t)
	a, b := fx.app("a"), fx.app("b")
	fx.g.Merge(fx.node(a), fx.node(b), External("a = b"))
	nfa, nfb := fx.node(fx.app("f", a)), fx.node(fx.app("f", b))
	before := takeSnapshot(fx.g)
	assert.NotEqual(t, fx.g.Root(nfa), fx.g.Root(nfb))

	for i := 0; i < 2; i++ {
		fx.g.Push()
		fx.propagate()
		assert.Equal(t, fx.g.Root(nfa), fx.g.Root(nfb))
		checkClosure(t, fx.g)
		fx.g.Pop(1)
		checkSnapshot(t, before, fx.g)
	}
	fx.propagate()
	assert.Equal(t, fx.g.Root(nfa), fx.g.Root(nfb))
	checkClosure(t, fx.g)

	nc, nd := fx.node(fx.app("c")), fx.node(fx.app("d"))
	fx.g.Push()
	fx.g.PushMerge(nc, nd, External("c = d"))
	fx.g.Pop(1)
	fx.propagate()
	assert.NotEqual(t, fx.g.Root(nc), fx.g.Root(nd))
}

// TestRandomPushPop checks that popping any number of scopes restores the exact state
// the graph had when they were pushed, and that the closure still holds once the merges
// that were pending at that time are performed.
func TestRandomPushPop(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewSource(seed))
			fx := newFixture(t)
			k, err := fx.m.CommFunc("k", fx.u, fx.u)
			require.NoError(t, err)
			var (
				us      []*term.Term
				apps    []NodeID
				preds   []NodeID
				nextVar TheoryVar
			)
			for _, name := range []string{"c0", "c1", "c2", "c3", "c4", "c5"} {
				c := fx.app(name)
				fx.node(c)
				us = append(us, c)
			}
			pick := func() *term.Term { return us[rnd.Intn(len(us))] }
			addApp := func(tm *term.Term) {
				if fx.g.Find(tm) == NullNode {
					apps = append(apps, fx.node(tm))
					us = append(us, tm)
				}
			}
			var snaps []snapshot
			for round := 0; round < 8; round++ {
				snaps = append(snaps, takeSnapshot(fx.g))
				fx.g.Push()
				for step := 0; step < 12 && !fx.g.Inconsistent(); step++ {
					switch rnd.Intn(9) {
					case 0:
						addApp(fx.app("f", pick()))
					case 1:
						addApp(fx.app("g", pick(), pick()))
					case 2:
						addApp(fx.m.MustApp(k, pick(), pick()))
					case 3:
						tm := fx.pred("p", pick())
						if fx.g.Find(tm) == NullNode {
							preds = append(preds, fx.node(tm))
						}
					case 4:
						if len(preds) != 0 {
							v := True
							if rnd.Intn(2) == 0 {
								v = False
							}
							fx.g.SetValue(preds[rnd.Intn(len(preds))], v, External(step))
						}
					case 5:
						tm := fx.m.MustEq(pick(), pick())
						if fx.g.Find(tm) == NullNode && tm.IsEq() {
							fx.g.NewDiseq(fx.node(tm), External(step))
						}
					case 6:
						if len(apps) != 0 {
							fx.g.SetCgcEnabled(apps[rnd.Intn(len(apps))], rnd.Intn(2) == 0)
						}
					case 7:
						n := fx.node(pick())
						if fx.g.ThVar(n, 0) == NullTheoryVar {
							fx.g.AddThVar(n, nextVar, 0)
							nextVar++
						}
					default:
						fx.g.Merge(fx.node(pick()), fx.node(pick()), External(step))
					}
					if rnd.Intn(3) == 0 {
						_, err := fx.g.Propagate()
						require.NoError(t, err)
					}
				}
				// Leave some merges pending across the next push.
				if rnd.Intn(2) == 0 {
					_, err := fx.g.Propagate()
					require.NoError(t, err)
					if !fx.g.Inconsistent() {
						checkClosure(t, fx.g)
					}
				}
			}
			for i := len(snaps) - 1; i >= 0; i-- {
				fx.g.Pop(1)
				checkSnapshot(t, snaps[i], fx.g)
				fx.g.Push()
				_, err := fx.g.Propagate()
				require.NoError(t, err)
				if !fx.g.Inconsistent() {
					checkClosure(t, fx.g)
				}
				fx.g.Pop(1)
				checkSnapshot(t, snaps[i], fx.g)
			}
		})
	}
}
