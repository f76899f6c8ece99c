package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashConsing(t *testing.T) {
	m := NewManager()
	u, err := m.DeclareSort("U")
	require.NoError(t, err)
	f, err := m.Func("f", u, u)
	require.NoError(t, err)
	a, err := m.Func("a", u)
	require.NoError(t, err)
	ta := m.MustApp(a)
	fa1 := m.MustApp(f, ta)
	fa2 := m.MustApp(f, m.MustApp(a))
	assert.Same(t, fa1, fa2)
	assert.Equal(t, fa1.ID(), fa2.ID())
	assert.Equal(t, "f(a)", fa1.String())
	assert.Same(t, m.MustEq(ta, fa1), m.MustEq(ta, fa1))
	assert.NotSame(t, m.MustEq(ta, fa1), m.MustEq(fa1, ta))
	assert.Same(t, m.Num(3), m.Num(3))
	assert.Equal(t, m.NumTerms(), fa1.ID()+4)
}

func TestSortErrors(t *testing.T) {
	m := NewManager()
	u, _ := m.DeclareSort("U")
	v, _ := m.DeclareSort("V")
	f, _ := m.Func("f", u, u)
	b, _ := m.Func("b", v)
	_, err := m.App(f, m.MustApp(b))
	assert.Error(t, err)
	_, err = m.App(f)
	assert.Error(t, err)
	_, err = m.Eq(m.MustApp(b), m.Num(1))
	assert.Error(t, err)
	_, err = m.DeclareSort("U")
	assert.Error(t, err)
	_, err = m.Func("f", u)
	assert.Error(t, err)
	_, err = m.Func("true", m.Bool())
	assert.Error(t, err)
	_, err = m.Constructor("zero", m.Int())
	assert.Error(t, err)
}

func TestUniqueValues(t *testing.T) {
	m := NewManager()
	nat, _ := m.DeclareSort("Nat")
	zero, _ := m.Constructor("zero", nat)
	succ, _ := m.Constructor("succ", nat, nat)
	p, _ := m.Func("p", m.Bool(), nat)
	tz := m.MustApp(zero)
	tests := []struct {
		t      *Term
		unique bool
	}{
		{m.True(), true},
		{m.False(), true},
		{m.Num(-7), true},
		{tz, true},
		{m.MustApp(succ, tz), false},
		{m.MustApp(p, tz), false},
		{m.MustEq(tz, tz), false},
	}
	for _, test := range tests {
		if got := test.t.IsUniqueValue(); got != test.unique {
			t.Errorf("IsUniqueValue(%s): expected %t, got %t", test.t, test.unique, got)
		}
	}
	assert.True(t, nat.IsDatatype())
	assert.Equal(t, []*Decl{zero, succ}, nat.Constructors())
	assert.True(t, m.True().IsBool())
	assert.EqualValues(t, -7, m.Num(-7).Numeral())
	assert.Panics(t, func() { tz.Numeral() })
}

func TestCommutative(t *testing.T) {
	m := NewManager()
	u, _ := m.DeclareSort("U")
	g, err := m.CommFunc("g", u, u)
	require.NoError(t, err)
	assert.True(t, g.IsCommutative())
	assert.Equal(t, 2, g.Arity())
	a, _ := m.Func("a", u)
	eq := m.MustEq(m.MustApp(a), m.MustApp(a))
	assert.True(t, eq.Decl().IsCommutative())
	assert.True(t, eq.IsEq())
}
