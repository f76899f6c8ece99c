package euf

import "fmt"

type justKind byte

const (
	axiomJust justKind = iota
	externalJust
	congruenceJust
	equalityJust
	dependentJust
	valueJust // Internal: the value of lhs, e.g. an equality node assigned to true
)

// A Justification is the reason why two nodes are equal, or why a node has a value.
type Justification struct {
	kind      justKind
	comm      bool
	thID      TheoryID
	timestamp uint64
	lhs, rhs  NodeID
	ext       interface{}
	dep       *Dependency
}

// Axiom is the justification of facts that need no explanation.
func Axiom(id TheoryID) Justification {
	return Justification{kind: axiomJust, thID: id, lhs: NullNode, rhs: NullNode}
}

// External wraps an opaque reason supplied by the caller. It is returned as is by explanations.
func External(reason interface{}) Justification {
	return Justification{kind: externalJust, thID: NullTheory, ext: reason, lhs: NullNode, rhs: NullNode}
}

// Congruence is the justification of a merge of two congruent applications.
// comm is set when the arguments of the binary applications match crosswise.
func Congruence(comm bool, timestamp uint64) Justification {
	return Justification{kind: congruenceJust, thID: NullTheory, comm: comm, timestamp: timestamp, lhs: NullNode, rhs: NullNode}
}

// Equality justifies a fact by the equality of a and b, which must share a root when explained.
func Equality(a, b NodeID) Justification {
	return Justification{kind: equalityJust, thID: NullTheory, lhs: a, rhs: b}
}

// Dependent justifies a fact by a set of justifications.
func Dependent(d *Dependency) Justification {
	return Justification{kind: dependentJust, thID: NullTheory, dep: d, lhs: NullNode, rhs: NullNode}
}

func valueOf(n NodeID) Justification {
	return Justification{kind: valueJust, thID: NullTheory, lhs: n, rhs: NullNode}
}

// IsExternal returns true iff j wraps a caller reason.
func (j Justification) IsExternal() bool { return j.kind == externalJust }

// IsCongruence returns true iff j is a congruence justification.
func (j Justification) IsCongruence() bool { return j.kind == congruenceJust }

// IsCommutative returns true iff j is a congruence justification with swapped arguments.
func (j Justification) IsCommutative() bool { return j.comm }

// IsEquality returns true iff j is an equality justification.
func (j Justification) IsEquality() bool { return j.kind == equalityJust }

// IsDependent returns true iff j is a dependency justification.
func (j Justification) IsDependent() bool { return j.kind == dependentJust }

// IsAxiom returns true iff j is an axiom.
func (j Justification) IsAxiom() bool { return j.kind == axiomJust }

// Ext returns the caller reason of an external justification.
func (j Justification) Ext() interface{} { return j.ext }

// Timestamp returns the creation stamp of a congruence justification.
func (j Justification) Timestamp() uint64 { return j.timestamp }

// Lhs returns the first node of an equality justification.
func (j Justification) Lhs() NodeID { return j.lhs }

// Rhs returns the second node of an equality justification.
func (j Justification) Rhs() NodeID { return j.rhs }

// Theory returns the theory of an axiom.
func (j Justification) Theory() TheoryID { return j.thID }

func (j Justification) String() string {
	switch j.kind {
	case axiomJust:
		if j.thID == NullTheory {
			return "axiom"
		}
		return fmt.Sprintf("axiom %d", j.thID)
	case externalJust:
		return fmt.Sprintf("external %v", j.ext)
	case congruenceJust:
		if j.comm {
			return fmt.Sprintf("cc comm %d", j.timestamp)
		}
		return fmt.Sprintf("cc %d", j.timestamp)
	case equalityJust:
		return fmt.Sprintf("eq #%d == #%d", j.lhs, j.rhs)
	case dependentJust:
		return "dependent"
	case valueJust:
		return fmt.Sprintf("value of #%d", j.lhs)
	default:
		panic("invalid justification")
	}
}

// A Dependency is an immutable tree of justifications.
type Dependency struct {
	leaf        *Justification
	left, right *Dependency
}

// Leaf returns a dependency on a single justification.
func Leaf(j Justification) *Dependency {
	return &Dependency{leaf: &j}
}

// Join returns a dependency on both d1 and d2. Either can be nil.
func Join(d1, d2 *Dependency) *Dependency {
	if d1 == nil {
		return d2
	}
	if d2 == nil {
		return d1
	}
	return &Dependency{left: d1, right: d2}
}

// Linearize returns the leaves of d. Shared subtrees are visited once.
func Linearize(d *Dependency) []Justification {
	var res []Justification
	visited := make(map[*Dependency]bool)
	todo := []*Dependency{d}
	for len(todo) != 0 {
		cur := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		if cur == nil || visited[cur] {
			continue
		}
		visited[cur] = true
		if cur.leaf != nil {
			res = append(res, *cur.leaf)
			continue
		}
		todo = append(todo, cur.right, cur.left)
	}
	return res
}
