package euf

// Describes basic types and constants that are used in the engine

// NodeID is the index of a node in its graph. Nodes are numbered from 0 in creation order.
type NodeID int32

// NullNode is the absence of a node.
const NullNode NodeID = -1

// Lbool is the truth value of a boolean node.
type Lbool byte

const (
	// Undef means no value was assigned yet.
	Undef = Lbool(iota)
	// True is the value of asserted or propagated atoms.
	True
	// False is the value of negated atoms.
	False
)

func (b Lbool) String() string {
	switch b {
	case Undef:
		return "UNDEF"
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		panic("invalid lbool")
	}
}

// Negation returns the opposite value. The negation of Undef is Undef.
func (b Lbool) Negation() Lbool {
	switch b {
	case True:
		return False
	case False:
		return True
	default:
		return Undef
	}
}

// TheoryID identifies a plugin.
type TheoryID int8

// NullTheory is the absence of a plugin.
const NullTheory TheoryID = -1

// MaxPlugins is the number of plugin slots of a graph.
const MaxPlugins = 16

// TheoryVar is a plugin-local variable attached to a node.
type TheoryVar int32

// NullTheoryVar is the absence of a theory variable.
const NullTheoryVar TheoryVar = -1
