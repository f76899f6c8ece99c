package explain

import (
	"fmt"
	"strings"

	"github.com/crillab/gophereuf/term"
)

// A Problem is a conjunction of literals over the terms of a manager.
// Literals are identified by their index in Lits, and cores are sets of such indices.
type Problem struct {
	Terms   *term.Manager
	Lits    []term.Literal
	Options Options
}

// Sub returns the problem made of the literals of pb whose indices are in core.
func (pb *Problem) Sub(core []int) *Problem {
	pb2 := &Problem{Terms: pb.Terms, Options: pb.Options, Lits: make([]term.Literal, len(core))}
	for i, idx := range core {
		pb2.Lits[i] = pb.Lits[idx]
	}
	return pb2
}

// String returns a representation of pb in the format read by ParseProblem.
// Every declaration of the manager is printed, even the ones no literal uses.
func (pb *Problem) String() string {
	var b strings.Builder
	for _, s := range pb.Terms.Sorts() {
		if !s.IsBuiltin() {
			fmt.Fprintf(&b, "sort %s\n", s)
		}
	}
	for _, d := range pb.Terms.Decls() {
		switch {
		case d.IsConstructor():
			b.WriteString("ctor ")
		case d.IsCommutative():
			b.WriteString("comm ")
		default:
			b.WriteString("fun ")
		}
		b.WriteString(d.Name())
		for _, s := range d.Domain() {
			b.WriteByte(' ')
			b.WriteString(s.Name())
		}
		fmt.Fprintf(&b, " %s\n", d.Range())
	}
	for _, lit := range pb.Lits {
		fmt.Fprintf(&b, "assert %s\n", lit)
	}
	return b.String()
}
