package explain

import (
	"bufio"
	"io"
	"strings"

	"github.com/crillab/gophereuf/term"
	"github.com/pkg/errors"
)

// ParseProblem parses a problem and returns it.
// The format is line-based; each line is a comment or a statement:
//
//	c free text
//	sort NAME
//	fun NAME S1 ... Sn RANGE
//	comm NAME S S RANGE
//	ctor NAME S1 ... Sn RANGE
//	assert LITERAL
//
// Symbols must be declared before they are used. Literals follow the syntax of term.ParseLiteral.
func ParseProblem(r io.Reader) (*Problem, error) {
	sc := bufio.NewScanner(r)
	pb := Problem{Terms: term.NewManager()}
	lineNb := 0
	for sc.Scan() {
		lineNb++
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var err error
		switch fields[0] {
		case "c":
			continue
		case "sort":
			err = pb.parseSort(fields)
		case "fun", "comm", "ctor":
			err = pb.parseDecl(fields)
		case "assert":
			err = pb.parseAssert(strings.TrimPrefix(strings.TrimSpace(line), "assert"))
		default:
			err = errors.Errorf("unknown statement %q", fields[0])
		}
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse line %d %q", lineNb, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "could not parse problem")
	}
	return &pb, nil
}

func (pb *Problem) parseSort(fields []string) error {
	if len(fields) != 2 {
		return errors.Errorf("expected 2 fields, got %d", len(fields))
	}
	_, err := pb.Terms.DeclareSort(fields[1])
	return err
}

func (pb *Problem) sort(name string) (*term.Sort, error) {
	s := pb.Terms.Sort(name)
	if s == nil {
		return nil, errors.Errorf("unknown sort %q", name)
	}
	return s, nil
}

func (pb *Problem) parseDecl(fields []string) error {
	if len(fields) < 3 {
		return errors.Errorf("expected at least 3 fields, got %d", len(fields))
	}
	sorts := make([]*term.Sort, len(fields)-2)
	for i, name := range fields[2:] {
		s, err := pb.sort(name)
		if err != nil {
			return err
		}
		sorts[i] = s
	}
	name := fields[1]
	domain, rng := sorts[:len(sorts)-1], sorts[len(sorts)-1]
	var err error
	switch fields[0] {
	case "fun":
		_, err = pb.Terms.Func(name, rng, domain...)
	case "comm":
		if len(domain) != 2 || domain[0] != domain[1] {
			return errors.Errorf("commutative symbol %q must have two arguments of the same sort", name)
		}
		_, err = pb.Terms.CommFunc(name, rng, domain[0])
	case "ctor":
		_, err = pb.Terms.Constructor(name, rng, domain...)
	}
	return err
}

func (pb *Problem) parseAssert(expr string) error {
	lit, err := term.ParseLiteral(pb.Terms, strings.NewReader(expr))
	if err != nil {
		return err
	}
	if lit.Neg && lit.Atom.IsEq() && lit.Atom.Arg(0).IsBool() {
		return errors.Errorf("disequality between boolean terms %s is not supported", lit)
	}
	pb.Lits = append(pb.Lits, lit)
	return nil
}
