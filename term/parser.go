package term

import (
	"fmt"
	"io"
	"strconv"
	"text/scanner"
)

type parser struct {
	m     *Manager
	s     scanner.Scanner
	eof   bool   // Have we reached eof yet?
	token string // Last token read
}

func newParser(m *Manager, r io.Reader) *parser {
	p := &parser{m: m}
	p.s.Init(r)
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Error = func(*scanner.Scanner, string) {}
	p.scan()
	return p
}

// ParseLiteral parses a literal from r. Every symbol must have been declared in m.
// Literals are written using the following syntax:
//
// - "^t" for the negation of the boolean term t,
// - "a = b" for an equality,
// - "a != b" for a disequality, i.e. a negated equality,
// - "t" for a boolean term.
func ParseLiteral(m *Manager, r io.Reader) (Literal, error) {
	p := newParser(m, r)
	lit, err := p.parseLiteral()
	if err != nil {
		return Literal{}, err
	}
	if !p.eof {
		return Literal{}, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	return lit, nil
}

// ParseTerm parses a single term from r.
func ParseTerm(m *Manager, r io.Reader) (*Term, error) {
	p := newParser(m, r)
	t, err := p.parseArg()
	if err != nil {
		return nil, err
	}
	if !p.eof {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	return t, nil
}

func isOperator(token string) bool {
	return token == "=" || token == "!" || token == "^" || token == "," || token == ")"
}

func (p *parser) scan() {
	if p.eof {
		return
	}
	p.eof = (p.s.Scan() == scanner.EOF)
	p.token = p.s.TokenText()
}

func (p *parser) parseLiteral() (Literal, error) {
	if p.eof {
		return Literal{}, fmt.Errorf("at position %v, expected literal, found EOF", p.s.Pos())
	}
	if p.token == "^" {
		p.scan()
		t, err := p.parseTerm()
		if err != nil {
			return Literal{}, err
		}
		if !t.IsBool() {
			return Literal{}, fmt.Errorf("cannot negate non-boolean term %s", t)
		}
		return Literal{Atom: t, Neg: true}, nil
	}
	t, err := p.parseTerm()
	if err != nil {
		return Literal{}, err
	}
	if p.eof {
		if !t.IsBool() {
			return Literal{}, fmt.Errorf("literal %s is not boolean", t)
		}
		return Literal{Atom: t}, nil
	}
	neg := false
	switch p.token {
	case "=":
	case "!":
		p.scan()
		if p.eof || p.token != "=" {
			return Literal{}, fmt.Errorf("invalid token %q at %v", "!"+p.token, p.s.Pos())
		}
		neg = true
	default:
		return Literal{}, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	p.scan()
	t2, err := p.parseTerm()
	if err != nil {
		return Literal{}, err
	}
	eq, err := p.m.Eq(t, t2)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Atom: eq, Neg: neg}, nil
}

// parseArg parses a term that may be an equality, as found in argument position.
func (p *parser) parseArg() (*Term, error) {
	t, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.eof || p.token != "=" {
		return t, nil
	}
	p.scan()
	t2, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return p.m.Eq(t, t2)
}

func (p *parser) parseTerm() (*Term, error) {
	if p.eof {
		return nil, fmt.Errorf("unexpected EOF")
	}
	if isOperator(p.token) {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	switch p.token {
	case "(":
		p.scan()
		t, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return t, nil
	case "-":
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		return p.parseNumeral("-" + p.token)
	case "true":
		p.scan()
		return p.m.True(), nil
	case "false":
		p.scan()
		return p.m.False(), nil
	}
	if p.token[0] >= '0' && p.token[0] <= '9' {
		return p.parseNumeral(p.token)
	}
	name, pos := p.token, p.s.Pos()
	d := p.m.Decl(name)
	if d == nil {
		return nil, fmt.Errorf("unknown symbol %q at %s", name, pos)
	}
	p.scan()
	var args []*Term
	if !p.eof && p.token == "(" {
		p.scan()
		for {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.eof {
				return nil, fmt.Errorf("expected closing parenthesis, found EOF at %s", p.s.Pos())
			}
			if p.token != "," {
				break
			}
			p.scan()
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
	}
	t, err := p.m.App(d, args...)
	if err != nil {
		return nil, fmt.Errorf("at %s: %v", pos, err)
	}
	return t, nil
}

func (p *parser) parseNumeral(token string) (*Term, error) {
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeral %q at %s", token, p.s.Pos())
	}
	p.scan()
	return p.m.Num(v), nil
}

func (p *parser) expect(token string) error {
	if p.eof {
		return fmt.Errorf("expected %q, found EOF at %s", token, p.s.Pos())
	}
	if p.token != token {
		return fmt.Errorf("expected %q, found %q at %s", token, p.token, p.s.Pos())
	}
	p.scan()
	return nil
}
