package term

import (
	"fmt"
	"strconv"
	"strings"
)

type sortKind byte

const (
	uninterpretedSort sortKind = iota
	boolSort
	intSort
)

// A Sort is the type of a term.
type Sort struct {
	id    int
	name  string
	kind  sortKind
	ctors []*Decl // Constructors of the sort, if any.
}

// ID returns the unique index of the sort in its manager.
func (s *Sort) ID() int { return s.id }

// Name returns the name of the sort.
func (s *Sort) Name() string { return s.name }

func (s *Sort) String() string { return s.name }

// IsBool returns true iff s is the boolean sort.
func (s *Sort) IsBool() bool { return s.kind == boolSort }

// IsBuiltin returns true iff s is Bool or Int.
func (s *Sort) IsBuiltin() bool { return s.kind != uninterpretedSort }

// IsDatatype returns true iff at least one constructor was declared for s.
func (s *Sort) IsDatatype() bool { return len(s.ctors) != 0 }

// Constructors returns the constructors declared for s, in declaration order.
func (s *Sort) Constructors() []*Decl { return s.ctors }

type declKind byte

const (
	uninterpretedDecl declKind = iota
	eqDecl
	trueDecl
	falseDecl
	numeralDecl
	ctorDecl
)

// A Decl is a function symbol: a name, a domain and a range.
type Decl struct {
	id     int
	name   string
	kind   declKind
	comm   bool
	domain []*Sort
	rng    *Sort
	val    int64 // Value of a numeral
}

// ID returns the unique index of the declaration in its manager.
func (d *Decl) ID() int { return d.id }

// Name returns the name of the declaration.
func (d *Decl) Name() string { return d.name }

// Arity returns the number of arguments the declaration expects.
func (d *Decl) Arity() int { return len(d.domain) }

// Domain returns the sorts of the arguments.
func (d *Decl) Domain() []*Sort { return d.domain }

// Range returns the sort of the applications of d.
func (d *Decl) Range() *Sort { return d.rng }

// IsCommutative returns true iff d is a binary symbol whose arguments can be swapped.
func (d *Decl) IsCommutative() bool { return d.comm }

// IsConstructor returns true iff d is a datatype constructor.
func (d *Decl) IsConstructor() bool { return d.kind == ctorDecl }

// IsEq returns true iff d is an equality symbol.
func (d *Decl) IsEq() bool { return d.kind == eqDecl }

func (d *Decl) String() string {
	if len(d.domain) == 0 {
		return fmt.Sprintf("%s: %s", d.name, d.rng)
	}
	doms := make([]string, len(d.domain))
	for i, s := range d.domain {
		doms[i] = s.name
	}
	return fmt.Sprintf("%s: %s -> %s", d.name, strings.Join(doms, " "), d.rng)
}

// A Term is an application of a declaration to arguments.
// Terms are immutable and hash-consed by their Manager.
type Term struct {
	id   int
	decl *Decl
	args []*Term
}

// ID returns the unique, dense index of the term in its manager.
func (t *Term) ID() int { return t.id }

// Decl returns the head symbol of the term.
func (t *Term) Decl() *Decl { return t.decl }

// Args returns the arguments of the term.
func (t *Term) Args() []*Term { return t.args }

// Arg returns the i-th argument of the term.
func (t *Term) Arg(i int) *Term { return t.args[i] }

// NumArgs returns the number of arguments of the term.
func (t *Term) NumArgs() int { return len(t.args) }

// Sort returns the sort of the term.
func (t *Term) Sort() *Sort { return t.decl.rng }

// IsBool returns true iff t is a boolean term.
func (t *Term) IsBool() bool { return t.decl.rng.kind == boolSort }

// IsEq returns true iff t is an equality.
func (t *Term) IsEq() bool { return t.decl.kind == eqDecl }

// IsTrue returns true iff t is the true constant.
func (t *Term) IsTrue() bool { return t.decl.kind == trueDecl }

// IsFalse returns true iff t is the false constant.
func (t *Term) IsFalse() bool { return t.decl.kind == falseDecl }

// IsNumeral returns true iff t is an integer numeral.
func (t *Term) IsNumeral() bool { return t.decl.kind == numeralDecl }

// Numeral returns the value of a numeral. It panics if t is not a numeral.
func (t *Term) Numeral() int64 {
	if t.decl.kind != numeralDecl {
		panic(fmt.Errorf("%s is not a numeral", t))
	}
	return t.decl.val
}

// IsUniqueValue returns true iff t is guaranteed to be distinct from every other unique value.
func (t *Term) IsUniqueValue() bool {
	switch t.decl.kind {
	case trueDecl, falseDecl, numeralDecl:
		return true
	case ctorDecl:
		return len(t.args) == 0
	default:
		return false
	}
}

func (t *Term) String() string {
	if t.decl.kind == eqDecl {
		return fmt.Sprintf("%s = %s", t.args[0].argString(), t.args[1].argString())
	}
	if len(t.args) == 0 {
		return t.decl.name
	}
	args := make([]string, len(t.args))
	for i, arg := range t.args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", t.decl.name, strings.Join(args, ", "))
}

// argString is the representation of t when it is an operand of an equality.
func (t *Term) argString() string {
	if t.decl.kind == eqDecl {
		return "(" + t.String() + ")"
	}
	return t.String()
}

// A Literal is an atom or its negation.
type Literal struct {
	Atom *Term
	Neg  bool
}

func (l Literal) String() string {
	if !l.Neg {
		return l.Atom.String()
	}
	if l.Atom.IsEq() {
		return fmt.Sprintf("%s != %s", l.Atom.args[0].argString(), l.Atom.args[1].argString())
	}
	return "^" + l.Atom.argString()
}

// A Manager creates and hash-conses sorts, declarations and terms.
type Manager struct {
	sorts    map[string]*Sort
	allSorts []*Sort
	decls    map[string]*Decl // User declarations, by name
	userDecl []*Decl          // User declarations, in declaration order
	nbDecls  int
	eqs      map[*Sort]*Decl
	nums     map[int64]*Decl
	terms    map[string]*Term // Hash-consing table
	all      []*Term          // All terms, indexed by ID
	boolS    *Sort
	intS     *Sort
	trueT    *Term
	falseT   *Term
	keyBuf   []byte
}

// NewManager returns a manager with the builtin sorts Bool and Int and the constants true and false.
func NewManager() *Manager {
	m := &Manager{
		sorts: make(map[string]*Sort),
		decls: make(map[string]*Decl),
		eqs:   make(map[*Sort]*Decl),
		nums:  make(map[int64]*Decl),
		terms: make(map[string]*Term),
	}
	m.boolS = m.newSort("Bool", boolSort)
	m.intS = m.newSort("Int", intSort)
	m.trueT = m.mkApp(m.newDecl("true", trueDecl, m.boolS), nil)
	m.falseT = m.mkApp(m.newDecl("false", falseDecl, m.boolS), nil)
	return m
}

func (m *Manager) newSort(name string, kind sortKind) *Sort {
	s := &Sort{id: len(m.allSorts), name: name, kind: kind}
	m.sorts[name] = s
	m.allSorts = append(m.allSorts, s)
	return s
}

func (m *Manager) newDecl(name string, kind declKind, rng *Sort, domain ...*Sort) *Decl {
	d := &Decl{id: m.nbDecls, name: name, kind: kind, domain: domain, rng: rng}
	m.nbDecls++
	return d
}

// Bool returns the boolean sort.
func (m *Manager) Bool() *Sort { return m.boolS }

// Int returns the sort of integer numerals.
func (m *Manager) Int() *Sort { return m.intS }

// Sorts returns all sorts, builtin ones included, in creation order.
func (m *Manager) Sorts() []*Sort { return m.allSorts }

// Sort returns the sort with the given name, or nil if there is none.
func (m *Manager) Sort(name string) *Sort { return m.sorts[name] }

// DeclareSort declares a new uninterpreted sort.
func (m *Manager) DeclareSort(name string) (*Sort, error) {
	if _, ok := m.sorts[name]; ok {
		return nil, fmt.Errorf("sort %q already declared", name)
	}
	return m.newSort(name, uninterpretedSort), nil
}

func (m *Manager) declare(name string, kind declKind, rng *Sort, domain []*Sort) (*Decl, error) {
	if name == "true" || name == "false" {
		return nil, fmt.Errorf("cannot redeclare builtin %q", name)
	}
	if _, ok := m.decls[name]; ok {
		return nil, fmt.Errorf("symbol %q already declared", name)
	}
	if rng == nil {
		return nil, fmt.Errorf("no range sort for %q", name)
	}
	for _, s := range domain {
		if s == nil {
			return nil, fmt.Errorf("nil domain sort for %q", name)
		}
	}
	d := m.newDecl(name, kind, rng, domain...)
	m.decls[name] = d
	m.userDecl = append(m.userDecl, d)
	return d, nil
}

// Func declares an uninterpreted function; a constant if domain is empty.
func (m *Manager) Func(name string, rng *Sort, domain ...*Sort) (*Decl, error) {
	return m.declare(name, uninterpretedDecl, rng, domain)
}

// CommFunc declares a commutative binary function whose both arguments have sort arg.
func (m *Manager) CommFunc(name string, rng, arg *Sort) (*Decl, error) {
	d, err := m.declare(name, uninterpretedDecl, rng, []*Sort{arg, arg})
	if err != nil {
		return nil, err
	}
	d.comm = true
	return d, nil
}

// Constructor declares a datatype constructor for rng, which must be an uninterpreted sort.
func (m *Manager) Constructor(name string, rng *Sort, domain ...*Sort) (*Decl, error) {
	if rng != nil && rng.kind != uninterpretedSort {
		return nil, fmt.Errorf("cannot declare constructor %q for builtin sort %s", name, rng)
	}
	d, err := m.declare(name, ctorDecl, rng, domain)
	if err != nil {
		return nil, err
	}
	rng.ctors = append(rng.ctors, d)
	return d, nil
}

// Decls returns the user declarations, in declaration order.
func (m *Manager) Decls() []*Decl { return m.userDecl }

// Decl returns the user declaration with the given name, or nil if there is none.
func (m *Manager) Decl(name string) *Decl { return m.decls[name] }

// App returns the application of d to args.
func (m *Manager) App(d *Decl, args ...*Term) (*Term, error) {
	if len(args) != len(d.domain) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", d.name, len(d.domain), len(args))
	}
	for i, arg := range args {
		if arg.Sort() != d.domain[i] {
			return nil, fmt.Errorf("argument %d of %s has sort %s, expected %s", i+1, d.name, arg.Sort(), d.domain[i])
		}
	}
	return m.mkApp(d, args), nil
}

// MustApp is like App but panics on sort errors.
func (m *Manager) MustApp(d *Decl, args ...*Term) *Term {
	t, err := m.App(d, args...)
	if err != nil {
		panic(err)
	}
	return t
}

// Eq returns the equality between a and b.
func (m *Manager) Eq(a, b *Term) (*Term, error) {
	if a.Sort() != b.Sort() {
		return nil, fmt.Errorf("cannot compare %s of sort %s with %s of sort %s", a, a.Sort(), b, b.Sort())
	}
	d, ok := m.eqs[a.Sort()]
	if !ok {
		d = m.newDecl("=", eqDecl, m.boolS, a.Sort(), a.Sort())
		d.comm = true
		m.eqs[a.Sort()] = d
	}
	return m.mkApp(d, []*Term{a, b}), nil
}

// MustEq is like Eq but panics on sort errors.
func (m *Manager) MustEq(a, b *Term) *Term {
	t, err := m.Eq(a, b)
	if err != nil {
		panic(err)
	}
	return t
}

// True returns the true constant.
func (m *Manager) True() *Term { return m.trueT }

// False returns the false constant.
func (m *Manager) False() *Term { return m.falseT }

// Num returns the integer numeral for v.
func (m *Manager) Num(v int64) *Term {
	d, ok := m.nums[v]
	if !ok {
		d = m.newDecl(strconv.FormatInt(v, 10), numeralDecl, m.intS)
		d.val = v
		m.nums[v] = d
	}
	return m.mkApp(d, nil)
}

// NumTerms returns the number of distinct terms created so far.
func (m *Manager) NumTerms() int { return len(m.all) }

// Term returns the term with the given id.
func (m *Manager) Term(id int) *Term { return m.all[id] }

func (m *Manager) mkApp(d *Decl, args []*Term) *Term {
	m.keyBuf = strconv.AppendInt(m.keyBuf[:0], int64(d.id), 10)
	for _, arg := range args {
		m.keyBuf = append(m.keyBuf, ',')
		m.keyBuf = strconv.AppendInt(m.keyBuf, int64(arg.id), 10)
	}
	if t, ok := m.terms[string(m.keyBuf)]; ok {
		return t
	}
	t := &Term{id: len(m.all), decl: d}
	if len(args) != 0 {
		t.args = make([]*Term, len(args))
		copy(t.args, args)
	}
	m.terms[string(m.keyBuf)] = t
	m.all = append(m.all, t)
	return t
}
