/*
Package term provides the hash-consed terms the congruence closure engine works on.

A Manager owns sorts, declarations and terms. Applying the same declaration to the
same arguments twice returns the same *Term, so terms can be compared with ==.

Terms are built either programmatically:

	m := term.NewManager()
	u, _ := m.DeclareSort("U")
	f, _ := m.Func("f", u, u)
	a, _ := m.Func("a", u)
	fa := m.MustApp(f, m.MustApp(a))

or parsed from a small text syntax, once the symbols are declared:

	lit, err := term.ParseLiteral(m, strings.NewReader("f(a) != a"))

The syntax for literals is

	LITERAL := "^" TERM | TERM [ ("=" | "!=") TERM ]
	TERM    := IDENT [ "(" ARG { "," ARG } ")" ] | INT | "-" INT | "true" | "false" | "(" ARG ")"
	ARG     := TERM [ "=" TERM ]

Numerals, true, false and nullary constructors are unique values: two distinct
unique values can never be equal.
*/
package term
