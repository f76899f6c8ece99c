package euf

import (
	"fmt"
	"io"
	"strings"
)

// Display writes a human-readable dump of the graph and of its plugins on w.
func (g *Graph) Display(w io.Writer) {
	fmt.Fprintf(w, "nodes: %d, classes: %d, table: %d, scopes: %d\n", len(g.nodes), g.NumClasses(), g.table.size, g.NumScopes())
	for i := range g.nodes {
		g.displayNode(w, NodeID(i))
	}
	if g.inconsistent {
		fmt.Fprintf(w, "conflict: #%d #%d %s\n", g.confl.n1, g.confl.n2, g.confl.just)
	}
	for _, p := range g.plugins {
		if p != nil {
			p.Display(w)
		}
	}
}

func (g *Graph) displayNode(w io.Writer, n NodeID) {
	nd := &g.nodes[n]
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d := %s root #%d", n, nd.term, nd.root)
	if len(nd.args) != 0 {
		sb.WriteString(" args")
		for _, arg := range nd.args {
			fmt.Fprintf(&sb, " #%d", arg)
		}
		if g.isCgr(n) {
			sb.WriteString(" [cgr]")
		} else if nd.cg != NullNode {
			fmt.Fprintf(&sb, " [cg #%d]", nd.cg)
		}
	}
	if nd.value != Undef {
		fmt.Fprintf(&sb, " := %s", nd.value)
	}
	if !nd.has(relevantMask) {
		sb.WriteString(" n/r")
	}
	if !nd.has(cgcMask) {
		sb.WriteString(" no-cgc")
	}
	if nd.has(interpretedMask) {
		sb.WriteString(" [v]")
	}
	if nd.root == n && len(nd.parents) != 0 {
		sb.WriteString(" parents")
		for _, p := range nd.parents {
			fmt.Fprintf(&sb, " #%d", p)
		}
	}
	if len(nd.thVars) != 0 {
		sb.WriteString(" th")
		for _, tv := range nd.thVars {
			fmt.Fprintf(&sb, " %d:%d", tv.id, tv.v)
		}
	}
	if nd.target != NullNode {
		fmt.Fprintf(&sb, " -> #%d %s", nd.target, nd.just)
	}
	sb.WriteByte('\n')
	io.WriteString(w, sb.String())
}
