package sym

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// SMT-LIB 2 serialisation of the expression DAG.  Every interior node
// becomes a let binding so shared subterms are emitted once; the
// output is a single term in QF_BV.

func sortOf(n *Node) string {
	if n.IsBool() {
		return "Bool"
	}
	return fmt.Sprintf("(_ BitVec %d)", n.Width)
}

func bindingName(n *Node) string {
	if n.IsBool() {
		return fmt.Sprintf("?p%d", n.id)
	}
	return fmt.Sprintf("?v%d", n.id)
}

func atom(n *Node) (string, bool) {
	switch n.Op {
	case OpConst:
		if n.IsBool() {
			if n.Lit == 1 {
				return "true", true
			}
			return "false", true
		}
		return fmt.Sprintf("(_ bv%d %d)", n.Lit, n.Width), true
	case OpVar:
		return n.Name, true
	}
	return "", false
}

// shortRef names a node inside another node's definition.
func shortRef(n *Node) string {
	if a, ok := atom(n); ok {
		return a
	}
	return bindingName(n)
}

func define(n *Node) string {
	var sb strings.Builder
	switch n.Op {
	case OpExtract:
		fmt.Fprintf(&sb, "((_ extract %d %d) %s)", n.Lit, n.Lo, shortRef(n.Args[0]))
	case OpZeroExtend:
		fmt.Fprintf(&sb, "((_ zero_extend %d) %s)", n.Lit, shortRef(n.Args[0]))
	case OpSignExtend:
		fmt.Fprintf(&sb, "((_ sign_extend %d) %s)", n.Lit, shortRef(n.Args[0]))
	case OpBoolToBV:
		fmt.Fprintf(&sb, "(ite %s (_ bv1 1) (_ bv0 1))", shortRef(n.Args[0]))
	default:
		name, ok := opNames[n.Op]
		if !ok && n.Op == OpITE {
			name = "ite"
			ok = true
		}
		if !ok {
			panic(fmt.Sprintf("sym: no SMT-LIB name for op %d", n.Op))
		}
		sb.WriteByte('(')
		sb.WriteString(name)
		for _, a := range n.Args {
			sb.WriteByte(' ')
			sb.WriteString(shortRef(a))
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// reachable collects the transitive closure of root in id order.
func reachable(root *Node) []*Node {
	seen := map[int]*Node{}
	var walk func(n *Node)
	walk = func(n *Node) {
		if _, ok := seen[n.id]; ok {
			return
		}
		seen[n.id] = n
		for _, a := range n.Args {
			walk(a)
		}
	}
	walk(root)

	out := make([]*Node, 0, len(seen))
	for _, n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// freeVariables returns the OpVar nodes root depends on, in id order.
func freeVariables(root *Node) []*Node {
	var vars []*Node
	for _, n := range reachable(root) {
		if n.Op == OpVar {
			vars = append(vars, n)
		}
	}
	return vars
}

// WriteTerm writes root as a nested-let SMT-LIB term.
func WriteTerm(w io.Writer, root *Node) error {
	if a, ok := atom(root); ok {
		_, err := io.WriteString(w, a)
		return err
	}

	nodes := reachable(root)
	lets := 0
	for _, n := range nodes {
		if _, ok := atom(n); ok {
			continue
		}
		if n == root {
			continue
		}
		if _, err := fmt.Fprintf(w, "(let ((%s %s))\n", bindingName(n), define(n)); err != nil {
			return err
		}
		lets++
	}
	if _, err := io.WriteString(w, define(root)); err != nil {
		return err
	}
	_, err := io.WriteString(w, strings.Repeat(")", lets)+"\n")
	return err
}

// WriteDefineFun writes root as a complete (define-fun ...) over its
// free variables.
func WriteDefineFun(w io.Writer, name string, root *Node) error {
	var sb strings.Builder
	sb.WriteString("(define-fun ")
	sb.WriteString(name)
	sb.WriteString(" (")
	for i, v := range freeVariables(root) {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "(%s %s)", v.Name, sortOf(v))
	}
	sb.WriteString(") ")
	sb.WriteString(sortOf(root))
	sb.WriteString("\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	if err := WriteTerm(w, root); err != nil {
		return err
	}
	_, err := io.WriteString(w, ")\n")
	return err
}
