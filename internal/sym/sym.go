// Package sym is the symbolic back-end: values are handles into a
// hash-consed expression DAG, so running any core algorithm against it
// yields the word-level encoding of that operation.  The DAG can be
// serialised as SMT-LIB 2 for consumption by a solver.
//
// Propositions are nodes of width zero; bit-vectors carry their width.
// Signed and unsigned values share the single bit-vector sort, exactly
// as in SMT-LIB; signedness lives in the operators.
package sym

import (
	"fmt"

	"github.com/23skdu/longbow-bodkin/internal/backend"
)

// Op enumerates expression node kinds.
type Op uint8

const (
	OpConst Op = iota
	OpVar

	// Boolean
	OpNot
	OpAnd
	OpOr
	OpXor
	OpIff
	OpImplies
	OpITE

	// Bit-vector arithmetic
	OpBVAdd
	OpBVSub
	OpBVMul
	OpBVUDiv
	OpBVURem
	OpBVNeg

	// Bit-vector bitwise and shifts
	OpBVNot
	OpBVAnd
	OpBVOr
	OpBVShl
	OpBVLShr
	OpBVAShr

	// Structure
	OpConcat
	OpExtract
	OpZeroExtend
	OpSignExtend

	// Predicates
	OpEq
	OpBVULe
	OpBVULt
	OpBVSLe
	OpBVSLt

	// Bool -> one-bit vector
	OpBoolToBV
)

var opNames = map[Op]string{
	OpNot: "not", OpAnd: "and", OpOr: "or", OpXor: "xor", OpIff: "=",
	OpImplies: "=>", OpITE: "ite",
	OpBVAdd: "bvadd", OpBVSub: "bvsub", OpBVMul: "bvmul",
	OpBVUDiv: "bvudiv", OpBVURem: "bvurem", OpBVNeg: "bvneg",
	OpBVNot: "bvnot", OpBVAnd: "bvand", OpBVOr: "bvor",
	OpBVShl: "bvshl", OpBVLShr: "bvlshr", OpBVAShr: "bvashr",
	OpConcat: "concat", OpEq: "=",
	OpBVULe: "bvule", OpBVULt: "bvult", OpBVSLe: "bvsle", OpBVSLt: "bvslt",
}

// Node is one vertex of the expression DAG.  Width zero means Bool.
type Node struct {
	Op    Op
	Width backend.Width
	Lit   uint64 // OpConst value; OpExtract upper; extension amount
	Lo    uint64 // OpExtract lower
	Name  string // OpVar
	Args  []*Node

	id int
}

// IsBool reports whether the node is a proposition.
func (n *Node) IsBool() bool { return n.Width == 0 }

// ID is a stable identity for ordering and deduplication.
func (n *Node) ID() int { return n.id }

type nodeKey struct {
	op      Op
	width   backend.Width
	lit, lo uint64
	name    string
	a0, a1, a2 int
}

// Builder owns the expression table.  It is not safe for concurrent
// use; each goroutine should own its own Builder.
type Builder struct {
	nodes   map[nodeKey]*Node
	order   []*Node
	asserts []*Node
	next    int

	rm [5]*Node
}

// NewBuilder returns an empty expression table.
func NewBuilder() *Builder {
	b := &Builder{nodes: make(map[nodeKey]*Node)}
	for i := range b.rm {
		b.rm[i] = b.mk(Node{Op: OpConst, Width: 3, Lit: uint64(i)})
	}
	return b
}

// NumNodes reports the number of distinct expression nodes built so
// far; hash-consing means shared subterms count once.
func (b *Builder) NumNodes() int { return b.next }

// Asserts returns the contract propositions recorded via
// Precondition, Invariant and Postcondition.
func (b *Builder) Asserts() []*Node { return b.asserts }

func (b *Builder) mk(n Node) *Node {
	k := nodeKey{op: n.Op, width: n.Width, lit: n.Lit, lo: n.Lo, name: n.Name, a0: -1, a1: -1, a2: -1}
	switch len(n.Args) {
	case 3:
		k.a2 = n.Args[2].id
		fallthrough
	case 2:
		k.a1 = n.Args[1].id
		fallthrough
	case 1:
		k.a0 = n.Args[0].id
	}
	if existing, ok := b.nodes[k]; ok {
		return existing
	}
	node := &Node{Op: n.Op, Width: n.Width, Lit: n.Lit, Lo: n.Lo, Name: n.Name, Args: n.Args, id: b.next}
	b.next++
	b.nodes[k] = node
	b.order = append(b.order, node)
	return node
}

func (b *Builder) boolConst(v bool) *Node {
	var l uint64
	if v {
		l = 1
	}
	return b.mk(Node{Op: OpConst, Width: 0, Lit: l})
}

func isTrue(n *Node) bool  { return n.Op == OpConst && n.Width == 0 && n.Lit == 1 }
func isFalse(n *Node) bool { return n.Op == OpConst && n.Width == 0 && n.Lit == 0 }

/*** Variables: the entry points for building open terms. ***/

// PropVar introduces a Boolean variable.
func (b *Builder) PropVar(name string) *Node {
	return b.mk(Node{Op: OpVar, Width: 0, Name: name})
}

// BVVar introduces a bit-vector variable of the given width.
func (b *Builder) BVVar(name string, w backend.Width) *Node {
	return b.mk(Node{Op: OpVar, Width: w, Name: name})
}

// RMVar introduces a rounding-mode variable (a three-bit vector).
func (b *Builder) RMVar(name string) *Node {
	return b.mk(Node{Op: OpVar, Width: 3, Name: name})
}

var _ backend.Backend[*Node, *Node, *Node, *Node] = (*Builder)(nil)

/*** Propositions ***/

func (b *Builder) Bool(v bool) *Node { return b.boolConst(v) }

func (b *Builder) Not(p *Node) *Node {
	if isTrue(p) {
		return b.boolConst(false)
	}
	if isFalse(p) {
		return b.boolConst(true)
	}
	if p.Op == OpNot {
		return p.Args[0]
	}
	return b.mk(Node{Op: OpNot, Args: []*Node{p}})
}

func (b *Builder) And(p, q *Node) *Node {
	if isFalse(p) || isFalse(q) {
		return b.boolConst(false)
	}
	if isTrue(p) {
		return q
	}
	if isTrue(q) {
		return p
	}
	return b.mk(Node{Op: OpAnd, Args: []*Node{p, q}})
}

func (b *Builder) Or(p, q *Node) *Node {
	if isTrue(p) || isTrue(q) {
		return b.boolConst(true)
	}
	if isFalse(p) {
		return q
	}
	if isFalse(q) {
		return p
	}
	return b.mk(Node{Op: OpOr, Args: []*Node{p, q}})
}

func (b *Builder) Xor(p, q *Node) *Node {
	if isFalse(p) {
		return q
	}
	if isFalse(q) {
		return p
	}
	if isTrue(p) {
		return b.Not(q)
	}
	if isTrue(q) {
		return b.Not(p)
	}
	return b.mk(Node{Op: OpXor, Args: []*Node{p, q}})
}

func (b *Builder) Iff(p, q *Node) *Node {
	if isTrue(p) {
		return q
	}
	if isTrue(q) {
		return p
	}
	if isFalse(p) {
		return b.Not(q)
	}
	if isFalse(q) {
		return b.Not(p)
	}
	return b.mk(Node{Op: OpIff, Args: []*Node{p, q}})
}

func (b *Builder) Implies(p, q *Node) *Node {
	if isFalse(p) || isTrue(q) {
		return b.boolConst(true)
	}
	if isTrue(p) {
		return q
	}
	return b.mk(Node{Op: OpImplies, Args: []*Node{p, q}})
}

func (b *Builder) ITE(c, t, f *Node) *Node {
	if isTrue(c) {
		return t
	}
	if isFalse(c) {
		return f
	}
	if t == f {
		return t
	}
	return b.mk(Node{Op: OpITE, Args: []*Node{c, t, f}})
}

/*** Rounding modes ***/

func (b *Builder) RNE() *Node { return b.rm[0] }
func (b *Builder) RNA() *Node { return b.rm[1] }
func (b *Builder) RTP() *Node { return b.rm[2] }
func (b *Builder) RTN() *Node { return b.rm[3] }
func (b *Builder) RTZ() *Node { return b.rm[4] }

func (b *Builder) RMEq(x, y *Node) *Node { return b.eq(x, y) }

func (b *Builder) eq(x, y *Node) *Node {
	if x == y {
		return b.boolConst(true)
	}
	if x.Op == OpConst && y.Op == OpConst {
		return b.boolConst(x.Lit == y.Lit)
	}
	return b.mk(Node{Op: OpEq, Args: []*Node{x, y}})
}

/*** Bit-vectors.  Unsigned and signed share the representation. ***/

func widthMask(w backend.Width) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

func (b *Builder) lit(w backend.Width, v uint64) *Node {
	return b.mk(Node{Op: OpConst, Width: w, Lit: v & widthMask(w)})
}

func (b *Builder) bin(op Op, x, y *Node) *Node {
	if x.Width != y.Width {
		panic(fmt.Sprintf("sym: width mismatch %d vs %d in %v", x.Width, y.Width, op))
	}
	return b.mk(Node{Op: op, Width: x.Width, Args: []*Node{x, y}})
}

func (b *Builder) cmp(op Op, x, y *Node) *Node {
	if x.Width != y.Width {
		panic(fmt.Sprintf("sym: width mismatch %d vs %d in %v", x.Width, y.Width, op))
	}
	return b.mk(Node{Op: op, Width: 0, Args: []*Node{x, y}})
}

func (b *Builder) ULit(w backend.Width, v uint64) *Node { return b.lit(w, v) }
func (b *Builder) UZero(w backend.Width) *Node          { return b.lit(w, 0) }
func (b *Builder) UOne(w backend.Width) *Node           { return b.lit(w, 1) }
func (b *Builder) UAllOnes(w backend.Width) *Node       { return b.lit(w, ^uint64(0)) }

func (b *Builder) UFromProp(p *Node) *Node {
	if isTrue(p) {
		return b.lit(1, 1)
	}
	if isFalse(p) {
		return b.lit(1, 0)
	}
	return b.mk(Node{Op: OpBoolToBV, Width: 1, Args: []*Node{p}})
}

func (b *Builder) UWidth(x *Node) backend.Width { return x.Width }

func (b *Builder) UAdd(x, y *Node) *Node { return b.bin(OpBVAdd, x, y) }
func (b *Builder) USub(x, y *Node) *Node { return b.bin(OpBVSub, x, y) }
func (b *Builder) UMul(x, y *Node) *Node { return b.bin(OpBVMul, x, y) }
func (b *Builder) UDiv(x, y *Node) *Node { return b.bin(OpBVUDiv, x, y) }
func (b *Builder) URem(x, y *Node) *Node { return b.bin(OpBVURem, x, y) }

func (b *Builder) UNotBits(x *Node) *Node    { return b.mk(Node{Op: OpBVNot, Width: x.Width, Args: []*Node{x}}) }
func (b *Builder) UAndBits(x, y *Node) *Node { return b.bin(OpBVAnd, x, y) }
func (b *Builder) UOrBits(x, y *Node) *Node  { return b.bin(OpBVOr, x, y) }

func (b *Builder) UShl(x, shift *Node) *Node        { return b.bin(OpBVShl, x, shift) }
func (b *Builder) UShr(x, shift *Node) *Node        { return b.bin(OpBVLShr, x, shift) }
func (b *Builder) USignExtShr(x, shift *Node) *Node { return b.bin(OpBVAShr, x, shift) }

// SMT-LIB shifts are already modular.
func (b *Builder) UModShl(x, shift *Node) *Node { return b.bin(OpBVShl, x, shift) }
func (b *Builder) UModShr(x, shift *Node) *Node { return b.bin(OpBVLShr, x, shift) }

func (b *Builder) UModAdd(x, y *Node) *Node { return b.bin(OpBVAdd, x, y) }
func (b *Builder) UModNeg(x *Node) *Node    { return b.mk(Node{Op: OpBVNeg, Width: x.Width, Args: []*Node{x}}) }
func (b *Builder) UModInc(x *Node) *Node    { return b.UAdd(x, b.UOne(x.Width)) }
func (b *Builder) UModDec(x *Node) *Node    { return b.USub(x, b.UOne(x.Width)) }

func (b *Builder) UInc(x *Node) *Node { return b.UAdd(x, b.UOne(x.Width)) }
func (b *Builder) UDec(x *Node) *Node { return b.USub(x, b.UOne(x.Width)) }

func (b *Builder) UEq(x, y *Node) *Node { return b.eq(x, y) }
func (b *Builder) ULe(x, y *Node) *Node { return b.cmp(OpBVULe, x, y) }
func (b *Builder) ULt(x, y *Node) *Node { return b.cmp(OpBVULt, x, y) }
func (b *Builder) UGe(x, y *Node) *Node { return b.cmp(OpBVULe, y, x) }
func (b *Builder) UGt(x, y *Node) *Node { return b.cmp(OpBVULt, y, x) }

func (b *Builder) UIsAllZeros(x *Node) *Node { return b.eq(x, b.UZero(x.Width)) }
func (b *Builder) UIsAllOnes(x *Node) *Node  { return b.eq(x, b.UAllOnes(x.Width)) }

func (b *Builder) UExtend(x *Node, n backend.Width) *Node {
	if n == 0 {
		return x
	}
	return b.mk(Node{Op: OpZeroExtend, Width: x.Width + n, Lit: uint64(n), Args: []*Node{x}})
}

func (b *Builder) UContract(x *Node, n backend.Width) *Node {
	return b.UExtract(x, x.Width-n-1, 0)
}

func (b *Builder) UResize(x *Node, w backend.Width) *Node {
	switch {
	case w == x.Width:
		return x
	case w > x.Width:
		return b.UExtend(x, w-x.Width)
	default:
		return b.UExtract(x, w-1, 0)
	}
}

func (b *Builder) UMatchWidth(x, target *Node) *Node {
	if x.Width > target.Width {
		panic("sym: matchWidth target narrower than source")
	}
	return b.UExtend(x, target.Width-x.Width)
}

func (b *Builder) UAppend(x, y *Node) *Node {
	return b.mk(Node{Op: OpConcat, Width: x.Width + y.Width, Args: []*Node{x, y}})
}

func (b *Builder) UExtract(x *Node, upper, lower backend.Width) *Node {
	if upper >= x.Width || lower > upper {
		panic("sym: extract out of range")
	}
	if lower == 0 && upper == x.Width-1 {
		return x
	}
	return b.mk(Node{Op: OpExtract, Width: upper - lower + 1, Lit: uint64(upper), Lo: uint64(lower), Args: []*Node{x}})
}

func (b *Builder) UToSigned(x *Node) *Node { return x }

func (b *Builder) UITE(c, t, f *Node) *Node {
	if isTrue(c) {
		return t
	}
	if isFalse(c) {
		return f
	}
	if t == f {
		return t
	}
	if t.Width != f.Width {
		panic("sym: ite width mismatch")
	}
	return b.mk(Node{Op: OpITE, Width: t.Width, Args: []*Node{c, t, f}})
}

/*** Signed views of the same nodes. ***/

func (b *Builder) SLit(w backend.Width, v int64) *Node { return b.lit(w, uint64(v)) }
func (b *Builder) SZero(w backend.Width) *Node         { return b.lit(w, 0) }
func (b *Builder) SOne(w backend.Width) *Node          { return b.lit(w, 1) }

func (b *Builder) SWidth(x *Node) backend.Width { return x.Width }

func (b *Builder) SAdd(x, y *Node) *Node { return b.bin(OpBVAdd, x, y) }
func (b *Builder) SSub(x, y *Node) *Node { return b.bin(OpBVSub, x, y) }
func (b *Builder) SNeg(x *Node) *Node    { return b.UModNeg(x) }
func (b *Builder) SModNeg(x *Node) *Node { return b.UModNeg(x) }
func (b *Builder) SInc(x *Node) *Node    { return b.UInc(x) }
func (b *Builder) SDec(x *Node) *Node    { return b.UDec(x) }

func (b *Builder) SAndBits(x, y *Node) *Node { return b.bin(OpBVAnd, x, y) }

func (b *Builder) SSignExtShr(x, shift *Node) *Node { return b.bin(OpBVAShr, x, shift) }

func (b *Builder) SEq(x, y *Node) *Node { return b.eq(x, y) }
func (b *Builder) SLe(x, y *Node) *Node { return b.cmp(OpBVSLe, x, y) }
func (b *Builder) SLt(x, y *Node) *Node { return b.cmp(OpBVSLt, x, y) }
func (b *Builder) SGe(x, y *Node) *Node { return b.cmp(OpBVSLe, y, x) }
func (b *Builder) SGt(x, y *Node) *Node { return b.cmp(OpBVSLt, y, x) }

func (b *Builder) SIsAllZeros(x *Node) *Node { return b.eq(x, b.lit(x.Width, 0)) }

func (b *Builder) SExtend(x *Node, n backend.Width) *Node {
	if n == 0 {
		return x
	}
	return b.mk(Node{Op: OpSignExtend, Width: x.Width + n, Lit: uint64(n), Args: []*Node{x}})
}

func (b *Builder) SContract(x *Node, n backend.Width) *Node {
	return b.UExtract(x, x.Width-n-1, 0)
}

func (b *Builder) SResize(x *Node, w backend.Width) *Node {
	switch {
	case w == x.Width:
		return x
	case w > x.Width:
		return b.SExtend(x, w-x.Width)
	default:
		return b.UExtract(x, w-1, 0)
	}
}

func (b *Builder) SMatchWidth(x, target *Node) *Node {
	if x.Width > target.Width {
		panic("sym: matchWidth target narrower than source")
	}
	return b.SExtend(x, target.Width-x.Width)
}

func (b *Builder) SToUnsigned(x *Node) *Node { return x }

func (b *Builder) SITE(c, t, f *Node) *Node { return b.UITE(c, t, f) }

/*** Contracts: recorded, not checked. ***/

func (b *Builder) Precondition(p *Node)  { b.recordAssert(p) }
func (b *Builder) Invariant(p *Node)     { b.recordAssert(p) }
func (b *Builder) Postcondition(p *Node) { b.recordAssert(p) }

func (b *Builder) recordAssert(p *Node) {
	if isTrue(p) {
		return
	}
	b.asserts = append(b.asserts, p)
}
