package sym

import (
	"strings"
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/backend"
)

func TestHashConsing(t *testing.T) {
	b := NewBuilder()
	x := b.BVVar("x", 8)
	y := b.BVVar("y", 8)

	s1 := b.UAdd(x, y)
	s2 := b.UAdd(x, y)
	if s1 != s2 {
		t.Errorf("identical adds produced distinct nodes")
	}
	if b.UAdd(y, x) == s1 {
		t.Errorf("operand order should distinguish nodes")
	}

	before := b.NumNodes()
	b.UAdd(x, y)
	if b.NumNodes() != before {
		t.Errorf("re-building a shared term grew the table")
	}
}

func TestConstantFolding(t *testing.T) {
	b := NewBuilder()
	p := b.PropVar("p")

	if got := b.And(b.Bool(false), p); !isFalse(got) {
		t.Errorf("And(false, p) did not fold")
	}
	if got := b.Or(b.Bool(true), p); !isTrue(got) {
		t.Errorf("Or(true, p) did not fold")
	}
	if got := b.And(b.Bool(true), p); got != p {
		t.Errorf("And(true, p) did not simplify to p")
	}
	if got := b.ITE(b.Bool(true), p, b.Not(p)); got != p {
		t.Errorf("ITE(true, p, q) did not fold")
	}
	if got := b.Not(b.Not(p)); got != p {
		t.Errorf("double negation did not cancel")
	}

	x := b.BVVar("x", 4)
	if got := b.UITE(b.Bool(false), x, b.UZero(4)); !isFalse(b.Not(b.UIsAllZeros(got))) {
		t.Errorf("UITE(false, x, 0) did not fold to 0")
	}
}

func TestWidthTracking(t *testing.T) {
	b := NewBuilder()
	x := b.BVVar("x", 8)

	if got := b.UExtend(x, 4); got.Width != 12 {
		t.Errorf("zero extend width = %d", got.Width)
	}
	if got := b.UExtract(x, 6, 2); got.Width != 5 {
		t.Errorf("extract width = %d", got.Width)
	}
	if got := b.UAppend(x, b.BVVar("y", 3)); got.Width != 11 {
		t.Errorf("append width = %d", got.Width)
	}
	if got := b.ULt(x, b.UZero(8)); !got.IsBool() {
		t.Errorf("comparison is not boolean")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("width mismatch did not panic")
		}
	}()
	b.UAdd(x, b.BVVar("z", 9))
}

func TestRoundingModeConstants(t *testing.T) {
	b := NewBuilder()
	if !isTrue(b.RMEq(b.RNE(), b.RNE())) {
		t.Errorf("RNE != RNE")
	}
	if !isFalse(b.RMEq(b.RNE(), b.RTZ())) {
		t.Errorf("distinct modes compared equal")
	}
}

func TestSMTLIBOutput(t *testing.T) {
	b := NewBuilder()
	x := b.BVVar("x", 8)
	y := b.BVVar("y", 8)
	sum := b.UAdd(x, y)
	top := b.UExtract(sum, 7, 7)
	isNeg := b.UIsAllOnes(top)

	var sb strings.Builder
	if err := WriteDefineFun(&sb, "sumIsNegative", isNeg); err != nil {
		t.Fatalf("WriteDefineFun: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"(define-fun sumIsNegative",
		"(x (_ BitVec 8))",
		"(y (_ BitVec 8))",
		") Bool",
		"(bvadd x y)",
		"(_ extract 7 7)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBackendInterfaceSatisfied(t *testing.T) {
	var _ backend.Backend[*Node, *Node, *Node, *Node] = NewBuilder()
}
