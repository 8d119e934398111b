package vectors

import (
	"fmt"
	"io"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/core"
	"github.com/23skdu/longbow-bodkin/internal/metrics"
	"github.com/23skdu/longbow-bodkin/internal/sym"
)

// WriteCSource emits the vectors as a C table suitable for replaying
// against another implementation.
func WriteCSource(w io.Writer, vecs []Vector) error {
	if _, err := fmt.Fprint(w, `/* Generated IEEE-754 test vectors. */
#include <stdint.h>

struct testVector {
	const char *op;
	const char *rm;
	uint32_t width;
	uint64_t a, b, c;
	uint64_t result;
};

static const struct testVector testVectors[] = {
`); err != nil {
		return err
	}

	digits := func(width backend.Width) int { return int(width+3) / 4 }
	for _, v := range vecs {
		d := digits(v.Width)
		if _, err := fmt.Fprintf(w,
			"\t{ %q, %q, %d, UINT64_C(0x%0*X), UINT64_C(0x%0*X), UINT64_C(0x%0*X), UINT64_C(0x%0*X) },\n",
			v.Op, v.RM.String(), v.Width, d, v.A, d, v.B, d, v.C, d, v.Result); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "};\n\nstatic const int testVectorCount = %d;\n", len(vecs)); err != nil {
		return err
	}

	metrics.VectorsEmittedTotal.WithLabelValues("c").Add(float64(len(vecs)))
	return nil
}

// EncodeOperation builds the word-level encoding of an operation over
// fresh packed-operand and rounding-mode variables, returning the
// builder and the packed result term.
func EncodeOperation(f backend.Format, op string) (*sym.Builder, *sym.Node, error) {
	bld := sym.NewBuilder()
	var sb backend.Backend[*sym.Node, *sym.Node, *sym.Node, *sym.Node] = bld

	w := f.PackedWidth()
	rm := bld.RMVar("rm")
	a := core.Unpack(sb, f, bld.BVVar("a", w))

	var result core.Unpacked[*sym.Node, *sym.Node, *sym.Node]
	switch op {
	case "add", "sub", "mul", "div", "rem", "min", "max":
		bvar := core.Unpack(sb, f, bld.BVVar("b", w))
		switch op {
		case "add":
			result = core.Add(sb, f, rm, a, bvar, bld.Bool(true))
		case "sub":
			result = core.Add(sb, f, rm, a, bvar, bld.Bool(false))
		case "mul":
			result = core.Multiply(sb, f, rm, a, bvar)
		case "div":
			result = core.Divide(sb, f, rm, a, bvar)
		case "rem":
			result = core.Remainder(sb, f, a, bvar)
		case "min":
			result = core.Min(sb, f, a, bvar, bld.Bool(false))
		case "max":
			result = core.Max(sb, f, a, bvar, bld.Bool(false))
		}
	case "sqrt":
		result = core.Sqrt(sb, f, rm, a)
	case "rti":
		result = core.RoundToIntegral(sb, f, rm, a)
	case "neg":
		result = core.Negate(sb, f, a)
	case "abs":
		result = core.Absolute(sb, f, a)
	case "fma":
		bvar := core.Unpack(sb, f, bld.BVVar("b", w))
		cvar := core.Unpack(sb, f, bld.BVVar("c", w))
		result = core.Fma(sb, f, rm, a, bvar, cvar)
	default:
		return nil, nil, fmt.Errorf("unknown operation %q", op)
	}

	packed := core.Pack(sb, f, result)
	metrics.SymbolicNodes.Observe(float64(bld.NumNodes()))
	return bld, packed, nil
}

// WriteSMT2 emits the word-level encoding of an operation as an
// SMT-LIB define-fun named fp.<op>.<width>.
func WriteSMT2(w io.Writer, f backend.Format, op string) error {
	_, packed, err := EncodeOperation(f, op)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "; word-level encoding of %s at %v\n(set-logic QF_BV)\n", op, f); err != nil {
		return err
	}
	name := fmt.Sprintf("fp.%s.%d", op, f.PackedWidth())
	if err := sym.WriteDefineFun(w, name, packed); err != nil {
		return err
	}

	metrics.VectorsEmittedTotal.WithLabelValues("smt2").Inc()
	return nil
}
