// Package harness checks the engine against references: Go's native
// float32 arithmetic for RNE, an exact big.Float computation for fused
// multiply-add, and a bit-twiddled table-free converter for
// binary16 -> binary32.  The hardware rounding-mode register is not
// touched, so directed modes cannot be verified here; sweeps request
// them explicitly and are refused rather than silently compared
// against the wrong mode.
package harness

import (
	"fmt"
	"math"
	"math/big"
	"math/rand"
	"time"

	"github.com/23skdu/longbow-bodkin/internal/exec"
	"github.com/23skdu/longbow-bodkin/internal/logger"
	"github.com/23skdu/longbow-bodkin/internal/metrics"
	"github.com/23skdu/longbow-bodkin/internal/softfloat"
)

// Mismatch records one disagreement with the reference.
type Mismatch struct {
	Op      string
	RM      exec.RM
	A, B, C uint32
	Got     uint32
	Want    uint32
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s %s a=0x%08X b=0x%08X c=0x%08X got=0x%08X want=0x%08X",
		m.Op, m.RM, m.A, m.B, m.C, m.Got, m.Want)
}

// Result summarises one sweep.
type Result struct {
	Op         string
	RM         exec.RM
	Compared   int
	Mismatched int
	Reported   []Mismatch
	Elapsed    time.Duration
}

// BinaryOps lists the two-operand operations SweepBinary32 accepts.
var BinaryOps = []string{"add", "sub", "mul", "div", "rem"}

// UnaryOps lists the one-operand operations SweepBinary32 accepts.
var UnaryOps = []string{"sqrt"}

func hardware32(op string, a, b uint32) (uint32, bool) {
	af := math.Float32frombits(a)
	bf := math.Float32frombits(b)
	switch op {
	case "add":
		return math.Float32bits(af + bf), true
	case "sub":
		return math.Float32bits(af - bf), true
	case "mul":
		return math.Float32bits(af * bf), true
	case "div":
		return math.Float32bits(af / bf), true
	case "sqrt":
		// Exact through float64: 2s+2 <= 53.
		return math.Float32bits(float32(math.Sqrt(float64(af)))), true
	case "rem":
		// The IEEE remainder is always exact, so the float64
		// computation loses nothing.
		return math.Float32bits(float32(math.Remainder(float64(af), float64(bf)))), true
	}
	return 0, false
}

// fmaReference computes a*b+c with a single rounding via an exact
// intermediate.  Specials go through math.FMA, which cannot round.
func fmaReference(a, b, c uint32) uint32 {
	af := math.Float32frombits(a)
	bf := math.Float32frombits(b)
	cf := math.Float32frombits(c)

	if isSpecial32(a) || isSpecial32(b) || isSpecial32(c) {
		return math.Float32bits(float32(math.FMA(float64(af), float64(bf), float64(cf))))
	}

	// Wide enough that the sum is exact for any pair of binary32
	// exponents, so the only rounding is Float32's.
	const prec = 600
	x := new(big.Float).SetPrec(prec).SetFloat64(float64(af))
	y := new(big.Float).SetPrec(prec).SetFloat64(float64(bf))
	z := new(big.Float).SetPrec(prec).SetFloat64(float64(cf))
	x.Mul(x, y)
	x.Add(x, z)
	out, _ := x.Float32()
	// big.Float has no signed zero for exact zero results.
	if out == 0 && x.Sign() == 0 {
		return math.Float32bits(float32(math.FMA(float64(af), float64(bf), float64(cf))))
	}
	return math.Float32bits(out)
}

func isSpecial32(a uint32) bool {
	return a&0x7F800000 == 0x7F800000
}

// sameBits32 compares results, identifying every NaN encoding.
func sameBits32(x, y uint32) bool {
	if isNaN32(x) && isNaN32(y) {
		return true
	}
	return x == y
}

func isNaN32(a uint32) bool {
	return a&0x7F800000 == 0x7F800000 && a&0x007FFFFF != 0
}

// interestingPatterns are always included in random sweeps: the edge
// encodings where rounding and special-case bugs live.
var interestingPatterns = []uint32{
	0x00000000, 0x80000000, // zeros
	0x00000001, 0x80000001, // least subnormals
	0x007FFFFF, 0x807FFFFF, // greatest subnormals
	0x00800000, 0x80800000, // least normals
	0x7F7FFFFF, 0xFF7FFFFF, // greatest normals
	0x3F800000, 0xBF800000, // one
	0x3F800001, 0x40000000, // near one, two
	0x7F800000, 0xFF800000, // infinities
	0x7FC00000, 0xFFC00000, // quiet NaNs
	0x7F800001, // signalling NaN
}

// specialClass32 names the special-value class of a result, or
// returns "" for ordinary numbers.
func specialClass32(x uint32) string {
	switch {
	case isNaN32(x):
		return "nan"
	case isSpecial32(x):
		return "inf"
	case x&0x7FFFFFFF == 0:
		return "zero"
	}
	return ""
}

func evaluate32(op string, rm exec.RM, a, b, c uint32) uint32 {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()
	switch op {
	case "add":
		return softfloat.Add32(rm, a, b)
	case "sub":
		return softfloat.Sub32(rm, a, b)
	case "mul":
		return softfloat.Mul32(rm, a, b)
	case "div":
		return softfloat.Div32(rm, a, b)
	case "sqrt":
		return softfloat.Sqrt32(rm, a)
	case "rem":
		return softfloat.Rem32(a, b)
	case "fma":
		return softfloat.Fma32(rm, a, b, c)
	}
	panic("harness: unknown operation " + op)
}

// SweepBinary32 compares evaluations of op against the reference:
// every combination of the edge patterns first, then random operands
// until at least count comparisons have been made.  Only RNE has a
// reference on this host.
func SweepBinary32(op string, rm exec.RM, count int, seed int64, maxReported int) (Result, error) {
	if rm != exec.RNE {
		return Result{}, fmt.Errorf("no hardware reference for %v on this host; only RNE sweeps are supported", rm)
	}
	unary := op == "sqrt"
	ternary := op == "fma"

	log := logger.Log.Component("harness")
	rng := rand.New(rand.NewSource(seed))
	start := time.Now()

	res := Result{Op: op, RM: rm}
	emit := func(a, b, c uint32) {
		var want uint32
		if ternary {
			want = fmaReference(a, b, c)
		} else {
			var ok bool
			want, ok = hardware32(op, a, b)
			if !ok {
				panic("harness: unknown operation " + op)
			}
		}
		got := evaluate32(op, rm, a, b, c)
		matched := sameBits32(got, want)
		metrics.RecordComparison(op, rm.String(), matched)
		if class := specialClass32(got); class != "" {
			metrics.SpecialCaseHits.WithLabelValues(op, class).Inc()
		}
		res.Compared++
		if !matched {
			res.Mismatched++
			if len(res.Reported) < maxReported {
				res.Reported = append(res.Reported, Mismatch{Op: op, RM: rm, A: a, B: b, C: c, Got: got, Want: want})
			}
		}
	}

	// Edge patterns first, all pairs.
	for _, a := range interestingPatterns {
		if unary {
			emit(a, 0, 0)
			continue
		}
		for _, b := range interestingPatterns {
			if ternary {
				for _, c := range interestingPatterns {
					emit(a, b, c)
				}
			} else {
				emit(a, b, 0)
			}
		}
	}

	for res.Compared < count {
		a := rng.Uint32()
		b := rng.Uint32()
		c := rng.Uint32()
		emit(a, b, c)
	}

	res.Elapsed = time.Since(start)
	metrics.SweepDuration.Observe(res.Elapsed.Seconds())

	if res.Mismatched > 0 {
		log.Error("sweep found mismatches", "op", op, "rm", rm.String(),
			"compared", res.Compared, "mismatched", res.Mismatched)
	} else {
		log.Info("sweep clean", "op", op, "rm", rm.String(),
			"compared", res.Compared, "elapsed", res.Elapsed)
	}

	return res, nil
}

// SweepHalfConversions exhaustively round-trips every binary16 pattern
// through the engine's widening conversion and compares with the
// bit-twiddled converter.
func SweepHalfConversions(maxReported int) Result {
	log := logger.Log.Component("harness")
	start := time.Now()
	res := Result{Op: "f16->f32", RM: exec.RNE}

	for i := 0; i <= 0xFFFF; i++ {
		h := uint16(i)
		got := softfloat.F16ToF32(h)
		want := half2float(h)
		matched := sameBits32(got, want)
		metrics.RecordComparison("f16_to_f32", "RNE", matched)
		res.Compared++
		if !matched {
			res.Mismatched++
			if len(res.Reported) < maxReported {
				res.Reported = append(res.Reported, Mismatch{Op: res.Op, A: uint32(h), Got: got, Want: want})
			}
		}
	}

	res.Elapsed = time.Since(start)
	if res.Mismatched > 0 {
		log.Error("half conversion sweep found mismatches", "mismatched", res.Mismatched)
	} else {
		log.Info("half conversion sweep clean", "compared", res.Compared)
	}
	return res
}

// half2float is an independent binary16 -> binary32 converter used as
// the conversion oracle.
func half2float(h uint16) uint32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h & 0x3FF)

	switch {
	case exp == 0:
		if mant == 0 {
			return sign
		}
		// Normalise the subnormal.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		return sign | e<<23 | (mant&0x3FF)<<13
	case exp == 0x1F:
		return sign | 0x7F800000 | mant<<13
	default:
		return sign | (exp+127-15)<<23 | mant<<13
	}
}
