package softfloat

import (
	"math"
	"math/rand"
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/backend"
)

const (
	qNaN32 = uint32(0x7FC00000)
	qNaN16 = uint16(0x7E00)
)

var allModes = []RoundingMode{RNE, RNA, RTP, RTN, RTZ}

// edge32 is the set of binary32 encodings where bugs concentrate.
var edge32 = []uint32{
	0x00000000, 0x80000000,
	0x00000001, 0x80000001,
	0x007FFFFF, 0x807FFFFF,
	0x00800000, 0x80800000,
	0x7F7FFFFF, 0xFF7FFFFF,
	0x3F800000, 0xBF800000,
	0x3F800001, 0x40000000,
	0x3F000000, 0x40490FDB,
	0x7F800000, 0xFF800000,
	0x7FC00000, 0xFFC00001,
	0x7F800001,
}

func isNaN32(x uint32) bool {
	return x&0x7F800000 == 0x7F800000 && x&0x007FFFFF != 0
}

func TestKnownAnswersBinary32(t *testing.T) {
	if got := Add32(RNE, 0x3F800000, 0x3F800000); got != 0x40000000 {
		t.Errorf("1.0 + 1.0 = 0x%08X, want 0x40000000", got)
	}
	if got := Add32(RNE, 0x7F800000, 0xFF800000); got != qNaN32 {
		t.Errorf("+Inf + -Inf = 0x%08X, want qNaN", got)
	}
	if got := Add32(RNE, 0x00000001, 0x00000001); got != 0x00000002 {
		t.Errorf("minSub + minSub = 0x%08X, want 0x00000002", got)
	}
	if got := Mul32(RTZ, 0x3F800000, 0x00800000); got != 0x00800000 {
		t.Errorf("1.0 * minNormal = 0x%08X, want 0x00800000", got)
	}
	if got := Div32(RNE, 0x3F800000, 0x40000000); got != 0x3F000000 {
		t.Errorf("1.0 / 2.0 = 0x%08X, want 0x3F000000", got)
	}
	if got := Sqrt32(RNE, 0x40800000); got != 0x40000000 {
		t.Errorf("sqrt(4.0) = 0x%08X, want 0x40000000", got)
	}
	if got := Fma32(RNE, 0x3FC00000, 0x3FC00000, 0x3F800000); got != 0x40500000 {
		t.Errorf("fma(1.5, 1.5, 1.0) = 0x%08X, want 0x40500000 (3.25)", got)
	}
	if got := Rem32(0x40A00000, 0x40400000); got != 0xBF800000 {
		t.Errorf("rem(5.0, 3.0) = 0x%08X, want 0xBF800000 (-1.0)", got)
	}
}

// Negate is an involution, so running every pattern through it twice
// exercises the whole codec: identity everywhere except non-canonical
// NaNs, which canonicalise.
func TestCodecRoundTripBinary16(t *testing.T) {
	f := backend.Binary16
	for i := 0; i <= 0xFFFF; i++ {
		x := uint64(i)
		got := Neg(f, Neg(f, x))
		want := x
		if IsNaN(f, x) {
			want = uint64(qNaN16)
		}
		if got != want {
			t.Fatalf("negate twice of 0x%04X = 0x%04X, want 0x%04X", x, got, want)
		}
	}
}

func TestCodecRoundTripBinary32(t *testing.T) {
	f := backend.Binary32
	rng := rand.New(rand.NewSource(7))
	check := func(x uint32) {
		got := uint32(Neg(f, Neg(f, uint64(x))))
		want := x
		if isNaN32(x) {
			want = qNaN32
		}
		if got != want {
			t.Fatalf("negate twice of 0x%08X = 0x%08X, want 0x%08X", x, got, want)
		}
	}
	for _, x := range edge32 {
		check(x)
	}
	for i := 0; i < 200000; i++ {
		check(rng.Uint32())
	}
}

func TestAbsoluteClearsSign(t *testing.T) {
	f := backend.Binary32
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 50000; i++ {
		x := uint64(rng.Uint32())
		got := Abs(f, x)
		if IsNaN(f, x) {
			if got != uint64(qNaN32) {
				t.Fatalf("abs(NaN 0x%08X) = 0x%08X", x, got)
			}
			continue
		}
		if got>>31 != 0 {
			t.Fatalf("abs(0x%08X) = 0x%08X has sign set", x, got)
		}
	}
}

func TestAddCommutative(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for _, rm := range []RoundingMode{RNE, RNA} {
		for i := 0; i < 50000; i++ {
			a, b := rng.Uint32(), rng.Uint32()
			if x, y := Add32(rm, a, b), Add32(rm, b, a); x != y {
				t.Fatalf("%v: add(0x%08X, 0x%08X) = 0x%08X but swapped = 0x%08X", rm, a, b, x, y)
			}
		}
	}
}

func TestMulCommutative(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	for _, rm := range allModes {
		for i := 0; i < 20000; i++ {
			a, b := rng.Uint32(), rng.Uint32()
			if x, y := Mul32(rm, a, b), Mul32(rm, b, a); x != y {
				t.Fatalf("%v: mul(0x%08X, 0x%08X) = 0x%08X but swapped = 0x%08X", rm, a, b, x, y)
			}
		}
	}
}

func TestAddZeroIdentity(t *testing.T) {
	const posZero, negZero = uint32(0), uint32(0x80000000)

	rng := rand.New(rand.NewSource(11))
	for _, rm := range allModes {
		for i := 0; i < 20000; i++ {
			x := rng.Uint32()
			if isNaN32(x) || x == posZero || x == negZero {
				continue
			}
			if got := Add32(rm, x, posZero); got != x {
				t.Fatalf("%v: 0x%08X + +0 = 0x%08X", rm, x, got)
			}
		}
	}

	// The zero table: only RTN prefers -0.
	for _, rm := range allModes {
		wantMixed := posZero
		if rm == RTN {
			wantMixed = negZero
		}
		if got := Add32(rm, posZero, negZero); got != wantMixed {
			t.Errorf("%v: +0 + -0 = 0x%08X, want 0x%08X", rm, got, wantMixed)
		}
		if got := Add32(rm, posZero, posZero); got != posZero {
			t.Errorf("%v: +0 + +0 = 0x%08X", rm, got)
		}
		if got := Add32(rm, negZero, negZero); got != negZero {
			t.Errorf("%v: -0 + -0 = 0x%08X", rm, got)
		}
	}
}

func TestMulZeroAndInf(t *testing.T) {
	f := backend.Binary32
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 20000; i++ {
		x := rng.Uint32()
		if isNaN32(x) || IsInf(f, uint64(x)) {
			continue
		}
		sign := x & 0x80000000
		if got := Mul32(RNE, x, 0); got != sign {
			t.Fatalf("0x%08X * +0 = 0x%08X, want 0x%08X", x, got, sign)
		}
		if !IsZero(f, uint64(x)) {
			if got := Mul32(RNE, x, 0x7F800000); got != sign|0x7F800000 {
				t.Fatalf("0x%08X * +Inf = 0x%08X", x, got)
			}
		}
	}
	if got := Mul32(RNE, 0, 0x7F800000); got != qNaN32 {
		t.Errorf("0 * Inf = 0x%08X, want qNaN", got)
	}
	if got := Mul32(RNE, 0x80000000, 0xFF800000); got != qNaN32 {
		t.Errorf("-0 * -Inf = 0x%08X, want qNaN", got)
	}
}

func TestComparisonCoherence(t *testing.T) {
	f := backend.Binary32
	rng := rand.New(rand.NewSource(13))
	pick := func() uint32 {
		if rng.Intn(4) == 0 {
			return edge32[rng.Intn(len(edge32))]
		}
		return rng.Uint32()
	}
	for i := 0; i < 50000; i++ {
		x, y := uint64(pick()), uint64(pick())

		if Eq(f, x, x) == IsNaN(f, x) {
			t.Fatalf("ieee equal self broken for 0x%08X", x)
		}
		if !StructuralEq(f, x, x) {
			t.Fatalf("structural equal self broken for 0x%08X", x)
		}
		if Lt(f, x, y) && Lt(f, y, x) {
			t.Fatalf("lt antisymmetry broken for 0x%08X, 0x%08X", x, y)
		}
		if Lt(f, x, y) && !Le(f, x, y) {
			t.Fatalf("lt implies le broken for 0x%08X, 0x%08X", x, y)
		}

		// Against the hardware comparison.
		xf := math.Float32frombits(uint32(x))
		yf := math.Float32frombits(uint32(y))
		if got, want := Lt(f, x, y), xf < yf; got != want {
			t.Fatalf("lt(0x%08X, 0x%08X) = %v, hardware %v", x, y, got, want)
		}
		if got, want := Le(f, x, y), xf <= yf; got != want {
			t.Fatalf("le(0x%08X, 0x%08X) = %v, hardware %v", x, y, got, want)
		}
		if got, want := Eq(f, x, y), xf == yf; got != want {
			t.Fatalf("eq(0x%08X, 0x%08X) = %v, hardware %v", x, y, got, want)
		}
	}
}

func TestDivideBySelf(t *testing.T) {
	f := backend.Binary32
	rng := rand.New(rand.NewSource(14))
	for i := 0; i < 20000; i++ {
		x := rng.Uint32()
		if isNaN32(x) || IsInf(f, uint64(x)) || IsZero(f, uint64(x)) {
			continue
		}
		if got := Div32(RNE, x, x); got != 0x3F800000 {
			t.Fatalf("0x%08X / itself = 0x%08X, want 1.0", x, got)
		}
	}
}

func TestSqrtOfSquares(t *testing.T) {
	for k := uint32(1); k <= 1000; k++ {
		x := math.Float32bits(float32(k))
		sq := Mul32(RNE, x, x)
		if want := math.Float32bits(float32(k) * float32(k)); sq != want {
			t.Fatalf("square of %d = 0x%08X, want 0x%08X", k, sq, want)
		}
		if got := Sqrt32(RNE, sq); got != x {
			t.Fatalf("sqrt(%d^2) = 0x%08X, want 0x%08X", k, got, x)
		}
	}
}

func TestRoundToIntegral(t *testing.T) {
	f := backend.Binary32
	bits := math.Float32bits

	cases := []struct {
		rm   RoundingMode
		in   float32
		want uint32
	}{
		{RNE, 1.5, bits(2)},
		{RNE, 2.5, bits(2)},
		{RNE, -1.5, bits(-2)},
		{RNA, 1.5, bits(2)},
		{RNA, 2.5, bits(3)},
		{RTZ, 1.9, bits(1)},
		{RTZ, -1.9, bits(-1)},
		{RTP, 1.1, bits(2)},
		{RTN, -1.1, bits(-2)},
		{RTN, 1.9, bits(1)},
		{RNE, 0.5, 0x00000000},
		{RNE, -0.5, 0x80000000},
		{RTN, -0.25, bits(-1)},
		{RTZ, -0.25, 0x80000000},
		{RNE, 8388609, bits(8388609)}, // already integral at the precision edge
	}
	for _, c := range cases {
		if got := uint32(RoundToIntegral(f, c.rm, uint64(bits(c.in)))); got != c.want {
			t.Errorf("rti(%v, %v) = 0x%08X, want 0x%08X", c.rm, c.in, got, c.want)
		}
	}

	rng := rand.New(rand.NewSource(15))
	for _, rm := range allModes {
		for i := 0; i < 10000; i++ {
			x := uint64(rng.Uint32())
			once := RoundToIntegral(f, rm, x)
			twice := RoundToIntegral(f, rm, once)
			if once != twice {
				t.Fatalf("%v: rti not idempotent on 0x%08X: 0x%08X then 0x%08X", rm, x, once, twice)
			}
		}
	}
}

func TestNarrowWideNarrow(t *testing.T) {
	for i := 0; i <= 0xFFFF; i++ {
		h := uint16(i)
		w := F16ToF32(h)
		for _, rm := range allModes {
			back := F32ToF16(rm, w)
			want := h
			if IsNaN(backend.Binary16, uint64(h)) {
				want = qNaN16
			}
			if back != want {
				t.Fatalf("%v: 0x%04X -> 0x%08X -> 0x%04X", rm, h, w, back)
			}
		}
	}
}

func TestIntToFloat(t *testing.T) {
	rng := rand.New(rand.NewSource(16))
	for i := 0; i < 50000; i++ {
		k := int32(rng.Uint32())
		want := math.Float32bits(float32(k))
		if got := uint32(FromInt(backend.Binary32, RNE, int64(k), 32)); got != want {
			t.Fatalf("fromInt(%d) = 0x%08X, want 0x%08X", k, got, want)
		}

		u := rng.Uint32()
		wantU := math.Float32bits(float32(u))
		if got := uint32(FromUint(backend.Binary32, RNE, uint64(u), 32)); got != wantU {
			t.Fatalf("fromUint(%d) = 0x%08X, want 0x%08X", u, got, wantU)
		}
	}

	if got := uint32(FromInt(backend.Binary32, RNE, -2147483648, 32)); got != math.Float32bits(-2147483648) {
		t.Errorf("fromInt(minInt32) = 0x%08X", got)
	}
	if got := uint32(FromUint(backend.Binary32, RNE, 0, 32)); got != 0 {
		t.Errorf("fromUint(0) = 0x%08X, want +0", got)
	}
}

func TestFloatToInt(t *testing.T) {
	f := backend.Binary32
	const undef = int64(-0x8000000000000000)
	bits := math.Float32bits

	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 50000; i++ {
		k := int32(rng.Uint32()) % (1 << 20)
		v := float32(k) / 8 // exact: at most 20 significant bits
		want := int64(math.Trunc(float64(v)))
		if got := ToInt(f, RTZ, uint64(bits(v)), 32, undef); got != want {
			t.Fatalf("toInt(RTZ, %v) = %d, want %d", v, got, want)
		}
	}

	// Undefined cases return the caller's value bit-identically.
	for _, x := range []uint32{qNaN32, 0x7F800000, 0xFF800000, bits(1e38), bits(-1e38)} {
		if got := ToInt(f, RTZ, uint64(x), 32, undef); got != undef {
			t.Errorf("toInt(0x%08X) = %d, want undef", x, got)
		}
	}

	// The single safe overflow: -2^31.
	if got := ToInt(f, RTZ, uint64(bits(-2147483648)), 32, undef); got != -2147483648 {
		t.Errorf("toInt(-2^31) = %d", got)
	}
	// +2^31 overflows.
	if got := ToInt(f, RTZ, uint64(bits(2147483648)), 32, undef); got != undef {
		t.Errorf("toInt(+2^31) = %d, want undef", got)
	}

	// Rounding-mode dependence.
	if got := ToInt(f, RNE, uint64(bits(2.5)), 32, undef); got != 2 {
		t.Errorf("toInt(RNE, 2.5) = %d, want 2", got)
	}
	if got := ToInt(f, RNA, uint64(bits(2.5)), 32, undef); got != 3 {
		t.Errorf("toInt(RNA, 2.5) = %d, want 3", got)
	}
	if got := ToInt(f, RTP, uint64(bits(2.1)), 32, undef); got != 3 {
		t.Errorf("toInt(RTP, 2.1) = %d, want 3", got)
	}
	if got := ToInt(f, RTN, uint64(bits(-2.1)), 32, undef); got != -3 {
		t.Errorf("toInt(RTN, -2.1) = %d, want -3", got)
	}
}

func TestFloatToUint(t *testing.T) {
	f := backend.Binary32
	const undef = uint64(0xDEADBEEFDEADBEEF)
	bits := math.Float32bits

	if got := ToUint(f, RTZ, uint64(bits(3.9)), 32, undef); got != 3 {
		t.Errorf("toUint(3.9) = %d", got)
	}
	// Negative fractions truncate to zero rather than failing.
	if got := ToUint(f, RTZ, uint64(bits(-0.3)), 32, undef); got != 0 {
		t.Errorf("toUint(-0.3) = %d, want 0", got)
	}
	if got := ToUint(f, RTZ, uint64(bits(-1)), 32, undef); got != undef {
		t.Errorf("toUint(-1.0) = %d, want undef", got)
	}
	if got := ToUint(f, RTZ, uint64(bits(4294967040)), 32, undef); got != 4294967040 {
		t.Errorf("toUint(4294967040) = %d", got)
	}
	if got := ToUint(f, RTZ, uint64(qNaN32), 32, undef); got != undef {
		t.Errorf("toUint(NaN) = %d, want undef", got)
	}
}

// The three adders must agree everywhere: the compacted compare-based
// adder, the bypass wrapper and the classic two-path design.
func TestAddersAgree(t *testing.T) {
	f := backend.Binary32
	rng := rand.New(rand.NewSource(18))
	pick := func() uint64 {
		if rng.Intn(4) == 0 {
			return uint64(edge32[rng.Intn(len(edge32))])
		}
		return uint64(rng.Uint32())
	}
	for _, rm := range allModes {
		for i := 0; i < 20000; i++ {
			a, b := pick(), pick()

			plain := Add(f, rm, a, b)
			if got := AddWithBypass(f, rm, a, b); got != plain {
				t.Fatalf("%v: bypass add(0x%08X, 0x%08X) = 0x%08X, plain 0x%08X", rm, a, b, got, plain)
			}
			if got := DualPathAdd(f, rm, a, b); got != plain {
				t.Fatalf("%v: dual-path add(0x%08X, 0x%08X) = 0x%08X, plain 0x%08X", rm, a, b, got, plain)
			}

			sub := Sub(f, rm, a, b)
			if got := SubWithBypass(f, rm, a, b); got != sub {
				t.Fatalf("%v: bypass sub(0x%08X, 0x%08X) = 0x%08X, plain 0x%08X", rm, a, b, got, sub)
			}
			if got := DualPathSub(f, rm, a, b); got != sub {
				t.Fatalf("%v: dual-path sub(0x%08X, 0x%08X) = 0x%08X, plain 0x%08X", rm, a, b, got, sub)
			}
		}
	}
}

func TestMinMax(t *testing.T) {
	f := backend.Binary32
	one := uint64(0x3F800000)
	two := uint64(0x40000000)
	nan := uint64(qNaN32)

	if got := Max(f, one, two); got != two {
		t.Errorf("max(1,2) = 0x%08X", got)
	}
	if got := Min(f, one, two); got != one {
		t.Errorf("min(1,2) = 0x%08X", got)
	}
	if got := Max(f, nan, one); got != one {
		t.Errorf("max(NaN,1) = 0x%08X", got)
	}
	if got := Min(f, one, nan); got != one {
		t.Errorf("min(1,NaN) = 0x%08X", got)
	}
	if got := Max(f, uint64(0xBF800000), uint64(0x80000000)); got != 0x80000000 {
		t.Errorf("max(-1,-0) = 0x%08X", got)
	}
}

func TestBinary16Arithmetic(t *testing.T) {
	// 1.0 + 1.0 = 2.0 at half precision.
	if got := Add16(RNE, 0x3C00, 0x3C00); got != 0x4000 {
		t.Errorf("half 1+1 = 0x%04X", got)
	}
	// Smallest subnormals add exactly.
	if got := Add16(RNE, 0x0001, 0x0001); got != 0x0002 {
		t.Errorf("half minSub+minSub = 0x%04X", got)
	}
	// Overflow to infinity.
	if got := Add16(RNE, 0x7BFF, 0x7BFF); got != 0x7C00 {
		t.Errorf("half max+max = 0x%04X, want +Inf", got)
	}
	// RTZ clamps to the largest finite instead.
	if got := Add16(RTZ, 0x7BFF, 0x7BFF); got != 0x7BFF {
		t.Errorf("half max+max RTZ = 0x%04X, want 0x7BFF", got)
	}
	if got := Div16(RNE, 0x3C00, 0x4000); got != 0x3800 {
		t.Errorf("half 1/2 = 0x%04X", got)
	}
	if got := Sqrt16(RNE, 0x4400); got != 0x4000 {
		t.Errorf("half sqrt(4) = 0x%04X", got)
	}
}
