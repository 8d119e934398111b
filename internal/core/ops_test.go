package core

import (
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/exec"
)

var eb backend.Backend[bool, exec.BV, exec.SV, exec.RM] = exec.Backend{}

func TestOrderEncode(t *testing.T) {
	for k := uint64(0); k <= 12; k++ {
		got := orderEncodeU(eb, eb.ULit(8, k))
		want := uint64(1)<<min(k, 8) - 1
		if got.V != want {
			t.Errorf("orderEncode(%d) = 0x%X, want 0x%X", k, got.V, want)
		}
	}
}

func TestStickyRightShift(t *testing.T) {
	cases := []struct {
		x, n, result uint64
		sticky       bool
	}{
		{0xB4, 0, 0xB4, false},
		{0xB4, 2, 0xED, false}, // MSB set, so the shift extends with ones
		{0xB4, 3, 0xF6, true},
		{0x34, 3, 0x06, true},
		{0x34, 2, 0x0D, false},
		{0x34, 100, 0x00, true},
		{0x00, 100, 0x00, false},
	}
	for _, c := range cases {
		got := stickyRightShift(eb, eb.ULit(8, c.x), eb.ULit(8, c.n))
		if got.Result.V != c.result {
			t.Errorf("stickyRightShift(0x%X, %d).Result = 0x%X, want 0x%X", c.x, c.n, got.Result.V, c.result)
		}
		sticky := got.Sticky.V != 0
		if sticky != c.sticky {
			t.Errorf("stickyRightShift(0x%X, %d).Sticky = %v, want %v", c.x, c.n, sticky, c.sticky)
		}
	}
}

func TestNormaliseShift(t *testing.T) {
	for _, x := range []uint64{1, 2, 3, 0x40, 0x80, 0xB4, 0xFF} {
		got := normaliseShift(eb, eb.ULit(8, x))
		if got.IsZero {
			t.Fatalf("normaliseShift(0x%X) claims zero", x)
		}
		shift := got.ShiftAmount.V
		if got.Normalised.V != (x<<shift)&0xFF {
			t.Errorf("normaliseShift(0x%X): normalised 0x%X, shift %d", x, got.Normalised.V, shift)
		}
		if got.Normalised.V&0x80 == 0 {
			t.Errorf("normaliseShift(0x%X): MSB not set", x)
		}
		if shift > 0 && x<<(shift-1)&0x80 != 0 {
			t.Errorf("normaliseShift(0x%X): shift %d not minimal", x, shift)
		}
	}

	zero := normaliseShift(eb, eb.UZero(8))
	if !zero.IsZero || zero.ShiftAmount.V != 0 {
		t.Errorf("normaliseShift(0) = %+v", zero)
	}
}

func TestCountLeadingZeros(t *testing.T) {
	cases := map[uint64]uint64{0x80: 0, 0x40: 1, 0x01: 7, 0x00: 8, 0xFF: 0}
	for x, want := range cases {
		if got := countLeadingZerosU(eb, eb.ULit(8, x)); got.V != want {
			t.Errorf("clz(0x%X) = %d, want %d", x, got.V, want)
		}
	}
}

func TestFixedPointDivide(t *testing.T) {
	// 1.5 / 1.0 at width 8: x = 0xC0, y = 0x80, quotient 1.5 = 0xC0.
	got := fixedPointDivide(eb, eb.ULit(8, 0xC0), eb.ULit(8, 0x80))
	if got.Result.V != 0xC0 || got.RemainderNonzero {
		t.Errorf("1.5/1.0 = %+v", got)
	}

	// 1.0 / 1.5: quotient 2/3 = 0.1010101..., remainder non-zero.
	got = fixedPointDivide(eb, eb.ULit(8, 0x80), eb.ULit(8, 0xC0))
	if got.Result.V != 0x55 || !got.RemainderNonzero {
		t.Errorf("1.0/1.5 = %+v", got)
	}
}

func TestFixedPointSqrt(t *testing.T) {
	// sqrt(1.0): input 01.000000 at width 8 (two integer bits).
	got := fixedPointSqrt(eb, eb.ULit(8, 0x40))
	if got.Result.V != 0x40 || got.RemainderNonzero {
		t.Errorf("sqrt(1.0) = %+v", got)
	}

	// sqrt(2.25) = 1.5 exactly: 10.010000 -> 1.1000000.
	got = fixedPointSqrt(eb, eb.ULit(8, 0x90))
	if got.Result.V != 0x60 || got.RemainderNonzero {
		t.Errorf("sqrt(2.25) = %+v", got)
	}

	// sqrt(2) is irrational: remainder must be non-zero.
	got = fixedPointSqrt(eb, eb.ULit(8, 0x80))
	if !got.RemainderNonzero {
		t.Errorf("sqrt(2) = %+v claims exact", got)
	}
}

func TestDivideStep(t *testing.T) {
	// y must be aligned with bit w-2 set: at width 5, y = 01000 (8)
	// and x = 01010 (10).
	x := eb.ULit(5, 0x0A)
	y := eb.ULit(5, 0x08)
	got := divideStep(eb, x, y)
	if !got.RemainderNonzero { // 10 >= 8, quotient bit set
		t.Errorf("divideStep quotient bit clear")
	}
	if got.Result.V != 0x04 { // (10-8)<<1
		t.Errorf("divideStep remainder = 0x%X", got.Result.V)
	}
}
