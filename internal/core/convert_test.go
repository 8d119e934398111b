package core

import (
	"math"
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/exec"
)

// The compact round-to-zero converter must agree with the general
// fixed-position path under RTZ on its supported range: non-negative
// finite values that fit the target.
func TestCompactRTZConverterAgrees(t *testing.T) {
	f := backend.Binary32
	inputs := []float32{
		0, 1, 2, 3.9, 0.3, 123.456, 65535.99, 1 << 20, 1<<20 + 0.5,
		2147483520, 16777215, 16777216,
	}

	for _, v := range inputs {
		uf := Unpack(eb, f, exec.BV{W: 32, V: uint64(math.Float32bits(v))})

		general := ConvertFloatToUBV(eb, f, exec.RTZ, uf, 32, exec.BV{W: 32, V: 0xFFFFFFFF}, 0)
		compact := convertFloatToBVRTZ(eb, f, uf, 32, 0)

		if general.V != compact.Significand.V {
			t.Errorf("%v: general RTZ = %d, compact = %d", v, general.V, compact.Significand.V)
		}
		if want := uint64(v); general.V != want {
			t.Errorf("%v: converted to %d, want %d", v, general.V, want)
		}
	}
}

func TestCatastrophicCancellationDetector(t *testing.T) {
	f := backend.Binary32
	up := func(v float32) Unpacked[bool, exec.BV, exec.SV] {
		return Unpack(eb, f, exec.BV{W: 32, V: uint64(math.Float32bits(v))})
	}

	// Identical operands cancel completely on subtraction.
	if !IsCatastrophicCancellation(eb, f, up(1.5), up(1.5), 10, false) {
		t.Errorf("x - x not flagged")
	}
	// Addition of same-signed values never cancels.
	if IsCatastrophicCancellation(eb, f, up(1.5), up(1.5), 10, true) {
		t.Errorf("x + x flagged")
	}
	// Far-apart exponents cannot cancel.
	if IsCatastrophicCancellation(eb, f, up(1024), up(1.5), 10, false) {
		t.Errorf("distant operands flagged")
	}
	// Specials never cancel.
	inf := Unpack(eb, f, exec.BV{W: 32, V: 0x7F800000})
	if IsCatastrophicCancellation(eb, f, inf, inf, 10, false) {
		t.Errorf("infinities flagged")
	}
	// 1.0000001... minus 1.0: agreement in the leading bits.
	a := Unpack(eb, f, exec.BV{W: 32, V: 0x3F800001})
	if !IsCatastrophicCancellation(eb, f, a, up(1.0), 10, false) {
		t.Errorf("near-equal operands not flagged")
	}
}
