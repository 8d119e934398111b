package backend

import "testing"

func TestFormatDerivedConstants(t *testing.T) {
	cases := []struct {
		name              string
		f                 Format
		bias              int64
		minNormal         int64
		minSubnormal      int64
		packedWidth       Width
		unpackedExpWidth  Width
		maxExponentDiff   Width
	}{
		{"binary16", Binary16, 15, -14, -24, 16, 6, 39},
		{"binary32", Binary32, 127, -126, -149, 32, 9, 276},
		{"binary64", Binary64, 1023, -1022, -1074, 64, 12, 2097},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.f.Bias(); got != c.bias {
				t.Errorf("Bias() = %d, want %d", got, c.bias)
			}
			if got := c.f.MinNormalExponent(); got != c.minNormal {
				t.Errorf("MinNormalExponent() = %d, want %d", got, c.minNormal)
			}
			if got := c.f.MinSubnormalExponent(); got != c.minSubnormal {
				t.Errorf("MinSubnormalExponent() = %d, want %d", got, c.minSubnormal)
			}
			if got := c.f.PackedWidth(); got != c.packedWidth {
				t.Errorf("PackedWidth() = %d, want %d", got, c.packedWidth)
			}
			if got := c.f.UnpackedExponentWidth(); got != c.unpackedExpWidth {
				t.Errorf("UnpackedExponentWidth() = %d, want %d", got, c.unpackedExpWidth)
			}
			if got := c.f.MaximumExponentDifference(); got != c.maxExponentDiff {
				t.Errorf("MaximumExponentDifference() = %d, want %d", got, c.maxExponentDiff)
			}
			if err := c.f.Valid(); err != nil {
				t.Errorf("Valid() = %v", err)
			}
		})
	}
}

func TestUnpackedExponentWidthCoversSubnormals(t *testing.T) {
	// The unpacked exponent must hold every normalised subnormal
	// exponent; the least of them is MinSubnormalExponent itself.
	for _, f := range []Format{Binary16, Binary32, Binary64} {
		e := f.UnpackedExponentWidth()
		low := -(int64(1) << (e - 1))
		if f.MinSubnormalExponent() < low {
			t.Errorf("%v: exponent width %d too narrow", f, e)
		}
		if e <= f.ExpBits {
			t.Errorf("%v: unpacked exponent width %d not wider than packed %d", f, e, f.ExpBits)
		}
	}
}

func TestBitHelpers(t *testing.T) {
	if got := BitsToRepresent(0); got != 0 {
		t.Errorf("BitsToRepresent(0) = %d", got)
	}
	if got := BitsToRepresent(1); got != 1 {
		t.Errorf("BitsToRepresent(1) = %d", got)
	}
	if got := BitsToRepresent(24); got != 5 {
		t.Errorf("BitsToRepresent(24) = %d", got)
	}
	if got := PositionOfLeadingOne(24); got != 4 {
		t.Errorf("PositionOfLeadingOne(24) = %d", got)
	}
	if got := PreviousPowerOfTwo(2); got != 1 {
		t.Errorf("PreviousPowerOfTwo(2) = %d", got)
	}
	if got := PreviousPowerOfTwo(27); got != 16 {
		t.Errorf("PreviousPowerOfTwo(27) = %d", got)
	}
	if got := PreviousPowerOfTwo(32); got != 16 {
		t.Errorf("PreviousPowerOfTwo(32) = %d", got)
	}
}
