package exec

import "testing"

var b Backend

func TestUnsignedBasics(t *testing.T) {
	x := b.ULit(8, 0xA5)
	if got := b.UWidth(x); got != 8 {
		t.Fatalf("width = %d", got)
	}
	if got := b.UAdd(x, b.ULit(8, 0x5A)); got.V != 0xFF {
		t.Errorf("add = 0x%X", got.V)
	}
	if got := b.UModAdd(b.UAllOnes(8), b.UOne(8)); got.V != 0 {
		t.Errorf("modular add wrap = 0x%X", got.V)
	}
	if got := b.UModNeg(b.ULit(8, 1)); got.V != 0xFF {
		t.Errorf("modular negate = 0x%X", got.V)
	}
	if got := b.UNotBits(b.UZero(8)); got.V != 0xFF {
		t.Errorf("not = 0x%X", got.V)
	}
}

func TestCheckedOverflowPanics(t *testing.T) {
	cases := []struct {
		name string
		f    func()
	}{
		{"add", func() { b.UAdd(b.UAllOnes(8), b.UOne(8)) }},
		{"sub", func() { b.USub(b.UZero(8), b.UOne(8)) }},
		{"shl", func() { b.UShl(b.ULit(8, 0x80), b.UOne(8)) }},
		{"widthMismatch", func() { b.UAdd(b.UZero(8), b.UZero(9)) }},
		{"sInc", func() { b.SInc(b.SLit(8, 127)) }},
		{"extract", func() { b.UExtract(b.UZero(8), 8, 0) }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("no panic")
				}
			}()
			c.f()
		})
	}
}

func TestSignExtendingShift(t *testing.T) {
	// 0x80 at width 8 is negative, so the extension fills with ones.
	x := b.ULit(8, 0x80)
	if got := b.USignExtShr(x, b.ULit(8, 3)); got.V != 0xF0 {
		t.Errorf("signExtShr(0x80, 3) = 0x%X, want 0xF0", got.V)
	}
	// Shifting past the width saturates on the sign bit.
	if got := b.USignExtShr(x, b.ULit(8, 200)); got.V != 0xFF {
		t.Errorf("signExtShr(0x80, 200) = 0x%X, want 0xFF", got.V)
	}
	if got := b.USignExtShr(b.ULit(8, 0x40), b.ULit(8, 200)); got.V != 0 {
		t.Errorf("signExtShr(0x40, 200) = 0x%X, want 0", got.V)
	}
}

func TestStructuralOps(t *testing.T) {
	x := b.ULit(12, 0xABC)
	if got := b.UExtract(x, 11, 8); got.W != 4 || got.V != 0xA {
		t.Errorf("extract = %+v", got)
	}
	if got := b.UAppend(b.ULit(4, 0xA), b.ULit(8, 0xBC)); got.W != 12 || got.V != 0xABC {
		t.Errorf("append = %+v", got)
	}
	if got := b.UContract(b.ULit(12, 0xBC), 4); got.W != 8 || got.V != 0xBC {
		t.Errorf("contract = %+v", got)
	}
	if got := b.UResize(x, 8); got.W != 8 || got.V != 0xBC {
		t.Errorf("resize down = %+v", got)
	}
	if got := b.UMatchWidth(b.ULit(4, 0xF), b.UZero(16)); got.W != 16 || got.V != 0xF {
		t.Errorf("matchWidth = %+v", got)
	}
}

func TestSignedness(t *testing.T) {
	// 0xFF at width 8 reinterprets as -1.
	if got := b.UToSigned(b.ULit(8, 0xFF)); got.V != -1 {
		t.Errorf("toSigned(0xFF) = %d", got.V)
	}
	if got := b.SToUnsigned(b.SLit(8, -1)); got.V != 0xFF {
		t.Errorf("toUnsigned(-1) = 0x%X", got.V)
	}
	// Sign extension preserves the value.
	if got := b.SExtend(b.SLit(8, -5), 4); got.W != 12 || got.V != -5 {
		t.Errorf("sextend = %+v", got)
	}
	// Resize sign-extends from the new top bit.
	if got := b.SResize(b.SLit(12, 0xFF), 8); got.V != -1 {
		t.Errorf("sresize = %+v", got)
	}
	if got := b.SSignExtShr(b.SLit(8, -5), b.SLit(8, 1)); got.V != -3 {
		t.Errorf("arithmetic shift of -5 = %d, want -3", got.V)
	}
	if got := b.SModNeg(b.SLit(8, -128)); got.V != -128 {
		t.Errorf("modular negate of min = %d", got.V)
	}
}

func TestRoundingModeIdentity(t *testing.T) {
	if !b.RMEq(b.RNE(), RNE) || b.RMEq(b.RNE(), b.RTZ()) {
		t.Errorf("rounding mode equality broken")
	}
	names := map[RM]string{RNE: "RNE", RNA: "RNA", RTP: "RTP", RTN: "RTN", RTZ: "RTZ"}
	for m, want := range names {
		if m.String() != want {
			t.Errorf("String() = %s, want %s", m.String(), want)
		}
	}
}
