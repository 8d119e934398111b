package backend

import "fmt"

// Format describes an IEEE-754 binary interchange format: the width of
// the exponent field and the width of the significand including the
// hidden bit.
type Format struct {
	ExpBits Width // exponent field width, >= 2
	SigBits Width // significand width including the hidden bit, >= 2
}

// The usual interchange formats.
var (
	Binary16 = Format{ExpBits: 5, SigBits: 11}
	Binary32 = Format{ExpBits: 8, SigBits: 24}
	Binary64 = Format{ExpBits: 11, SigBits: 53}
)

func (f Format) String() string {
	return fmt.Sprintf("fp(%d,%d)", f.ExpBits, f.SigBits)
}

// PackedWidth is the total width of the packed encoding:
// [sign:1][exponent:e][fraction:s-1].
func (f Format) PackedWidth() Width { return 1 + f.ExpBits + (f.SigBits - 1) }

// PackedExponentWidth is the exponent field width of the packed encoding.
func (f Format) PackedExponentWidth() Width { return f.ExpBits }

// PackedSignificandWidth is the fraction width of the packed encoding,
// with the hidden bit omitted.
func (f Format) PackedSignificandWidth() Width { return f.SigBits - 1 }

// Bias is the IEEE-754 exponent bias, 2^(e-1) - 1.
func (f Format) Bias() int64 { return (int64(1) << (f.ExpBits - 1)) - 1 }

// MaxNormalExponent is the largest unbiased exponent of a normal number.
func (f Format) MaxNormalExponent() int64 { return f.Bias() }

// MinNormalExponent is the smallest unbiased exponent of a normal number.
func (f Format) MinNormalExponent() int64 { return 1 - f.Bias() }

// MaxSubnormalExponent is the largest unbiased exponent of a subnormal.
func (f Format) MaxSubnormalExponent() int64 { return -f.Bias() }

// MinSubnormalExponent is the unbiased exponent of the least subnormal.
func (f Format) MinSubnormalExponent() int64 {
	return f.MaxSubnormalExponent() - int64(f.SigBits-2)
}

// MaximumExponentDifference is the span from the least subnormal
// exponent to the greatest normal exponent.  Remainder iterates over it.
func (f Format) MaximumExponentDifference() Width {
	return Width(f.MaxNormalExponent() - f.MinSubnormalExponent())
}

// UnpackedExponentWidth is the width of the unbiased two's-complement
// exponent in the unpacked representation: the smallest width that can
// hold every normalised subnormal exponent.  Always wider than ExpBits.
func (f Format) UnpackedExponentWidth() Width {
	width := f.ExpBits

	// One more value above zero than below; the all-ones packed
	// exponent never appears unpacked, but normalising the least
	// subnormal pushes the exponent down by up to SigBits-1.
	minimumExponent := ((uint64(1) << (f.ExpBits - 1)) - 2) + uint64(f.SigBits-1)

	for (uint64(1) << (width - 1)) < minimumExponent {
		width++
	}
	return width
}

// UnpackedSignificandWidth is the significand width of the unpacked
// representation; the hidden bit is explicit so it equals SigBits.
func (f Format) UnpackedSignificandWidth() Width { return f.SigBits }

// Valid reports whether the format is one the engine can work with.
func (f Format) Valid() error {
	if f.ExpBits < 2 || f.SigBits < 2 {
		return fmt.Errorf("format %v: exponent and significand widths must be at least 2", f)
	}
	if f.ExpBits > 30 {
		return fmt.Errorf("format %v: exponent width too large", f)
	}
	if f.UnpackedExponentWidth() > f.SigBits {
		return fmt.Errorf("format %v: significand too narrow for the unpacked exponent", f)
	}
	return nil
}
