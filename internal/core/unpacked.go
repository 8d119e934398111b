package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// Unpacked is the working representation of a floating-point number.
// It differs from the packed encoding in four ways: NaN, Inf and Zero
// are explicit flags, the exponent is unbiased two's-complement, the
// hidden bit is explicit, and subnormals are normalised.  This makes
// numbers uniform and keeps the arithmetic compact.
//
// When a flag is set the exponent and significand hold the default
// values (the encoding of 1.0), so special values flow through the
// ordinary arithmetic paths and still produce well-formed numbers
// whose value is then discarded.
type Unpacked[P, U, S any] struct {
	NaN  P
	Inf  P
	Zero P

	Sign        P
	Exponent    S // unbiased, width Format.UnpackedExponentWidth
	Significand U // leading one explicit, width Format.UnpackedSignificandWidth
}

// iteUF is the ternary select on whole unpacked floats.
func iteUF[P, U, S, R any](b be[P, U, S, R], c P, l, r Unpacked[P, U, S]) Unpacked[P, U, S] {
	return Unpacked[P, U, S]{
		NaN:         b.ITE(c, l.NaN, r.NaN),
		Inf:         b.ITE(c, l.Inf, r.Inf),
		Zero:        b.ITE(c, l.Zero, r.Zero),
		Sign:        b.ITE(c, l.Sign, r.Sign),
		Exponent:    b.SITE(c, l.Exponent, r.Exponent),
		Significand: b.UITE(c, l.Significand, r.Significand),
	}
}

func defaultExponent[P, U, S, R any](b be[P, U, S, R], f backend.Format) S {
	return b.SZero(f.UnpackedExponentWidth())
}

func defaultSignificand[P, U, S, R any](b be[P, U, S, R], f backend.Format) U {
	return leadingOne(b, f.UnpackedSignificandWidth())
}

// leadingOne is the bit pattern 10...0 at the given width.
func leadingOne[P, U, S, R any](b be[P, U, S, R], w backend.Width) U {
	return b.UShl(b.UOne(w), b.ULit(w, uint64(w-1)))
}

// nanPattern is the canonical quiet NaN significand.
func nanPattern[P, U, S, R any](b be[P, U, S, R], w backend.Width) U {
	return leadingOne(b, w)
}

// MakeZero returns a signed zero.
func MakeZero[P, U, S, R any](b be[P, U, S, R], f backend.Format, sign P) Unpacked[P, U, S] {
	return Unpacked[P, U, S]{
		NaN: b.Bool(false), Inf: b.Bool(false), Zero: b.Bool(true),
		Sign: sign, Exponent: defaultExponent(b, f), Significand: defaultSignificand(b, f),
	}
}

// MakeInf returns a signed infinity.
func MakeInf[P, U, S, R any](b be[P, U, S, R], f backend.Format, sign P) Unpacked[P, U, S] {
	return Unpacked[P, U, S]{
		NaN: b.Bool(false), Inf: b.Bool(true), Zero: b.Bool(false),
		Sign: sign, Exponent: defaultExponent(b, f), Significand: defaultSignificand(b, f),
	}
}

// MakeNaN returns the NaN; its sign is always positive.
func MakeNaN[P, U, S, R any](b be[P, U, S, R], f backend.Format) Unpacked[P, U, S] {
	return Unpacked[P, U, S]{
		NaN: b.Bool(true), Inf: b.Bool(false), Zero: b.Bool(false),
		Sign: b.Bool(false), Exponent: defaultExponent(b, f), Significand: defaultSignificand(b, f),
	}
}

// makeNumber builds an ordinary (non-special) unpacked value.
func makeNumber[P, U, S, R any](b be[P, U, S, R], sign P, exponent S, significand U) Unpacked[P, U, S] {
	return Unpacked[P, U, S]{
		NaN: b.Bool(false), Inf: b.Bool(false), Zero: b.Bool(false),
		Sign: sign, Exponent: exponent, Significand: significand,
	}
}

// withSign copies uf with the sign replaced, except that the sign of
// NaN is sticky.
func withSign[P, U, S, R any](b be[P, U, S, R], uf Unpacked[P, U, S], sign P) Unpacked[P, U, S] {
	out := uf
	out.Sign = b.ITE(uf.NaN, uf.Sign, sign)
	return out
}

/*** Format constants as back-end values. ***/

func bias[P, U, S, R any](b be[P, U, S, R], f backend.Format) S {
	return b.SLit(f.UnpackedExponentWidth(), f.Bias())
}

func maxNormalExponent[P, U, S, R any](b be[P, U, S, R], f backend.Format) S {
	return b.SLit(f.UnpackedExponentWidth(), f.MaxNormalExponent())
}

func minNormalExponent[P, U, S, R any](b be[P, U, S, R], f backend.Format) S {
	return b.SLit(f.UnpackedExponentWidth(), f.MinNormalExponent())
}

func maxSubnormalExponent[P, U, S, R any](b be[P, U, S, R], f backend.Format) S {
	return b.SLit(f.UnpackedExponentWidth(), f.MaxSubnormalExponent())
}

func minSubnormalExponent[P, U, S, R any](b be[P, U, S, R], f backend.Format) S {
	return b.SLit(f.UnpackedExponentWidth(), f.MinSubnormalExponent())
}

/*** Range predicates. ***/

// inNormalRange tests minNormal <= exponent <= maxNormal; a true
// knownInFormat lets the upper test collapse.
func inNormalRange[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S], knownInFormat P) P {
	return b.And(
		b.SLe(minNormalExponent(b, f), uf.Exponent),
		b.Or(b.SLe(uf.Exponent, maxNormalExponent(b, f)), knownInFormat))
}

func inSubnormalRange[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S], knownInFormat P) P {
	upperBound := b.Not(b.SLe(minNormalExponent(b, f), uf.Exponent))
	return b.And(
		b.Or(b.SLe(minSubnormalExponent(b, f), uf.Exponent), knownInFormat),
		upperBound)
}

func inNormalOrSubnormalRange[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S], knownInFormat P) P {
	return b.Or(
		b.And(
			b.SLe(minSubnormalExponent(b, f), uf.Exponent),
			b.SLe(uf.Exponent, maxNormalExponent(b, f))),
		knownInFormat)
}

// getSubnormalAmount is the right shift needed before packing to
// represent a subnormal; zero for normal numbers.
func getSubnormalAmount[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) S {
	return maxS(b,
		b.SSub(minNormalExponent(b, f), uf.Exponent),
		b.SZero(b.SWidth(uf.Exponent)))
}

func isPositiveInf[P, U, S, R any](b be[P, U, S, R], uf Unpacked[P, U, S]) P {
	return b.And(uf.Inf, b.Not(uf.Sign))
}

func isNegativeInf[P, U, S, R any](b be[P, U, S, R], uf Unpacked[P, U, S]) P {
	return b.And(uf.Inf, uf.Sign)
}

/*** Structural operations. ***/

// extendUF widens the exponent by expExtension bits and the
// significand by sigExtension low zero bits.
func extendUF[P, U, S, R any](b be[P, U, S, R], uf Unpacked[P, U, S], expExtension, sigExtension backend.Width) Unpacked[P, U, S] {
	sw := b.UWidth(uf.Significand) + sigExtension
	sig := b.UExtend(uf.Significand, sigExtension)
	if sigExtension > 0 {
		sig = b.UShl(sig, b.ULit(sw, uint64(sigExtension)))
	}
	return Unpacked[P, U, S]{
		NaN: uf.NaN, Inf: uf.Inf, Zero: uf.Zero, Sign: uf.Sign,
		Exponent:    b.SExtend(uf.Exponent, expExtension),
		Significand: sig,
	}
}

// normaliseUp moves the leading one to the top of the significand,
// adjusting the exponent.  Must not be called on special values.
func normaliseUp[P, U, S, R any](b be[P, U, S, R], uf Unpacked[P, U, S]) Unpacked[P, U, S] {
	normal := normaliseShift(b, uf.Significand)

	exponentWidth := b.SWidth(uf.Exponent)
	checkLit(b.UWidth(normal.ShiftAmount) < exponentWidth, "normaliseUp shift amount too wide for exponent")

	signedAlignAmount := b.UToSigned(b.UResize(normal.ShiftAmount, exponentWidth))
	correctedExponent := b.SSub(uf.Exponent, signedAlignAmount)

	return makeNumber(b, uf.Sign, correctedExponent, normal.Normalised)
}

// normaliseUpDetectZero is normaliseUp with the all-zero significand
// mapped to a signed zero.
func normaliseUpDetectZero[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) Unpacked[P, U, S] {
	normal := normaliseShift(b, uf.Significand)

	exponentWidth := b.SWidth(uf.Exponent)
	checkLit(b.UWidth(normal.ShiftAmount) < exponentWidth, "normaliseUp shift amount too wide for exponent")

	signedAlignAmount := b.UToSigned(b.UResize(normal.ShiftAmount, exponentWidth))
	correctedExponent := b.SSub(uf.Exponent, signedAlignAmount)

	return iteUF(b, normal.IsZero,
		MakeZero(b, f, uf.Sign),
		makeNumber(b, uf.Sign, correctedExponent, normal.Normalised))
}

// Valid is the well-formedness predicate for a given format: at most
// one flag, defaults under flags, unsigned NaN, exponent in range,
// explicit leading one, and subnormal trailing zeros.  It does not
// hold at every intermediate point of the algorithms.
func Valid[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	exWidth := f.UnpackedExponentWidth()
	sigWidth := f.UnpackedSignificandWidth()

	checkLit(exWidth == b.SWidth(uf.Exponent) && sigWidth == b.UWidth(uf.Significand),
		"valid: unpacked widths do not match format")

	atMostOneFlag := b.And(
		b.Not(b.And(uf.NaN, uf.Inf)),
		b.And(b.Not(b.And(uf.NaN, uf.Zero)), b.Not(b.And(uf.Inf, uf.Zero))))

	oneFlag := b.Or(uf.NaN, b.Or(uf.Inf, uf.Zero))
	exponentIsDefault := b.SEq(defaultExponent(b, f), uf.Exponent)
	significandIsDefault := b.UEq(defaultSignificand(b, f), uf.Significand)
	flagImpliesDefaults := b.And(
		b.Implies(oneFlag, exponentIsDefault),
		b.Implies(oneFlag, significandIsDefault))

	nanImpliesSignFalse := b.Implies(uf.NaN, b.Not(uf.Sign))

	exponentInRange := inNormalOrSubnormalRange(b, f, uf, b.Bool(false))

	hasLeadingOne := b.Not(b.UIsAllZeros(b.UAndBits(leadingOne(b, sigWidth), uf.Significand)))

	subnormalAmount := getSubnormalAmount(b, f, uf)
	b.Invariant(b.And(
		b.SLe(b.SZero(exWidth), subnormalAmount),
		b.SLe(subnormalAmount, b.SLit(exWidth, int64(sigWidth)))))

	mask := orderEncodeU(b, b.UMatchWidth(b.SToUnsigned(subnormalAmount), uf.Significand))
	correctlyAbbreviated := b.UIsAllZeros(b.UAndBits(mask, uf.Significand))
	subnormalImpliesTrailingZeros := b.Implies(inSubnormalRange(b, f, uf, b.Bool(false)), correctlyAbbreviated)

	return b.And(atMostOneFlag,
		b.And(flagImpliesDefaults,
			b.And(nanImpliesSignFalse,
				b.And(exponentInRange,
					b.And(hasLeadingOne, subnormalImpliesTrailingZeros)))))
}
