package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// Unpack decodes a packed IEEE-754 word into the working
// representation.  NaN payloads are discarded: any NaN encoding maps
// to the single NaN of the unpacked form.
func Unpack[P, U, S, R any](b be[P, U, S, R], f backend.Format, packed U) Unpacked[P, U, S] {
	pWidth := f.PackedWidth()
	exWidth := f.PackedExponentWidth()
	sigWidth := f.PackedSignificandWidth()

	checkLit(b.UWidth(packed) == pWidth, "unpack: packed width does not match format")

	packedSignificand := b.UExtract(packed, sigWidth-1, 0)
	packedExponent := b.UExtract(packed, sigWidth+exWidth-1, sigWidth)
	sign := b.UIsAllOnes(b.UExtract(packed, pWidth-1, sigWidth+exWidth))

	unpackedExWidth := f.UnpackedExponentWidth()
	unpackedSigWidth := f.UnpackedSignificandWidth()

	checkLit(unpackedExWidth > exWidth, "unpack: unpacked exponent not wider than packed")
	biasedExponent := b.SSub(
		b.UToSigned(b.UExtend(packedExponent, unpackedExWidth-exWidth)),
		bias(b, f))

	significandWithLeadingZero := b.UExtend(packedSignificand, unpackedSigWidth-sigWidth)
	significandWithLeadingOne := b.UOrBits(leadingOne(b, unpackedSigWidth), significandWithLeadingZero)

	ufNormal := makeNumber(b, sign, biasedExponent, significandWithLeadingOne)
	ufSubnormalBase := makeNumber(b, sign, minNormalExponent(b, f), significandWithLeadingZero)

	zeroExponent := b.UIsAllZeros(packedExponent)
	onesExponent := b.UIsAllOnes(packedExponent)
	zeroSignificand := b.UIsAllZeros(significandWithLeadingZero)

	isZero := b.And(zeroExponent, zeroSignificand)
	isSubnormal := b.And(zeroExponent, b.Not(zeroSignificand))
	isNormal := b.And(b.Not(zeroExponent), b.Not(onesExponent))
	isInf := b.And(onesExponent, zeroSignificand)
	isNaN := b.And(onesExponent, b.Not(zeroSignificand))

	b.Invariant(b.Or(isZero, b.Or(isSubnormal, b.Or(isNormal, b.Or(isInf, isNaN)))))

	uf := iteUF(b, isNaN,
		MakeNaN(b, f),
		iteUF(b, isInf,
			MakeInf(b, f, sign),
			iteUF(b, isZero,
				MakeZero(b, f, sign),
				iteUF(b, b.Not(isSubnormal),
					ufNormal,
					normaliseUp(b, ufSubnormalBase)))))

	b.Postcondition(Valid(b, f, uf))

	return uf
}

// Pack encodes an unpacked float into the standard
// [sign:1][exponent:e][fraction:s-1] layout.  NaN packs to the
// canonical quiet NaN.
func Pack[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) U {
	b.Precondition(Valid(b, f, uf))

	packedSign := b.UFromProp(uf.Sign)

	// Exponent
	packedExWidth := f.PackedExponentWidth()

	normalRange := inNormalRange(b, f, uf, b.Bool(true))
	b.Invariant(b.Or(normalRange, inSubnormalRange(b, f, uf, b.Bool(true)))) // Default values ensure this.
	subnormalRange := b.Not(normalRange)

	biasedExp := b.SAdd(uf.Exponent, bias(b, f))
	// Correct for normal values only; subnormals may still be negative.
	packedBiasedExp := b.UExtract(b.SToUnsigned(biasedExp), packedExWidth-1, 0)

	maxExp := b.UAllOnes(packedExWidth)
	minExp := b.UZero(packedExWidth)

	hasMaxExp := b.Or(uf.NaN, uf.Inf)
	hasMinExp := b.Or(uf.Zero, subnormalRange)
	hasFixedExp := b.Or(hasMaxExp, hasMinExp)

	packedExp := b.UITE(hasFixedExp,
		b.UITE(hasMaxExp, maxExp, minExp),
		packedBiasedExp)

	// Significand
	packedSigWidth := f.PackedSignificandWidth()
	unpackedSignificand := uf.Significand

	checkLit(packedSigWidth == b.UWidth(unpackedSignificand)-1, "pack: significand width mismatch")
	dropLeadingOne := b.UExtract(unpackedSignificand, packedSigWidth-1, 0)
	correctedSubnormal := b.UExtract(
		b.UShr(unpackedSignificand,
			b.UMatchWidth(b.SToUnsigned(getSubnormalAmount(b, f, uf)), unpackedSignificand)),
		packedSigWidth-1, 0)

	hasFixedSignificand := b.Or(uf.NaN, b.Or(uf.Inf, uf.Zero))

	packedSig := b.UITE(hasFixedSignificand,
		b.UITE(uf.NaN,
			nanPattern(b, packedSigWidth),
			b.UZero(packedSigWidth)),
		b.UITE(normalRange,
			dropLeadingOne,
			correctedSubnormal))

	packed := b.UAppend(b.UAppend(packedSign, packedExp), packedSig)

	checkLit(b.UWidth(packed) == f.PackedWidth(), "pack: packed width mismatch")

	return packed
}
