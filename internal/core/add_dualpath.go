package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// The classic two-path adder.  The near path is only needed for
// effective subtractions with an exponent difference of at most one,
// the only case that can cancel more than one bit.  Kept alongside the
// compacted adder for cross-checking and for instantiations that
// prefer its shape.
func dualPathArithmeticAdd[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	extendedFormat := backend.Format{ExpBits: f.ExpBits + 1, SigBits: f.SigBits + 2}

	// Compute the exponent difference and swap the arguments if needed.
	initialExponentDifference := expandingSubtractS(b, left.Exponent, right.Exponent)
	edWidth := b.SWidth(initialExponentDifference)
	edWidthZero := b.SZero(edWidth)
	orderingCorrect := b.Or(
		b.SGt(initialExponentDifference, edWidthZero),
		b.And(b.SEq(initialExponentDifference, edWidthZero),
			b.UGe(left.Significand, right.Significand)))

	larger := iteUF(b, orderingCorrect, left, right)
	smaller := iteUF(b, orderingCorrect, right, left)
	exponentDifference := b.SITE(orderingCorrect,
		initialExponentDifference,
		b.SNeg(initialExponentDifference))

	resultSign := b.ITE(orderingCorrect, left.Sign, b.Xor(b.Not(isAdd), right.Sign))

	effectiveAdd := b.Xor(b.Xor(larger.Sign, smaller.Sign), isAdd)

	// Room for the carry plus guard and sticky bits.
	lsig := b.UAppend(b.UExtend(larger.Significand, 1), b.UZero(2))
	ssig := b.UAppend(b.UExtend(smaller.Significand, 1), b.UZero(2))

	farPath := b.Or(b.SGt(exponentDifference, b.SOne(edWidth)), effectiveAdd)

	// Far path: align.  Negate before the shift so that the sign
	// extension does the work.
	negatedSmaller := b.UITE(effectiveAdd, ssig, b.UModNeg(ssig))

	shiftAmount := b.UResize(b.SToUnsigned(exponentDifference), b.UWidth(ssig))

	negatedAlignedSmaller := b.USignExtShr(negatedSmaller, shiftAmount)
	// Has to be separate, otherwise the align up may convert it to
	// the guard bit.
	shiftedStickyBit := rightShiftStickyBit(b, negatedSmaller, shiftAmount)

	// Far path: sum and realign.
	sum := b.UModAdd(lsig, negatedAlignedSmaller)

	sumWidth := b.UWidth(sum)
	topBit := b.UExtract(sum, sumWidth-1, sumWidth-1)
	centerBit := b.UExtract(sum, sumWidth-2, sumWidth-2)

	noOverflow := b.UIsAllZeros(topBit) // only correct for an effective add
	noCancel := b.UIsAllOnes(centerBit)

	one := b.UOne(sumWidth)
	alignedSum := b.UITE(effectiveAdd,
		b.UITE(noOverflow,
			sum,
			b.UOrBits(b.UShr(sum, one), b.UAndBits(sum, one))), // cheap sticky right shift
		b.UITE(noCancel,
			sum,
			b.UModShl(sum, one))) // when this loses data the result is unused

	extendedLargerExponent := b.SExtend(larger.Exponent, 1)
	correctedExponent := b.SITE(effectiveAdd,
		b.SITE(noOverflow, extendedLargerExponent, b.SInc(extendedLargerExponent)),
		b.SITE(noCancel, extendedLargerExponent, b.SDec(extendedLargerExponent)))

	farPathResult := makeNumber(b, resultSign, correctedExponent,
		b.UContract(b.UOrBits(alignedSum, shiftedStickyBit), 1))

	// Near path: align by at most one.
	exponentDifferenceAllZeros := b.SIsAllZeros(exponentDifference)
	nearAlignedSmaller := b.UITE(exponentDifferenceAllZeros, ssig, b.UShr(ssig, b.UOne(b.UWidth(ssig))))

	// Near path: subtract and realign.
	nearSum := b.USub(lsig, nearAlignedSmaller)

	fullCancel := b.UIsAllZeros(nearSum)
	nearNoCancel := b.UIsAllOnes(b.UExtract(nearSum, sumWidth-2, sumWidth-2))

	// When this is used the cut bits are all zero.
	choppedNearSum := b.UExtract(nearSum, sumWidth-3, 1)
	cancellation := makeNumber(b, resultSign, b.SDec(larger.Exponent), choppedNearSum)

	nearPathResult := makeNumber(b, resultSign, extendedLargerExponent, b.UContract(nearSum, 1))

	additionResult := iteUF(b, farPath,
		farPathResult,
		iteUF(b, fullCancel,
			MakeZero(b, extendedFormat, b.RMEq(rm, b.RTN())),
			iteUF(b, nearNoCancel,
				nearPathResult,
				extendUF(b, normaliseUp(b, cancellation), 1, 2))))

	b.Postcondition(Valid(b, extendedFormat, additionResult))

	return additionResult
}

// DualPathAdd is Add computed with the two-path adder and the general
// rounder.
func DualPathAdd[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	additionResult := dualPathArithmeticAdd(b, f, rm, left, right, isAdd)

	roundedAdditionResult := Round(b, f, rm, additionResult)

	result := addAdditionSpecialCases(b, f, rm, left, right, roundedAdditionResult, isAdd)

	b.Postcondition(Valid(b, f, result))

	return result
}
