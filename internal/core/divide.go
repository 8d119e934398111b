package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

func addDivideSpecialCases[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S], sign P, divideResult Unpacked[P, U, S]) Unpacked[P, U, S] {

	eitherArgumentNaN := b.Or(left.NaN, right.NaN)
	generateNaN := b.Or(
		b.And(left.Inf, right.Inf),
		b.And(left.Zero, right.Zero))
	isNaN := b.Or(eitherArgumentNaN, generateNaN)

	isInf := b.Or(
		b.And(b.Not(left.Zero), right.Zero),
		b.And(left.Inf, b.Not(right.Inf)))

	isZero := b.Or(
		b.And(b.Not(left.Inf), right.Inf),
		b.And(left.Zero, b.Not(right.Zero)))

	return iteUF(b, isNaN,
		MakeNaN(b, f),
		iteUF(b, isInf,
			MakeInf(b, f, sign),
			iteUF(b, isZero,
				MakeZero(b, f, sign),
				divideResult)))
}

// arithmeticDivide computes the quotient of two ordinary numbers in
// the extended format (e+2, s+2).  Two extra exponent bits are needed:
// very-large-normal / very-small-subnormal exceeds the usual one-bit
// margin because the exponent range is asymmetric.
func arithmeticDivide[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	divideSign := b.Xor(left.Sign, right.Sign)

	exponentDiff := expandingSubtractS(b, left.Exponent, right.Exponent)

	// We need significandWidth + 1 bits in the result but the top one
	// may cancel, so add two bits.
	extendedNumerator := b.UAppend(left.Significand, b.UZero(2))
	extendedDenominator := b.UAppend(right.Significand, b.UZero(2))

	divided := fixedPointDivide(b, extendedNumerator, extendedDenominator)

	resWidth := b.UWidth(divided.Result)
	topBit := b.UExtract(divided.Result, resWidth-1, resWidth-1)
	nextBit := b.UExtract(divided.Result, resWidth-2, resWidth-2)

	// [1,2) / [1,2) = [0.5,2); the top bit is set iff the numerator's
	// significand is at least the denominator's.
	topBitSet := b.UIsAllOnes(topBit)
	b.Invariant(b.Or(topBitSet, b.UIsAllOnes(nextBit)))
	b.Invariant(b.Iff(topBitSet, b.UGe(left.Significand, right.Significand)))

	alignedExponent := conditionalDecrementS(b, b.Not(topBitSet), exponentDiff)
	alignedSignificand := conditionalLeftShiftOneU(b, b.Not(topBitSet), divided.Result)

	// The sticky bit must be attached after the alignment.
	finishedSignificand := b.UOrBits(alignedSignificand,
		b.UExtend(b.UFromProp(divided.RemainderNonzero), resWidth-1))

	divideResult := makeNumber(b, divideSign, b.SExtend(alignedExponent, 1), finishedSignificand)

	extendedFormat := backend.Format{ExpBits: f.ExpBits + 2, SigBits: f.SigBits + 2}
	b.Postcondition(Valid(b, extendedFormat, divideResult))

	return divideResult
}

// Divide computes left / right, rounded once.
func Divide[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	divideResult := arithmeticDivide(b, f, left, right)

	roundedDivideResult := Round(b, f, rm, divideResult)

	result := addDivideSpecialCases(b, f, left, right, roundedDivideResult.Sign, roundedDivideResult)

	b.Postcondition(Valid(b, f, result))

	return result
}
