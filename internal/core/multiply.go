package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// addMultiplySpecialCases fixes up NaN, infinity and zero around a
// multiplication.  The sign is an argument because FMA needs the sign
// of the arithmetic product rather than of the rounded result.
func addMultiplySpecialCases[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S], sign P, multiplyResult Unpacked[P, U, S]) Unpacked[P, U, S] {

	eitherArgumentNaN := b.Or(left.NaN, right.NaN)
	generateNaN := b.Or(
		b.And(left.Inf, right.Zero),
		b.And(left.Zero, right.Inf))
	isNaN := b.Or(eitherArgumentNaN, generateNaN)

	isInf := b.Or(left.Inf, right.Inf)
	isZero := b.Or(left.Zero, right.Zero)

	return iteUF(b, isNaN,
		MakeNaN(b, f),
		iteUF(b, isInf,
			MakeInf(b, f, sign),
			iteUF(b, isZero,
				MakeZero(b, f, sign),
				multiplyResult)))
}

// arithmeticMultiply computes the product of two ordinary numbers in
// the extended format (e+1, 2s).
func arithmeticMultiply[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	multiplySign := b.Xor(left.Sign, right.Sign)

	significandProduct := expandingMultiplyU(b, left.Significand, right.Significand)

	spWidth := b.UWidth(significandProduct)
	topBit := b.UExtract(significandProduct, spWidth-1, spWidth-1)
	nextBit := b.UExtract(significandProduct, spWidth-2, spWidth-2)

	// Alignment of the inputs means [1,2) * [1,2) = [1,4), so at
	// least one of the two MSBs is set.
	topBitSet := b.UIsAllOnes(topBit)
	b.Invariant(b.Or(topBitSet, b.UIsAllOnes(nextBit)))

	alignedSignificand := conditionalLeftShiftOneU(b, b.Not(topBitSet), significandProduct)

	alignedExponent := expandingAddWithCarryInS(b, left.Exponent, right.Exponent, topBitSet)

	extendedFormat := backend.Format{ExpBits: f.ExpBits + 1, SigBits: f.SigBits * 2}
	multiplyResult := makeNumber(b, multiplySign, alignedExponent, alignedSignificand)

	b.Postcondition(Valid(b, extendedFormat, multiplyResult))

	return multiplyResult
}

// Multiply computes left * right, rounded once.
func Multiply[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	multiplyResult := arithmeticMultiply(b, f, left, right)

	roundedMultiplyResult := Round(b, f, rm, multiplyResult)

	result := addMultiplySpecialCases(b, f, left, right, roundedMultiplyResult.Sign, roundedMultiplyResult)

	b.Postcondition(Valid(b, f, result))

	return result
}
