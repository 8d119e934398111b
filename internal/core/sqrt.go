package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

func addSqrtSpecialCases[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	uf Unpacked[P, U, S], sign P, sqrtResult Unpacked[P, U, S]) Unpacked[P, U, S] {

	generateNaN := b.And(uf.Sign, b.Not(uf.Zero))
	isNaN := b.Or(uf.NaN, generateNaN)

	isInf := b.And(uf.Inf, b.Not(uf.Sign))

	isZero := uf.Zero

	return iteUF(b, isNaN,
		MakeNaN(b, f),
		iteUF(b, isInf,
			MakeInf(b, f, b.Bool(false)),
			iteUF(b, isZero,
				MakeZero(b, f, sign),
				sqrtResult)))
}

// arithmeticSqrt computes the root of an ordinary non-negative number
// in the extended format (e, s+2).
func arithmeticSqrt[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	uf Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, uf))

	sqrtSign := uf.Sign

	// Halve the exponent.  The arithmetic right shift rounds down for
	// positive and away for negative, matching
	//   sqrt(1.s * 2^{-(2n+1)}) = sqrt(1.s * 2) * 2^{-(n+1)}
	exponent := uf.Exponent
	exponentWidth := b.SWidth(exponent)
	exponentEven := b.SIsAllZeros(b.SAndBits(exponent, b.SOne(exponentWidth)))
	exponentHalved := b.SSignExtShr(exponent, b.SOne(exponentWidth))

	// Extend to allow alignment and pad so the result has a guard bit.
	alignedSignificand := conditionalLeftShiftOneU(b, b.Not(exponentEven),
		b.UAppend(b.UExtend(uf.Significand, 1), b.UZero(1)))

	sqrtd := fixedPointSqrt(b, alignedSignificand)

	resWidth := b.UWidth(sqrtd.Result)
	topBit := b.UExtract(sqrtd.Result, resWidth-1, resWidth-1)
	guardBit := b.UExtract(sqrtd.Result, 0, 0)

	// The input is in [1,4) so the result is in [1,2), and a square
	// root can never fall exactly between two representable numbers.
	b.Invariant(b.UIsAllOnes(topBit))
	b.Invariant(b.Implies(b.UIsAllOnes(guardBit), sqrtd.RemainderNonzero))

	finishedSignificand := b.UAppend(sqrtd.Result, b.UFromProp(sqrtd.RemainderNonzero))

	sqrtResult := makeNumber(b, sqrtSign, exponentHalved, finishedSignificand)

	extendedFormat := backend.Format{ExpBits: f.ExpBits, SigBits: f.SigBits + 2}
	b.Postcondition(Valid(b, extendedFormat, sqrtResult))

	return sqrtResult
}

// Sqrt computes the square root, rounded once.
func Sqrt[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	uf Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, uf))

	sqrtResult := arithmeticSqrt(b, f, uf)

	// Halving the exponent means no overflow, underflow or subnormal
	// output.  The largest value arithmeticSqrt can produce is
	// 111...111:0:1 (guard and sticky last), so only rounding towards
	// the sign can carry out of the significand.
	known := KnownFlags[P]{
		NoOverflow:     b.Bool(true),
		NoUnderflow:    b.Bool(true),
		Exact:          b.Bool(false),
		SubnormalExact: b.Bool(true),
		NoSignificandOverflow: b.Not(b.Or(
			b.And(b.RMEq(rm, b.RTP()), b.Not(sqrtResult.Sign)),
			b.And(b.RMEq(rm, b.RTN()), sqrtResult.Sign))),
	}
	roundedSqrtResult := CustomRound(b, f, rm, sqrtResult, known)

	result := addSqrtSpecialCases(b, f, uf, roundedSqrtResult.Sign, roundedSqrtResult)

	b.Postcondition(Valid(b, f, result))

	return result
}
