package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

func addRemainderSpecialCases[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right, remainderResult Unpacked[P, U, S]) Unpacked[P, U, S] {

	eitherArgumentNaN := b.Or(left.NaN, right.NaN)
	generateNaN := b.Or(left.Inf, right.Zero)
	isNaN := b.Or(eitherArgumentNaN, generateNaN)

	passThrough := b.Or(
		b.And(b.Not(b.Or(left.Inf, left.NaN)), right.Inf),
		left.Zero)

	return iteUF(b, isNaN,
		MakeNaN(b, f),
		iteUF(b, passThrough,
			left,
			remainderResult))
}

/* Let left = x*2^e, right = y*2^f with x, y in [1,2).
 *
 *  rem = x*2^e - (y*2^f * int((x*2^e) / (y*2^f)))
 *      = (x*2^{e-f} - (y * int((x/y) * 2^{e-f}))) * 2^f
 *
 * For e - f >= 0 run a restoring divider for e - f steps to find the
 * partial remainder; one further step yields the integer quotient's
 * LSB (the even flag for RNE), one more the guard bit, and the
 * remaining tail the sticky bit.  If the rounding decision says the
 * integer quotient should round up, one final subtraction of right
 * (with left's sign) corrects the candidate.
 */
func arithmeticRemainder[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	remainderSign := left.Sign

	exponentDifference := expandingSubtractS(b, left.Exponent, right.Exponent)
	edWidth := b.SWidth(exponentDifference)

	// Extend for the divide steps.
	lsig := b.UExtend(left.Significand, 1)
	rsig := b.UExtend(right.Significand, 1)

	running := divideStep(b, lsig, rsig).Result

	maxDifference := f.MaximumExponentDifference()
	for i := maxDifference - 1; i > 0; i-- {
		needPrevious := b.SGt(exponentDifference, b.SLit(edWidth, int64(i)))
		r := b.UITE(needPrevious, running, lsig)
		running = divideStep(b, r, rsig).Result
	}

	// The zero exponent difference case is a little different: both
	// the quotient bit (for the even flag) and the remainder matter.
	lsbRoundActive := b.SGt(exponentDifference, b.SNeg(b.SOne(edWidth))) // i.e. >= 0

	needPrevious := b.SGt(exponentDifference, b.SZero(edWidth))
	r0 := b.UITE(needPrevious, running, lsig)
	dsr := divideStep(b, r0, rsig)

	integerEven := b.Or(b.Not(lsbRoundActive), b.Not(dsr.RemainderNonzero))

	// The same again for the guard flag.
	guardRoundActive := b.SGt(exponentDifference, b.SNeg(b.SLit(edWidth, 2))) // i.e. >= -1

	rm1 := b.UITE(lsbRoundActive, dsr.Result, lsig)
	dsrg := divideStep(b, rm1, rsig)

	guardBit := b.And(guardRoundActive, dsrg.RemainderNonzero)

	stickyBit := b.Not(b.UIsAllZeros(b.UITE(guardRoundActive, dsrg.Result, lsig)))

	// The base result if lsbRoundActive; divideStep shifts left as
	// its last action so the extract is safe.
	reconstruct := makeNumber(b, remainderSign, right.Exponent,
		b.UExtract(dsr.Result, b.UWidth(lsig)-1, 1))

	candidateResult := iteUF(b, lsbRoundActive,
		normaliseUpDetectZero(b, f, reconstruct),
		left)

	// Whether the integer multiple rounds up.
	bonusSubtract := roundingDecision(b, rm, remainderSign, integerEven,
		guardBit, stickyBit, b.Bool(false))

	// The integer has sign left ^ right, so what gets subtracted has
	// left's sign.
	signCorrectedRight := withSign(b, right, left.Sign)
	remainderResult := iteUF(b, bonusSubtract,
		Add(b, f, rm, candidateResult, signCorrectedRight, b.Bool(false)),
		candidateResult)

	b.Postcondition(Valid(b, f, remainderResult))

	return remainderResult
}

// RemainderWithRounding computes the remainder under an explicit
// rounding mode for the integer quotient.
func RemainderWithRounding[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	remainderResult := arithmeticRemainder(b, f, rm, left, right)

	result := addRemainderSpecialCases(b, f, left, right, remainderResult)

	b.Postcondition(Valid(b, f, result))

	return result
}

// Remainder is the IEEE-754 remainder; the quotient is always rounded
// to nearest, ties to even.
func Remainder[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) Unpacked[P, U, S] {
	return RemainderWithRounding(b, f, b.RNE(), left, right)
}
