package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// Fma computes leftMultiply * rightMultiply + addArgument with a
// single rounding.
func Fma[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	leftMultiply, rightMultiply, addArgument Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, leftMultiply))
	b.Precondition(Valid(b, f, rightMultiply))
	b.Precondition(Valid(b, f, addArgument))

	/* First multiply */
	arithmeticMultiplyResult := arithmeticMultiply(b, f, leftMultiply, rightMultiply)

	extendedFormat := backend.Format{ExpBits: f.ExpBits + 1, SigBits: f.SigBits * 2}
	b.Invariant(Valid(b, extendedFormat, arithmeticMultiplyResult))

	/* Then add */

	// The rounding mode doesn't matter: this is a strict extension.
	extendedAddArgument := ConvertFormat(b, f, extendedFormat, b.RTZ(), addArgument)

	knownInCorrectOrder := b.Bool(false)
	ec := addExponentCompare(b,
		b.SWidth(arithmeticMultiplyResult.Exponent)+1,
		b.UWidth(arithmeticMultiplyResult.Significand),
		arithmeticMultiplyResult.Exponent,
		extendedAddArgument.Exponent,
		knownInCorrectOrder)

	// The custom rounder flags do not apply across the format change.
	additionResult := arithmeticAdd(b, extendedFormat, rm,
		arithmeticMultiplyResult, extendedAddArgument, b.Bool(true), knownInCorrectOrder, ec).uf

	evenMoreExtendedFormat := backend.Format{
		ExpBits: extendedFormat.ExpBits + 1,
		SigBits: extendedFormat.SigBits + 2,
	}
	b.Invariant(Valid(b, evenMoreExtendedFormat, additionResult))

	/* Then round */
	roundedResult := Round(b, f, rm, additionResult)
	b.Invariant(Valid(b, f, roundedResult))

	// roundedResult is correct unless one of the product or the
	// addend is 0, Inf or NaN.  It may itself be zero from
	// cancellation or underflow, or infinite from rounding; if so it
	// has the correct sign.

	/* Finally, the special cases */

	// Zero carries a flag rather than a (min, 0) encoding, so
	// x*y + (+/-0) has to be handled by the addition special cases
	// and needs the product rounded to the target format.  A second
	// rounder is used just for this case.
	roundedMultiplyResult := Round(b, f, rm, arithmeticMultiplyResult)

	fullMultiplyResult := addMultiplySpecialCases(b, f, leftMultiply, rightMultiply,
		roundedMultiplyResult.Sign, roundedMultiplyResult)

	// The flags of the multiply must be judged on the arithmetic
	// result (special values, not overflow or underflow), while the
	// value used in the identity case is fullMultiplyResult.
	dummyZero := MakeZero(b, f, b.Bool(false))
	dummyValue := makeNumber(b, dummyZero.Sign, dummyZero.Exponent, dummyZero.Significand)

	multiplyResultWithSpecialCases := addMultiplySpecialCases(b, f, leftMultiply, rightMultiply,
		arithmeticMultiplyResult.Sign, dummyValue)

	result := addAdditionSpecialCasesWithID(b, f, rm,
		multiplyResultWithSpecialCases,
		fullMultiplyResult, // for the identity case
		addArgument,
		roundedResult,
		b.Bool(true))

	b.Postcondition(Valid(b, f, result))

	return result
}
