package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// SmtlibEqual is structural equality: NaN equals NaN and the two
// zeros differ.  It relies on the default exponents, significands and
// signs of the unpacked form.
func SmtlibEqual[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) P {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	flagsEqual := b.And(b.Iff(left.NaN, right.NaN),
		b.And(b.Iff(left.Inf, right.Inf),
			b.And(b.Iff(left.Zero, right.Zero),
				b.Iff(left.Sign, right.Sign))))

	flagsAndExponent := b.And(flagsEqual, b.SEq(left.Exponent, right.Exponent))

	// Avoid instantiating the significand comparison unless needed.
	return b.ITE(flagsAndExponent,
		b.UEq(left.Significand, right.Significand),
		b.Bool(false))
}

// IEEE754Equal is value equality: comparisons with NaN are false and
// the two zeros are equal.
func IEEE754Equal[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) P {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	neitherNaN := b.And(b.Not(left.NaN), b.Not(right.NaN))
	bothZero := b.And(left.Zero, right.Zero)
	neitherZero := b.And(b.Not(left.Zero), b.Not(right.Zero))

	flagsAndExponent := b.And(neitherNaN,
		b.Or(bothZero,
			b.And(neitherZero,
				b.And(b.Iff(left.Inf, right.Inf),
					b.And(b.Iff(left.Sign, right.Sign),
						b.SEq(left.Exponent, right.Exponent))))))

	return b.ITE(flagsAndExponent,
		b.UEq(left.Significand, right.Significand),
		b.Bool(false))
}

// ordering shares the comparison core: with equality it is <=,
// without it is <.  NaN is unordered with everything.
func ordering[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S], equality P) P {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	neitherNaN := b.And(b.Not(left.NaN), b.Not(right.NaN))

	// Wrong for NaN but corrected by neitherNaN.
	infCase := b.Or(
		b.And(isNegativeInf(b, left), b.ITE(equality, b.Bool(true), b.Not(isNegativeInf(b, right)))),
		b.Or(
			b.And(isPositiveInf(b, right), b.ITE(equality, b.Bool(true), b.Not(isPositiveInf(b, left)))),
			b.ITE(equality,
				b.And(left.Inf, b.And(right.Inf, b.Iff(left.Sign, right.Sign))),
				b.Bool(false))))

	zeroCase := b.Or(
		b.And(left.Zero, b.And(b.Not(right.Zero), b.Not(right.Sign))),
		b.Or(
			b.And(right.Zero, b.And(b.Not(left.Zero), left.Sign)),
			b.ITE(equality, b.And(left.Zero, right.Zero), b.Bool(false))))

	normalOrSubnormal := b.And(neitherNaN,
		b.And(b.Not(left.Inf), b.And(b.Not(right.Inf),
			b.And(b.Not(left.Zero), b.Not(right.Zero)))))

	negativeLessThanPositive := b.And(normalOrSubnormal, b.And(left.Sign, b.Not(right.Sign)))

	exponentNeeded := b.And(normalOrSubnormal, b.Iff(left.Sign, right.Sign))

	positiveCase := b.And(b.Not(left.Sign), b.And(b.Not(right.Sign),
		b.SLt(left.Exponent, right.Exponent)))
	negativeCase := b.And(left.Sign, b.And(right.Sign,
		b.SGt(left.Exponent, right.Exponent)))

	exponentEqual := b.SEq(left.Exponent, right.Exponent)

	significandNeeded := b.And(exponentNeeded, exponentEqual)

	positiveExEqCase := b.And(b.Not(left.Sign), b.And(b.Not(right.Sign),
		b.ULt(left.Significand, right.Significand)))
	negativeExEqCase := b.And(left.Sign, b.And(right.Sign,
		b.UGt(left.Significand, right.Significand)))

	positiveExEqCaseEq := b.And(b.Not(left.Sign), b.And(b.Not(right.Sign),
		b.ULe(left.Significand, right.Significand)))
	negativeExEqCaseEq := b.And(left.Sign, b.And(right.Sign,
		b.UGe(left.Significand, right.Significand)))

	return b.ITE(b.Not(normalOrSubnormal),
		b.And(neitherNaN, b.Or(infCase, zeroCase)),
		b.ITE(b.Not(exponentNeeded),
			negativeLessThanPositive,
			b.ITE(b.Not(significandNeeded),
				b.Or(positiveCase, negativeCase),
				b.ITE(equality,
					b.Or(positiveExEqCaseEq, negativeExEqCaseEq),
					b.Or(positiveExEqCase, negativeExEqCase)))))
}

// LessThan is the IEEE-754 < predicate.
func LessThan[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) P {
	return ordering(b, f, left, right, b.Bool(false))
}

// LessThanOrEqual is the IEEE-754 <= predicate.
func LessThanOrEqual[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S]) P {
	return ordering(b, f, left, right, b.Bool(true))
}

// Max returns the larger operand; NaN loses to any number.  IEEE-754
// leaves max(+0,-0) ambiguous: zeroCase picks which zero wins.
func Max[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S], zeroCase P) Unpacked[P, U, S] {
	return iteUF(b, b.Or(left.NaN, ordering(b, f, left, right, zeroCase)),
		right,
		left)
}

// Min returns the smaller operand; NaN loses to any number.
func Min[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S], zeroCase P) Unpacked[P, U, S] {
	return iteUF(b, b.Or(right.NaN, ordering(b, f, left, right, zeroCase)),
		left,
		right)
}
