package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// Classification predicates.  IsPositive and IsNegative follow the
// SMT-LIB semantics: NaN is neither.

func IsNormal[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return b.And(b.Not(uf.NaN),
		b.And(b.Not(uf.Inf),
			b.And(b.Not(uf.Zero), inNormalRange(b, f, uf, b.Bool(true)))))
}

func IsSubnormal[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return b.And(b.Not(uf.NaN),
		b.And(b.Not(uf.Inf),
			b.And(b.Not(uf.Zero), inSubnormalRange(b, f, uf, b.Bool(true)))))
}

func IsZero[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return uf.Zero
}

func IsInfinite[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return uf.Inf
}

func IsNaN[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return uf.NaN
}

func IsPositive[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return b.And(b.Not(uf.NaN), b.Not(uf.Sign))
}

func IsNegative[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return b.And(b.Not(uf.NaN), uf.Sign)
}

// IsFinite follows the C semantics: anything that is not NaN or
// infinite, including zero.
func IsFinite[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) P {
	b.Precondition(Valid(b, f, uf))
	return b.And(b.Not(uf.NaN), b.Not(uf.Inf))
}
