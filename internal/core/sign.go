package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// Negate flips the sign; the sign of NaN stays put.
func Negate[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) Unpacked[P, U, S] {
	b.Precondition(Valid(b, f, uf))

	result := withSign(b, uf, b.Not(uf.Sign))

	b.Postcondition(Valid(b, f, result))

	return result
}

// Absolute clears the sign; the sign of NaN stays put.
func Absolute[P, U, S, R any](b be[P, U, S, R], f backend.Format, uf Unpacked[P, U, S]) Unpacked[P, U, S] {
	b.Precondition(Valid(b, f, uf))

	result := withSign(b, uf, b.Bool(false))

	b.Postcondition(Valid(b, f, result))

	return result
}
