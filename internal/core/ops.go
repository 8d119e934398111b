// Package core implements IEEE-754 binary floating-point arithmetic
// over an abstract bit-vector back-end.  Every algorithm is written
// once against backend.Backend; instantiated with internal/exec it
// computes concrete results, with internal/sym it emits expression
// graphs of the same word-level circuit.
package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// be abbreviates the back-end bundle in signatures.
type be[P, U, S, R any] = backend.Backend[P, U, S, R]

// checkLit panics on violated literal-width contracts.  These mirror
// the value-level Precondition hook but operate on Go-level widths,
// which are always concrete.
func checkLit(cond bool, msg string) {
	if !cond {
		panic("core: " + msg)
	}
}

/*** Expanding operations: results are one operand-width wider. ***/

func expandingAddS[P, U, S, R any](b be[P, U, S, R], x, y S) S {
	checkLit(b.SWidth(x) == b.SWidth(y), "expandingAdd width mismatch")
	return b.SAdd(b.SExtend(x, 1), b.SExtend(y, 1))
}

func expandingAddWithCarryInS[P, U, S, R any](b be[P, U, S, R], x, y S, cin P) S {
	checkLit(b.SWidth(x) == b.SWidth(y), "expandingAddWithCarryIn width mismatch")
	sum := b.SAdd(b.SExtend(x, 1), b.SExtend(y, 1))
	w := b.SWidth(sum)
	// The extension guarantees the carry cannot overflow.
	return b.SAdd(sum, b.SITE(cin, b.SOne(w), b.SZero(w)))
}

func expandingSubtractS[P, U, S, R any](b be[P, U, S, R], x, y S) S {
	checkLit(b.SWidth(x) == b.SWidth(y), "expandingSubtract width mismatch")
	return b.SSub(b.SExtend(x, 1), b.SExtend(y, 1))
}

func expandingMultiplyU[P, U, S, R any](b be[P, U, S, R], x, y U) U {
	w := b.UWidth(x)
	checkLit(w == b.UWidth(y), "expandingMultiply width mismatch")
	return b.UMul(b.UExtend(x, w), b.UExtend(y, w))
}

/*** Conditional operations.  Both arms are always evaluated. ***/

func conditionalIncrementU[P, U, S, R any](b be[P, U, S, R], p P, x U) U {
	b.Precondition(b.Implies(p, b.ULt(x, b.UAllOnes(b.UWidth(x)))))
	w := b.UWidth(x)
	return b.UAdd(x, b.UITE(p, b.UOne(w), b.UZero(w)))
}

func conditionalIncrementS[P, U, S, R any](b be[P, U, S, R], p P, x S) S {
	w := b.SWidth(x)
	b.Precondition(b.Implies(p, b.SLt(x, maxSigned(b, w))))
	return b.SAdd(x, b.SITE(p, b.SOne(w), b.SZero(w)))
}

func conditionalDecrementS[P, U, S, R any](b be[P, U, S, R], p P, x S) S {
	w := b.SWidth(x)
	b.Precondition(b.Implies(p, b.SGt(x, minSigned(b, w))))
	return b.SSub(x, b.SITE(p, b.SOne(w), b.SZero(w)))
}

func conditionalLeftShiftOneU[P, U, S, R any](b be[P, U, S, R], p P, x U) U {
	w := b.UWidth(x)
	b.Precondition(b.Implies(p, b.UIsAllZeros(b.UExtract(x, w-1, w-1))))
	return b.UITE(p, b.UModShl(x, b.UOne(w)), x)
}

func conditionalRightShiftOneU[P, U, S, R any](b be[P, U, S, R], p P, x U) U {
	w := b.UWidth(x)
	return b.UITE(p, b.UModShr(x, b.UOne(w)), x)
}

func conditionalNegateU[P, U, S, R any](b be[P, U, S, R], p P, x U) U {
	w := b.UWidth(x)
	checkLit(w >= 2, "conditionalNegate needs at least two bits")
	b.Precondition(b.Implies(p, b.Not(b.And(
		b.UIsAllOnes(b.UExtract(x, w-1, w-1)),
		b.UIsAllZeros(b.UExtract(x, w-2, 0))))))
	return b.UITE(p, b.UModNeg(x), x)
}

func conditionalNegateS[P, U, S, R any](b be[P, U, S, R], p P, x S) S {
	return b.SITE(p, b.SModNeg(x), x)
}

func absS[P, U, S, R any](b be[P, U, S, R], x S) S {
	return conditionalNegateS(b, b.SLt(x, b.SZero(b.SWidth(x))), x)
}

func maxSigned[P, U, S, R any](b be[P, U, S, R], w backend.Width) S {
	return b.SLit(w, (int64(1)<<(w-1))-1)
}

func minSigned[P, U, S, R any](b be[P, U, S, R], w backend.Width) S {
	return b.SLit(w, -(int64(1) << (w - 1)))
}

func maxS[P, U, S, R any](b be[P, U, S, R], x, y S) S {
	return b.SITE(b.SLe(x, y), y, x)
}

func minS[P, U, S, R any](b be[P, U, S, R], x, y S) S {
	return b.SITE(b.SLe(x, y), x, y)
}

func collarS[P, U, S, R any](b be[P, U, S, R], op, lower, upper S) S {
	return b.SITE(b.SLt(op, lower), lower, b.SITE(b.SLt(upper, op), upper, op))
}

/*** Unary / binary bit-vector helpers. ***/

// countLeadingZerosU returns the number of leading zeros of x as a
// bit-vector of the same width.
func countLeadingZerosU[P, U, S, R any](b be[P, U, S, R], x U) U {
	w := b.UWidth(x)

	result := b.ULit(w, uint64(w))
	allPreceedingZeros := b.Bool(true)
	for i := w; i > 0; i-- {
		position := i - 1
		bit := b.UExtract(x, position, position)
		isLeadingOne := b.And(allPreceedingZeros, b.UIsAllOnes(bit))
		allPreceedingZeros = b.And(allPreceedingZeros, b.UIsAllZeros(bit))
		result = b.UITE(isLeadingOne, b.ULit(w, uint64(w-(position+1))), result)
	}
	return result
}

// orderEncodeU turns a shift amount k into a mask with the low
// min(k, w) bits set.
func orderEncodeU[P, U, S, R any](b be[P, U, S, R], op U) U {
	w := b.UWidth(op)
	return b.UExtract(
		b.UModDec(b.UModShl(b.UOne(w+1), b.UResize(op, w+1))),
		w-1, 0)
}

// rightShiftStickyBit is all-zeros or all-... one in the LSB: one
// exactly when the right shift of op by shift would move a set bit out
// of the word.
func rightShiftStickyBit[P, U, S, R any](b be[P, U, S, R], op, shift U) U {
	w := b.UWidth(op)
	return b.UITE(b.UIsAllZeros(b.UAndBits(orderEncodeU(b, shift), op)),
		b.UZero(w),
		b.UOne(w))
}

// StickyShift is the result of a sticky right shift: the
// sign-extending shift plus a separate record of the lost bits.
type StickyShift[U any] struct {
	Result U
	Sticky U // zero or one at the operand width
}

func stickyRightShift[P, U, S, R any](b be[P, U, S, R], input, shiftAmount U) StickyShift[U] {
	return StickyShift[U]{
		Result: b.USignExtShr(input, shiftAmount),
		Sticky: rightShiftStickyBit(b, input, shiftAmount),
	}
}

// NormaliseShiftResult reports the aligned vector, the shift applied
// and whether the input was zero (in which case no alignment exists).
type NormaliseShiftResult[U, P any] struct {
	Normalised  U
	ShiftAmount U
	IsZero      P
}

// normaliseShift left-shifts input the minimum amount needed to set
// its MSB.
func normaliseShift[P, U, S, R any](b be[P, U, S, R], input U) NormaliseShiftResult[U, P] {
	w := b.UWidth(input)
	startingMask := backend.PreviousPowerOfTwo(w)

	zeroCase := b.UIsAllZeros(input)

	working := input
	var shiftAmount U
	first := true
	deactivateShifts := zeroCase

	for i := startingMask; i > 0; i >>= 1 {
		deactivateShifts = b.Or(deactivateShifts, b.UIsAllOnes(b.UExtract(working, w-1, w-1)))

		mask := b.UAppend(b.UAllOnes(i), b.UZero(w-i))
		shiftNeeded := b.And(b.Not(deactivateShifts), b.UIsAllZeros(b.UAndBits(mask, working)))

		// Modular is safe: the mask comparison showed the shifted
		// bits are zero.
		working = b.UITE(shiftNeeded, b.UModShl(working, b.ULit(w, uint64(i))), working)

		if first {
			shiftAmount = b.UFromProp(shiftNeeded)
			first = false
		} else {
			shiftAmount = b.UAppend(shiftAmount, b.UFromProp(shiftNeeded))
		}
	}

	res := NormaliseShiftResult[U, P]{Normalised: working, ShiftAmount: shiftAmount, IsZero: zeroCase}

	b.Postcondition(b.Iff(b.UIsAllZeros(b.UExtract(res.Normalised, w-1, w-1)), res.IsZero))
	b.Postcondition(b.Implies(res.IsZero, b.UIsAllZeros(res.ShiftAmount)))

	saWidth := b.UWidth(res.ShiftAmount)
	widthBits := backend.BitsToRepresent(uint64(w))
	checkLit(saWidth == widthBits || saWidth == widthBits-1, "normaliseShift amount width")

	return res
}

// ResultWithRemainder pairs a fixed-point result with a flag recording
// whether the remainder was non-zero.
type ResultWithRemainder[U, P any] struct {
	Result           U
	RemainderNonzero P
}

// fixedPointDivide divides two MSB-aligned fixed-point numbers in
// [1,2), returning a quotient in [0.5,2) at the operand width.
func fixedPointDivide[P, U, S, R any](b be[P, U, S, R], x, y U) ResultWithRemainder[U, P] {
	w := b.UWidth(x)
	checkLit(b.UWidth(y) == w, "fixedPointDivide width mismatch")
	b.Precondition(b.UIsAllOnes(b.UExtract(x, w-1, w-1)))
	b.Precondition(b.UIsAllOnes(b.UExtract(y, w-1, w-1)))

	// Not the best way of doing this but pretty universal.
	ex := b.UAppend(x, b.UZero(w-1))
	ey := b.UExtend(y, w-1)

	div := b.UDiv(ex, ey)
	rem := b.URem(ex, ey)

	return ResultWithRemainder[U, P]{
		Result:           b.UExtract(div, w-1, 0),
		RemainderNonzero: b.Not(b.UIsAllZeros(rem)),
	}
}

// fixedPointSqrt takes x in [1,4) with two integer bits and returns
// o in [1,sqrt(2)) such that x = o*o + r, plus whether r was non-zero.
func fixedPointSqrt[P, U, S, R any](b be[P, U, S, R], x U) ResultWithRemainder[U, P] {
	inputWidth := b.UWidth(x)
	outputWidth := inputWidth - 1

	// Simple digit recurrence; a symbolic back-end will typically
	// prefer to treat the result as nondeterministic and assert the
	// defining equations instead.
	xcomp := b.UAppend(x, b.UZero(inputWidth-2))

	working := b.UShl(b.UOne(outputWidth), b.ULit(outputWidth, uint64(outputWidth-1)))

	for location := outputWidth - 1; location > 0; location-- {
		shift := b.ULit(outputWidth, uint64(location-1))
		candidate := b.UOrBits(working, b.UShl(b.UOne(outputWidth), shift))
		addBit := b.ULe(expandingMultiplyU(b, candidate, candidate), xcomp)
		working = b.UOrBits(working, b.UShl(b.UExtend(b.UFromProp(addBit), outputWidth-1), shift))
	}

	return ResultWithRemainder[U, P]{
		Result:           working,
		RemainderNonzero: b.Not(b.UEq(expandingMultiplyU(b, working, working), xcomp)),
	}
}

// divideStep performs one step of a restoring divider: here the
// remainder flag carries the quotient bit and Result is the shifted
// partial remainder.
func divideStep[P, U, S, R any](b be[P, U, S, R], x, y U) ResultWithRemainder[U, P] {
	w := b.UWidth(x)
	checkLit(b.UWidth(y) == w, "divideStep width mismatch")
	checkLit(w >= 2, "divideStep needs at least two bits")
	b.Precondition(b.UIsAllOnes(b.UExtract(y, w-2, w-2))) // y is aligned

	canSubtract := b.UGe(x, y)
	sub := b.UModAdd(x, b.UModNeg(y))
	step := b.UITE(canSubtract, sub, x)

	return ResultWithRemainder[U, P]{
		Result:           b.UShl(step, b.UOne(w)),
		RemainderNonzero: canSubtract,
	}
}
