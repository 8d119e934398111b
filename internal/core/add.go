package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// Addition and subtraction.  The compacted adder computes both in one
// pass from an exponent comparison; a classic two-path adder is also
// provided, as is a bypass wrapper that turns the very-far case into
// returning one of the operands.

// ExponentCompareInfo captures everything the adder needs to know
// about the relative magnitudes of the exponents.  Widths: the
// comparison happens one bit wider than the operand exponents.
type ExponentCompareInfo[P, S any] struct {
	LeftIsMax                        P
	MaxExponent                      S
	AbsoluteExponentDifference       S
	DiffIsZero                       P
	DiffIsOne                        P
	DiffIsGreaterThanPrecision       P
	DiffIsTwoToPrecision             P
	DiffIsGreaterThanPrecisionPlusOne P
}

func addExponentCompare[P, U, S, R any](b be[P, U, S, R],
	exponentWidth, significandWidth backend.Width,
	leftExponent, rightExponent S, knownInCorrectOrder P) ExponentCompareInfo[P, S] {

	checkLit(b.SWidth(leftExponent)+1 == exponentWidth, "addExponentCompare: left width")
	checkLit(b.SWidth(rightExponent)+1 == exponentWidth, "addExponentCompare: right width")

	exponentDifference := b.SSub(b.SExtend(leftExponent, 1), b.SExtend(rightExponent, 1))

	signBit := b.UIsAllOnes(b.UExtract(b.SToUnsigned(exponentDifference), exponentWidth-1, exponentWidth-1))
	leftIsMax := b.Or(knownInCorrectOrder, b.Not(signBit))

	maxExponent := b.SITE(leftIsMax, b.SExtend(leftExponent, 1), b.SExtend(rightExponent, 1))
	// The largest negative value is not obtainable so negate is safe.
	absoluteExponentDifference := b.SITE(leftIsMax, exponentDifference, b.SModNeg(exponentDifference))

	b.Invariant(b.SLe(b.SZero(exponentWidth), absoluteExponentDifference))

	diffIsZero := b.SEq(absoluteExponentDifference, b.SZero(exponentWidth))
	diffIsOne := b.SEq(absoluteExponentDifference, b.SOne(exponentWidth))
	diffIsGreaterThanPrecision := b.SLt(b.SLit(exponentWidth, int64(significandWidth)), absoluteExponentDifference)
	diffIsTwoToPrecision := b.And(b.Not(diffIsZero), b.And(b.Not(diffIsOne), b.Not(diffIsGreaterThanPrecision)))
	diffIsGreaterThanPrecisionPlusOne := b.SLt(b.SLit(exponentWidth, int64(significandWidth)+1), absoluteExponentDifference)

	return ExponentCompareInfo[P, S]{
		LeftIsMax:                        leftIsMax,
		MaxExponent:                      maxExponent,
		AbsoluteExponentDifference:       absoluteExponentDifference,
		DiffIsZero:                       diffIsZero,
		DiffIsOne:                        diffIsOne,
		DiffIsGreaterThanPrecision:       diffIsGreaterThanPrecision,
		DiffIsTwoToPrecision:             diffIsTwoToPrecision,
		DiffIsGreaterThanPrecisionPlusOne: diffIsGreaterThanPrecisionPlusOne,
	}
}

// floatWithKnownFlags pairs an arithmetic result with the rounder
// flags the operation can assert.
type floatWithKnownFlags[P, U, S any] struct {
	uf    Unpacked[P, U, S]
	known KnownFlags[P]
}

// arithmeticAdd computes the normal / subnormal case only, in the
// extended format (e+1, s+2).  Special values are fixed up by the
// caller.  The rounding mode is needed because the sign of an exact
// zero result depends on it.
func arithmeticAdd[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S], isAdd, knownInCorrectOrder P,
	ec ExponentCompareInfo[P, S]) floatWithKnownFlags[P, U, S] {

	effectiveAdd := b.Xor(b.Xor(left.Sign, right.Sign), isAdd)

	exponentWidth := b.SWidth(left.Exponent) + 1
	significandWidth := b.UWidth(left.Significand)

	// Rounder flags: only an effective add can overflow, and every
	// subnormal produced by addition is exact.
	noOverflow := b.Not(effectiveAdd)
	noUnderflow := b.Bool(true)
	subnormalExact := b.Bool(true)
	noSignificandOverflow := b.Or(
		b.And(effectiveAdd, ec.DiffIsZero),
		b.And(b.Not(effectiveAdd), b.Or(ec.DiffIsZero, ec.DiffIsOne)))

	stickyBitIsZero := b.Or(ec.DiffIsZero, ec.DiffIsOne)

	// Work out the ordering.
	leftLarger := b.Or(knownInCorrectOrder,
		b.And(ec.LeftIsMax,
			b.ITE(b.Not(ec.DiffIsZero),
				b.Bool(true),
				b.UGe(left.Significand, right.Significand))))

	// Extend the significands to give room for the carry plus guard
	// and sticky bits.
	lsig := b.UAppend(b.UExtend(b.UITE(leftLarger, left.Significand, right.Significand), 1), b.UZero(2))
	ssig := b.UAppend(b.UExtend(b.UITE(leftLarger, right.Significand, left.Significand), 1), b.UZero(2))

	resultSign := b.ITE(leftLarger, left.Sign, b.Xor(b.Not(isAdd), right.Sign))

	// Negate before the shift so that sign-extension works.
	negatedSmaller := conditionalNegateU(b, b.Not(effectiveAdd), ssig)

	checkLit(exponentWidth <= significandWidth, "arithmeticAdd: exponent wider than significand")
	shiftAmount := b.UResize(b.SToUnsigned(ec.AbsoluteExponentDifference), b.UWidth(negatedSmaller))

	shifted := stickyRightShift(b, negatedSmaller, shiftAmount)

	// Fast path the common case; + 1 to avoid issues with the guard bit.
	negatedAlignedSmaller := b.UITE(ec.DiffIsGreaterThanPrecisionPlusOne,
		b.UITE(effectiveAdd,
			b.UZero(b.UWidth(negatedSmaller)),
			b.UAllOnes(b.UWidth(negatedSmaller))),
		shifted.Result)
	// Has to be separate, otherwise the align up may convert it to
	// the guard bit.
	shiftedStickyBit := b.UITE(ec.DiffIsGreaterThanPrecision,
		b.UOne(b.UWidth(negatedSmaller)),
		shifted.Sticky)

	// Sum and realign.
	sum := b.UModAdd(lsig, negatedAlignedSmaller)

	sumWidth := b.UWidth(sum)
	topBit := b.UExtract(sum, sumWidth-1, sumWidth-1)
	alignedBit := b.UExtract(sum, sumWidth-2, sumWidth-2)
	lowerBit := b.UExtract(sum, sumWidth-3, sumWidth-3)

	overflow := b.Not(b.UIsAllZeros(topBit))
	cancel := b.And(b.UIsAllZeros(topBit), b.UIsAllZeros(alignedBit))
	minorCancel := b.And(cancel, b.UIsAllOnes(lowerBit))
	majorCancel := b.And(cancel, b.UIsAllZeros(lowerBit))
	fullCancel := b.And(majorCancel, b.UIsAllZeros(sum))

	b.Invariant(b.Implies(b.And(effectiveAdd, ec.DiffIsZero), overflow))
	b.Invariant(b.Implies(overflow, b.And(effectiveAdd, b.Not(ec.DiffIsGreaterThanPrecision))))
	b.Invariant(b.Implies(cancel, b.Not(effectiveAdd)))
	b.Invariant(b.Implies(majorCancel, b.Or(ec.DiffIsZero, ec.DiffIsOne)))

	exact := b.And(cancel, b.Or(ec.DiffIsZero, ec.DiffIsOne))

	alignedSum := conditionalLeftShiftOneU(b, minorCancel,
		conditionalRightShiftOneU(b, overflow, sum))

	exponentCorrectionTerm := b.SITE(minorCancel,
		b.SNeg(b.SOne(exponentWidth)),
		b.SITE(overflow, b.SOne(exponentWidth), b.SZero(exponentWidth)))

	correctedExponent := b.SAdd(ec.MaxExponent, exponentCorrectionTerm)

	// The sticky bit of the sum: the shifted-out bits, plus the bit
	// pushed out when an overflow realigns down.
	stickyBit := b.UITE(b.Or(stickyBitIsZero, majorCancel),
		b.UZero(b.UWidth(alignedSum)),
		b.UOrBits(shiftedStickyBit,
			b.UExtend(b.UITE(b.Not(overflow), b.UZero(1), b.UExtract(sum, 0, 0)), b.UWidth(alignedSum)-1)))

	sumResult := makeNumber(b, resultSign, correctedExponent, b.UContract(b.UOrBits(alignedSum, stickyBit), 1))

	// One extra exponent bit for the overflow case, two extra
	// significand bits for the guard and sticky bits.
	extendedFormat := backend.Format{ExpBits: f.ExpBits + 1, SigBits: f.SigBits + 2}

	// Major cancellation cannot use normaliseUpDetectZero: the sign
	// of the zero depends on the rounding mode.
	additionResult := iteUF(b, fullCancel,
		MakeZero(b, extendedFormat, b.RMEq(rm, b.RTN())),
		iteUF(b, majorCancel,
			normaliseUp(b, sumResult),
			sumResult))

	// All subnormals generated by addition are exact, so the extended
	// exponent keeps this valid.
	b.Postcondition(Valid(b, extendedFormat, additionResult))

	return floatWithKnownFlags[P, U, S]{
		uf: additionResult,
		known: KnownFlags[P]{
			NoOverflow:            noOverflow,
			NoUnderflow:           noUnderflow,
			Exact:                 exact,
			SubnormalExact:        subnormalExact,
			NoSignificandOverflow: noSignificandOverflow,
		},
	}
}

// addAdditionSpecialCasesComplete handles the NaN, infinity and zero
// cases around an addition result.  leftID is the value returned when
// right is zero and left ordinary, which FMA needs to supply
// separately; returnLeft and returnRight let the bypass wrapper claim
// the very-far path.
//
// The special cases are applied innermost: the rounded result carries
// an ITE with default values on top, so this grouping compacts better.
func addAdditionSpecialCasesComplete[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, leftID, right Unpacked[P, U, S], returnLeft, returnRight P,
	additionResult Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {

	eitherArgumentNaN := b.Or(left.NaN, right.NaN)
	bothInfinity := b.And(left.Inf, right.Inf)
	signsMatch := b.Iff(left.Sign, right.Sign)
	compatableSigns := b.Xor(isAdd, b.Not(signsMatch))

	generatesNaN := b.Or(eitherArgumentNaN, b.And(bothInfinity, b.Not(compatableSigns)))

	generatesInf := b.Or(b.And(bothInfinity, compatableSigns),
		b.Or(b.And(left.Inf, b.Not(right.Inf)),
			b.And(b.Not(left.Inf), right.Inf)))

	signOfInf := b.ITE(left.Inf, left.Sign, b.Xor(isAdd, b.Not(right.Sign)))

	bothZero := b.And(left.Zero, right.Zero)
	flipRightSign := b.Xor(b.Not(isAdd), right.Sign)
	signOfZero := b.ITE(b.RMEq(rm, b.RTN()),
		b.Or(left.Sign, flipRightSign),
		b.And(left.Sign, flipRightSign))

	idLeft := b.And(b.Not(left.Zero), right.Zero)
	idRight := b.And(left.Zero, b.Not(right.Zero))

	return iteUF(b, b.Or(idRight, returnRight),
		iteUF(b, isAdd, right, Negate(b, f, right)),
		iteUF(b, b.Or(idLeft, returnLeft),
			leftID,
			iteUF(b, generatesNaN,
				MakeNaN(b, f),
				iteUF(b, generatesInf,
					MakeInf(b, f, signOfInf),
					iteUF(b, bothZero,
						MakeZero(b, f, signOfZero),
						additionResult)))))
}

func addAdditionSpecialCasesWithID[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, leftID, right, additionResult Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {
	return addAdditionSpecialCasesComplete(b, f, rm, left, leftID, right,
		b.Bool(false), b.Bool(false), additionResult, isAdd)
}

func addAdditionSpecialCases[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right, additionResult Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {
	return addAdditionSpecialCasesComplete(b, f, rm, left, left, right,
		b.Bool(false), b.Bool(false), additionResult, isAdd)
}

// Add computes left + right when isAdd holds and left - right
// otherwise, rounding once.
func Add[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	knownInCorrectOrder := b.Bool(false)

	ec := addExponentCompare(b,
		b.SWidth(left.Exponent)+1, b.UWidth(left.Significand),
		left.Exponent, right.Exponent, knownInCorrectOrder)

	additionResult := arithmeticAdd(b, f, rm, left, right, isAdd, knownInCorrectOrder, ec)

	roundedAdditionResult := CustomRound(b, f, rm, additionResult.uf, additionResult.known)

	result := addAdditionSpecialCases(b, f, rm, left, right, roundedAdditionResult, isAdd)

	b.Postcondition(Valid(b, f, result))

	return result
}

// AddWithBypass is Add with the very-far path accelerated: when the
// exponent difference exceeds the precision plus one, addition behaves
// like max (possibly one ULP off) and can reuse the return-left /
// return-right cases already needed for zeros.
func AddWithBypass[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	left, right Unpacked[P, U, S], isAdd P) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))

	knownInCorrectOrder := b.Bool(false)

	ec := addExponentCompare(b,
		b.SWidth(left.Exponent)+1, b.UWidth(left.Significand),
		left.Exponent, right.Exponent, knownInCorrectOrder)

	additionResult := arithmeticAdd(b, f, rm, left, right, isAdd, knownInCorrectOrder, ec)

	roundedAdditionResult := CustomRound(b, f, rm, additionResult.uf, additionResult.known)

	enableBypass := b.And(ec.DiffIsGreaterThanPrecisionPlusOne,
		b.And(b.Not(left.NaN), b.And(b.Not(left.Inf), b.And(b.Not(left.Zero),
			b.And(b.Not(right.NaN), b.And(b.Not(right.Inf), b.Not(right.Zero)))))))

	// Cheaper to recompute than to pass out of arithmeticAdd.
	effectiveAdd := b.Xor(b.Xor(left.Sign, right.Sign), isAdd)
	resultSign := b.ITE(b.Or(knownInCorrectOrder, ec.LeftIsMax), // only true in the bypass case
		left.Sign,
		b.Xor(b.Not(isAdd), right.Sign))

	// Assumes only RNE consults the even bit; round-to-odd would need
	// the real value.
	significandEven := b.Bool(true)
	farRoundUp := roundingDecision(b, rm, resultSign, significandEven,
		b.Not(effectiveAdd), b.Bool(true), b.Bool(false))

	// Unchanged if adding and rounding down, or subtracting and
	// rounding up.
	roundInCorrectDirection := b.Xor(effectiveAdd, farRoundUp)

	returnLeft := b.And(enableBypass, b.And(ec.LeftIsMax, roundInCorrectDirection))
	returnRight := b.And(enableBypass, b.And(b.Not(ec.LeftIsMax), roundInCorrectDirection))

	result := addAdditionSpecialCasesComplete(b, f, rm, left, left, right,
		returnLeft, returnRight, roundedAdditionResult, isAdd)

	b.Postcondition(Valid(b, f, result))

	return result
}

// IsCatastrophicCancellation holds when adding the operands would
// cancel cancelAmount or more leading bits.
func IsCatastrophicCancellation[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	left, right Unpacked[P, U, S], cancelAmount backend.Width, isAdd P) P {

	b.Precondition(Valid(b, f, left))
	b.Precondition(Valid(b, f, right))
	checkLit(cancelAmount >= 2, "cancelAmount below two is not meaningful")
	checkLit(cancelAmount <= f.SigBits, "cannot cancel more bits than the significand has")

	effectiveAdd := b.Xor(b.Xor(left.Sign, right.Sign), isAdd)

	leftSpecial := b.Or(left.NaN, b.Or(left.Inf, left.Zero))
	rightSpecial := b.Or(right.NaN, b.Or(right.Inf, right.Zero))

	knownInCorrectOrder := b.Bool(false)
	ec := addExponentCompare(b,
		b.SWidth(left.Exponent)+1, b.UWidth(left.Significand),
		left.Exponent, right.Exponent, knownInCorrectOrder)

	// The MSB is always one by the invariant, so it can be skipped.
	significandWidth := f.UnpackedSignificandWidth()
	topBit := significandWidth - 2
	bottomBit := significandWidth - cancelAmount

	leftExtract := b.UExtract(left.Significand, topBit, bottomBit)
	rightExtract := b.UExtract(right.Significand, topBit, bottomBit)

	return b.ITE(b.And(b.Not(effectiveAdd), b.And(b.Not(leftSpecial), b.Not(rightSpecial))),
		b.ITE(ec.DiffIsZero,
			b.UEq(leftExtract, rightExtract),
			b.ITE(ec.DiffIsOne,
				b.ITE(ec.LeftIsMax,
					b.And(b.UIsAllZeros(leftExtract), b.UIsAllOnes(rightExtract)),
					b.And(b.UIsAllZeros(rightExtract), b.UIsAllOnes(leftExtract))),
				b.Bool(false))),
		b.Bool(false))
}
