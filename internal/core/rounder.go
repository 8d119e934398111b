package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// KnownFlags lets an operation assert which rounder branches are
// statically impossible so the instantiation can prune them.  All
// false gives the general rounder.
type KnownFlags[P any] struct {
	NoOverflow            P
	NoUnderflow           P
	Exact                 P // significand does not need to change
	SubnormalExact        P // if the value is subnormal then it is exact
	NoSignificandOverflow P // incrementing the significand cannot carry out
}

func noneKnown[P, U, S, R any](b be[P, U, S, R]) KnownFlags[P] {
	f := b.Bool(false)
	return KnownFlags[P]{NoOverflow: f, NoUnderflow: f, Exact: f, SubnormalExact: f, NoSignificandOverflow: f}
}

// rounderSpecialCases reconstructs the final result from the rounded
// number and the overflow / underflow / zero conditions.
func rounderSpecialCases[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	roundedResult Unpacked[P, U, S], overflow, underflow, isZero P) Unpacked[P, U, S] {

	// On overflow either return inf or the largest finite number.
	returnInf := b.Or(b.RMEq(rm, b.RNE()),
		b.Or(b.RMEq(rm, b.RNA()),
			b.Or(b.And(b.RMEq(rm, b.RTP()), b.Not(roundedResult.Sign)),
				b.And(b.RMEq(rm, b.RTN()), roundedResult.Sign))))

	// On underflow either return zero or the least subnormal.
	returnZero := b.Or(b.RMEq(rm, b.RNE()),
		b.Or(b.RMEq(rm, b.RNA()),
			b.Or(b.RMEq(rm, b.RTZ()),
				b.Or(b.And(b.RMEq(rm, b.RTP()), roundedResult.Sign),
					b.And(b.RMEq(rm, b.RTN()), b.Not(roundedResult.Sign))))))

	sigWidth := f.UnpackedSignificandWidth()
	inf := MakeInf(b, f, roundedResult.Sign)
	maxFinite := makeNumber(b, roundedResult.Sign, maxNormalExponent(b, f), b.UAllOnes(sigWidth))
	minSubnormal := makeNumber(b, roundedResult.Sign, minSubnormalExponent(b, f), leadingOne(b, sigWidth))
	zero := MakeZero(b, f, roundedResult.Sign)

	return iteUF(b, isZero,
		zero,
		iteUF(b, underflow,
			iteUF(b, returnZero, zero, minSubnormal),
			iteUF(b, overflow,
				iteUF(b, returnInf, inf, maxFinite),
				roundedResult)))
}

// roundingDecision is the IEEE-754 round-up table as a function of
// mode, sign, evenness of the kept significand, guard and sticky.
func roundingDecision[P, U, S, R any](b be[P, U, S, R], rm R,
	sign, significandEven, guardBit, stickyBit, knownRoundDown P) P {

	roundUpRNE := b.And(b.RMEq(rm, b.RNE()), b.And(guardBit, b.Or(stickyBit, b.Not(significandEven))))
	roundUpRNA := b.And(b.RMEq(rm, b.RNA()), guardBit)
	roundUpRTP := b.And(b.RMEq(rm, b.RTP()), b.And(b.Not(sign), b.Or(guardBit, stickyBit)))
	roundUpRTN := b.And(b.RMEq(rm, b.RTN()), b.And(sign, b.Or(guardBit, stickyBit)))
	roundUpRTZ := b.And(b.RMEq(rm, b.RTZ()), b.Bool(false))

	return b.And(b.Not(knownRoundDown),
		b.Or(roundUpRNE, b.Or(roundUpRNA, b.Or(roundUpRTP, b.Or(roundUpRTN, roundUpRTZ)))))
}

// SignificandRounderResult is the output of the positional rounders:
// the rounded significand and whether the exponent must be
// incremented.
type SignificandRounderResult[U, P any] struct {
	Significand       U
	IncrementExponent P
}

// fixedPositionRound rounds a significand to a fixed target width.
// With knownRoundDown it reduces to an extract.
func fixedPositionRound[P, U, S, R any](b be[P, U, S, R], rm R, sign P,
	significand U, targetWidth backend.Width, knownLeadingOne, knownRoundDown P) SignificandRounderResult[U, P] {

	sigWidth := b.UWidth(significand)
	checkLit(sigWidth >= targetWidth+2, "fixedPositionRound needs guard and sticky bits")

	// Extended by one to catch the overflow.
	extractedSignificand := b.UExtend(b.UExtract(significand, sigWidth-1, sigWidth-targetWidth), 1)

	significandEven := b.UIsAllZeros(b.UExtract(extractedSignificand, 0, 0))

	guardBitPosition := sigWidth - (targetWidth + 1)
	guardBit := b.UIsAllOnes(b.UExtract(significand, guardBitPosition, guardBitPosition))
	stickyBit := b.Not(b.UIsAllZeros(b.UExtract(significand, guardBitPosition-1, 0)))

	roundUp := roundingDecision(b, rm, sign, significandEven, guardBit, stickyBit, knownRoundDown)

	roundedSignificand := conditionalIncrementU(b, roundUp, extractedSignificand)

	overflowBit := b.UAndBits(b.UExtract(roundedSignificand, targetWidth, targetWidth), b.UFromProp(roundUp))
	// Cheaper than a conditional shift.
	carryUpMask := b.UAppend(b.UOrBits(overflowBit, b.UFromProp(knownLeadingOne)), b.UZero(targetWidth-1))

	return SignificandRounderResult[U, P]{
		Significand:       b.UOrBits(b.UExtract(roundedSignificand, targetWidth-1, 0), carryUpMask),
		IncrementExponent: b.UIsAllOnes(overflowBit),
	}
}

// variablePositionRound rounds at a runtime-chosen position.  With
// knownRoundDown it reduces to a mask.
func variablePositionRound[P, U, S, R any](b be[P, U, S, R], rm R, sign P,
	significand U, roundPosition U, knownLeadingOne, knownRoundDown P) SignificandRounderResult[U, P] {

	sigWidth := b.UWidth(significand)

	// Round-up-from-sticky and overflow bits at the MSB, fall-back
	// guard and sticky bits at the LSB.
	expandedSignificand := b.UAppend(b.UExtend(significand, 2), b.UZero(2))
	exsigWidth := b.UWidth(expandedSignificand)

	incrementLocation := b.UShl(b.ULit(exsigWidth, 1<<2), b.UMatchWidth(roundPosition, expandedSignificand))
	guardLocation := b.UShr(incrementLocation, b.UOne(exsigWidth))
	stickyLocations := b.UDec(guardLocation)

	significandEven := b.UIsAllZeros(b.UAndBits(incrementLocation, expandedSignificand))
	guardBit := b.Not(b.UIsAllZeros(b.UAndBits(guardLocation, expandedSignificand)))
	stickyBit := b.Not(b.UIsAllZeros(b.UAndBits(stickyLocations, expandedSignificand)))

	roundUp := roundingDecision(b, rm, sign, significandEven, guardBit, stickyBit, knownRoundDown)

	roundedSignificand := b.UAdd(expandedSignificand,
		b.UITE(roundUp, incrementLocation, b.UZero(exsigWidth)))

	// Mask out rounded bits; the LSB is wrong but gets cut.
	maskedRoundedSignificand := b.UAndBits(roundedSignificand,
		b.UNotBits(b.UModShl(stickyLocations, b.UOne(exsigWidth))))

	// Only true when rounding up and the whole significand is sticky.
	roundUpFromSticky := b.UExtract(roundedSignificand, exsigWidth-1, exsigWidth-1)
	overflowBit := b.UExtract(roundedSignificand, exsigWidth-2, exsigWidth-2)
	maskTrigger := b.UAndBits(b.UOrBits(roundUpFromSticky, overflowBit), b.UFromProp(roundUp))
	carryUpMask := b.UAppend(b.UOrBits(maskTrigger, b.UFromProp(knownLeadingOne)), b.UZero(sigWidth-1))

	return SignificandRounderResult[U, P]{
		Significand:       b.UOrBits(b.UExtract(maskedRoundedSignificand, sigWidth+1, 2), carryUpMask),
		IncrementExponent: b.UIsAllOnes(maskTrigger),
	}
}

// Round maps an extended unpacked number back to a valid one in f,
// applying IEEE-754 rounding.  The input's exponent must be at least
// as wide as f's unpacked exponent and its significand at least two
// bits wider, holding guard and sticky information.
func Round[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R, uf Unpacked[P, U, S]) Unpacked[P, U, S] {
	return CustomRound(b, f, rm, uf, noneKnown(b))
}

// CustomRound is Round with caller-asserted impossibility flags.
func CustomRound[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	uf Unpacked[P, U, S], known KnownFlags[P]) Unpacked[P, U, S] {

	// The input is not necessarily valid in any format: the exponent
	// and significand are extended and may be out of range.  The
	// leading bit of the significand should be one for a meaningful
	// answer; after cancellation on the near path of add it may not
	// be, but then the result is discarded.
	psig := uf.Significand
	sigWidth := b.UWidth(psig)
	sig := b.UOrBits(psig, leadingOne(b, sigWidth))

	targetSignificandWidth := f.UnpackedSignificandWidth()
	checkLit(sigWidth >= targetSignificandWidth+2, "round: input needs guard and sticky bits")

	exp := uf.Exponent
	expWidth := b.SWidth(exp)
	targetExponentWidth := f.UnpackedExponentWidth()
	checkLit(expWidth >= targetExponentWidth, "round: input exponent too narrow")

	// Special values rely on their default exponent and significand
	// being the encoding of 1.0, which rounds without incident; the
	// flags are reapplied at the end.

	/*** Early underflow and overflow detection ***/
	exponentExtension := expWidth - targetExponentWidth
	earlyOverflow := b.SGt(exp, b.SExtend(maxNormalExponent(b, f), exponentExtension))
	earlyUnderflow := b.SLt(exp, b.SDec(b.SExtend(minSubnormalExponent(b, f), exponentExtension)))

	potentialLateOverflow := b.SEq(exp, b.SExtend(maxNormalExponent(b, f), exponentExtension))
	potentialLateUnderflow := b.SEq(exp, b.SDec(b.SExtend(minSubnormalExponent(b, f), exponentExtension)))

	/*** Normal or subnormal rounding? ***/
	normalRoundingRange := b.SGe(exp, b.SExtend(minNormalExponent(b, f), exponentExtension))
	normalRounding := b.Or(normalRoundingRange, known.SubnormalExact)

	/*** Round to correct significand ***/
	extractedSignificand := b.UExtend(b.UExtract(sig, sigWidth-1, sigWidth-targetSignificandWidth), 1)

	guardBitPosition := sigWidth - (targetSignificandWidth + 1)
	guardBit := b.UIsAllOnes(b.UExtract(sig, guardBitPosition, guardBitPosition))
	stickyBit := b.Not(b.UIsAllZeros(b.UExtract(sig, guardBitPosition-1, 0)))

	// For subnormals, locating the guard and sticky bits takes more
	// work.  Negative amounts (normal numbers) give a full mask whose
	// result is ignored.
	subnormalAmount := expandingSubtractS(b, b.SMatchWidth(minNormalExponent(b, f), exp), exp)
	b.Invariant(b.Or(b.SLt(subnormalAmount, b.SLit(expWidth+1, int64(sigWidth)-1)), earlyUnderflow))

	// Resize rather than extend: a wide source exponent can exceed the
	// extracted significand's width, but any amount that truncates is
	// in the early-underflow or normal-rounding regime whose subnormal
	// mask goes unused.
	subnormalShiftPrepared := b.UResize(b.SToUnsigned(subnormalAmount), targetSignificandWidth+1)

	subnormalMask := orderEncodeU(b, subnormalShiftPrepared)
	subnormalStickyMask := b.UShr(subnormalMask, b.UOne(targetSignificandWidth+1))

	subnormalMaskedSignificand := b.UAndBits(extractedSignificand, b.UNotBits(subnormalMask))
	subnormalMaskRemoved := b.UAndBits(extractedSignificand, subnormalMask)

	subnormalGuardBit := b.Not(b.UIsAllZeros(b.UAndBits(subnormalMaskRemoved, b.UNotBits(subnormalStickyMask))))
	subnormalStickyBit := b.Or(guardBit,
		b.Or(stickyBit, b.Not(b.UIsAllZeros(b.UAndBits(subnormalMaskRemoved, subnormalStickyMask)))))

	// The only case where the modular shift loses information is an
	// early underflow.
	subnormalIncrementAmount := b.UAndBits(
		b.UModShl(subnormalMask, b.UOne(targetSignificandWidth+1)),
		b.UNotBits(subnormalMask))
	b.Invariant(b.Implies(b.UIsAllZeros(subnormalIncrementAmount), b.Or(earlyUnderflow, normalRounding)))

	chosenGuardBit := b.ITE(normalRounding, guardBit, subnormalGuardBit)
	chosenStickyBit := b.ITE(normalRounding, stickyBit, subnormalStickyBit)

	significandEven := b.ITE(normalRounding,
		b.UIsAllZeros(b.UExtract(extractedSignificand, 0, 0)),
		b.UIsAllZeros(b.UAndBits(extractedSignificand, subnormalIncrementAmount)))

	roundUp := roundingDecision(b, rm, uf.Sign, significandEven,
		chosenGuardBit, chosenStickyBit,
		b.Or(known.Exact, b.And(known.SubnormalExact, b.Not(normalRoundingRange))))

	lOne := leadingOne(b, targetSignificandWidth)

	// Convert the round-up flag into an addend.
	normalRoundUpAmount := b.UMatchWidth(b.UFromProp(roundUp), extractedSignificand)
	subnormalRoundUpMask := b.USignExtShr(
		b.UAppend(b.UFromProp(roundUp), b.UZero(targetSignificandWidth)),
		b.ULit(targetSignificandWidth+1, uint64(targetSignificandWidth)))
	subnormalRoundUpAmount := b.UAndBits(subnormalRoundUpMask, subnormalIncrementAmount)

	rawRoundedSignificand := b.UAdd(
		b.UITE(normalRounding, extractedSignificand, subnormalMaskedSignificand),
		b.UITE(normalRounding, normalRoundUpAmount, subnormalRoundUpAmount))

	// The increment may carry out of the leading one; re-add it and
	// note that the exponent needs incrementing.
	significandOverflow := b.UIsAllOnes(b.UExtract(rawRoundedSignificand, targetSignificandWidth, targetSignificandWidth))
	b.Invariant(b.Implies(significandOverflow, roundUp))

	extractedRoundedSignificand := b.UExtract(rawRoundedSignificand, targetSignificandWidth-1, 0)
	roundedSignificand := b.UOrBits(extractedRoundedSignificand, lOne)
	b.Invariant(b.Implies(significandOverflow, b.UIsAllZeros(extractedRoundedSignificand)))

	/*** Round to correct exponent ***/
	extendedExponent := b.SExtend(exp, 1)

	incrementExponentNeeded := b.And(roundUp, significandOverflow)
	incrementExponent := b.And(b.Not(known.NoSignificandOverflow), incrementExponentNeeded)
	b.Invariant(b.Implies(known.NoSignificandOverflow, b.Not(incrementExponentNeeded)))

	correctedExponent := conditionalIncrementS(b, incrementExponent, extendedExponent)

	maxNormal := b.SMatchWidth(maxNormalExponent(b, f), correctedExponent)
	minSubnormal := b.SMatchWidth(minSubnormalExponent(b, f), correctedExponent)

	correctedExponentInRange := collarS(b, correctedExponent, minSubnormal, maxNormal)

	// Out-of-range values are collared; their encodings are unused.
	currentExponentWidth := b.SWidth(correctedExponentInRange)
	roundedExponent := b.SContract(correctedExponentInRange, currentExponentWidth-targetExponentWidth)

	/*** Finish ***/
	computedOverflow := b.And(potentialLateOverflow, incrementExponentNeeded)
	computedUnderflow := b.And(potentialLateUnderflow, b.Not(incrementExponentNeeded))

	lateOverflow := b.And(b.Not(earlyOverflow), computedOverflow)
	lateUnderflow := b.And(b.Not(earlyUnderflow), computedUnderflow)

	overflow := b.And(b.Not(known.NoOverflow), b.ITE(lateOverflow, b.Bool(true), earlyOverflow))
	underflow := b.And(b.Not(known.NoUnderflow), b.ITE(lateUnderflow, b.Bool(true), earlyUnderflow))

	roundedResult := makeNumber(b, uf.Sign, roundedExponent, roundedSignificand)
	result := rounderSpecialCases(b, f, rm, roundedResult, overflow, underflow, uf.Zero)

	b.Postcondition(Valid(b, f, result))

	return result
}
