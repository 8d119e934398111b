package core

import "github.com/23skdu/longbow-bodkin/internal/backend"

// ConvertFormat converts between floating-point formats.  A strict
// promotion is exact and needs no rounder; anything else rounds in the
// target format.
func ConvertFormat[P, U, S, R any](b be[P, U, S, R], sourceFormat, targetFormat backend.Format,
	rm R, input Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, sourceFormat, input))

	// Increased includes equality.
	exponentIncreased := sourceFormat.UnpackedExponentWidth() <= targetFormat.UnpackedExponentWidth()
	significandIncreased := sourceFormat.UnpackedSignificandWidth() <= targetFormat.UnpackedSignificandWidth()

	var expExtension, sigExtension backend.Width
	if exponentIncreased {
		expExtension = targetFormat.UnpackedExponentWidth() - sourceFormat.UnpackedExponentWidth()
	}
	if significandIncreased {
		sigExtension = targetFormat.UnpackedSignificandWidth() - sourceFormat.UnpackedSignificandWidth()
	}

	extended := extendUF(b, input, expExtension, sigExtension)

	// Format sizes are literal so branching on them is safe.
	if exponentIncreased && significandIncreased {
		// Fast path strict promotions.
		b.Postcondition(Valid(b, targetFormat, extended))
		return extended
	}

	// The rounder needs guard and sticky bits; pad with zeros when
	// the source significand is not at least two bits wider than the
	// target.
	if need := targetFormat.UnpackedSignificandWidth() + 2; b.UWidth(extended.Significand) < need {
		extended = extendUF(b, extended, 0, need-b.UWidth(extended.Significand))
	}

	rounded := Round(b, targetFormat, rm, extended)

	result := iteUF(b, input.NaN,
		MakeNaN(b, targetFormat),
		iteUF(b, input.Inf,
			MakeInf(b, targetFormat, input.Sign),
			iteUF(b, input.Zero,
				MakeZero(b, targetFormat, input.Sign),
				rounded)))

	b.Postcondition(Valid(b, targetFormat, result))

	return result
}

// RoundToIntegral rounds to a nearby integer under the given mode.
// The sign is preserved, including on results that round to zero.
func RoundToIntegral[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	input Unpacked[P, U, S]) Unpacked[P, U, S] {

	b.Precondition(Valid(b, f, input))

	exponent := input.Exponent
	exponentWidth := b.SWidth(exponent)

	packedSigWidth := b.SLit(exponentWidth, int64(f.PackedSignificandWidth()))
	unpackedSigWidth := b.SLit(exponentWidth, int64(f.UnpackedSignificandWidth()))

	// Fast path for things that must already be integral.
	isIntegral := b.SGe(exponent, packedSigWidth)
	isSpecial := b.Or(input.NaN, b.Or(input.Inf, input.Zero))
	isID := b.Or(isIntegral, isSpecial)

	// Otherwise, the rounding point lies within the significand.
	initialRoundingPoint := expandingSubtractS(b, packedSigWidth, exponent)
	roundingPoint := collarS(b, initialRoundingPoint,
		b.SZero(exponentWidth+1),
		b.SInc(b.SExtend(unpackedSigWidth, 1)))

	significand := input.Significand
	roundedResult := variablePositionRound(b, rm, input.Sign, significand,
		b.UMatchWidth(b.SToUnsigned(roundingPoint), significand),
		b.Bool(false),
		isID) // fast-path case, so just deactivate the rounding

	// The max catches very small numbers rounding up to one; the
	// rounder gives a zero significand if they do not round up.
	reconstructed := makeNumber(b, input.Sign,
		maxS(b,
			conditionalIncrementS(b, roundedResult.IncrementExponent, exponent),
			b.SZero(exponentWidth)),
		roundedResult.Significand)

	result := iteUF(b, isID,
		input,
		iteUF(b, b.UIsAllZeros(roundedResult.Significand),
			MakeZero(b, f, input.Sign),
			reconstructed))

	b.Postcondition(Valid(b, f, result))

	return result
}

// ConvertUBVToFloat converts an unsigned bit-vector, read as an
// integer with decimalPointPosition fractional bits, to a float.
func ConvertUBVToFloat[P, U, S, R any](b be[P, U, S, R], targetFormat backend.Format,
	rm R, input U, decimalPointPosition backend.Width) Unpacked[P, U, S] {

	inputWidth := b.UWidth(input)
	checkLit(decimalPointPosition <= inputWidth, "decimal point outside input")

	// Devise a format the input is exact in; +1 exponent bit as the
	// input is unsigned.
	initialExponentWidth := backend.BitsToRepresent(uint64(inputWidth)) + 1
	initialFormat := backend.Format{ExpBits: initialExponentWidth, SigBits: inputWidth}
	actualExponentWidth := initialFormat.UnpackedExponentWidth()

	// One bit above the decimal point.
	initial := makeNumber(b, b.Bool(false),
		b.SLit(actualExponentWidth, int64(inputWidth-1)-int64(decimalPointPosition)),
		input)

	normalised := normaliseUpDetectZero(b, initialFormat, initial)

	// The conversion catches the cases where no rounding is needed.
	return ConvertFormat(b, initialFormat, targetFormat, rm, normalised)
}

// ConvertSBVToFloat converts a signed bit-vector, read as an integer
// with decimalPointPosition fractional bits, to a float.
func ConvertSBVToFloat[P, U, S, R any](b be[P, U, S, R], targetFormat backend.Format,
	rm R, input S, decimalPointPosition backend.Width) Unpacked[P, U, S] {

	inputWidth := b.SWidth(input)
	checkLit(decimalPointPosition <= inputWidth, "decimal point outside input")

	// +1 exponent bit as unsigned -> signed, +1 significand bit as
	// signed -> unsigned.
	initialExponentWidth := backend.BitsToRepresent(uint64(inputWidth)) + 1
	initialFormat := backend.Format{ExpBits: initialExponentWidth, SigBits: inputWidth + 1}
	actualExponentWidth := initialFormat.UnpackedExponentWidth()

	negative := b.SLt(input, b.SZero(inputWidth))

	initial := makeNumber(b, negative,
		b.SLit(actualExponentWidth, int64(inputWidth)-int64(decimalPointPosition)),
		b.SToUnsigned(absS(b, b.SExtend(input, 1))))

	normalised := normaliseUpDetectZero(b, initialFormat, initial)

	return ConvertFormat(b, initialFormat, targetFormat, rm, normalised)
}

// convertFloatToBV is the common alignment and fixed-position rounding
// for both integer conversions.  The result is junk when out of
// bounds; the callers handle that.
func convertFloatToBV[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	input Unpacked[P, U, S], targetWidth, decimalPointPosition backend.Width) SignificandRounderResult[U, P] {

	checkLit(decimalPointPosition < targetWidth, "decimal point outside target")

	maxShift := targetWidth + 1 // over the guard bit
	maxShiftBits := backend.BitsToRepresent(uint64(maxShift)) + 1

	exponentWidth := b.SWidth(input.Exponent)
	workingExponentWidth := exponentWidth
	if maxShiftBits > workingExponentWidth {
		workingExponentWidth = maxShiftBits
	}

	maxShiftAmount := b.SLit(workingExponentWidth, int64(maxShift))
	exponent := b.SMatchWidth(input.Exponent, maxShiftAmount)

	// Compact the significand when it is wider than needed.
	inputSignificand := input.Significand
	inputSignificandWidth := b.UWidth(inputSignificand)
	var significand U
	if targetWidth+2 < inputSignificandWidth {
		dataAndGuard := b.UExtract(inputSignificand, inputSignificandWidth-1, (inputSignificandWidth-targetWidth)-1)
		sticky := b.Not(b.UIsAllZeros(b.UExtract(inputSignificand, (inputSignificandWidth-targetWidth)-2, 0)))
		significand = b.UAppend(dataAndGuard, b.UFromProp(sticky))
	} else {
		significand = inputSignificand
	}
	significandWidth := b.UWidth(significand)

	zerodSignificand := b.UAndBits(significand,
		b.UITE(input.Zero, b.UZero(significandWidth), b.UAllOnes(significandWidth)))
	// Start with the significand in the sticky position.
	expandedSignificand := b.UExtend(zerodSignificand, maxShift)

	// Align; +1 to the guard position, +1 to the LSB.
	shiftAmount := collarS(b,
		expandingAddS(b, exponent, b.SLit(workingExponentWidth, int64(decimalPointPosition)+2)),
		b.SZero(workingExponentWidth+1),
		b.SExtend(maxShiftAmount, 1))
	// The sign bit is zero thanks to the collar.
	convertedShiftAmount := b.UMatchWidth(
		b.SToUnsigned(b.SResize(shiftAmount, backend.BitsToRepresent(uint64(maxShift))+1)),
		expandedSignificand)
	aligned := b.UShl(expandedSignificand, convertedShiftAmount)

	return fixedPositionRound(b, rm, input.Sign, aligned, targetWidth,
		b.Bool(false), b.Bool(false))
}

// convertFloatToBVRTZ is a compact round-to-zero variant.  It handles
// the normal, subnormal and zero cases only; Inf, NaN and overflow of
// the target width must be handled by the caller.
func convertFloatToBVRTZ[P, U, S, R any](b be[P, U, S, R], f backend.Format,
	input Unpacked[P, U, S], targetWidth, decimalPointPosition backend.Width) SignificandRounderResult[U, P] {

	checkLit(targetWidth > 0, "empty target")
	checkLit(decimalPointPosition < targetWidth, "decimal point outside target")

	significand := input.Significand
	significandWidth := b.UWidth(significand)

	lower := backend.Width(0)
	if targetWidth < significandWidth {
		lower = significandWidth - targetWidth
	}
	significantSignificand := b.UExtract(significand, significandWidth-1, lower)
	ssWidth := b.UWidth(significantSignificand)

	// Zero and fractional inputs truncate to zero.
	exponent := input.Exponent
	exponentWidth := b.SWidth(exponent)

	fraction := b.SLt(exponent, b.SZero(exponentWidth))
	zerodSignificand := b.UAndBits(significantSignificand,
		b.UITE(b.Or(input.Zero, fraction), b.UZero(ssWidth), b.UAllOnes(ssWidth)))

	// Start with the significand at the LSB of the output.
	expandedSignificand := b.UExtend(zerodSignificand, targetWidth-1)

	maxShift := targetWidth - 1
	maxShiftBits := backend.BitsToRepresent(uint64(maxShift))

	convertedExponent := b.SToUnsigned(exponent)
	topExtractedBit := maxShiftBits - 1
	if maxShiftBits > exponentWidth-1 {
		topExtractedBit = exponentWidth - 1
	}

	shiftBits := b.UExtract(convertedExponent, topExtractedBit, 0)
	shiftOperand := b.UMatchWidth(shiftBits, expandedSignificand)

	shifted := b.UModShl(expandedSignificand, shiftOperand)
	shiftedWidth := b.UWidth(shifted)

	result := b.UExtract(shifted, shiftedWidth-1, shiftedWidth-targetWidth)

	return SignificandRounderResult[U, P]{Significand: result, IncrementExponent: b.Bool(false)}
}

// ConvertFloatToUBV converts to an unsigned integer of targetWidth
// bits.  undefValue is returned bit-identically for NaN, infinity,
// out-of-range inputs and negative inputs that do not round to zero;
// negative values that round to zero give zero.
func ConvertFloatToUBV[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	input Unpacked[P, U, S], targetWidth backend.Width, undefValue U,
	decimalPointPosition backend.Width) U {

	checkLit(decimalPointPosition < targetWidth, "decimal point outside target")

	specialValue := b.Or(input.Inf, input.NaN)

	maxExponentValue := targetWidth
	maxExponentBits := backend.BitsToRepresent(uint64(maxExponentValue)) + 1

	exponentWidth := b.SWidth(input.Exponent)
	workingExponentWidth := exponentWidth
	if maxExponentBits > workingExponentWidth {
		workingExponentWidth = maxExponentBits
	}

	maxExponent := b.SLit(workingExponentWidth, int64(maxExponentValue))
	exponent := b.SMatchWidth(input.Exponent, maxExponent)

	tooLarge := b.SGe(exponent, maxExponent)

	tooNegative := b.And(input.Sign,
		b.And(b.Not(input.Zero), // zero is handled elsewhere
			b.SLe(b.SZero(workingExponentWidth), exponent))) // cannot round to 0

	earlyUndefinedResult := b.Or(specialValue, b.Or(tooLarge, tooNegative))

	rounded := convertFloatToBV(b, f, rm, input, targetWidth, decimalPointPosition)

	undefinedResult := b.Or(earlyUndefinedResult,
		b.Or(rounded.IncrementExponent, // overflow
			b.And(input.Sign, b.Not(b.UIsAllZeros(rounded.Significand))))) // negative

	return b.UITE(undefinedResult, undefValue, rounded.Significand)
}

// ConvertFloatToSBV converts to a signed integer of targetWidth bits.
// undefValue is returned bit-identically for NaN, infinity and
// out-of-range inputs; -2^(targetWidth-1) is the single safe overflow
// case.
func ConvertFloatToSBV[P, U, S, R any](b be[P, U, S, R], f backend.Format, rm R,
	input Unpacked[P, U, S], targetWidth backend.Width, undefValue S,
	decimalPointPosition backend.Width) S {

	checkLit(decimalPointPosition < targetWidth, "decimal point outside target")

	specialValue := b.Or(input.Inf, input.NaN)

	maxExponentValue := targetWidth
	maxExponentBits := backend.BitsToRepresent(uint64(maxExponentValue)) + 1

	exponentWidth := b.SWidth(input.Exponent)
	workingExponentWidth := exponentWidth
	if maxExponentBits > workingExponentWidth {
		workingExponentWidth = maxExponentBits
	}

	maxExponent := b.SLit(workingExponentWidth, int64(maxExponentValue))
	exponent := b.SMatchWidth(input.Exponent, maxExponent)

	tooLarge := b.SGe(exponent, maxExponent)

	earlyUndefinedResult := b.Or(specialValue, tooLarge)

	// It is tempting to round to targetWidth - 1 bits, but that
	// misses cases like -128.05 -> int8.
	rounded := convertFloatToBV(b, f, rm, input, targetWidth, decimalPointPosition)

	roundSigWidth := b.UWidth(rounded.Significand)
	undefinedResult := b.Or(earlyUndefinedResult,
		b.Or(rounded.IncrementExponent,
			b.And(b.UIsAllOnes(b.UExtract(rounded.Significand, roundSigWidth-1, roundSigWidth-1)),
				b.Not(b.And(input.Sign, b.UIsAllZeros(b.UExtract(rounded.Significand, roundSigWidth-2, 0)))))))

	return b.SITE(undefinedResult,
		undefValue,
		conditionalNegateS(b, input.Sign, b.UToSigned(rounded.Significand)))
}
