// Package exec is the executable back-end: bit-vectors are widths
// paired with machine words, propositions are bools, and every checked
// operation asserts its contract.  It is deliberately simple and
// strict; it exists to compute reference results and to catch misuse
// of the core algorithms, not to be fast.
//
// Widths up to 64 bits are supported, which covers binary16 and
// binary32 end-to-end and binary64 for the operations whose
// intermediate significands stay within a word.
package exec

import (
	"fmt"

	"github.com/23skdu/longbow-bodkin/internal/backend"
)

// BV is an unsigned bit-vector: a value masked to W bits.
type BV struct {
	W backend.Width
	V uint64
}

// SV is a signed bit-vector: a W-bit two's-complement value stored
// sign-extended in an int64.
type SV struct {
	W backend.Width
	V int64
}

// RM is a rounding mode.
type RM uint8

const (
	RNE RM = iota // nearest, ties to even
	RNA           // nearest, ties away from zero
	RTP           // toward positive
	RTN           // toward negative
	RTZ           // toward zero
)

func (m RM) String() string {
	switch m {
	case RNE:
		return "RNE"
	case RNA:
		return "RNA"
	case RTP:
		return "RTP"
	case RTN:
		return "RTN"
	case RTZ:
		return "RTZ"
	}
	return fmt.Sprintf("RM(%d)", uint8(m))
}

// Backend implements backend.Backend[bool, BV, SV, RM].
type Backend struct{}

var _ backend.Backend[bool, BV, SV, RM] = Backend{}

const maxWidth = 64

func ones(w backend.Width) uint64 {
	if w >= maxWidth {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

func check(cond bool, msg string) {
	if !cond {
		panic("exec: " + msg)
	}
}

func checkWidth(w backend.Width) {
	check(w > 0 && w <= maxWidth, "width out of range")
}

func sameWidth(a, b backend.Width) {
	check(a == b, "width mismatch")
}

func signExtend(v uint64, w backend.Width) int64 {
	shift := maxWidth - w
	return int64(v<<shift) >> shift
}

func mkBV(w backend.Width, v uint64) BV {
	checkWidth(w)
	check(v == v&ones(w), "unsigned value not representable at width")
	return BV{W: w, V: v}
}

func modBV(w backend.Width, v uint64) BV {
	checkWidth(w)
	return BV{W: w, V: v & ones(w)}
}

func mkSV(w backend.Width, v int64) SV {
	checkWidth(w)
	check(v == signExtend(uint64(v), w), "signed value not representable at width")
	return SV{W: w, V: v}
}

func modSV(w backend.Width, v int64) SV {
	checkWidth(w)
	return SV{W: w, V: signExtend(uint64(v), w)}
}

/*** Propositions ***/

func (Backend) Bool(v bool) bool          { return v }
func (Backend) Not(p bool) bool           { return !p }
func (Backend) And(p, q bool) bool        { return p && q }
func (Backend) Or(p, q bool) bool         { return p || q }
func (Backend) Xor(p, q bool) bool        { return p != q }
func (Backend) Iff(p, q bool) bool        { return p == q }
func (Backend) Implies(p, q bool) bool    { return !p || q }
func (Backend) ITE(c, t, f bool) bool {
	if c {
		return t
	}
	return f
}

/*** Rounding modes ***/

func (Backend) RNE() RM          { return RNE }
func (Backend) RNA() RM          { return RNA }
func (Backend) RTP() RM          { return RTP }
func (Backend) RTN() RM          { return RTN }
func (Backend) RTZ() RM          { return RTZ }
func (Backend) RMEq(a, b RM) bool { return a == b }

/*** Unsigned bit-vectors ***/

func (Backend) ULit(w backend.Width, v uint64) BV { return mkBV(w, v) }
func (Backend) UZero(w backend.Width) BV          { return mkBV(w, 0) }
func (Backend) UOne(w backend.Width) BV           { return mkBV(w, 1) }
func (Backend) UAllOnes(w backend.Width) BV       { return BV{W: w, V: ones(w)} }

func (Backend) UFromProp(p bool) BV {
	if p {
		return BV{W: 1, V: 1}
	}
	return BV{W: 1, V: 0}
}

func (Backend) UWidth(x BV) backend.Width { return x.W }

func (Backend) UAdd(x, y BV) BV {
	sameWidth(x.W, y.W)
	sum := x.V + y.V
	check(sum >= x.V, "unsigned add overflow")
	return mkBV(x.W, sum)
}

func (Backend) USub(x, y BV) BV {
	sameWidth(x.W, y.W)
	check(x.V >= y.V, "unsigned subtract underflow")
	return mkBV(x.W, x.V-y.V)
}

func (Backend) UMul(x, y BV) BV {
	sameWidth(x.W, y.W)
	if y.V != 0 {
		check(x.V <= ones(x.W)/y.V, "unsigned multiply overflow")
	}
	return mkBV(x.W, x.V*y.V)
}

func (Backend) UDiv(x, y BV) BV {
	sameWidth(x.W, y.W)
	check(y.V != 0, "unsigned divide by zero")
	return mkBV(x.W, x.V/y.V)
}

func (Backend) URem(x, y BV) BV {
	sameWidth(x.W, y.W)
	check(y.V != 0, "unsigned remainder by zero")
	return mkBV(x.W, x.V%y.V)
}

func (Backend) UNotBits(x BV) BV     { return BV{W: x.W, V: ^x.V & ones(x.W)} }
func (Backend) UAndBits(x, y BV) BV { sameWidth(x.W, y.W); return BV{W: x.W, V: x.V & y.V} }
func (Backend) UOrBits(x, y BV) BV  { sameWidth(x.W, y.W); return BV{W: x.W, V: x.V | y.V} }

func (Backend) UShl(x, shift BV) BV {
	sameWidth(x.W, shift.W)
	check(shift.V < uint64(x.W), "left shift amount out of range")
	return mkBV(x.W, x.V<<shift.V)
}

func (Backend) UShr(x, shift BV) BV {
	sameWidth(x.W, shift.W)
	check(shift.V < uint64(x.W), "right shift amount out of range")
	return BV{W: x.W, V: x.V >> shift.V}
}

func (Backend) USignExtShr(x, shift BV) BV {
	sameWidth(x.W, shift.W)
	sv := signExtend(x.V, x.W)
	n := shift.V
	if n > maxWidth-1 {
		n = maxWidth - 1
	}
	return BV{W: x.W, V: uint64(sv>>n) & ones(x.W)}
}

func (Backend) UModShl(x, shift BV) BV {
	sameWidth(x.W, shift.W)
	if shift.V >= uint64(x.W) {
		return BV{W: x.W, V: 0}
	}
	return modBV(x.W, x.V<<shift.V)
}

func (Backend) UModShr(x, shift BV) BV {
	sameWidth(x.W, shift.W)
	if shift.V >= uint64(x.W) {
		return BV{W: x.W, V: 0}
	}
	return BV{W: x.W, V: x.V >> shift.V}
}

func (Backend) UModAdd(x, y BV) BV { sameWidth(x.W, y.W); return modBV(x.W, x.V+y.V) }
func (Backend) UModNeg(x BV) BV    { return modBV(x.W, -x.V) }
func (Backend) UModInc(x BV) BV    { return modBV(x.W, x.V+1) }
func (Backend) UModDec(x BV) BV    { return modBV(x.W, x.V-1) }

func (Backend) UInc(x BV) BV { return mkBV(x.W, x.V+1) }
func (Backend) UDec(x BV) BV { check(x.V > 0, "unsigned decrement underflow"); return BV{W: x.W, V: x.V - 1} }

func (Backend) UEq(x, y BV) bool { sameWidth(x.W, y.W); return x.V == y.V }
func (Backend) ULe(x, y BV) bool { sameWidth(x.W, y.W); return x.V <= y.V }
func (Backend) ULt(x, y BV) bool { sameWidth(x.W, y.W); return x.V < y.V }
func (Backend) UGe(x, y BV) bool { sameWidth(x.W, y.W); return x.V >= y.V }
func (Backend) UGt(x, y BV) bool { sameWidth(x.W, y.W); return x.V > y.V }

func (Backend) UIsAllZeros(x BV) bool { return x.V == 0 }
func (Backend) UIsAllOnes(x BV) bool  { return x.V == ones(x.W) }

func (Backend) UExtend(x BV, n backend.Width) BV {
	checkWidth(x.W + n)
	return BV{W: x.W + n, V: x.V}
}

func (Backend) UContract(x BV, n backend.Width) BV {
	check(x.W > n, "contract below one bit")
	return mkBV(x.W-n, x.V)
}

func (Backend) UResize(x BV, w backend.Width) BV { return modBV(w, x.V) }

func (Backend) UMatchWidth(x, target BV) BV {
	check(x.W <= target.W, "matchWidth target narrower than source")
	return BV{W: target.W, V: x.V}
}

func (Backend) UAppend(x, y BV) BV {
	checkWidth(x.W + y.W)
	return BV{W: x.W + y.W, V: x.V<<y.W | y.V}
}

func (Backend) UExtract(x BV, upper, lower backend.Width) BV {
	check(upper < x.W && lower <= upper, "extract range out of bounds")
	n := upper - lower + 1
	return BV{W: n, V: (x.V >> lower) & ones(n)}
}

func (Backend) UToSigned(x BV) SV { return SV{W: x.W, V: signExtend(x.V, x.W)} }

func (Backend) UITE(c bool, t, f BV) BV {
	sameWidth(t.W, f.W)
	if c {
		return t
	}
	return f
}

/*** Signed bit-vectors ***/

func (Backend) SLit(w backend.Width, v int64) SV { return mkSV(w, v) }
func (Backend) SZero(w backend.Width) SV         { return mkSV(w, 0) }
func (Backend) SOne(w backend.Width) SV          { return mkSV(w, 1) }

func (Backend) SWidth(x SV) backend.Width { return x.W }

func (Backend) SAdd(x, y SV) SV { sameWidth(x.W, y.W); return mkSV(x.W, x.V+y.V) }
func (Backend) SSub(x, y SV) SV { sameWidth(x.W, y.W); return mkSV(x.W, x.V-y.V) }
func (Backend) SNeg(x SV) SV    { return mkSV(x.W, -x.V) }
func (Backend) SModNeg(x SV) SV { return modSV(x.W, -x.V) }
func (Backend) SInc(x SV) SV    { return mkSV(x.W, x.V+1) }
func (Backend) SDec(x SV) SV    { return mkSV(x.W, x.V-1) }

func (Backend) SAndBits(x, y SV) SV { sameWidth(x.W, y.W); return SV{W: x.W, V: x.V & y.V} }

func (Backend) SSignExtShr(x, shift SV) SV {
	sameWidth(x.W, shift.W)
	check(shift.V >= 0 && shift.V < int64(x.W), "arithmetic shift amount out of range")
	return SV{W: x.W, V: x.V >> shift.V}
}

func (Backend) SEq(x, y SV) bool { sameWidth(x.W, y.W); return x.V == y.V }
func (Backend) SLe(x, y SV) bool { sameWidth(x.W, y.W); return x.V <= y.V }
func (Backend) SLt(x, y SV) bool { sameWidth(x.W, y.W); return x.V < y.V }
func (Backend) SGe(x, y SV) bool { sameWidth(x.W, y.W); return x.V >= y.V }
func (Backend) SGt(x, y SV) bool { sameWidth(x.W, y.W); return x.V > y.V }

func (Backend) SIsAllZeros(x SV) bool { return x.V == 0 }

func (Backend) SExtend(x SV, n backend.Width) SV {
	checkWidth(x.W + n)
	return SV{W: x.W + n, V: x.V}
}

func (Backend) SContract(x SV, n backend.Width) SV {
	check(x.W > n, "contract below one bit")
	return mkSV(x.W-n, x.V)
}

func (Backend) SResize(x SV, w backend.Width) SV { return modSV(w, x.V) }

func (Backend) SMatchWidth(x, target SV) SV {
	check(x.W <= target.W, "matchWidth target narrower than source")
	return SV{W: target.W, V: x.V}
}

func (Backend) SToUnsigned(x SV) BV { return BV{W: x.W, V: uint64(x.V) & ones(x.W)} }

func (Backend) SITE(c bool, t, f SV) SV {
	sameWidth(t.W, f.W)
	if c {
		return t
	}
	return f
}

/*** Contracts ***/

func (Backend) Precondition(p bool)  { check(p, "precondition violated") }
func (Backend) Invariant(p bool)     { check(p, "invariant violated") }
func (Backend) Postcondition(p bool) { check(p, "postcondition violated") }
