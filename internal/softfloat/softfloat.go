// Package softfloat is the executable face of the engine: IEEE-754
// operations on packed bit patterns, computed by instantiating the
// core algorithms with the exec back-end.
//
// binary16 and binary32 are supported across every operation.
// binary64 works for the operations whose intermediate significands
// fit a 64-bit word (add, subtract, compare, classify, convert);
// multiply, divide, sqrt and fma on binary64 exceed the exec
// back-end's word size and panic.
package softfloat

import (
	"github.com/23skdu/longbow-bodkin/internal/backend"
	"github.com/23skdu/longbow-bodkin/internal/core"
	"github.com/23skdu/longbow-bodkin/internal/exec"
)

// RoundingMode selects the IEEE-754 rounding attribute.
type RoundingMode = exec.RM

const (
	RNE = exec.RNE
	RNA = exec.RNA
	RTP = exec.RTP
	RTN = exec.RTN
	RTZ = exec.RTZ
)

// The exec instantiation, typed as the trait bundle so that the
// compiler resolves every core call against it.
var eb backend.Backend[bool, exec.BV, exec.SV, exec.RM] = exec.Backend{}

type unpacked = core.Unpacked[bool, exec.BV, exec.SV]

func unpackBits(f backend.Format, bits uint64) unpacked {
	return core.Unpack(eb, f, exec.BV{W: f.PackedWidth(), V: bits})
}

func packBits(f backend.Format, uf unpacked) uint64 {
	return core.Pack(eb, f, uf).V
}

/*** Format-generic entry points on packed words. ***/

// Add computes a + b in the given format.
func Add(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.Add(eb, f, rm, unpackBits(f, a), unpackBits(f, b), true))
}

// Sub computes a - b in the given format.
func Sub(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.Add(eb, f, rm, unpackBits(f, a), unpackBits(f, b), false))
}

// AddWithBypass is Add via the very-far-path bypass adder.
func AddWithBypass(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.AddWithBypass(eb, f, rm, unpackBits(f, a), unpackBits(f, b), true))
}

// SubWithBypass is Sub via the very-far-path bypass adder.
func SubWithBypass(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.AddWithBypass(eb, f, rm, unpackBits(f, a), unpackBits(f, b), false))
}

// DualPathAdd is Add via the classic two-path adder.
func DualPathAdd(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.DualPathAdd(eb, f, rm, unpackBits(f, a), unpackBits(f, b), true))
}

// DualPathSub is Sub via the classic two-path adder.
func DualPathSub(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.DualPathAdd(eb, f, rm, unpackBits(f, a), unpackBits(f, b), false))
}

// Mul computes a * b in the given format.
func Mul(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.Multiply(eb, f, rm, unpackBits(f, a), unpackBits(f, b)))
}

// Div computes a / b in the given format.
func Div(f backend.Format, rm RoundingMode, a, b uint64) uint64 {
	return packBits(f, core.Divide(eb, f, rm, unpackBits(f, a), unpackBits(f, b)))
}

// Sqrt computes the square root of a in the given format.
func Sqrt(f backend.Format, rm RoundingMode, a uint64) uint64 {
	return packBits(f, core.Sqrt(eb, f, rm, unpackBits(f, a)))
}

// Fma computes a*b + c with a single rounding.
func Fma(f backend.Format, rm RoundingMode, a, b, c uint64) uint64 {
	return packBits(f, core.Fma(eb, f, rm, unpackBits(f, a), unpackBits(f, b), unpackBits(f, c)))
}

// Rem computes the IEEE-754 remainder of a by b.
func Rem(f backend.Format, a, b uint64) uint64 {
	return packBits(f, core.Remainder(eb, f, unpackBits(f, a), unpackBits(f, b)))
}

// Neg flips the sign of a; any NaN gives the canonical quiet NaN.
func Neg(f backend.Format, a uint64) uint64 {
	return packBits(f, core.Negate(eb, f, unpackBits(f, a)))
}

// Abs clears the sign of a; any NaN gives the canonical quiet NaN.
func Abs(f backend.Format, a uint64) uint64 {
	return packBits(f, core.Absolute(eb, f, unpackBits(f, a)))
}

// RoundToIntegral rounds a to an integer under rm.
func RoundToIntegral(f backend.Format, rm RoundingMode, a uint64) uint64 {
	return packBits(f, core.RoundToIntegral(eb, f, rm, unpackBits(f, a)))
}

// Max returns the larger operand; NaN loses to any number and
// max(+0,-0) may return either zero, as IEEE-754 permits.
func Max(f backend.Format, a, b uint64) uint64 {
	return packBits(f, core.Max(eb, f, unpackBits(f, a), unpackBits(f, b), false))
}

// Min returns the smaller operand; NaN loses to any number and
// min(+0,-0) may return either zero, as IEEE-754 permits.
func Min(f backend.Format, a, b uint64) uint64 {
	return packBits(f, core.Min(eb, f, unpackBits(f, a), unpackBits(f, b), false))
}

// Convert rounds a from one format into another.
func Convert(from, to backend.Format, rm RoundingMode, a uint64) uint64 {
	return packBits(to, core.ConvertFormat(eb, from, to, rm, unpackBits(from, a)))
}

// FromUint converts an unsigned integer of the given width to a float.
func FromUint(f backend.Format, rm RoundingMode, v uint64, width backend.Width) uint64 {
	return packBits(f, core.ConvertUBVToFloat(eb, f, rm, exec.BV{W: width, V: v}, 0))
}

// FromInt converts a signed integer of the given width to a float.
func FromInt(f backend.Format, rm RoundingMode, v int64, width backend.Width) uint64 {
	return packBits(f, core.ConvertSBVToFloat(eb, f, rm, exec.SV{W: width, V: v}, 0))
}

// ToUint converts a to an unsigned integer of the given width,
// returning undef for NaN, infinities and out-of-range values.
func ToUint(f backend.Format, rm RoundingMode, a uint64, width backend.Width, undef uint64) uint64 {
	return core.ConvertFloatToUBV(eb, f, rm, unpackBits(f, a), width,
		exec.BV{W: width, V: undef}, 0).V
}

// ToInt converts a to a signed integer of the given width, returning
// undef for NaN, infinities and out-of-range values.
func ToInt(f backend.Format, rm RoundingMode, a uint64, width backend.Width, undef int64) int64 {
	return core.ConvertFloatToSBV(eb, f, rm, unpackBits(f, a), width,
		exec.SV{W: width, V: undef}, 0).V
}

/*** Predicates. ***/

// Eq is IEEE-754 equality: false on NaN, and -0 equals +0.
func Eq(f backend.Format, a, b uint64) bool {
	return core.IEEE754Equal(eb, f, unpackBits(f, a), unpackBits(f, b))
}

// StructuralEq is SMT-LIB equality: NaN equals NaN, -0 differs from +0.
func StructuralEq(f backend.Format, a, b uint64) bool {
	return core.SmtlibEqual(eb, f, unpackBits(f, a), unpackBits(f, b))
}

// Lt is the IEEE-754 < predicate.
func Lt(f backend.Format, a, b uint64) bool {
	return core.LessThan(eb, f, unpackBits(f, a), unpackBits(f, b))
}

// Le is the IEEE-754 <= predicate.
func Le(f backend.Format, a, b uint64) bool {
	return core.LessThanOrEqual(eb, f, unpackBits(f, a), unpackBits(f, b))
}

func IsNaN(f backend.Format, a uint64) bool  { return core.IsNaN(eb, f, unpackBits(f, a)) }
func IsInf(f backend.Format, a uint64) bool  { return core.IsInfinite(eb, f, unpackBits(f, a)) }
func IsZero(f backend.Format, a uint64) bool { return core.IsZero(eb, f, unpackBits(f, a)) }
func IsNormal(f backend.Format, a uint64) bool {
	return core.IsNormal(eb, f, unpackBits(f, a))
}
func IsSubnormal(f backend.Format, a uint64) bool {
	return core.IsSubnormal(eb, f, unpackBits(f, a))
}
func IsPositive(f backend.Format, a uint64) bool {
	return core.IsPositive(eb, f, unpackBits(f, a))
}
func IsNegative(f backend.Format, a uint64) bool {
	return core.IsNegative(eb, f, unpackBits(f, a))
}
func IsFinite(f backend.Format, a uint64) bool {
	return core.IsFinite(eb, f, unpackBits(f, a))
}

/*** binary32 shorthands, the main harness surface. ***/

func Add32(rm RoundingMode, a, b uint32) uint32 {
	return uint32(Add(backend.Binary32, rm, uint64(a), uint64(b)))
}

func Sub32(rm RoundingMode, a, b uint32) uint32 {
	return uint32(Sub(backend.Binary32, rm, uint64(a), uint64(b)))
}

func Mul32(rm RoundingMode, a, b uint32) uint32 {
	return uint32(Mul(backend.Binary32, rm, uint64(a), uint64(b)))
}

func Div32(rm RoundingMode, a, b uint32) uint32 {
	return uint32(Div(backend.Binary32, rm, uint64(a), uint64(b)))
}

func Sqrt32(rm RoundingMode, a uint32) uint32 {
	return uint32(Sqrt(backend.Binary32, rm, uint64(a)))
}

func Fma32(rm RoundingMode, a, b, c uint32) uint32 {
	return uint32(Fma(backend.Binary32, rm, uint64(a), uint64(b), uint64(c)))
}

func Rem32(a, b uint32) uint32 {
	return uint32(Rem(backend.Binary32, uint64(a), uint64(b)))
}

/*** binary16 shorthands. ***/

func Add16(rm RoundingMode, a, b uint16) uint16 {
	return uint16(Add(backend.Binary16, rm, uint64(a), uint64(b)))
}

func Mul16(rm RoundingMode, a, b uint16) uint16 {
	return uint16(Mul(backend.Binary16, rm, uint64(a), uint64(b)))
}

func Div16(rm RoundingMode, a, b uint16) uint16 {
	return uint16(Div(backend.Binary16, rm, uint64(a), uint64(b)))
}

func Sqrt16(rm RoundingMode, a uint16) uint16 {
	return uint16(Sqrt(backend.Binary16, rm, uint64(a)))
}

// F16ToF32 widens exactly.
func F16ToF32(a uint16) uint32 {
	return uint32(Convert(backend.Binary16, backend.Binary32, RNE, uint64(a)))
}

// F32ToF16 narrows under the given mode.
func F32ToF16(rm RoundingMode, a uint32) uint16 {
	return uint16(Convert(backend.Binary32, backend.Binary16, rm, uint64(a)))
}
