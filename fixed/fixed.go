// Package fixed is Q8.8 fixed-point arithmetic on 16-bit signed words.
//
// A Q88 holds value*256 in two's complement. Every operation wraps its result
// back to 16 bits explicitly, the way a 16-bit register would.
package fixed

import "math"

// Q88 is a signed Q8.8 fixed-point number.
type Q88 int16

// FracBits is the number of fractional bits.
const FracBits = 8

const (
	One    Q88 = 1 << FracBits
	MaxQ88 Q88 = math.MaxInt16
	MinQ88 Q88 = math.MinInt16
)

// Vec4 is a vector of exactly four Q8.8 values.
type Vec4 [4]Q88

// Mat4 is a row-major 4x4 matrix of Q8.8 values.
type Mat4 [4]Vec4

// Wrap keeps the low 16 bits of v and reinterprets them as signed.
func Wrap(v int64) Q88 { return Q88(int16(uint16(v))) }

// FromRaw reinterprets a raw 16-bit word.
func FromRaw(raw uint16) Q88 { return Q88(int16(raw)) }

// Raw is the unsigned 16-bit word of q.
func (q Q88) Raw() uint16 { return uint16(q) }

func FromFloat(v float64) Q88 { return Wrap(int64(math.Round(v * float64(One)))) }

func (q Q88) Float() float64 { return float64(q) / float64(One) }

// Mul is a 32-bit signed product rescaled by >> 8 with sign extension.
func Mul(a, b Q88) Q88 { return Wrap(int64((int32(a) * int32(b)) >> FracBits)) }

func Add(a, b Q88) Q88 { return Wrap(int64(a) + int64(b)) }

func Vec4FromFloats(v [4]float64) (o Vec4) {
	for i, x := range v {
		o[i] = FromFloat(x)
	}
	return o
}

func (v Vec4) Floats() (o [4]float64) {
	for i, x := range v {
		o[i] = x.Float()
	}
	return o
}

func Mat4FromFloats(m [4][4]float64) (o Mat4) {
	for i, row := range m {
		o[i] = Vec4FromFloats(row)
	}
	return o
}

func (m Mat4) Floats() (o [4][4]float64) {
	for i, row := range m {
		o[i] = row.Floats()
	}
	return o
}
