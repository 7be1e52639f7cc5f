// Package nn is the fixed-point attention datapath: dot product, Taylor
// exponential, softmax, attention apply and the layernorm units.
//
// All kernels are pure functions of Q8.8 words and wrap their results to
// 16 bits the way the corresponding registers would.
package nn

import "github.com/nikolaydubina/tinyattn.go/fixed"

// accumulator width used by dot product and attention apply
const accBits = 35

// acc35 truncates v to a signed 35-bit accumulator.
func acc35(v int64) int64 { return v << (64 - accBits) >> (64 - accBits) }

// Dot is the inner product of two vectors, each term rescaled with fixed.Mul.
func Dot(a, b fixed.Vec4) fixed.Q88 {
	var sum int64
	for i := range a {
		sum = acc35(sum + int64(fixed.Mul(a[i], b[i])))
	}
	return fixed.Wrap(sum)
}

// Exp-Taylor clamp thresholds, raw Q8.8.
const (
	ExpLowClamp  = -256 // x < -1.0
	ExpHighClamp = 384  // x > 1.5
)

// ExpLowSat and ExpHighSat are the saturated outputs of ExpTaylor.
// ExpHighSat is the all-ones word 0xFFFF, as a signed Q88 it reads -1.
const (
	ExpLowSat  fixed.Q88 = 1
	ExpHighSat fixed.Q88 = -1
)

// ExpTaylor is 1 + x + x²/2 + x³/6 + x⁴/24 in Q8.8.
// Only valid in [-1.0, 1.5], outside of it the result saturates.
func ExpTaylor(x fixed.Q88) fixed.Q88 {
	switch {
	case x < ExpLowClamp:
		return ExpLowSat
	case x > ExpHighClamp:
		return ExpHighSat
	}
	x1 := int32(x)
	x2 := (x1 * x1) >> fixed.FracBits
	x3 := (x2 * x1) >> fixed.FracBits
	x4 := (x3 * x1) >> fixed.FracBits
	sum := int32(fixed.One) + x1 + x2/2 + x3/6 + x4/24
	return fixed.Wrap(int64(sum))
}

// SoftMax of four scores. Weights are non-negative and sum to about 256 (1.0).
// Exponentials are read as unsigned words, so ExpHighSat counts as the
// largest value 0xFFFF rather than -1.
func SoftMax(x fixed.Vec4) fixed.Vec4 {
	var e [4]int64
	for i, v := range x {
		e[i] = int64(ExpTaylor(v).Raw())
	}
	return normalizeExp(e)
}

// normalizeExp divides every exponential by their sum.
// A zero sum gives zero weights.
func normalizeExp(e [4]int64) (y fixed.Vec4) {
	var sum int64
	for _, v := range e {
		sum += v
	}
	if sum == 0 {
		return y
	}
	for i := range e {
		y[i] = fixed.Wrap((e[i] << fixed.FracBits) / sum)
	}
	return y
}

// Apply is the attention weighted sum of values.
// Raw products are Q16.16, the accumulator is shifted back to Q8.8 once.
func Apply(weights, v fixed.Vec4) fixed.Q88 {
	var sum int64
	for i := range weights {
		sum = acc35(sum + int64(int32(weights[i])*int32(v[i])))
	}
	return fixed.Wrap(sum >> fixed.FracBits)
}

// Broadcast copies one score into all four lanes.
func Broadcast(s fixed.Q88) fixed.Vec4 { return fixed.Vec4{s, s, s, s} }

// Attend is the single-position attention datapath:
// Apply(SoftMax(Broadcast(Dot(q, k))), v).
func Attend(q, k, v fixed.Vec4) fixed.Q88 {
	return Apply(SoftMax(Broadcast(Dot(q, k))), v)
}

// MatVec is w·x with fixed.Mul products and a wrapping 16-bit accumulator
// per row.
func MatVec(w fixed.Mat4, x fixed.Vec4) (o fixed.Vec4) {
	for i, row := range w {
		var acc fixed.Q88
		for j := range row {
			acc = fixed.Add(acc, fixed.Mul(row[j], x[j]))
		}
		o[i] = acc
	}
	return o
}
