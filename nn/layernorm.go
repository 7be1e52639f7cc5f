package nn

import "github.com/nikolaydubina/tinyattn.go/fixed"

// Mean of four values, the sum divided by 4 with a 2-bit arithmetic shift.
func Mean(x fixed.Vec4) fixed.Q88 {
	var sum int64
	for _, v := range x {
		sum += int64(v)
	}
	return fixed.Wrap(sum >> 2)
}

// Variance is the mean of squared deviations from mean.
// Squares are Q16.16, the average is shifted back to Q8.8.
func Variance(x fixed.Vec4, mean fixed.Q88) fixed.Q88 {
	var sum int64
	for _, v := range x {
		d := int64(v) - int64(mean)
		sum += d * d
	}
	return fixed.Wrap((sum >> 2) >> fixed.FracBits)
}

// Normalize computes (x - mean) / stddev per element in Q8.8.
// A zero stddev gives a zero vector instead of dividing by zero.
func Normalize(x fixed.Vec4, mean, stddev fixed.Q88) (o fixed.Vec4) {
	if stddev == 0 {
		return o
	}
	for i, v := range x {
		d := int64(v) - int64(mean)
		o[i] = fixed.Wrap((d << fixed.FracBits) / int64(stddev))
	}
	return o
}

// Stats are the intermediate registers of the layernorm path.
type Stats struct {
	Mean     fixed.Q88
	Variance fixed.Q88
	StdDev   fixed.Q88
}

// LayerNorm is the combinational layernorm path with its square root table.
type LayerNorm struct {
	lut *SqrtLUT
}

func NewLayerNorm(lut *SqrtLUT) LayerNorm { return LayerNorm{lut: lut} }

// Forward runs Mean, Variance, square root lookup and Normalize.
func (l LayerNorm) Forward(x fixed.Vec4) (fixed.Vec4, Stats) {
	var s Stats
	s.Mean = Mean(x)
	s.Variance = Variance(x, s.Mean)
	s.StdDev = l.lut.Lookup(s.Variance)
	return Normalize(x, s.Mean, s.StdDev), s
}
