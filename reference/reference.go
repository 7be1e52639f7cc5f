// Package reference is the float64 model of the fixed-point pipeline.
// It is used to measure how far the Q8.8 units drift from exact arithmetic.
package reference

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/fixed"
)

type Weights struct {
	WQ *mat.Dense
	WK *mat.Dense
	WV *mat.Dense
}

func NewWeights(w attention.Weights) Weights {
	return Weights{WQ: dense(w.WQ), WK: dense(w.WK), WV: dense(w.WV)}
}

func dense(m fixed.Mat4) *mat.Dense {
	data := make([]float64, 0, 16)
	for _, row := range m.Floats() {
		data = append(data, row[:]...)
	}
	return mat.NewDense(4, 4, data)
}

// QKV projects x with all three matrices.
func (w Weights) QKV(x [4]float64) (q, k, v [4]float64) {
	xv := mat.NewVecDense(4, x[:])
	for _, p := range []struct {
		w   *mat.Dense
		out *[4]float64
	}{{w.WQ, &q}, {w.WK, &k}, {w.WV, &v}} {
		var o mat.VecDense
		o.MulVec(p.w, xv)
		for i := range p.out {
			p.out[i] = o.AtVec(i)
		}
	}
	return q, k, v
}

func Dot(a, b [4]float64) float64 { return mat.Dot(mat.NewVecDense(4, a[:]), mat.NewVecDense(4, b[:])) }

// SoftMax with exact exponentials.
func SoftMax(x [4]float64) (o [4]float64) {
	// find max for numerical stability
	max := x[0]
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	var sum float64
	for i, v := range x {
		o[i] = math.Exp(v - max)
		sum += o[i]
	}
	for i := range o {
		o[i] /= sum
	}
	return o
}

func Apply(weights, v [4]float64) float64 { return Dot(weights, v) }

// Attend broadcasts the q·k score to four lanes like the fixed-point core.
func Attend(q, k, v [4]float64) float64 {
	s := Dot(q, k)
	return Apply(SoftMax([4]float64{s, s, s, s}), v)
}

// Forward is the attention core with an embedded projection.
func (w Weights) Forward(x [4]float64) float64 {
	q, k, v := w.QKV(x)
	return Attend(q, k, v)
}

// LayerNorm returns (x - mean) / stddev with population variance.
// A zero stddev gives a zero vector.
func LayerNorm(x [4]float64) (o [4]float64, mean, variance float64) {
	mean, variance = stat.PopMeanVariance(x[:], nil)
	if variance == 0 {
		return o, mean, variance
	}
	stddev := math.Sqrt(variance)
	for i, v := range x {
		o[i] = (v - mean) / stddev
	}
	return o, mean, variance
}
