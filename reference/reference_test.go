package reference_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
	"github.com/nikolaydubina/tinyattn.go/reference"
)

const lsb = 1.0 / 256

func randVec(r *rand.Rand) fixed.Vec4 {
	var x fixed.Vec4
	for i := range x {
		x[i] = fixed.Q88(r.Intn(1025) - 512)
	}
	return x
}

func TestSoftMax(t *testing.T) {
	y := reference.SoftMax([4]float64{1, 1, 2, 1000})
	assert.InDelta(t, 1.0, y[3], 1e-9)
	y = reference.SoftMax([4]float64{0.3, 0.3, 0.3, 0.3})
	for _, v := range y {
		assert.InDelta(t, 0.25, v, 1e-12)
	}
}

func TestQKVAgainstFixed(t *testing.T) {
	w := attention.DefaultWeights()
	ref := reference.NewWeights(w)
	r := rand.New(rand.NewSource(1))

	for n := 0; n < 1000; n++ {
		x := randVec(r)
		q, k, v := ref.QKV(x.Floats())
		for _, p := range []struct {
			fx  fixed.Vec4
			ref [4]float64
		}{{nn.MatVec(w.WQ, x), q}, {nn.MatVec(w.WK, x), k}, {nn.MatVec(w.WV, x), v}} {
			for i := range p.ref {
				// four truncated products per row
				assert.InDelta(t, p.ref[i], p.fx[i].Float(), 4*lsb, "x=%v", x)
			}
		}
	}
}

func TestForwardAgainstCore(t *testing.T) {
	w := attention.DefaultWeights()
	ref := reference.NewWeights(w)
	r := rand.New(rand.NewSource(2))

	for n := 0; n < 200; n++ {
		x := randVec(r)
		y, _, err := attention.NewCore(&w).Run(attention.CoreInput{X: x}, nil)
		if err != nil {
			t.Fatal(err)
		}
		assert.InDelta(t, ref.Forward(x.Floats()), y.Float(), 5*lsb, "x=%v", x)
	}
}

func TestAttendScenario(t *testing.T) {
	q := [4]float64{0.5, 0.3, 0.2, 1.0}
	k := [4]float64{0.5, 0.0, 0.1, 1.2}
	v := [4]float64{0.3, 0.5, 0.5, 0.3}
	assert.InDelta(t, 1.47, reference.Dot(q, k), 1e-12)
	assert.InDelta(t, 0.4, reference.Attend(q, k, v), 1e-12)

	fx := nn.Attend(fixed.Vec4FromFloats(q), fixed.Vec4FromFloats(k), fixed.Vec4FromFloats(v))
	assert.InDelta(t, 0.4, fx.Float(), 2*lsb)
}

func TestLayerNormAgainstFixed(t *testing.T) {
	ln := nn.NewLayerNorm(nn.NewSqrtLUT())
	tests := [][4]float64{
		{4, 6, 10, 0},
		{1, -1, 1, -1},
		{3, 1, 3, 1},
	}
	for _, x := range tests {
		exp, mean, variance := reference.LayerNorm(x)
		got, stats := ln.Forward(fixed.Vec4FromFloats(x))

		assert.InDelta(t, mean, stats.Mean.Float(), lsb, "x=%v", x)
		assert.InDelta(t, variance, stats.Variance.Float(), lsb, "x=%v", x)
		assert.InDelta(t, math.Sqrt(variance), stats.StdDev.Float(), lsb, "x=%v", x)
		for i := range exp {
			assert.InDelta(t, exp[i], got[i].Float(), 2*lsb, "x=%v", x)
		}
	}
}

func TestLayerNormConstant(t *testing.T) {
	o, mean, variance := reference.LayerNorm([4]float64{2, 2, 2, 2})
	assert.Equal(t, [4]float64{}, o)
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 0.0, variance)
}
