package nnbatch_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/exp/nnbatch"
	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

func inputs(n int) []fixed.Vec4 {
	r := rand.New(rand.NewSource(int64(n)))
	xs := make([]fixed.Vec4, n)
	for i := range xs {
		for j := range xs[i] {
			xs[i][j] = fixed.Q88(r.Intn(2048) - 1024)
		}
	}
	return xs
}

func TestRunMatchesSerial(t *testing.T) {
	w := attention.DefaultWeights()
	b := nnbatch.New(&w, nn.NewSqrtLUT())

	for _, n := range []int{0, 1, 7, 8, 9, 100, 1001} {
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			xs := inputs(n)

			got, err := b.Run(context.Background(), xs)
			require.NoError(t, err)
			require.Len(t, got, n)

			exp := make([]nnbatch.Result, n)
			require.NoError(t, b.Serial(context.Background(), exp, xs))
			if diff := cmp.Diff(exp, got); diff != "" {
				t.Errorf("%s", diff)
			}
		})
	}
}

func TestRunResult(t *testing.T) {
	w := attention.DefaultWeights()
	b := nnbatch.New(&w, nn.NewSqrtLUT())

	xs := []fixed.Vec4{
		fixed.Vec4FromFloats([4]float64{4, 6, 10, 0}),
		fixed.Vec4FromFloats([4]float64{0.25, 0.125, -0.25, 0.5}),
	}
	got, err := b.Run(context.Background(), xs)
	require.NoError(t, err)

	assert.Equal(t, fixed.Vec4{-71, 71, 355, -355}, got[0].Norm)
	assert.Equal(t, nn.Stats{Mean: 1280, Variance: 3328, StdDev: 923}, got[0].Stats)
	assert.Equal(t, fixed.Q88(8), got[1].Y)
	assert.Equal(t, 3, got[1].Cycles)
}

func TestRunCancelled(t *testing.T) {
	w := attention.DefaultWeights()
	b := nnbatch.New(&w, nn.NewSqrtLUT())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, inputs(100))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = b.Run(ctx, inputs(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkRun(b *testing.B) {
	w := attention.DefaultWeights()
	batch := nnbatch.New(&w, nn.NewSqrtLUT())
	xs := inputs(4096)
	for i := 0; i < b.N; i++ {
		batch.Run(context.Background(), xs)
	}
}
