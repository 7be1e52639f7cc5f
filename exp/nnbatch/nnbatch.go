// Package nnbatch evaluates many independent input vectors in parallel.
// Every worker owns its own clocked units, weights and LUT are shared.
package nnbatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

var NumThreads = 8

// Result of both paths for one input vector.
type Result struct {
	Y      fixed.Q88 // attention core output
	Cycles int       // edges from start to done
	Norm   fixed.Vec4
	Stats  nn.Stats
}

// Batch shares weights and LUT across workers.
type Batch struct {
	w  *attention.Weights
	ln nn.LayerNorm
}

func New(w *attention.Weights, lut *nn.SqrtLUT) Batch {
	return Batch{w: w, ln: nn.NewLayerNorm(lut)}
}

// Serial runs xs in order on one core.
func (b Batch) Serial(ctx context.Context, out []Result, xs []fixed.Vec4) error {
	core := attention.NewCore(b.w)
	for i, x := range xs {
		if err := ctx.Err(); err != nil {
			return err
		}
		y, cycles, err := core.Run(attention.CoreInput{X: x}, nil)
		if err != nil {
			return err
		}
		norm, stats := b.ln.Forward(x)
		out[i] = Result{Y: y, Cycles: cycles, Norm: norm, Stats: stats}
	}
	return nil
}

// Run chunks xs across at most NumThreads workers.
// The first error cancels the remaining chunks.
func (b Batch) Run(ctx context.Context, xs []fixed.Vec4) ([]Result, error) {
	out := make([]Result, len(xs))
	n := len(xs)
	if n < NumThreads || NumThreads <= 1 {
		if err := b.Serial(ctx, out, xs); err != nil {
			return nil, err
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(NumThreads)
	for i := 0; i < NumThreads; i++ {
		rowStart := i * n / NumThreads
		rowEnd := (i + 1) * n / NumThreads
		if i == NumThreads-1 {
			rowEnd = n
		}
		g.Go(func() error { return b.Serial(ctx, out[rowStart:rowEnd], xs[rowStart:rowEnd]) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
