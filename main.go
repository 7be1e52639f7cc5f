package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tinyattn",
		Short:         "Q8.8 fixed-point attention and layernorm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAttendCmd(),
		newLayerNormCmd(),
		newExpCmd(),
		newBatchCmd(),
		newGenLUTCmd(),
		newGenWeightsCmd(),
	)
	return root
}

func loadWeights(path string) (attention.Weights, error) {
	if path == "" {
		return attention.DefaultWeights(), nil
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return attention.Weights{}, err
	}
	defer f.Close()
	return attention.NewWeightsFromCheckpoint(f)
}

func loadSqrtLUT(path string) (*nn.SqrtLUT, error) {
	if path == "" {
		return nn.NewSqrtLUT(), nil
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lut, err := nn.ReadSqrtLUT(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read lut %s: %w", path, err)
	}
	return lut, nil
}

// openOut is stdout for "" or "-".
func openOut(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

// writeOut closes the output exactly once, reporting the first error.
func writeOut(path string, write func(io.Writer) error) error {
	out, err := openOut(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func toVec4(name string, v []float64) (fixed.Vec4, error) {
	if len(v) != 4 {
		return fixed.Vec4{}, fmt.Errorf("--%s needs 4 values, got %d", name, len(v))
	}
	return fixed.Vec4FromFloats([4]float64(v)), nil
}

func formatFloats(v []float64) string {
	return strings.Join(lo.Map(v, func(x float64, _ int) string { return fmt.Sprintf("%.4f", x) }), " ")
}

func formatRaw(v []fixed.Q88) string {
	return strings.Join(lo.Map(v, func(x fixed.Q88, _ int) string { return fmt.Sprintf("0x%04x", x.Raw()) }), " ")
}
