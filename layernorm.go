package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/nikolaydubina/tinyattn.go/nn"
	"github.com/nikolaydubina/tinyattn.go/reference"
)

func newLayerNormCmd() *cobra.Command {
	var (
		lutFilePath string
		x           []float64
	)

	cmd := &cobra.Command{
		Use:   "layernorm",
		Short: "normalize one input vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			lut, err := loadSqrtLUT(lutFilePath)
			if err != nil {
				return err
			}
			in, err := toVec4("x", x)
			if err != nil {
				return err
			}

			got, stats := nn.NewLayerNorm(lut).Forward(in)
			log.Printf("mean=0x%04x variance=0x%04x stddev=0x%04x\n", stats.Mean.Raw(), stats.Variance.Raw(), stats.StdDev.Raw())

			exp, mean, variance := reference.LayerNorm(in.Floats())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Expected: mean=%.4f variance=%.4f norm_x=%s\n", mean, variance, formatFloats(exp[:]))
			gotFloats := got.Floats()
			fmt.Fprintf(out, "HW Output: mean=%.4f variance=%.4f norm_x=%s\n", stats.Mean.Float(), stats.Variance.Float(), formatFloats(gotFloats[:]))
			fmt.Fprintf(out, "Raw Hex: %s\n", formatRaw(got[:]))
			return nil
		},
	}

	cmd.Flags().StringVar(&lutFilePath, "lut", "", "sqrt LUT in $readmemh format (default generated)")
	cmd.Flags().Float64SliceVar(&x, "x", []float64{4, 6, 10, 0}, "input vector")
	return cmd
}
