package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

func loadExpLUT(path string) (*nn.ExpLUT, error) {
	if path == "" {
		return nn.NewExpLUT(), nil
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lut, err := nn.ReadExpLUT(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read lut %s: %w", path, err)
	}
	return lut, nil
}

func newExpCmd() *cobra.Command {
	var (
		lutFilePath string
		x           float64
	)

	cmd := &cobra.Command{
		Use:   "exp",
		Short: "compare the Taylor exponential and the exp LUT on one input",
		RunE: func(cmd *cobra.Command, args []string) error {
			lut, err := loadExpLUT(lutFilePath)
			if err != nil {
				return err
			}
			in := fixed.FromFloat(x)
			taylor, table := nn.ExpTaylor(in), lut.Lookup(in)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Expected: %.4f\n", math.Exp(in.Float()))
			fmt.Fprintf(out, "Taylor: %.4f 0x%04x\n", float64(taylor.Raw())/float64(fixed.One), taylor.Raw())
			fmt.Fprintf(out, "LUT: %.4f 0x%04x\n", table.Float(), table.Raw())
			return nil
		},
	}

	cmd.Flags().StringVar(&lutFilePath, "lut", "", "exp LUT in $readmemh format, as written by gen-lut --exp (default generated)")
	cmd.Flags().Float64Var(&x, "x", 0, "input value")
	return cmd
}
