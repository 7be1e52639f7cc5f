package main

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

func newGenLUTCmd() *cobra.Command {
	var (
		outFilePath string
		exp         bool
	)

	cmd := &cobra.Command{
		Use:   "gen-lut",
		Short: "write the sqrt LUT, or the exp LUT with --exp, in $readmemh format",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := writeOut(outFilePath, func(w io.Writer) error {
				if exp {
					return nn.NewExpLUT().WriteMemH(w)
				}
				return nn.NewSqrtLUT().WriteMemH(w)
			})
			if err != nil {
				return err
			}
			log.Printf("wrote %d entries to %s\n", nn.LUTSize, outFilePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFilePath, "out", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&exp, "exp", false, "exp LUT over [-8, 8] instead of sqrt")
	return cmd
}

func newGenWeightsCmd() *cobra.Command {
	var outFilePath string

	cmd := &cobra.Command{
		Use:   "gen-weights",
		Short: "write the built-in weights as a checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeOut(outFilePath, attention.DefaultWeights().WriteCheckpoint); err != nil {
				return err
			}
			log.Printf("wrote %d bytes to %s\n", attention.CheckpointSize, outFilePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFilePath, "out", "weights.bin", "output file, - for stdout")
	return cmd
}
