package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/nikolaydubina/tinyattn.go/attention"
	"github.com/nikolaydubina/tinyattn.go/reference"
)

func newAttendCmd() *cobra.Command {
	var (
		weightsFilePath string
		x, q, k, v      []float64
		trace           bool
		dump            bool
	)

	cmd := &cobra.Command{
		Use:   "attend",
		Short: "run the attention core on one input vector",
		Long: "Runs the attention core cycle by cycle. With --x the embedded QKV projection is used,\n" +
			"with --q, --k and --v the projection is skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWeights(weightsFilePath)
			if err != nil {
				return fmt.Errorf("cannot read weights: %w", err)
			}

			var (
				in       attention.CoreInput
				core     *attention.Core
				expected float64
				embedded bool
			)
			if cmd.Flags().Changed("q") || cmd.Flags().Changed("k") || cmd.Flags().Changed("v") {
				if in.Q, err = toVec4("q", q); err != nil {
					return err
				}
				if in.K, err = toVec4("k", k); err != nil {
					return err
				}
				if in.V, err = toVec4("v", v); err != nil {
					return err
				}
				core = attention.NewCoreQKV()
				expected = reference.Attend(in.Q.Floats(), in.K.Floats(), in.V.Floats())
			} else {
				if in.X, err = toVec4("x", x); err != nil {
					return err
				}
				core, embedded = attention.NewCore(&w), true
				expected = reference.NewWeights(w).Forward(in.X.Floats())
			}
			log.Printf("input: %#v\n", in)

			timeStart := time.Now()
			y, cycles, err := core.Run(in, func(cycle int, s attention.CoreState) {
				if trace {
					log.Printf("cycle %d: core=%s done=%t y=0x%04x qkv=%s qkv_done=%t\n", cycle, s.Phase, s.Done, s.Y.Raw(), s.QKV.Phase, s.QKV.Done)
				}
				if dump {
					spew.Fdump(os.Stderr, s)
				}
			})
			if err != nil {
				return err
			}
			log.Printf("done in %d cycles, %s\n", cycles, time.Since(timeStart))

			out := cmd.OutOrStdout()
			if embedded {
				s := core.State()
				fmt.Fprintf(out, "q: %s\n", formatRaw(s.QKV.Q[:]))
				fmt.Fprintf(out, "k: %s\n", formatRaw(s.QKV.K[:]))
				fmt.Fprintf(out, "v: %s\n", formatRaw(s.QKV.V[:]))
			}
			fmt.Fprintf(out, "Expected: %.4f\n", expected)
			fmt.Fprintf(out, "HW Output: %.4f\n", y.Float())
			fmt.Fprintf(out, "Raw Hex: 0x%04x\n", y.Raw())
			return nil
		},
	}

	cmd.Flags().StringVar(&weightsFilePath, "weights", "", "weights checkpoint, 48 little endian int16 words (default built-in weights)")
	cmd.Flags().Float64SliceVar(&x, "x", []float64{0.25, 0.125, -0.25, 0.5}, "input vector")
	cmd.Flags().Float64SliceVar(&q, "q", nil, "query, skips the projection")
	cmd.Flags().Float64SliceVar(&k, "k", nil, "key, skips the projection")
	cmd.Flags().Float64SliceVar(&v, "v", nil, "value, skips the projection")
	cmd.Flags().BoolVar(&trace, "trace", false, "log state after every cycle")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump full state after every cycle to stderr")
	return cmd
}
