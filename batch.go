package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/nikolaydubina/tinyattn.go/exp/nnbatch"
	"github.com/nikolaydubina/tinyattn.go/fixed"
)

func newBatchCmd() *cobra.Command {
	var (
		inFilePath      string
		weightsFilePath string
		lutFilePath     string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "run attention and layernorm over a file of vectors",
		Long:  "Reads one vector per line, four numbers separated by spaces or commas. Blank lines and lines starting with # are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWeights(weightsFilePath)
			if err != nil {
				return fmt.Errorf("cannot read weights: %w", err)
			}
			lut, err := loadSqrtLUT(lutFilePath)
			if err != nil {
				return err
			}

			var r io.Reader = os.Stdin
			if inFilePath != "" && inFilePath != "-" {
				f, err := os.OpenFile(inFilePath, os.O_RDONLY, 0)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			xs, err := readVectors(r)
			if err != nil {
				return err
			}
			log.Printf("vectors: %d threads: %d\n", len(xs), nnbatch.NumThreads)

			timeStart := time.Now()
			results, err := nnbatch.New(&w, lut).Run(context.Background(), xs)
			if err != nil {
				return err
			}
			elapsed := time.Since(timeStart)

			out := bufio.NewWriter(cmd.OutOrStdout())
			for _, res := range results {
				fmt.Fprintf(out, "y=0x%04x %.4f norm_x=%s\n", res.Y.Raw(), res.Y.Float(), formatRaw(res.Norm[:]))
			}
			if err := out.Flush(); err != nil {
				return err
			}

			cycles := lo.SumBy(results, func(r nnbatch.Result) int { return r.Cycles })
			log.Printf("achieved vectors/s: %f cycles: %d\n", float64(len(xs))/elapsed.Seconds(), cycles)
			return nil
		},
	}

	cmd.Flags().StringVar(&inFilePath, "in", "-", "input file, - for stdin")
	cmd.Flags().StringVar(&weightsFilePath, "weights", "", "weights checkpoint (default built-in weights)")
	cmd.Flags().StringVar(&lutFilePath, "lut", "", "sqrt LUT in $readmemh format (default generated)")
	cmd.Flags().IntVar(&nnbatch.NumThreads, "threads", nnbatch.NumThreads, "number of parallel workers")
	return cmd
}

func readVectors(r io.Reader) ([]fixed.Vec4, error) {
	var xs []fixed.Vec4
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(c rune) bool { return c == ',' || c == ' ' || c == '\t' })
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: want 4 values, got %d", line, len(fields))
		}
		var v [4]float64
		for i, s := range fields {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[i] = f
		}
		xs = append(xs, fixed.Vec4FromFloats(v))
	}
	return xs, scanner.Err()
}
