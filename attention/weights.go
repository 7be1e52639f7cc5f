// Package attention holds the clocked units of the pipeline: the QKV linear
// projection and the attention core that sequences it with the nn datapath.
//
// Every unit is a pure transition function over one state struct plus a thin
// wrapper that applies it once per clock edge.
package attention

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/nikolaydubina/tinyattn.go/fixed"
)

var Endian = binary.LittleEndian

var ErrShortCheckpoint = errors.New("attention: short weights checkpoint")

// Weights are the three projection matrices, row-major, read-only after construction.
type Weights struct {
	WQ fixed.Mat4
	WK fixed.Mat4
	WV fixed.Mat4
}

// CheckpointSize is the number of bytes of a weights checkpoint.
const CheckpointSize = 3 * 4 * 4 * 2

// DefaultWeights are small integer gains.
func DefaultWeights() Weights {
	return Weights{
		WQ: fixed.Mat4FromFloats([4][4]float64{
			{1, 2, 3, 4},
			{4, 3, 2, 1},
			{1, -1, 1, -1},
			{2, 2, 2, 2},
		}),
		WK: fixed.Mat4FromFloats([4][4]float64{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		}),
		WV: fixed.Mat4FromFloats([4][4]float64{
			{2, 2, 2, 2},
			{-2, -2, -2, -2},
			{1, 0, -1, 0},
			{0, 1, 0, -1},
		}),
	}
}

// NewWeightsFromCheckpoint reads WQ, WK and WV as 48 little endian int16 words.
func NewWeightsFromCheckpoint(r io.Reader) (Weights, error) {
	// binary reader expects exact binary size for int
	var raw [3][4][4]int16
	if err := binary.Read(r, Endian, &raw); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Weights{}, fmt.Errorf("%w: %w", ErrShortCheckpoint, err)
		}
		return Weights{}, fmt.Errorf("cannot read weights: %w", err)
	}
	var w Weights
	for m, dst := range []*fixed.Mat4{&w.WQ, &w.WK, &w.WV} {
		for i := range dst {
			for j := range dst[i] {
				dst[i][j] = fixed.Q88(raw[m][i][j])
			}
		}
	}
	return w, nil
}

// WriteCheckpoint writes w in the format read by NewWeightsFromCheckpoint.
func (w Weights) WriteCheckpoint(out io.Writer) error {
	for _, m := range []fixed.Mat4{w.WQ, w.WK, w.WV} {
		var raw [4][4]int16
		for i := range m {
			for j := range m[i] {
				raw[i][j] = int16(m[i][j])
			}
		}
		if err := binary.Write(out, Endian, &raw); err != nil {
			return err
		}
	}
	return nil
}
