package nn

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nikolaydubina/tinyattn.go/fixed"
)

// LUTSize is the number of entries of every lookup table, one per 8-bit index.
const LUTSize = 256

var (
	ErrLUTSize = errors.New("lut: wrong number of entries")
	ErrLUTWord = errors.New("lut: bad hex word")
)

// SqrtLUT maps the high byte of a Q8.8 variance to its square root.
type SqrtLUT [LUTSize]fixed.Q88

// NewSqrtLUT fills the table with round(sqrt(i) * 256).
func NewSqrtLUT() *SqrtLUT {
	var t SqrtLUT
	for i := range t {
		t[i] = fixed.FromFloat(math.Sqrt(float64(i)))
	}
	return &t
}

// Lookup indexes by the integer part of v.
// Fractional bits are dropped, so the result is a coarse lower bound.
func (t *SqrtLUT) Lookup(v fixed.Q88) fixed.Q88 { return t[v.Raw()>>fixed.FracBits] }

// ReadSqrtLUT reads a table in $readmemh format.
func ReadSqrtLUT(r io.Reader) (*SqrtLUT, error) {
	words, err := ReadMemH(r, LUTSize)
	if err != nil {
		return nil, err
	}
	var t SqrtLUT
	for i, w := range words {
		t[i] = fixed.FromRaw(w)
	}
	return &t, nil
}

func (t *SqrtLUT) WriteMemH(w io.Writer) error { return writeTable(w, t[:]) }

// ExpLUT samples e^x on 256 points evenly spread over [-8, 8].
// Values are saturated at the Q8.8 maximum.
type ExpLUT [LUTSize]fixed.Q88

const (
	expLUTLow  = -8.0
	expLUTHigh = 8.0
)

func NewExpLUT() *ExpLUT {
	var t ExpLUT
	for i := range t {
		x := float64(i)/float64(LUTSize-1)*(expLUTHigh-expLUTLow) + expLUTLow
		v := math.Round(math.Exp(x) * float64(fixed.One))
		if v > float64(fixed.MaxQ88) {
			v = float64(fixed.MaxQ88)
		}
		t[i] = fixed.Q88(v)
	}
	return &t
}

// Lookup returns the entry nearest to x.
func (t *ExpLUT) Lookup(x fixed.Q88) fixed.Q88 {
	i := math.Round((x.Float() - expLUTLow) / (expLUTHigh - expLUTLow) * float64(LUTSize-1))
	i = math.Max(0, math.Min(float64(LUTSize-1), i))
	return t[int(i)]
}

func (t *ExpLUT) WriteMemH(w io.Writer) error { return writeTable(w, t[:]) }

func ReadExpLUT(r io.Reader) (*ExpLUT, error) {
	words, err := ReadMemH(r, LUTSize)
	if err != nil {
		return nil, err
	}
	var t ExpLUT
	for i, w := range words {
		t[i] = fixed.FromRaw(w)
	}
	return &t, nil
}

// ReadMemH parses exactly n 16-bit words in Verilog $readmemh format.
// Words are whitespace separated hex, "//" starts a comment and "@addr"
// moves the write address.
func ReadMemH(r io.Reader, n int) ([]uint16, error) {
	words := make([]uint16, n)
	written := make([]bool, n)
	addr := 0

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text, _, _ := strings.Cut(scanner.Text(), "//")
		for _, tok := range strings.Fields(text) {
			if a, ok := strings.CutPrefix(tok, "@"); ok {
				v, err := strconv.ParseUint(a, 16, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: address %q: %w", line, tok, ErrLUTWord)
				}
				addr = int(v)
				continue
			}
			v, err := strconv.ParseUint(strings.ReplaceAll(tok, "_", ""), 16, 16)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q: %w", line, tok, ErrLUTWord)
			}
			if addr >= n {
				return nil, fmt.Errorf("line %d: address %d out of %d: %w", line, addr, n, ErrLUTSize)
			}
			words[addr], written[addr] = uint16(v), true
			addr++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for i, ok := range written {
		if !ok {
			return nil, fmt.Errorf("entry %d missing: %w", i, ErrLUTSize)
		}
	}
	return words, nil
}

// WriteMemH writes one 4-digit hex word per line.
func WriteMemH(w io.Writer, words []uint16) error {
	bw := bufio.NewWriter(w)
	for _, v := range words {
		if _, err := fmt.Fprintf(bw, "%04x\n", v); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeTable(w io.Writer, t []fixed.Q88) error {
	words := make([]uint16, len(t))
	for i, v := range t {
		words[i] = v.Raw()
	}
	return WriteMemH(w, words)
}
