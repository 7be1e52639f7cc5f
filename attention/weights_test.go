package attention

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nikolaydubina/tinyattn.go/fixed"
)

func TestCheckpointRoundTrip(t *testing.T) {
	w := DefaultWeights()
	w.WK[2][3] = fixed.FromFloat(-0.5)

	var buf bytes.Buffer
	if err := w.WriteCheckpoint(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != CheckpointSize {
		t.Fatalf("checkpoint size %d", buf.Len())
	}
	// WQ[0][0] = 1.0, little endian
	if !bytes.HasPrefix(buf.Bytes(), []byte{0x00, 0x01, 0x00, 0x02}) {
		t.Errorf("unexpected head % x", buf.Bytes()[:4])
	}

	got, err := NewWeightsFromCheckpoint(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(w, got); diff != "" {
		t.Errorf("%s", diff)
	}
}

func TestCheckpointShort(t *testing.T) {
	for _, n := range []int{0, 1, CheckpointSize - 1} {
		_, err := NewWeightsFromCheckpoint(bytes.NewReader(make([]byte, n)))
		if !errors.Is(err, ErrShortCheckpoint) {
			t.Errorf("%d bytes: got %v", n, err)
		}
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w.WQ[0][3] != 4*fixed.One || w.WV[1][0] != -2*fixed.One || w.WK[3][3] != fixed.One {
		t.Errorf("unexpected weights %v", w)
	}
}
