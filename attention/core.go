package attention

import (
	"errors"

	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

type CorePhase uint8

const (
	CoreIdle CorePhase = iota
	CoreBusy
	CoreDone
)

func (p CorePhase) String() string {
	switch p {
	case CoreIdle:
		return "idle"
	case CoreBusy:
		return "busy"
	case CoreDone:
		return "done"
	default:
		return "unknown"
	}
}

// CoreState are the registers of the attention core, including the embedded projection unit.
type CoreState struct {
	Phase CorePhase
	Done  bool
	Y     fixed.Q88 // latched until the next result or reset
	QKV   QKVState
}

// CoreInput is what the core samples on a clock edge.
// X feeds the embedded projection, Q, K and V are used when there are no weights.
type CoreInput struct {
	X     fixed.Vec4
	Q     fixed.Vec4
	K     fixed.Vec4
	V     fixed.Vec4
	Start bool
	Rst   bool
}

// NextCore is the state after one clock edge.
// With nil weights the core computes from the q, k and v inputs on its first busy edge.
func NextCore(s CoreState, in CoreInput, w *Weights) CoreState {
	if in.Rst {
		return CoreState{}
	}
	switch s.Phase {
	case CoreIdle:
		if in.Start {
			s.Phase = CoreBusy
			if w != nil {
				s.QKV = NextQKV(s.QKV, QKVInput{X: in.X, Start: true}, w)
			}
		}
	case CoreBusy:
		if w == nil {
			s.Y = nn.Attend(in.Q, in.K, in.V)
			s.Phase, s.Done = CoreDone, true
			break
		}
		// sample the projection registers before they advance
		ready, q, k, v := s.QKV.Done, s.QKV.Q, s.QKV.K, s.QKV.V
		s.QKV = NextQKV(s.QKV, QKVInput{X: in.X}, w)
		if ready {
			s.Y = nn.Attend(q, k, v)
			s.Phase, s.Done = CoreDone, true
		}
	case CoreDone:
		s.Done = false
		s.Phase = CoreIdle
	}
	return s
}

// MaxCycles bounds Run.
const MaxCycles = 16

var ErrNotDone = errors.New("attention: no done pulse")

// Core sequences projection, dot product, softmax and apply behind a start/done handshake.
// Not safe for concurrent use, weights can be shared.
type Core struct {
	w *Weights
	s CoreState
}

// NewCore embeds a projection unit over w.
func NewCore(w *Weights) *Core { return &Core{w: w} }

// NewCoreQKV takes q, k and v as inputs.
func NewCoreQKV() *Core { return &Core{} }

// Step advances the core by one clock edge.
func (c *Core) Step(in CoreInput) CoreState {
	c.s = NextCore(c.s, in, c.w)
	return c.s
}

func (c *Core) Done() bool { return c.s.Done }
func (c *Core) Y() fixed.Q88 { return c.s.Y }
func (c *Core) State() CoreState { return c.s }

// Run holds start until the core leaves idle, then steps until done.
// trace, when not nil, sees the state after every edge.
// It returns the result and the number of edges taken.
func (c *Core) Run(in CoreInput, trace func(cycle int, s CoreState)) (fixed.Q88, int, error) {
	in.Start, in.Rst = true, false
	for cycle := 1; cycle <= MaxCycles; cycle++ {
		s := c.Step(in)
		if trace != nil {
			trace(cycle, s)
		}
		if s.Done {
			return s.Y, cycle, nil
		}
		if s.Phase != CoreIdle {
			in.Start = false
		}
	}
	return c.s.Y, MaxCycles, ErrNotDone
}
