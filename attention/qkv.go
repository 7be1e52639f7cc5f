package attention

import (
	"github.com/nikolaydubina/tinyattn.go/fixed"
	"github.com/nikolaydubina/tinyattn.go/nn"
)

type QKVPhase uint8

const (
	QKVIdle QKVPhase = iota
	QKVCompute
	QKVDone
)

func (p QKVPhase) String() string {
	switch p {
	case QKVIdle:
		return "idle"
	case QKVCompute:
		return "compute"
	case QKVDone:
		return "done"
	default:
		return "unknown"
	}
}

// QKVState are the registers of the projection unit.
type QKVState struct {
	Phase QKVPhase
	Done  bool

	// published outputs, valid from the Done pulse on
	Q fixed.Vec4
	K fixed.Vec4
	V fixed.Vec4

	// accumulators latched on the start edge
	AccQ fixed.Vec4
	AccK fixed.Vec4
	AccV fixed.Vec4
}

// QKVInput is what the unit samples on a clock edge.
type QKVInput struct {
	X     fixed.Vec4
	Start bool
	Rst   bool
}

// NextQKV is the state after one clock edge.
func NextQKV(s QKVState, in QKVInput, w *Weights) QKVState {
	if in.Rst {
		return QKVState{}
	}
	switch s.Phase {
	case QKVIdle:
		if in.Start {
			s.AccQ = nn.MatVec(w.WQ, in.X)
			s.AccK = nn.MatVec(w.WK, in.X)
			s.AccV = nn.MatVec(w.WV, in.X)
			s.Phase = QKVCompute
		}
	case QKVCompute:
		s.Q, s.K, s.V = s.AccQ, s.AccK, s.AccV
		s.Done = true
		s.Phase = QKVDone
	case QKVDone:
		s.Done = false
		s.Phase = QKVIdle
	}
	return s
}

// QKVLinear projects x into query, key and value.
// Done is asserted on the second edge counting the start edge, for one edge.
// Not safe for concurrent use.
type QKVLinear struct {
	w *Weights
	s QKVState
}

func NewQKVLinear(w *Weights) *QKVLinear { return &QKVLinear{w: w} }

// Step advances the unit by one clock edge.
func (u *QKVLinear) Step(in QKVInput) QKVState {
	u.s = NextQKV(u.s, in, u.w)
	return u.s
}

func (u *QKVLinear) Done() bool { return u.s.Done }
func (u *QKVLinear) Q() fixed.Vec4 { return u.s.Q }
func (u *QKVLinear) K() fixed.Vec4 { return u.s.K }
func (u *QKVLinear) V() fixed.Vec4 { return u.s.V }
func (u *QKVLinear) State() QKVState { return u.s }
