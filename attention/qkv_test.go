package attention

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/tinyattn.go/fixed"
)

var xScenario = fixed.Vec4FromFloats([4]float64{0.25, 0.125, -0.25, 0.5})

func TestQKVLinearDoneTiming(t *testing.T) {
	w := DefaultWeights()
	u := NewQKVLinear(&w)

	s := u.Step(QKVInput{X: xScenario, Start: true})
	assert.False(t, s.Done)
	assert.Equal(t, QKVCompute, s.Phase)
	assert.Equal(t, fixed.Vec4{}, u.Q(), "outputs are registered, not combinational")

	s = u.Step(QKVInput{})
	require.True(t, s.Done)
	assert.Equal(t, QKVDone, s.Phase)
	assert.Equal(t, fixed.Vec4{448, 352, -160, 320}, u.Q())
	assert.Equal(t, xScenario, u.K())
	assert.Equal(t, fixed.Vec4{320, -320, 128, -96}, u.V())

	s = u.Step(QKVInput{})
	assert.False(t, s.Done)
	assert.Equal(t, QKVIdle, s.Phase)
	assert.Equal(t, fixed.Vec4{448, 352, -160, 320}, u.Q(), "outputs stay latched")

	s = u.Step(QKVInput{})
	assert.False(t, s.Done)
	assert.Equal(t, QKVIdle, s.Phase)
}

func TestQKVLinearIdleWithoutStart(t *testing.T) {
	w := DefaultWeights()
	u := NewQKVLinear(&w)
	for i := 0; i < 5; i++ {
		s := u.Step(QKVInput{X: xScenario})
		assert.Equal(t, QKVState{}, s)
	}
}

func TestQKVLinearStartIgnoredWhileBusy(t *testing.T) {
	w := DefaultWeights()
	u := NewQKVLinear(&w)

	u.Step(QKVInput{X: xScenario, Start: true})
	s := u.Step(QKVInput{X: fixed.Vec4{1, 1, 1, 1}, Start: true})
	require.True(t, s.Done)
	assert.Equal(t, xScenario, s.K, "start edge input is what gets projected")
}

func TestQKVLinearReset(t *testing.T) {
	w := DefaultWeights()
	for _, edges := range []int{1, 2} {
		u := NewQKVLinear(&w)
		u.Step(QKVInput{X: xScenario, Start: true})
		for i := 1; i < edges; i++ {
			u.Step(QKVInput{})
		}
		s := u.Step(QKVInput{Rst: true, Start: true})
		assert.Equal(t, QKVState{}, s)
		assert.False(t, u.Done())

		s = u.Step(QKVInput{})
		assert.Equal(t, QKVIdle, s.Phase)
		assert.False(t, s.Done)
	}
}

func TestNextQKVIsPure(t *testing.T) {
	w := DefaultWeights()
	s0 := QKVState{}
	in := QKVInput{X: xScenario, Start: true}
	a, b := NextQKV(s0, in, &w), NextQKV(s0, in, &w)
	assert.Equal(t, a, b)
	assert.Equal(t, QKVState{}, s0)
}

func TestQKVPhaseString(t *testing.T) {
	assert.Equal(t, "idle", QKVIdle.String())
	assert.Equal(t, "compute", QKVCompute.String())
	assert.Equal(t, "done", QKVDone.String())
	assert.Equal(t, "unknown", QKVPhase(9).String())
}
