package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The bare mixer is the curve-less variant: pure linear blending for
// callers without a compiled definition.

func TestMixer_LinearCrossfade(t *testing.T) {
	var m Mixer
	a := m.Activate(ActiveState{State: 0})
	m.ByID(a).Weight = 1
	m.current = a

	b := m.Activate(ActiveState{State: 1})
	m.Begin(b, 0.2, nil)

	m.Advance(0.1)
	assert.InDelta(t, 0.5, m.ByID(b).Weight, 1e-4)
	assert.InDelta(t, 0.5, m.ByID(a).Weight, 1e-4)
	assert.InDelta(t, 1, m.WeightSum(), 1e-4)

	committed := m.Advance(0.1)
	assert.True(t, committed)
	assert.Equal(t, b, m.Current())
	assert.InDelta(t, 1, m.ByID(b).Weight, 1e-4)

	removed := m.Cleanup()
	require.Len(t, removed, 1)
	assert.Equal(t, a, removed[0].ID)
	assert.Len(t, m.Active(), 1)
}

func TestMixer_FirstActivationIsInstant(t *testing.T) {
	var m Mixer
	id := m.Activate(ActiveState{State: 0})
	m.Begin(id, 5, nil)

	// No valid current state forces a zero-duration cut.
	m.Advance(0.016)
	assert.Equal(t, id, m.Current())
	assert.InDelta(t, 1, m.ByID(id).Weight, 1e-4)
	assert.False(t, m.Transitioning())
}

func TestMixer_ReplacesInFlightTransition(t *testing.T) {
	var m Mixer
	a := m.Activate(ActiveState{State: 0})
	m.ByID(a).Weight = 1
	m.current = a

	b := m.Activate(ActiveState{State: 1})
	m.Begin(b, 1, nil)
	m.Advance(0.5)

	c := m.Activate(ActiveState{State: 2})
	m.Begin(c, 1, nil)
	require.True(t, m.Transitioning())
	assert.Equal(t, c, m.Transition().Target)
	assert.Equal(t, float32(0), m.Transition().Elapsed)

	// Mid-fade weights of a and b become the relative shares of 1-w.
	m.Advance(0.5)
	assert.InDelta(t, 0.5, m.ByID(c).Weight, 1e-4)
	assert.InDelta(t, 1, m.WeightSum(), 1e-4)
}

func TestMixer_EqualSplitFallback(t *testing.T) {
	// All non-target weights numerically zero: the remainder must be
	// split equally instead of dividing by zero.
	var m Mixer
	a := m.Activate(ActiveState{State: 0})
	b := m.Activate(ActiveState{State: 1})
	_ = b
	m.ByID(a).Weight = 1
	m.current = a
	m.ByID(a).Weight = 0 // degenerate: current collapsed to zero

	c := m.Activate(ActiveState{State: 2})
	m.Begin(c, 1, nil)
	m.Advance(0.4)

	w := m.ByID(c).Weight
	assert.InDelta(t, 0.4, w, 1e-4)
	rest := (1 - w) / 2
	assert.InDelta(t, rest, m.ByID(a).Weight, 1e-4)
	assert.InDelta(t, rest, m.ByID(b).Weight, 1e-4)
	assert.InDelta(t, 1, m.WeightSum(), 1e-4)
	assert.False(t, anyNaN(m))
}

func TestMixer_LoopWrapsTime(t *testing.T) {
	var m Mixer
	id := m.Activate(ActiveState{State: 0, Speed: 1, Loop: true, Duration: 0.5})
	m.ByID(id).Weight = 1
	m.current = id

	m.Advance(1.2)
	assert.InDelta(t, 0.2, m.ByID(id).Time, 1e-4)

	// Non-looping time runs free.
	free := m.Activate(ActiveState{State: 1, Speed: 2})
	m.Advance(1)
	assert.InDelta(t, 2, m.ByID(free).Time, 1e-4)
}

func TestMixer_CleanupProtectsTargetAndPreserved(t *testing.T) {
	var m Mixer
	base := m.Activate(ActiveState{State: 0, Preserved: true})
	m.ByID(base).Weight = 1
	m.current = base

	overlay := m.Activate(ActiveState{State: 1})
	m.Begin(overlay, 0.1, nil)
	m.Advance(0.2) // commits; base weight 0

	removed := m.Cleanup()
	assert.Empty(t, removed, "preserved base must survive at zero weight")

	m.ByID(base).Preserved = false
	removed = m.Cleanup()
	require.Len(t, removed, 1)
	assert.Equal(t, base, removed[0].ID)
}

func TestMixer_StaleTargetDropsTransition(t *testing.T) {
	var m Mixer
	a := m.Activate(ActiveState{State: 0})
	m.ByID(a).Weight = 1
	m.current = a

	m.Begin(999, 1, nil) // id never issued
	m.Advance(0.1)
	assert.False(t, m.Transitioning())
	assert.InDelta(t, 1, m.WeightSum(), 1e-4)
}

func anyNaN(m Mixer) bool {
	for _, s := range m.Active() {
		if s.Weight != s.Weight {
			return true
		}
	}
	return false
}
