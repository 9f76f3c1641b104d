package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
)

func TestBuilder_BasicGraph(t *testing.T) {
	b := dsl.New("root").Entry("idle")
	b.Float("speed", 0)
	b.Int("gait", 0)
	b.Clip("idle", "idle_loop").Loop().
		To("walk").Duration(0.2).When("gait", domain.OpGt, 0)
	b.Blend1D("walk", "speed").
		Point("walk_slow", 0.5, 1).
		Point("walk_fast", 1, 1.5)

	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "idle", g.Entry)
	require.Len(t, g.States, 2)
	assert.True(t, g.States[0].Loop)
	require.Len(t, g.States[0].Transitions, 1)
	tr := g.States[0].Transitions[0]
	assert.Equal(t, "walk", tr.Target)
	assert.Equal(t, 0.2, tr.Duration)
	require.Len(t, tr.Conditions, 1)
	assert.Equal(t, domain.OpGt, tr.Conditions[0].Op)
	require.NotNil(t, g.States[1].Blend1D)
	assert.Len(t, g.States[1].Blend1D.Clips, 2)
}

func TestBuilder_EntryDefaultsToFirstState(t *testing.T) {
	b := dsl.New("root")
	b.Clip("only", "clip")
	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "only", g.Entry)
}

func TestBuilder_EmptyGraphFails(t *testing.T) {
	_, err := dsl.New("empty").Build()
	assert.Error(t, err)
}

// Appending more transitions must not orphan a handle obtained earlier.
func TestBuilder_TransitionHandleStaysValid(t *testing.T) {
	b := dsl.New("root")
	s := b.Clip("a", "clip_a")
	first := s.To("b")
	for i := 0; i < 8; i++ {
		s.To("c").Duration(9)
	}
	first.Duration(0.5)
	b.Clip("b", "clip_b")
	b.Clip("c", "clip_c")

	g, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 0.5, g.States[0].Transitions[0].Duration)
}

func TestBuilder_NestedMachineAndLinks(t *testing.T) {
	inner := dsl.New("inner").Entry("x")
	inner.Float("pace", 0)
	inner.Clip("x", "clip_x").Exit()

	b := dsl.New("root").Entry("sub")
	b.Float("speed", 0)
	b.Link("sub", "pace", "speed")
	b.Machine("sub", inner).To("done").Duration(0.1)
	b.Clip("done", "clip_done")

	g, err := b.Build()
	require.NoError(t, err)

	sub := g.FindState("sub")
	require.NotNil(t, sub)
	require.NotNil(t, sub.Machine)
	assert.Equal(t, "sub", sub.Machine.Name, "nested graph renamed to state name")
	assert.True(t, sub.Machine.States[0].Exit)
	require.Len(t, g.ParamLinks, 1)
	assert.Equal(t, domain.ParamLink{Machine: "sub", Local: "pace", Target: "speed"}, g.ParamLinks[0])
}

func TestBuilder_AnyStateTransition(t *testing.T) {
	b := dsl.New("root")
	b.Clip("a", "clip_a")
	b.Clip("death", "clip_death")
	b.AnyTo("death").Duration(0.05).ExitTime(0.1)

	g, err := b.Build()
	require.NoError(t, err)
	require.Len(t, g.AnyState, 1)
	assert.Equal(t, "death", g.AnyState[0].Target)
	require.NotNil(t, g.AnyState[0].ExitTime)
	assert.Equal(t, 0.1, *g.AnyState[0].ExitTime)
}

func TestBuilder_NestedErrorPropagates(t *testing.T) {
	b := dsl.New("root")
	b.Machine("sub", dsl.New("sub"))
	b.Clip("a", "clip_a")
	_, err := b.Build()
	assert.Error(t, err)
}
