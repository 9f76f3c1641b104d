package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/machine"
)

func compile(t *testing.T, b *dsl.Builder) *machine.Definition {
	t.Helper()
	g, err := b.Build()
	require.NoError(t, err)
	eng, err := espalier.NewFromGraph(g)
	require.NoError(t, err)
	return eng.Definition(0)
}

func TestLint_CleanGraph(t *testing.T) {
	b := dsl.New("clean").Bool("moving", false)
	b.Clip("idle", "idle_loop").Loop().
		To("walk").Duration(0.2).When("moving", domain.OpEq, 1)
	b.Clip("walk", "walk_loop").Loop().
		To("idle").Duration(0.2).When("moving", domain.OpEq, 0)

	assert.Empty(t, validator.Lint(compile(t, b)))
}

func TestLint_UnreachableState(t *testing.T) {
	b := dsl.New("island")
	b.Clip("idle", "idle_loop").Loop()
	b.Clip("orphan", "orphan_clip").Loop()

	fs := validator.Lint(compile(t, b))
	require.Len(t, fs, 1)
	assert.Equal(t, "island/orphan", fs[0].State)
	assert.Contains(t, fs[0].Message, "unreachable")
}

func TestLint_FloodFillStartsAtDeclaredEntry(t *testing.T) {
	// The entry is the second authored state; the first one is the
	// orphan, not the entry itself.
	b := dsl.New("g").Entry("idle")
	b.Clip("orphan", "orphan_clip").Loop()
	b.Clip("idle", "idle_loop").Loop()

	fs := validator.Lint(compile(t, b))
	require.Len(t, fs, 1)
	assert.Equal(t, "g/orphan", fs[0].State)
	assert.Contains(t, fs[0].Message, "unreachable")
}

func TestLint_AnyStateMakesTargetReachable(t *testing.T) {
	b := dsl.New("g").Bool("dead", false)
	b.Clip("idle", "idle_loop").Loop()
	b.Clip("death", "death_anim").
		To("idle").ExitTime(1).Duration(0)
	b.AnyTo("death").Duration(0.1).When("dead", domain.OpEq, 1)

	assert.Empty(t, validator.Lint(compile(t, b)))
}

func TestLint_ExitGroupReaches(t *testing.T) {
	inner := dsl.New("combo")
	inner.Clip("swing", "swing_a").
		To("recover").ExitTime(0.8).Duration(0.1)
	inner.Clip("recover", "swing_recover").Exit()

	b := dsl.New("g")
	b.Clip("idle", "idle_loop").Loop().
		To("combo").Duration(0.1)
	b.Machine("combo", inner).
		To("idle").ExitTime(1).Duration(0.1)

	assert.Empty(t, validator.Lint(compile(t, b)))
}

func TestLint_NonLoopingDeadEnd(t *testing.T) {
	b := dsl.New("g")
	b.Clip("idle", "idle_loop").Loop().
		To("fall").Duration(0.1)
	b.Clip("fall", "fall_anim")

	fs := validator.Lint(compile(t, b))
	require.Len(t, fs, 1)
	assert.Equal(t, "g/fall", fs[0].State)
	assert.Contains(t, fs[0].Message, "freezes")
}

func TestLint_SelfTransitionNeverFires(t *testing.T) {
	b := dsl.New("g")
	b.Clip("idle", "idle_loop").Loop().
		To("idle").Duration(0.1)

	fs := validator.Lint(compile(t, b))
	require.Len(t, fs, 1)
	assert.Contains(t, fs[0].Message, "never fires")
}

func TestLint_ExitTimePastEndOfOneShot(t *testing.T) {
	b := dsl.New("g")
	b.Clip("idle", "idle_loop").Loop().
		To("land").Duration(0.1)
	b.Clip("land", "land_anim").
		To("idle").ExitTime(1.5).Duration(0.1)

	fs := validator.Lint(compile(t, b))
	require.Len(t, fs, 1)
	assert.Equal(t, "g/land", fs[0].State)
	assert.Contains(t, fs[0].Message, "never opens")
}

func TestLint_NilAndEmpty(t *testing.T) {
	assert.Nil(t, validator.Lint(nil))
	assert.Nil(t, validator.Lint(&machine.Definition{}))
}
