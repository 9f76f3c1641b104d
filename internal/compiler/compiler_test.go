package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/compiler"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/machine"
)

// locomotionGraph builds a root with a nested sub-machine:
//
//	root: idle(entry), combat{ slash(entry), recover(exit) } -> idle, fall
func locomotionGraph(t *testing.T) *domain.Graph {
	t.Helper()

	combat := dsl.New("combat").Entry("slash")
	combat.Clip("slash", "sword_slash")
	combat.Clip("recover", "sword_recover").Exit()

	b := dsl.New("root").Entry("idle")
	b.Clip("idle", "idle_loop").Loop()
	b.Machine("combat", combat).To("idle").Duration(0.15)
	b.Clip("fall", "fall_loop").Loop()
	return b.MustBuild()
}

func TestFlatten_NestedMachine(t *testing.T) {
	res, err := compiler.Flatten(locomotionGraph(t))
	require.NoError(t, err)

	// No composite node ever appears in the flat array; indices are dense
	// and in depth-first order.
	require.Len(t, res.States, 4)
	assert.Equal(t, "root/idle", res.States[0].Path)
	assert.Equal(t, "root/combat/slash", res.States[1].Path)
	assert.Equal(t, "root/combat/recover", res.States[2].Path)
	assert.Equal(t, "root/fall", res.States[3].Path)
	for i, fs := range res.States {
		assert.Equal(t, int32(i), fs.Index)
	}

	// One clip per leaf here, so offsets count up by one.
	for i, fs := range res.States {
		assert.Equal(t, int32(i), fs.ClipOffset)
	}
}

func TestFlatten_ExitGroup(t *testing.T) {
	// Scenario: sub-machine S under root with entry X and exit state Y,
	// and an out-transition from S to root-level Z.
	sub := dsl.New("s").Entry("x")
	sub.Clip("x", "clip_x")
	sub.Clip("y", "clip_y").Exit()

	b := dsl.New("root").Entry("home")
	b.Clip("home", "clip_home")
	b.Machine("s", sub).To("z").Duration(0.15)
	b.Clip("z", "clip_z")

	res, err := compiler.Flatten(b.MustBuild())
	require.NoError(t, err)

	// home, x, y, z
	require.Len(t, res.States, 4)
	require.Len(t, res.Groups, 1)

	y := res.States[2]
	assert.Equal(t, "root/s/y", y.Path)
	assert.Equal(t, int32(0), y.ExitGroup)

	x := res.States[1]
	assert.Equal(t, machine.NoIndex, x.ExitGroup)

	assert.Equal(t, []int32{2}, res.Groups[0].States)

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)
	require.Len(t, def.ExitGroups, 1)
	require.Len(t, def.ExitGroups[0].Transitions, 1)
	z, ok := def.Index("root/z")
	require.True(t, ok)
	assert.Equal(t, z, def.ExitGroups[0].Transitions[0].Target)
	assert.InDelta(t, 0.15, def.ExitGroups[0].Transitions[0].Duration, 1e-6)
}

func TestFlatten_NoGroupWithoutTransitions(t *testing.T) {
	// Exit states without machine-level transitions form no group.
	sub := dsl.New("s").Entry("x")
	sub.Clip("x", "clip_x")
	sub.Clip("y", "clip_y").Exit()

	b := dsl.New("root").Entry("s")
	b.Machine("s", sub)

	res, err := compiler.Flatten(b.MustBuild())
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Equal(t, machine.NoIndex, res.States[1].ExitGroup)
}

func TestFlatten_DeepExitState(t *testing.T) {
	// The exit leaf sits two machines below the one whose transitions it
	// triggers; membership is resolved in the second pass.
	inner := dsl.New("inner").Entry("deep")
	inner.Clip("deep", "clip_deep").Exit()

	mid := dsl.New("mid").Entry("inner")
	mid.Machine("inner", inner)

	b := dsl.New("root").Entry("out")
	b.Clip("out", "clip_out")
	b.Machine("mid", mid).To("out").Duration(0.1)

	res, err := compiler.Flatten(b.MustBuild())
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	deep := res.States[1]
	assert.Equal(t, "root/mid/inner/deep", deep.Path)
	assert.Equal(t, int32(0), deep.ExitGroup)
	assert.Equal(t, []int32{1}, res.Groups[0].States)
}

func TestResolveEntryState_Recursive(t *testing.T) {
	inner := dsl.New("inner").Entry("leaf")
	inner.Clip("leaf", "clip_leaf")

	mid := dsl.New("mid").Entry("inner")
	mid.Machine("inner", inner)

	b := dsl.New("root").Entry("mid")
	b.Machine("mid", mid)
	g := b.MustBuild()

	leaf, err := compiler.ResolveEntryState(g)
	require.NoError(t, err)
	assert.Equal(t, "leaf", leaf.Name)

	// Round trip: the resolved entry is a registered flattened leaf.
	res, err := compiler.Flatten(g)
	require.NoError(t, err)
	idx, err := res.ResolveTransitionTarget(g, "mid")
	require.NoError(t, err)
	assert.Equal(t, int32(0), idx)
	assert.Equal(t, "root/mid/inner/leaf", res.States[idx].Path)
}

func TestFlatten_OuterEmptyGroupPruned(t *testing.T) {
	// The exit leaf sits two machines deep. The nearest machine forms
	// its own group and claims it; the outer machine's group would have
	// no members and must not survive into the compiled definition.
	inner := dsl.New("inner")
	inner.Clip("strike", "strike_a").Exit()

	mid := dsl.New("mid")
	mid.Machine("inner", inner).To("idle").Duration(0.1)

	b := dsl.New("root").Entry("idle")
	b.Clip("idle", "idle_loop").Loop().
		To("mid").Duration(0.1)
	b.Machine("mid", mid).To("idle").Duration(0.2)

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	require.Len(t, def.ExitGroups, 1)
	strike, _ := def.Index("root/mid/inner/strike")
	assert.Equal(t, []int32{strike}, def.ExitGroups[0].States)
	assert.Equal(t, int32(0), def.States[strike].ExitGroup)
}

func TestCompile_EntryNotFirstState(t *testing.T) {
	// The declared entry sits after another leaf in authoring order; the
	// compiled entry index must follow the declaration, not emission
	// order.
	b := dsl.New("root").Entry("idle")
	b.Clip("attack", "attack_swing")
	b.Clip("idle", "idle_loop").Loop()

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	idle, ok := def.Index("root/idle")
	require.True(t, ok)
	assert.Equal(t, idle, def.Entry)
	assert.NotEqual(t, int32(0), def.Entry)
}

func TestCompile_EntryBehindSubMachine(t *testing.T) {
	combat := dsl.New("combat").Entry("slash")
	combat.Clip("slash", "sword_slash")

	b := dsl.New("root").Entry("idle")
	b.Machine("combat", combat)
	b.Clip("idle", "idle_loop").Loop()

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	idle, _ := def.Index("root/idle")
	assert.Equal(t, idle, def.Entry)
}

func TestCompile_UnresolvedRootEntry(t *testing.T) {
	g := &domain.Graph{Name: "root", Entry: "nope", States: []*domain.State{
		{Name: "a", Type: domain.StateTypeClip, Clip: "c"},
	}}
	_, err := compiler.Compile(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedEntry)
}

func TestCompile_UnresolvedSubMachineEntry(t *testing.T) {
	// The sub-machine is never targeted by a transition, so only the
	// entry validation pass can catch its bad declaration.
	sub := &domain.Graph{Name: "sub", Entry: "ghost", States: []*domain.State{
		{Name: "x", Type: domain.StateTypeClip, Clip: "c"},
	}}
	g := &domain.Graph{Name: "root", States: []*domain.State{
		{Name: "idle", Type: domain.StateTypeClip, Clip: "idle_loop", Loop: true},
		{Name: "sub", Type: domain.StateTypeMachine, Machine: sub},
	}}
	_, err := compiler.Compile(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnresolvedEntry)
}

func TestCompile_EmptyEntryDefaultsToFirstState(t *testing.T) {
	g := &domain.Graph{Name: "root", States: []*domain.State{
		{Name: "a", Type: domain.StateTypeClip, Clip: "c"},
		{Name: "b", Type: domain.StateTypeClip, Clip: "d"},
	}}
	def, err := compiler.Compile(g)
	require.NoError(t, err)
	assert.Equal(t, int32(0), def.Entry)
}

func TestResolveEntryState_Unresolved(t *testing.T) {
	g := &domain.Graph{Name: "root", Entry: "ghost", States: []*domain.State{
		{Name: "a", Type: domain.StateTypeClip, Clip: "c"},
	}}
	_, err := compiler.ResolveEntryState(g)
	assert.ErrorIs(t, err, domain.ErrUnresolvedEntry)
}

func TestCompile_TargetResolution(t *testing.T) {
	// A nested state targets a root-level state by bare name, and a root
	// state targets the composite, which redirects to its entry leaf.
	sub := dsl.New("sub").Entry("inner")
	sub.Clip("inner", "clip_inner").To("outer").Duration(0.2)

	b := dsl.New("root").Entry("outer")
	b.Clip("outer", "clip_outer").To("sub").Duration(0.3)
	b.Machine("sub", sub)

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	outer, _ := def.Index("root/outer")
	inner, _ := def.Index("root/sub/inner")

	ts := def.StateTransitions(outer)
	require.Len(t, ts, 1)
	assert.Equal(t, inner, ts[0].Target, "composite target redirects to entry leaf")

	ts = def.StateTransitions(inner)
	require.Len(t, ts, 1)
	assert.Equal(t, outer, ts[0].Target, "ancestor-scope name resolves")
}

func TestCompile_UnknownTarget(t *testing.T) {
	b := dsl.New("root").Entry("a")
	b.Clip("a", "clip_a").To("ghost").Duration(0.1)

	_, err := compiler.Compile(b.MustBuild())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTarget)

	var be *domain.BuildError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Path, "root/a")
}

func TestCompile_MissingClip(t *testing.T) {
	g := &domain.Graph{Name: "root", Entry: "a", States: []*domain.State{
		{Name: "a", Type: domain.StateTypeClip},
	}}
	_, err := compiler.Compile(g)
	assert.ErrorIs(t, err, domain.ErrMissingClip)
}

func TestCompile_ClipOffsetsAcrossBlends(t *testing.T) {
	b := dsl.New("root").Entry("move")
	b.Float("speed", 0)
	b.Blend1D("move", "speed").
		Point("walk", 1, 0).
		Point("run", 4, 0).
		Point("idle", 0, 0)
	b.Clip("jump", "jump_up")

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	// Unified clip list keeps authoring order; the blend payload is
	// sorted by threshold but keeps global clip indices.
	assert.Equal(t, []string{"walk", "run", "idle", "jump_up"}, def.Clips)

	jump, _ := def.Index("root/jump")
	assert.Equal(t, int32(3), def.States[jump].ClipOffset)

	move, _ := def.Index("root/move")
	sd := def.States[move]
	require.Equal(t, machine.KindBlend1D, sd.Kind)
	bd := def.Blend1D[sd.Payload]
	pool := def.Blend1DPool[bd.Offset : bd.Offset+bd.Count]
	require.Len(t, pool, 3)
	assert.Equal(t, float32(0), pool[0].Threshold)
	assert.Equal(t, "idle", def.Clips[pool[0].Clip])
	assert.Equal(t, "walk", def.Clips[pool[1].Clip])
	assert.Equal(t, "run", def.Clips[pool[2].Clip])
}

func TestCompile_ParamLinkPrecedence(t *testing.T) {
	// The nested blend references "speed"; the root declares both a
	// linked slot ("moveSpeed") and a decoy slot also named "speed". The
	// explicit link must win over the name fallback.
	sub := dsl.New("loco").Entry("move")
	sub.Blend1D("move", "speed").Point("walk", 0, 0).Point("run", 1, 0)

	b := dsl.New("root").Entry("loco")
	b.Float("moveSpeed", 2.5)
	b.Float("speed", 0)
	b.Link("loco", "speed", "moveSpeed")
	b.Machine("loco", sub)

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	move, _ := def.Index("root/loco/move")
	bd := def.Blend1D[def.States[move].Payload]
	assert.Equal(t, "moveSpeed", def.Params[bd.Param].Name)
}

func TestCompile_ParamNameFallback(t *testing.T) {
	sub := dsl.New("loco").Entry("move")
	sub.Blend1D("move", "speed").Point("walk", 0, 0).Point("run", 1, 0)

	b := dsl.New("root").Entry("loco")
	b.Float("speed", 0)
	b.Machine("loco", sub)

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)
	move, _ := def.Index("root/loco/move")
	bd := def.Blend1D[def.States[move].Payload]
	assert.Equal(t, "speed", def.Params[bd.Param].Name)
}

func TestCompile_UnboundParameter(t *testing.T) {
	b := dsl.New("root").Entry("move")
	b.Blend1D("move", "ghost").Point("walk", 0, 0).Point("run", 1, 0)

	_, err := compiler.Compile(b.MustBuild())
	assert.ErrorIs(t, err, domain.ErrUnboundParameter)
}

func TestCompile_ConditionTyping(t *testing.T) {
	b := dsl.New("root").Entry("a")
	b.Bool("grounded", true)
	b.Int("combo", 0)
	b.Clip("a", "clip_a").
		To("b").Duration(0.1).
		When("grounded", domain.OpEq, 1).
		When("combo", domain.OpGt, 2)
	b.Clip("b", "clip_b")

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	a, _ := def.Index("root/a")
	ts := def.StateTransitions(a)
	require.Len(t, ts, 1)
	conds := def.TransitionConds(&ts[0])
	require.Len(t, conds, 2)
	assert.Equal(t, machine.CondEq, conds[0].Op)
	assert.Equal(t, machine.CondGt, conds[1].Op)

	// gt on a bool slot is a build error.
	bad := dsl.New("root").Entry("a")
	bad.Bool("grounded", false)
	bad.Clip("a", "clip_a").To("b").When("grounded", domain.OpGt, 0)
	bad.Clip("b", "clip_b")
	_, err = compiler.Compile(bad.MustBuild())
	assert.ErrorIs(t, err, domain.ErrUnboundParameter)
}

func TestCompile_CurvePacking(t *testing.T) {
	b := dsl.New("root").Entry("a")
	b.Clip("a", "clip_a").
		To("b").Duration(0.2).
		Curve(
			domain.CurvePoint{Time: 0, Value: 1},
			domain.CurvePoint{Time: 1, Value: 0},
		)
	b.Clip("b", "clip_b")

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)

	a, _ := def.Index("root/a")
	tr := def.StateTransitions(a)[0]
	keys := def.TransitionCurve(&tr)
	require.Len(t, keys, 2)

	// Authored source weight 1->0 is stored inverted as destination
	// weight 0->1.
	assert.InDelta(t, 0, keys[0].DecodeValue(), 1e-2)
	assert.InDelta(t, 1, keys[1].DecodeValue(), 1e-2)
	assert.InDelta(t, 0, machine.EvaluateCurve(keys, 0), 1e-2)
	assert.InDelta(t, 1, machine.EvaluateCurve(keys, 1), 1e-2)
}

func TestCompile_SingleKeyframeCurveRejected(t *testing.T) {
	b := dsl.New("root").Entry("a")
	b.Clip("a", "clip_a").To("b").Curve(domain.CurvePoint{Time: 0, Value: 1})
	b.Clip("b", "clip_b")

	_, err := compiler.Compile(b.MustBuild())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 keyframes")
}

func TestCompile_AnyState(t *testing.T) {
	b := dsl.New("root").Entry("a")
	b.Bool("dead", false)
	b.Clip("a", "clip_a")
	b.Clip("death", "death_anim")
	b.AnyTo("death").Duration(0.1).When("dead", domain.OpEq, 1)

	def, err := compiler.Compile(b.MustBuild())
	require.NoError(t, err)
	require.Len(t, def.AnyState, 1)
	death, _ := def.Index("root/death")
	assert.Equal(t, death, def.AnyState[0].Target)
}

func TestCollectAllClips(t *testing.T) {
	g := locomotionGraph(t)
	clips := compiler.CollectAllClips(g)
	assert.Equal(t, []string{"idle_loop", "sword_slash", "sword_recover", "fall_loop"}, clips)

	// The independent walk agrees with the flattener's offsets.
	res, err := compiler.Flatten(g)
	require.NoError(t, err)
	last := res.States[len(res.States)-1]
	assert.Equal(t, int(last.ClipOffset)+last.State.ClipCount(), len(clips))
}
