package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/params"
	"github.com/aretw0/espalier/pkg/ports"
)

// Scenario: a 0.7 override base with a 0.5 additive overlay. The override
// claims 0.7 of the opacity, the additive layer contributes its raw
// weight on top.
func TestLayerInfluence_OverridePlusAdditive(t *testing.T) {
	base := compileGraph(t, abGraph())
	overlay := compileGraph(t, abGraph())

	inst := runtime.NewInstance(runtime.Config{Clips: testClips}, []runtime.LayerConfig{
		{Def: base, Params: params.NewStore(base.Params), Weight: 0.7, Mode: domain.BlendOverride},
		{Def: overlay, Params: params.NewStore(overlay.Params), Weight: 0.5, Mode: domain.BlendAdditive},
	})

	i0, err := inst.LayerInfluence(0)
	require.NoError(t, err)
	i1, err := inst.LayerInfluence(1)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, i0, 1e-5)
	assert.InDelta(t, 0.5, i1, 1e-5)
}

// A full-weight override above mutes everything below it.
func TestLayerInfluence_UpperOverrideMutesLower(t *testing.T) {
	base := compileGraph(t, abGraph())
	overlay := compileGraph(t, abGraph())

	inst := runtime.NewInstance(runtime.Config{Clips: testClips}, []runtime.LayerConfig{
		{Def: base, Params: params.NewStore(base.Params), Weight: 1, Mode: domain.BlendOverride},
		{Def: overlay, Params: params.NewStore(overlay.Params), Weight: 1, Mode: domain.BlendOverride},
	})

	i0, _ := inst.LayerInfluence(0)
	i1, _ := inst.LayerInfluence(1)
	assert.InDelta(t, 0, i0, 1e-5)
	assert.InDelta(t, 1, i1, 1e-5)

	require.NoError(t, inst.SetLayerWeight(1, 0.25))
	i0, _ = inst.LayerInfluence(0)
	assert.InDelta(t, 0.75, i0, 1e-5)
}

func TestComposedSamples_SingleClip(t *testing.T) {
	def := compileGraph(t, abGraph())
	inst := singleLayerInstance(t, def)

	inst.Tick(0.3)
	samples := inst.ComposedSamples()
	require.Len(t, samples, 1)
	assert.Equal(t, "clip_a", samples[0].Clip)
	assert.InDelta(t, 0.3, samples[0].Time, 1e-5)
	assert.InDelta(t, 1, samples[0].Weight, 1e-5)
}

func blend1DGraph() *dsl.Builder {
	b := dsl.New("root").Entry("move")
	b.Float("speed", 0)
	b.Blend1D("move", "speed").
		Point("idle", 0, 1).
		Point("walk", 0.5, 1).
		Point("run", 1, 2)
	return b
}

func TestComposedSamples_Blend1DInterpolation(t *testing.T) {
	def := compileGraph(t, blend1DGraph())
	inst := singleLayerInstance(t, def)
	l := inst.Layer(0)

	l.Params.SetFloat(int(def.ParamIndex("speed")), 0.25)
	inst.Tick(0.1)

	samples := inst.ComposedSamples()
	require.Len(t, samples, 2)
	byClip := map[string]ports.Sample{}
	for _, s := range samples {
		byClip[s.Clip] = s
	}
	assert.InDelta(t, 0.5, byClip["idle"].Weight, 1e-4)
	assert.InDelta(t, 0.5, byClip["walk"].Weight, 1e-4)
	// The run entry plays at double speed when it wins weight.
	assert.InDelta(t, 0.1, byClip["walk"].Time, 1e-4)
}

func TestComposedSamples_Blend1DEdgeClamp(t *testing.T) {
	def := compileGraph(t, blend1DGraph())
	inst := singleLayerInstance(t, def)
	l := inst.Layer(0)
	slot := int(def.ParamIndex("speed"))

	l.Params.SetFloat(slot, -3)
	inst.Tick(0.1)
	samples := inst.ComposedSamples()
	require.Len(t, samples, 1)
	assert.Equal(t, "idle", samples[0].Clip)

	l.Params.SetFloat(slot, 9)
	samples = inst.ComposedSamples()
	require.Len(t, samples, 1)
	assert.Equal(t, "run", samples[0].Clip)
	assert.InDelta(t, 0.2, samples[0].Time, 1e-4, "edge entry keeps its speed multiplier")
}

func TestComposedSamples_Blend2DWinnerAndSpread(t *testing.T) {
	b := dsl.New("root").Entry("aim")
	b.Float("x", 0)
	b.Float("y", 0)
	b.Blend2D("aim", "x", "y").Cartesian().
		At("clip_a", 1, 0).
		At("clip_b", 0, 1)
	def := compileGraph(t, b)
	inst := singleLayerInstance(t, def)
	l := inst.Layer(0)

	sx := int(def.ParamIndex("x"))
	sy := int(def.ParamIndex("y"))

	// On top of a clip position the clip takes everything.
	l.Params.SetFloat(sx, 1)
	inst.Tick(0.05)
	samples := inst.ComposedSamples()
	require.Len(t, samples, 1)
	assert.Equal(t, "clip_a", samples[0].Clip)
	assert.InDelta(t, 1, samples[0].Weight, 1e-4)

	// Equidistant between the two, the weight splits evenly and sums to 1.
	l.Params.SetFloat(sx, 0.5)
	l.Params.SetFloat(sy, 0.5)
	samples = inst.ComposedSamples()
	require.Len(t, samples, 2)
	var total float32
	for _, s := range samples {
		assert.InDelta(t, 0.5, s.Weight, 1e-4)
		total += s.Weight
	}
	assert.InDelta(t, 1, total, 1e-4)
}

// Layer influence multiplies into every sample weight.
func TestComposedSamples_LayerInfluenceScales(t *testing.T) {
	base := compileGraph(t, abGraph())
	overlay := compileGraph(t, abGraph())

	inst := runtime.NewInstance(runtime.Config{Clips: testClips}, []runtime.LayerConfig{
		{Def: base, Params: params.NewStore(base.Params), Weight: 1, Mode: domain.BlendOverride},
		{Def: overlay, Params: params.NewStore(overlay.Params), Weight: 0.5, Mode: domain.BlendOverride},
	})
	inst.Tick(0.1)

	samples := inst.ComposedSamples()
	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.InDelta(t, 0.5, s.Weight, 1e-4)
	}
}

func TestComposedSamples_SkipsMutedLayer(t *testing.T) {
	base := compileGraph(t, abGraph())
	inst := runtime.NewInstance(runtime.Config{Clips: testClips}, []runtime.LayerConfig{
		{Def: base, Params: params.NewStore(base.Params), Weight: 0, Mode: domain.BlendOverride},
	})
	inst.Tick(0.1)
	assert.Empty(t, inst.ComposedSamples())
}
