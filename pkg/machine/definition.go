package machine

import "github.com/go-gl/mathgl/mgl32"

// State kind tags. Stored as a discriminator next to a payload index so
// the compiled machine stays flat, contiguous data with no dynamic
// dispatch.
const (
	KindClip uint8 = iota
	KindBlend1D
	KindBlend2D
)

// NoIndex is the sentinel for optional index fields (exit group, speed
// parameter, payload).
const NoIndex int32 = -1

// NoExitTime marks a transition without a time gate.
const NoExitTime float32 = -1

// Definition is the compiled state machine. All cross-references are
// integer indices into the flat pools below, which keeps the structure
// free of reference cycles and trivially shareable across instances.
type Definition struct {
	// States are the flattened leaves in depth-first authoring order.
	States []StateDef

	// Entry is the flattened index of the root machine's resolved entry
	// leaf, activated when an instance is created.
	Entry int32

	// Clips is the unified clip list; StateDef.ClipOffset indexes it.
	Clips []string

	// PathIndex maps the diagnostic slash path of each state to its index.
	PathIndex map[string]int32

	// Kind-specific payload tables.
	SingleClips []SingleClipDef
	Blend1D     []Blend1DDef
	Blend1DPool []Blend1DClip
	Blend2D     []Blend2DDef
	Blend2DPool []Blend2DClip

	// Transitions is the pooled per-state transition list; states address
	// it by offset and count. AnyState transitions are evaluated for every
	// active leaf.
	Transitions []TransitionDef
	AnyState    []TransitionDef
	ExitGroups  []ExitGroup

	// Conds and Curve are the pooled condition and keyframe tables
	// referenced by TransitionDef.
	Conds []CondDef
	Curve []CurveKey

	Params   []ParamDef
	Machines []MachineInfo
}

// StateDef describes one flattened leaf state.
type StateDef struct {
	// Kind discriminates the payload table; Payload indexes into it.
	Kind    uint8
	Payload int32

	// ClipOffset is the sum of the clip counts of all states preceding
	// this one in traversal order; ClipCount the number of clips this
	// state samples.
	ClipOffset int32
	ClipCount  int32

	Speed      float32
	SpeedParam int32 // index into Params, NoIndex if fixed speed
	Loop       bool

	// ExitGroup is the exit-transition group this state belongs to, or
	// NoIndex when it is not a designated exit state.
	ExitGroup int32

	// Machine is the immediate parent sub-machine, an index into
	// Definition.Machines. Diagnostics only; parameter references were
	// already resolved to slots at compile time.
	Machine int32

	// TransOffset/TransCount address this state's out-transitions in the
	// Transitions pool.
	TransOffset int32
	TransCount  int32

	// Path is the slash-joined diagnostic path from the root machine.
	Path string
}

// SingleClipDef is the payload of a KindClip state.
type SingleClipDef struct {
	Clip int32
}

// Blend1DDef is the payload of a KindBlend1D state. Entries are sorted by
// threshold in the Blend1DPool slice it addresses.
type Blend1DDef struct {
	Param  int32
	Offset int32
	Count  int32
}

// Blend1DClip positions one clip on the threshold axis.
type Blend1DClip struct {
	Clip      int32
	Threshold float32
	Speed     float32
}

// Blend2DDef is the payload of a KindBlend2D state.
type Blend2DDef struct {
	ParamX, ParamY int32
	Directional    bool // false selects cartesian weighting
	Offset         int32
	Count          int32
}

// Blend2DClip positions one clip in 2D parameter space.
type Blend2DClip struct {
	Clip int32
	Pos  mgl32.Vec2
}

// TransitionDef is a compiled transition with its target already resolved
// to a leaf index.
type TransitionDef struct {
	Target   int32
	Duration float32

	// ExitTime is the normalized source playback time gating this
	// transition, or NoExitTime.
	ExitTime float32

	CondOffset, CondCount   int32
	CurveOffset, CurveCount int32
}

// HasCurve reports whether the transition carries a shaped blend curve;
// zero keyframes is the reserved linear fast path.
func (t *TransitionDef) HasCurve() bool { return t.CurveCount > 0 }

// ExitGroup associates a sub-machine's interior exit states with the
// transitions that fire while any of them is active.
type ExitGroup struct {
	// Machine is the owning sub-machine, an index into Machines.
	Machine int32
	// States are flattened indices of the member exit states.
	States []int32
	// Transitions are the group's target-resolved out-transitions.
	Transitions []TransitionDef
}

// Condition operators on compiled conditions.
const (
	CondEq uint8 = iota
	CondNeq
	CondGt
	CondLt
)

// CondDef is one compiled parameter test; tests on a transition are
// AND-combined.
type CondDef struct {
	Param int32
	Op    uint8
	Value int64
}

// ParamDef is a compiled parameter slot.
type ParamDef struct {
	Name    string
	Type    uint8 // ParamTypeBool/Int/Float
	Default float64
}

// Compiled parameter type tags.
const (
	ParamTypeBool uint8 = iota
	ParamTypeInt
	ParamTypeFloat
)

// MachineInfo records a (sub-)machine's identity for diagnostics.
type MachineInfo struct {
	Name   string
	Parent int32 // NoIndex for the root
}

// StateTransitions returns the out-transition slice of state i.
func (d *Definition) StateTransitions(i int32) []TransitionDef {
	s := &d.States[i]
	return d.Transitions[s.TransOffset : s.TransOffset+s.TransCount]
}

// TransitionCurve returns the keyframe slice of a transition; empty for
// the linear fast path.
func (d *Definition) TransitionCurve(t *TransitionDef) []CurveKey {
	if t.CurveCount == 0 {
		return nil
	}
	return d.Curve[t.CurveOffset : t.CurveOffset+t.CurveCount]
}

// TransitionConds returns the condition slice of a transition.
func (d *Definition) TransitionConds(t *TransitionDef) []CondDef {
	if t.CondCount == 0 {
		return nil
	}
	return d.Conds[t.CondOffset : t.CondOffset+t.CondCount]
}

// Index returns the flattened index of a state by diagnostic path.
func (d *Definition) Index(path string) (int32, bool) {
	i, ok := d.PathIndex[path]
	return i, ok
}

// ParamIndex returns the slot of a parameter by name, or NoIndex.
func (d *Definition) ParamIndex(name string) int32 {
	for i := range d.Params {
		if d.Params[i].Name == name {
			return int32(i)
		}
	}
	return NoIndex
}

// StateClips returns the unified-clip-list slice sampled by state i.
func (d *Definition) StateClips(i int32) []string {
	s := &d.States[i]
	return d.Clips[s.ClipOffset : s.ClipOffset+s.ClipCount]
}
