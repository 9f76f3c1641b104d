package domain

// StateType constants define what a state produces when it is active.
const (
	// StateTypeClip plays a single animation clip.
	StateTypeClip = "clip"
	// StateTypeBlend1D blends a threshold-sorted clip set by one float parameter.
	StateTypeBlend1D = "blend1d"
	// StateTypeBlend2D blends positioned clips by two float parameters.
	StateTypeBlend2D = "blend2d"
	// StateTypeMachine embeds a nested state machine. Never present in the
	// compiled flat representation; the compiler expands it in place.
	StateTypeMachine = "machine"
)

// Blend2D algorithm tags.
const (
	// Blend2DDirectional weights clips by angular and radial proximity to
	// the sample point. Suited to locomotion rings (walk/run in 8 directions).
	Blend2DDirectional = "directional"
	// Blend2DCartesian weights clips by inverse square distance to the
	// sample point in parameter space.
	Blend2DCartesian = "cartesian"
)

// Graph is an authoring-time state machine: a set of states, one of which
// is the entry state, plus the parameter slots this scope owns and the
// explicit cross-scope parameter links declared for nested machines.
type Graph struct {
	Name string `json:"name" yaml:"name"`

	// Entry names the state activated when this machine (or sub-machine)
	// is entered. It may name a nested machine state, in which case entry
	// resolution recurses into it.
	Entry string `json:"entry" yaml:"entry"`

	States []*State `json:"states" yaml:"states"`

	// AnyState transitions are evaluated regardless of which leaf is
	// currently active. Targets resolve in this scope.
	AnyState []Transition `json:"any_state,omitempty" yaml:"any_state,omitempty"`

	// Parameters are the slots owned by this scope. Nested machines may
	// address them through ParamLinks or by name+type fallback.
	Parameters []Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// ParamLinks is the explicit link table: it maps a parameter name as
	// used inside a nested machine to a slot owned by this scope (or an
	// ancestor). It is consulted before the name+type fallback.
	ParamLinks []ParamLink `json:"param_links,omitempty" yaml:"param_links,omitempty"`
}

// State represents one node in the authoring graph. Exactly one of the
// kind-specific payloads is populated, matching Type.
type State struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"` // "clip", "blend1d", "blend2d", "machine"

	// Clip is the clip identifier for StateTypeClip.
	Clip string `json:"clip,omitempty" yaml:"clip,omitempty"`

	Blend1D *Blend1D `json:"blend1d,omitempty" yaml:"blend1d,omitempty"`
	Blend2D *Blend2D `json:"blend2d,omitempty" yaml:"blend2d,omitempty"`

	// Machine is the embedded graph for StateTypeMachine.
	Machine *Graph `json:"machine,omitempty" yaml:"machine,omitempty"`

	// Exit marks a leaf interior to a sub-machine as eligible to trigger
	// the sub-machine's own outgoing transitions.
	Exit bool `json:"exit,omitempty" yaml:"exit,omitempty"`

	// Speed is the playback speed multiplier (0 means 1).
	Speed float64 `json:"speed,omitempty" yaml:"speed,omitempty"`

	// SpeedParam optionally names a float parameter that scales Speed at
	// runtime.
	SpeedParam string `json:"speed_param,omitempty" yaml:"speed_param,omitempty"`

	Loop bool `json:"loop,omitempty" yaml:"loop,omitempty"`

	// Transitions are this state's outgoing edges. On a machine state they
	// are the exit transitions, fired while any interior exit state is
	// active.
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// Blend1D is a one-dimensional blend tree: clips sorted by threshold along
// a single float parameter.
type Blend1D struct {
	Param string         `json:"param" yaml:"param"`
	Clips []Blend1DEntry `json:"clips" yaml:"clips"`
}

// Blend1DEntry positions one clip on the 1D threshold axis.
type Blend1DEntry struct {
	Clip      string  `json:"clip" yaml:"clip"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	// Speed is a per-clip playback multiplier (0 means 1).
	Speed float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// Blend2D is a two-dimensional blend tree: clips positioned in the plane
// spanned by two float parameters.
type Blend2D struct {
	ParamX    string         `json:"param_x" yaml:"param_x"`
	ParamY    string         `json:"param_y" yaml:"param_y"`
	Algorithm string         `json:"algorithm,omitempty" yaml:"algorithm,omitempty"` // default directional
	Clips     []Blend2DEntry `json:"clips" yaml:"clips"`
}

// Blend2DEntry positions one clip in 2D parameter space.
type Blend2DEntry struct {
	Clip string  `json:"clip" yaml:"clip"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// FindState returns the state with the given name, or nil.
func (g *Graph) FindState(name string) *State {
	for _, s := range g.States {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// IsLeaf reports whether the state produces poses directly, as opposed to
// embedding a nested machine.
func (s *State) IsLeaf() bool {
	return s.Type != StateTypeMachine
}

// ClipCount returns how many clips this leaf state samples.
func (s *State) ClipCount() int {
	switch s.Type {
	case StateTypeClip:
		return 1
	case StateTypeBlend1D:
		if s.Blend1D == nil {
			return 0
		}
		return len(s.Blend1D.Clips)
	case StateTypeBlend2D:
		if s.Blend2D == nil {
			return 0
		}
		return len(s.Blend2D.Clips)
	}
	return 0
}
