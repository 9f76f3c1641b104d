package dsl

import "github.com/aretw0/espalier/pkg/domain"

// StateBuilder provides a fluent API for configuring one state.
type StateBuilder struct {
	state   domain.State
	builder *Builder
}

// Loop marks the state's playback as looping.
func (s *StateBuilder) Loop() *StateBuilder {
	s.state.Loop = true
	return s
}

// Speed sets the playback speed multiplier.
func (s *StateBuilder) Speed(v float64) *StateBuilder {
	s.state.Speed = v
	return s
}

// SpeedParam scales playback by a float parameter at runtime.
func (s *StateBuilder) SpeedParam(name string) *StateBuilder {
	s.state.SpeedParam = name
	return s
}

// Exit designates this leaf as an exit state of its enclosing machine.
func (s *StateBuilder) Exit() *StateBuilder {
	s.state.Exit = true
	return s
}

// Point adds a clip to a blend1d state at the given threshold. speed 0
// means 1.
func (s *StateBuilder) Point(clip string, threshold, speed float64) *StateBuilder {
	s.state.Blend1D.Clips = append(s.state.Blend1D.Clips, domain.Blend1DEntry{
		Clip: clip, Threshold: threshold, Speed: speed,
	})
	return s
}

// At adds a clip to a blend2d state at the given position.
func (s *StateBuilder) At(clip string, x, y float64) *StateBuilder {
	s.state.Blend2D.Clips = append(s.state.Blend2D.Clips, domain.Blend2DEntry{Clip: clip, X: x, Y: y})
	return s
}

// Cartesian switches a blend2d state to inverse-distance weighting.
func (s *StateBuilder) Cartesian() *StateBuilder {
	s.state.Blend2D.Algorithm = domain.Blend2DCartesian
	return s
}

// To adds an outgoing transition. On a machine state this is an exit
// transition, fired while any interior exit state is active.
func (s *StateBuilder) To(target string) *TransitionBuilder {
	s.state.Transitions = append(s.state.Transitions, domain.Transition{Target: target})
	return &TransitionBuilder{state: s, idx: len(s.state.Transitions) - 1}
}

// End returns to the graph builder.
func (s *StateBuilder) End() *Builder { return s.builder }

// TransitionBuilder configures one transition in place. It addresses the
// transition by index so later appends never invalidate it.
type TransitionBuilder struct {
	state *StateBuilder // nil for any-state transitions
	graph *Builder
	idx   int
}

func (t *TransitionBuilder) tr() *domain.Transition {
	if t.state != nil {
		return &t.state.state.Transitions[t.idx]
	}
	return &t.graph.graph.AnyState[t.idx]
}

// Duration sets the crossfade length in seconds.
func (t *TransitionBuilder) Duration(seconds float64) *TransitionBuilder {
	t.tr().Duration = seconds
	return t
}

// ExitTime gates the transition on normalized source playback time.
func (t *TransitionBuilder) ExitTime(norm float64) *TransitionBuilder {
	t.tr().ExitTime = &norm
	return t
}

// When appends an AND-combined parameter condition.
func (t *TransitionBuilder) When(param, op string, value int64) *TransitionBuilder {
	tr := t.tr()
	tr.Conditions = append(tr.Conditions, domain.Condition{Param: param, Op: op, Value: value})
	return t
}

// Curve shapes the crossfade with authored source-weight keyframes.
func (t *TransitionBuilder) Curve(points ...domain.CurvePoint) *TransitionBuilder {
	tr := t.tr()
	tr.Curve = append(tr.Curve, points...)
	return t
}

// Back returns to the owning state builder, nil for any-state
// transitions.
func (t *TransitionBuilder) Back() *StateBuilder { return t.state }
