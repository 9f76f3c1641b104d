// Package validator lints compiled machines for authoring mistakes that
// are legal to compile but almost certainly unintended: states no
// request or transition can ever reach, non-looping states with no way
// out, and gates that can never open. Findings are advisory; the
// compiler alone decides what is an error.
package validator

import "github.com/aretw0/espalier/pkg/machine"

// Finding is one advisory lint result. State is the diagnostic path of
// the state it concerns, empty for machine-wide findings.
type Finding struct {
	State   string
	Message string
}

func (f Finding) String() string {
	if f.State == "" {
		return f.Message
	}
	return f.State + ": " + f.Message
}

// Lint inspects a compiled machine and returns its findings in state
// order. A clean machine returns nil.
func Lint(def *machine.Definition) []Finding {
	if def == nil || len(def.States) == 0 {
		return nil
	}

	var out []Finding
	reach := reachable(def)
	for i := range def.States {
		s := &def.States[i]
		if !reach[i] {
			out = append(out, Finding{State: s.Path, Message: "unreachable from the entry state"})
			continue
		}
		out = append(out, lintState(def, int32(i), s)...)
	}
	return out
}

// reachable flood-fills from the resolved entry leaf along state
// transitions, exit-group transitions of member states and, once any
// state is reached, the any-state transitions.
func reachable(def *machine.Definition) []bool {
	seen := make([]bool, len(def.States))
	entry := def.Entry
	if entry < 0 || int(entry) >= len(seen) {
		entry = 0
	}
	queue := []int32{entry}
	seen[entry] = true

	visit := func(target int32) {
		if target >= 0 && int(target) < len(seen) && !seen[target] {
			seen[target] = true
			queue = append(queue, target)
		}
	}

	// Any-state transitions fire from every active leaf, so their
	// targets are reachable as soon as anything is.
	for i := range def.AnyState {
		visit(def.AnyState[i].Target)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, tr := range def.StateTransitions(cur) {
			visit(tr.Target)
		}
		if g := def.States[cur].ExitGroup; g != machine.NoIndex {
			for i := range def.ExitGroups[g].Transitions {
				visit(def.ExitGroups[g].Transitions[i].Target)
			}
		}
	}
	return seen
}

func lintState(def *machine.Definition, idx int32, s *machine.StateDef) []Finding {
	var out []Finding

	if !s.Loop && s.Kind == machine.KindClip && !hasExit(def, idx, s) {
		out = append(out, Finding{State: s.Path, Message: "non-looping state with no outgoing transition; playback freezes at the last frame"})
	}

	for _, tr := range def.StateTransitions(idx) {
		if tr.Target == idx {
			out = append(out, Finding{State: s.Path, Message: "self transition; the selector skips these, it never fires"})
		}
		if tr.ExitTime != machine.NoExitTime && !s.Loop && tr.ExitTime > 1 {
			out = append(out, Finding{State: s.Path, Message: "exit time past the end of a non-looping state; the gate never opens"})
		}
	}
	return out
}

// hasExit reports whether any path leads away from the state: an own
// transition, membership in an exit group with transitions, or an
// any-state transition targeting somewhere else.
func hasExit(def *machine.Definition, idx int32, s *machine.StateDef) bool {
	for _, tr := range def.StateTransitions(idx) {
		if tr.Target != idx {
			return true
		}
	}
	if s.ExitGroup != machine.NoIndex && len(def.ExitGroups[s.ExitGroup].Transitions) > 0 {
		return true
	}
	for i := range def.AnyState {
		if def.AnyState[i].Target != idx {
			return true
		}
	}
	return false
}
