package runtime

import (
	"github.com/aretw0/espalier/pkg/machine"
)

// selectTransition evaluates the compiled transition tables for the
// layer's current state and arms the first one whose gates pass. Order:
// any-state table, the current state's own out-transitions, then the exit
// group the state belongs to. Runs only while the mixer is idle; a
// crossfade in flight is never replaced by automatic selection.
func (inst *Instance) selectTransition(layer int, l *Layer) {
	if l.mixer.Transitioning() {
		return
	}
	cur := l.mixer.ByID(l.mixer.Current())
	if cur == nil || cur.State == machine.NoIndex {
		return
	}
	def := l.Def
	sd := &def.States[cur.State]

	if t := inst.firstViable(l, cur, def.AnyState); t != nil {
		inst.fire(layer, l, cur, t)
		return
	}
	if t := inst.firstViable(l, cur, def.StateTransitions(cur.State)); t != nil {
		inst.fire(layer, l, cur, t)
		return
	}
	if sd.ExitGroup != machine.NoIndex {
		group := &def.ExitGroups[sd.ExitGroup]
		if t := inst.firstViable(l, cur, group.Transitions); t != nil {
			inst.fire(layer, l, cur, t)
		}
	}
}

func (inst *Instance) firstViable(l *Layer, cur *ActiveState, table []machine.TransitionDef) *machine.TransitionDef {
	for i := range table {
		t := &table[i]
		// Self-targets would re-fire every idle tick; skip them.
		if t.Target == cur.State {
			continue
		}
		if !inst.exitTimeReached(cur, t) {
			continue
		}
		if !inst.condsPass(l, t) {
			continue
		}
		return t
	}
	return nil
}

// exitTimeReached applies the normalized time gate. Looping states
// compare against the fractional cycle; states without a fixed duration
// (blend trees, unknown clips) have no window to gate against and pass.
func (inst *Instance) exitTimeReached(cur *ActiveState, t *machine.TransitionDef) bool {
	if t.ExitTime == machine.NoExitTime {
		return true
	}
	if cur.Duration <= 0 {
		return true
	}
	norm := cur.Time / cur.Duration
	if cur.Loop {
		norm = norm - float32(int(norm))
	}
	return norm >= t.ExitTime
}

func (inst *Instance) condsPass(l *Layer, t *machine.TransitionDef) bool {
	if l.Params == nil {
		return t.CondCount == 0
	}
	for _, c := range l.Def.TransitionConds(t) {
		var v int64
		switch l.Def.Params[c.Param].Type {
		case machine.ParamTypeBool:
			if l.Params.Bool(int(c.Param)) {
				v = 1
			}
		case machine.ParamTypeInt:
			v = l.Params.Int(int(c.Param))
		default:
			return false
		}
		switch c.Op {
		case machine.CondEq:
			if v != c.Value {
				return false
			}
		case machine.CondNeq:
			if v == c.Value {
				return false
			}
		case machine.CondGt:
			if v <= c.Value {
				return false
			}
		case machine.CondLt:
			if v >= c.Value {
				return false
			}
		}
	}
	return true
}

// fire clamps the compiled timing against the source state's playback
// window and arms the mixer with the transition's curve.
func (inst *Instance) fire(layer int, l *Layer, cur *ActiveState, t *machine.TransitionDef) {
	fromSD := &l.Def.States[cur.State]
	toSD := &l.Def.States[t.Target]

	exit := t.ExitTime
	if exit == machine.NoExitTime {
		exit = 0
	}
	_, duration := machine.ClampTiming(
		cur.Duration, exit, t.Duration,
		cur.Loop,
		fromSD.Kind != machine.KindClip,
		toSD.Kind != machine.KindClip,
	)

	inst.begin(layer, l, t.Target, duration, l.Def.TransitionCurve(t))
}
