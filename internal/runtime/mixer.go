// Package runtime implements the per-instance blend engine: the mutable
// list of concurrently active animation states, the single in-flight
// crossfade, and the weight math that keeps every tick's weights summing
// to one. Each Instance exclusively owns its state, so a host may tick
// arbitrarily many instances in parallel with no synchronization between
// them.
package runtime

import (
	"github.com/aretw0/espalier/pkg/machine"
)

// weightEpsilon is the tolerance below which a weight counts as zero for
// renormalization fallbacks and garbage collection.
const weightEpsilon = 1e-6

// ActiveState is one concurrently playing animation state. Normally at
// most two coexist; more appear transiently while fades overlap.
type ActiveState struct {
	// ID is the stable per-mixer handle; 0 is never issued.
	ID uint32

	// State is the flattened leaf index, or machine.NoIndex for raw
	// playback on a mixer without a compiled definition.
	State int32

	Weight float32
	Time   float32
	Speed  float32
	Loop   bool

	// Duration is the state's clip length in seconds for loop wrapping;
	// 0 means unknown and disables wrapping.
	Duration float32

	// ClipCount and FirstSampler locate this state's run of sampler slots
	// in the unified clip list.
	ClipCount    int32
	FirstSampler int32

	// Preserved keeps the state alive at zero weight so an overlay
	// one-shot can blend back into it.
	Preserved bool
}

// TransitionRuntime is the single in-flight crossfade of a mixer.
type TransitionRuntime struct {
	// Target is the ActiveState id gaining weight.
	Target   uint32
	Elapsed  float32
	Duration float32

	// Curve references the compiled transition's keyframes (state-level,
	// any-state or exit-group); nil is the linear fast path, which is also
	// the only mode available to mixers without a compiled definition.
	Curve []machine.CurveKey
}

// Mixer is the low-level blend engine: active states, one optional
// in-flight transition, and the normalization invariant. It knows nothing
// about compiled definitions; the Instance layers state-machine semantics
// on top. A bare Mixer is usable on its own for curve-less playback.
type Mixer struct {
	active      []ActiveState
	current     uint32
	trans       TransitionRuntime
	transActive bool
	nextID      uint32
}

// Active returns the live state list. Callers must not hold the slice
// across ticks.
func (m *Mixer) Active() []ActiveState { return m.active }

// Current returns the id of the current (or fully faded-in) state, 0 if
// none was ever activated.
func (m *Mixer) Current() uint32 { return m.current }

// Transitioning reports whether a crossfade is in flight.
func (m *Mixer) Transitioning() bool { return m.transActive }

// Transition returns the in-flight crossfade, valid only while
// Transitioning reports true.
func (m *Mixer) Transition() TransitionRuntime { return m.trans }

// ByID returns the active state with the given id, or nil.
func (m *Mixer) ByID(id uint32) *ActiveState {
	for i := range m.active {
		if m.active[i].ID == id {
			return &m.active[i]
		}
	}
	return nil
}

// ByState returns the active state playing the given leaf index, or nil.
func (m *Mixer) ByState(state int32) *ActiveState {
	for i := range m.active {
		if m.active[i].State == state {
			return &m.active[i]
		}
	}
	return nil
}

// Activate registers a new active state at zero weight and returns its
// id. The caller primes Time itself when synchronized starts are wanted;
// Begin/renormalization never reset it.
func (m *Mixer) Activate(s ActiveState) uint32 {
	m.nextID++
	s.ID = m.nextID
	m.active = append(m.active, s)
	return s.ID
}

// Begin replaces any in-flight transition with a crossfade toward the
// given active id. With no valid current state the fade collapses to an
// instant cut: the first-ever activation transitions instantly.
func (m *Mixer) Begin(target uint32, duration float32, curve []machine.CurveKey) {
	if m.current == 0 || m.ByID(m.current) == nil {
		duration = 0
	}
	m.trans = TransitionRuntime{Target: target, Duration: duration, Curve: curve}
	m.transActive = true
}

// Advance runs one blend tick: local times, transition progress, commit,
// curve-driven target weight and the renormalization of everything else.
// Cleanup is deliberately a separate pass; see Cleanup.
func (m *Mixer) Advance(dt float32) (committed bool) {
	for i := range m.active {
		s := &m.active[i]
		s.Time += dt * s.Speed
		if s.Loop && s.Duration > 0 {
			for s.Time >= s.Duration {
				s.Time -= s.Duration
			}
		}
	}

	if !m.transActive {
		return false
	}

	m.trans.Elapsed += dt

	target := m.ByID(m.trans.Target)
	if target == nil {
		// Target vanished (stale id); drop the transition rather than
		// blending toward nothing.
		m.transActive = false
		return false
	}

	if m.trans.Elapsed >= m.trans.Duration {
		m.current = m.trans.Target
		m.transActive = false
		m.applyTargetWeight(target, 1)
		return true
	}

	progress := m.trans.Elapsed / m.trans.Duration
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	w := float32(1)
	if m.trans.Duration > weightEpsilon {
		w = machine.EvaluateCurve(m.trans.Curve, progress)
	}
	m.applyTargetWeight(target, w)
	return false
}

// applyTargetWeight assigns w to the target and rescales every other
// active state so the rest share exactly 1-w, each in proportion to its
// previous weight. When the previous weights sum to numerical zero the
// remainder is split equally instead of dividing by zero.
func (m *Mixer) applyTargetWeight(target *ActiveState, w float32) {
	target.Weight = w

	rest := float32(0)
	others := 0
	for i := range m.active {
		if m.active[i].ID == target.ID {
			continue
		}
		rest += m.active[i].Weight
		others++
	}
	if others == 0 {
		// A fade with a single participant is meaningless; pin it to full
		// weight so the sum invariant holds.
		target.Weight = 1
		return
	}

	remainder := 1 - w
	if rest <= weightEpsilon {
		equal := remainder / float32(others)
		for i := range m.active {
			if m.active[i].ID != target.ID {
				m.active[i].Weight = equal
			}
		}
		return
	}

	scale := remainder / rest
	for i := range m.active {
		if m.active[i].ID != target.ID {
			m.active[i].Weight *= scale
		}
	}
}

// Cleanup removes active states whose weight has reached zero, unless
// they are the in-flight target or preserved. It must run strictly after
// Advance so it reads settled weights.
func (m *Mixer) Cleanup() (removed []ActiveState) {
	kept := m.active[:0]
	for _, s := range m.active {
		protect := s.Preserved || (m.transActive && s.ID == m.trans.Target)
		if !protect && s.Weight <= weightEpsilon {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	m.active = kept
	return removed
}

// WeightSum returns the total weight of all active states.
func (m *Mixer) WeightSum() float32 {
	var sum float32
	for i := range m.active {
		sum += m.active[i].Weight
	}
	return sum
}
