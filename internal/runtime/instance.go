package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
	"github.com/aretw0/espalier/pkg/ports"
)

// Layer is the per-layer slice of an Instance: one compiled machine, one
// mixer, one parameter table, and the layer's blend slot in the rig.
type Layer struct {
	Def    *machine.Definition
	Params ports.ParameterStore

	Weight float32
	Mode   domain.BlendMode

	mixer Mixer

	// durations caches ClipSource lookups per unified clip index.
	durations []float32
}

// Mixer exposes the layer's low-level blend state, read-only by
// convention.
func (l *Layer) Mixer() *Mixer { return &l.mixer }

// Instance is one animated character: per-layer mutable blend state over
// shared read-only Definitions. An Instance is exclusively owned by its
// creator; ticking different instances concurrently is safe, sharing one
// instance across goroutines is not.
type Instance struct {
	ID     uint64
	layers []Layer

	clips  ports.ClipSource
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	ctx    context.Context
}

// Config carries everything needed to assemble an Instance.
type Config struct {
	ID     uint64
	Clips  ports.ClipSource
	Hooks  domain.LifecycleHooks
	Logger *slog.Logger
}

// LayerConfig binds one compiled machine to a blend slot.
type LayerConfig struct {
	Def    *machine.Definition
	Params ports.ParameterStore
	Weight float32
	Mode   domain.BlendMode
}

// NewInstance assembles an instance and activates each layer's resolved
// entry state at full weight.
func NewInstance(cfg Config, layers []LayerConfig) *Instance {
	inst := &Instance{
		ID:     cfg.ID,
		clips:  cfg.Clips,
		hooks:  cfg.Hooks,
		logger: cfg.Logger,
		ctx:    context.Background(),
	}
	if inst.logger == nil {
		inst.logger = slog.New(slog.DiscardHandler)
	}

	for _, lc := range layers {
		l := Layer{
			Def:    lc.Def,
			Params: lc.Params,
			Weight: lc.Weight,
			Mode:   lc.Mode,
		}
		l.durations = make([]float32, len(lc.Def.Clips))
		for i, clip := range lc.Def.Clips {
			if cfg.Clips != nil {
				l.durations[i] = float32(cfg.Clips.ClipDuration(clip))
			}
		}
		inst.layers = append(inst.layers, l)
	}

	for li := range inst.layers {
		l := &inst.layers[li]
		if len(l.Def.States) == 0 {
			continue
		}
		entry := l.Def.Entry
		id := l.mixer.Activate(inst.newActiveState(l, entry))
		st := l.mixer.ByID(id)
		st.Weight = 1
		l.mixer.current = id
		inst.emitStateEnter(li, entry)
	}
	return inst
}

// LayerCount returns the number of layers.
func (inst *Instance) LayerCount() int { return len(inst.layers) }

// Layer returns layer i, or nil when out of range.
func (inst *Instance) Layer(i int) *Layer {
	if i < 0 || i >= len(inst.layers) {
		return nil
	}
	return &inst.layers[i]
}

// SetLayerWeight adjusts a layer's blend weight, clamped to [0,1].
// Out-of-range indices are rejected at this boundary.
func (inst *Instance) SetLayerWeight(layer int, w float32) error {
	if layer < 0 || layer >= len(inst.layers) {
		return domain.ErrLayerRange
	}
	if w < 0 {
		w = 0
	} else if w > 1 {
		w = 1
	}
	inst.layers[layer].Weight = w
	return nil
}

func (inst *Instance) newActiveState(l *Layer, state int32) ActiveState {
	sd := &l.Def.States[state]
	return ActiveState{
		State:        state,
		Speed:        inst.effectiveSpeed(l, sd),
		Loop:         sd.Loop,
		Duration:     inst.stateDuration(l, sd),
		ClipCount:    sd.ClipCount,
		FirstSampler: sd.ClipOffset,
	}
}

// stateDuration returns the fixed clip length of a single-clip state and
// 0 for blend states, whose effective duration shifts with parameters.
func (inst *Instance) stateDuration(l *Layer, sd *machine.StateDef) float32 {
	if sd.Kind != machine.KindClip {
		return 0
	}
	return l.durations[sd.ClipOffset]
}

func (inst *Instance) effectiveSpeed(l *Layer, sd *machine.StateDef) float32 {
	speed := sd.Speed
	if sd.SpeedParam != machine.NoIndex && l.Params != nil {
		speed *= float32(l.Params.Float(int(sd.SpeedParam)))
	}
	return speed
}

// RequestTransition starts a crossfade on the given layer toward a
// flattened state index. An unknown target is a logged no-op, never a
// crash; a bad layer index is rejected at the boundary. The target's
// local time is not reset if it is already active: callers that want
// synchronized starts prime it themselves.
func (inst *Instance) RequestTransition(layer int, target int32, duration float32) error {
	if layer < 0 || layer >= len(inst.layers) {
		return domain.ErrLayerRange
	}
	l := &inst.layers[layer]
	if target < 0 || int(target) >= len(l.Def.States) {
		inst.logger.Debug("transition request ignored: unknown target",
			"instance", inst.ID, "layer", layer, "target", target)
		return nil
	}
	inst.begin(layer, l, target, duration, nil)
	return nil
}

// begin resolves or creates the target active state and arms the mixer.
func (inst *Instance) begin(layer int, l *Layer, target int32, duration float32, curve []machine.CurveKey) {
	st := l.mixer.ByState(target)
	if st == nil {
		id := l.mixer.Activate(inst.newActiveState(l, target))
		st = l.mixer.ByID(id)
		inst.emitStateEnter(layer, target)
	}
	from := int32(machine.NoIndex)
	if cur := l.mixer.ByID(l.mixer.Current()); cur != nil {
		from = cur.State
	}
	l.mixer.Begin(st.ID, duration, curve)
	inst.emitTransitionStart(layer, from, target, l.mixer.trans.Duration)
}

// Preserve pins an active state so cleanup keeps it alive at zero weight.
func (inst *Instance) Preserve(layer int, id uint32) error {
	return inst.setPreserved(layer, id, true)
}

// Release unpins a preserved state; it is collected on the next tick once
// its weight is zero.
func (inst *Instance) Release(layer int, id uint32) error {
	return inst.setPreserved(layer, id, false)
}

func (inst *Instance) setPreserved(layer int, id uint32, v bool) error {
	if layer < 0 || layer >= len(inst.layers) {
		return domain.ErrLayerRange
	}
	if st := inst.layers[layer].mixer.ByID(id); st != nil {
		st.Preserved = v
	}
	return nil
}

// Tick advances the whole instance by dt seconds. Phases run in strict
// order per layer: automatic transition selection, blend and
// renormalization, then garbage collection of exhausted states.
func (inst *Instance) Tick(dt float32) {
	for li := range inst.layers {
		l := &inst.layers[li]

		// Parameter-driven speeds may have changed since last tick.
		for i := range l.mixer.active {
			s := &l.mixer.active[i]
			if s.State != machine.NoIndex {
				s.Speed = inst.effectiveSpeed(l, &l.Def.States[s.State])
			}
		}

		inst.selectTransition(li, l)

		from := l.mixer.Current()
		if l.mixer.Advance(dt) {
			inst.emitTransitionCommit(li, l, from)
		}

		for _, gone := range l.mixer.Cleanup() {
			inst.emitStateLeave(li, gone.State)
		}
	}
}

// emit helpers; hooks are optional and run inline with the tick.

func (inst *Instance) emitStateEnter(layer int, state int32) {
	if inst.hooks.OnStateEnter == nil {
		return
	}
	inst.hooks.OnStateEnter(inst.ctx, &domain.StateEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateEnter, Layer: layer},
		StateIndex: int(state),
		StatePath:  inst.statePath(layer, state),
	})
}

func (inst *Instance) emitStateLeave(layer int, state int32) {
	if inst.hooks.OnStateLeave == nil {
		return
	}
	inst.hooks.OnStateLeave(inst.ctx, &domain.StateEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventStateLeave, Layer: layer},
		StateIndex: int(state),
		StatePath:  inst.statePath(layer, state),
	})
}

func (inst *Instance) emitTransitionStart(layer int, from, to int32, duration float32) {
	if inst.hooks.OnTransitionStart == nil {
		return
	}
	inst.hooks.OnTransitionStart(inst.ctx, &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransitionStart, Layer: layer},
		FromIndex: int(from),
		ToIndex:   int(to),
		Duration:  float64(duration),
	})
}

func (inst *Instance) emitTransitionCommit(layer int, l *Layer, fromID uint32) {
	if inst.hooks.OnTransitionCommit == nil {
		return
	}
	from := int32(machine.NoIndex)
	if st := l.mixer.ByID(fromID); st != nil {
		from = st.State
	}
	to := int32(machine.NoIndex)
	if st := l.mixer.ByID(l.mixer.Current()); st != nil {
		to = st.State
	}
	inst.hooks.OnTransitionCommit(inst.ctx, &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransitionCommit, Layer: layer},
		FromIndex: int(from),
		ToIndex:   int(to),
	})
}

func (inst *Instance) statePath(layer int, state int32) string {
	if state == machine.NoIndex {
		return ""
	}
	l := &inst.layers[layer]
	if int(state) >= len(l.Def.States) {
		return ""
	}
	return l.Def.States[state].Path
}
