package session

import (
	"fmt"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
)

// Capture records an instance's current animation state. Only the
// current state of each layer is captured; a crossfade in flight
// collapses to its target on restore.
func Capture(eng *espalier.Engine, inst *espalier.Instance) *domain.Snapshot {
	snap := &domain.Snapshot{Rig: eng.Name()}
	for li := 0; li < inst.LayerCount(); li++ {
		l := inst.Layer(li)
		def := l.Def

		ls := domain.LayerSnapshot{Weight: l.Weight}
		m := l.Mixer()
		if tr := m.Transition(); m.Transitioning() {
			if target := m.ByID(tr.Target); target != nil {
				ls.Current = def.States[target.State].Path
				ls.Time = target.Time
			}
		} else if cur := m.ByID(m.Current()); cur != nil {
			ls.Current = def.States[cur.State].Path
			ls.Time = cur.Time
		}

		for slot, p := range def.Params {
			switch p.Type {
			case machine.ParamTypeBool:
				if ls.Bools == nil {
					ls.Bools = map[string]bool{}
				}
				ls.Bools[p.Name] = l.Params.Bool(slot)
			case machine.ParamTypeInt:
				if ls.Ints == nil {
					ls.Ints = map[string]int64{}
				}
				ls.Ints[p.Name] = l.Params.Int(slot)
			default:
				if ls.Floats == nil {
					ls.Floats = map[string]float64{}
				}
				ls.Floats[p.Name] = l.Params.Float(slot)
			}
		}
		snap.Layers = append(snap.Layers, ls)
	}
	return snap
}

// Apply restores a snapshot onto an instance compiled from the same rig.
// The captured state is entered instantly and its playback time primed;
// unknown paths or parameters fail rather than silently desynchronize.
func Apply(eng *espalier.Engine, inst *espalier.Instance, snap *domain.Snapshot) error {
	if snap.Rig != "" && snap.Rig != eng.Name() {
		return fmt.Errorf("snapshot belongs to rig %q, engine is %q", snap.Rig, eng.Name())
	}
	if len(snap.Layers) != inst.LayerCount() {
		return fmt.Errorf("snapshot has %d layers, instance has %d", len(snap.Layers), inst.LayerCount())
	}

	for li, ls := range snap.Layers {
		def := eng.Definition(li)
		l := inst.Layer(li)

		idx, ok := def.Index(ls.Current)
		if !ok {
			return fmt.Errorf("layer %d: %w: %q", li, domain.ErrUnknownTarget, ls.Current)
		}

		for name, v := range ls.Bools {
			if err := setSlot(def, name, func(slot int) { l.Params.SetBool(slot, v) }); err != nil {
				return fmt.Errorf("layer %d: %w", li, err)
			}
		}
		for name, v := range ls.Ints {
			if err := setSlot(def, name, func(slot int) { l.Params.SetInt(slot, v) }); err != nil {
				return fmt.Errorf("layer %d: %w", li, err)
			}
		}
		for name, v := range ls.Floats {
			if err := setSlot(def, name, func(slot int) { l.Params.SetFloat(slot, v) }); err != nil {
				return fmt.Errorf("layer %d: %w", li, err)
			}
		}

		if err := inst.SetLayerWeight(li, ls.Weight); err != nil {
			return err
		}
		if err := inst.RequestTransition(li, idx, 0); err != nil {
			return err
		}
	}

	// A zero-duration transition commits on the first advance.
	inst.Tick(0)

	for li, ls := range snap.Layers {
		m := inst.Layer(li).Mixer()
		if cur := m.ByID(m.Current()); cur != nil {
			cur.Time = ls.Time
		}
	}
	return nil
}

func setSlot(def *machine.Definition, name string, set func(int)) error {
	slot := def.ParamIndex(name)
	if slot == machine.NoIndex {
		return fmt.Errorf("%w: %q", domain.ErrUnboundParameter, name)
	}
	set(int(slot))
	return nil
}
