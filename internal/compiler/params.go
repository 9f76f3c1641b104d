package compiler

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
)

func paramTypeTag(t domain.ParamType) (uint8, error) {
	switch t {
	case domain.ParamBool:
		return machine.ParamTypeBool, nil
	case domain.ParamInt:
		return machine.ParamTypeInt, nil
	case domain.ParamFloat:
		return machine.ParamTypeFloat, nil
	}
	return 0, fmt.Errorf("unknown parameter type %q", t)
}

// registerParams assigns global slots to g's declared parameters, in
// declaration order, machines visited depth-first. Called once per graph
// during the flattening walk.
func (r *Result) registerParams(g *domain.Graph) error {
	if r.paramSlots == nil {
		r.paramSlots = map[*domain.Graph]map[string]int32{}
	}
	slots := map[string]int32{}
	r.paramSlots[g] = slots
	for _, p := range g.Parameters {
		if _, dup := slots[p.Name]; dup {
			return &domain.BuildError{Path: g.Name, Err: fmt.Errorf("duplicate parameter %q", p.Name)}
		}
		tag, err := paramTypeTag(p.Type)
		if err != nil {
			return &domain.BuildError{Path: g.Name, Err: err}
		}
		slots[p.Name] = int32(len(r.Params))
		r.Params = append(r.Params, machine.ParamDef{Name: p.Name, Type: tag, Default: p.Default})
	}
	return nil
}

// ResolveParam binds a parameter name referenced from inside scope to a
// global slot. The explicit link tables of the enclosing scopes are
// consulted first, keyed by the sub-machine the reference occurs in; only
// then does name+type matching walk outward through the ancestry. want is
// a mask of acceptable machine.ParamType tags.
func (r *Result) ResolveParam(scope *domain.Graph, name string, want ...uint8) (int32, error) {
	chain := r.scopes[scope]

	// Link-table pass: an ancestor may redirect this machine's local name
	// onto one of its own slots.
	for i := len(chain) - 2; i >= 0; i-- {
		owner := chain[i]
		child := chain[i+1]
		for _, l := range owner.ParamLinks {
			if l.Machine != child.Name || l.Local != name {
				continue
			}
			slot, ok := r.lookupScoped(owner, l.Target)
			if !ok {
				return machine.NoIndex, fmt.Errorf("%w: link target %q not declared in %q", domain.ErrUnboundParameter, l.Target, owner.Name)
			}
			return r.checkType(slot, l.Target, want)
		}
	}

	// Fallback: nearest enclosing scope declaring a slot with this name
	// and an acceptable type.
	for i := len(chain) - 1; i >= 0; i-- {
		if slot, ok := r.lookupScoped(chain[i], name); ok {
			if s, err := r.checkType(slot, name, want); err == nil {
				return s, nil
			}
		}
	}
	return machine.NoIndex, fmt.Errorf("%w: %q", domain.ErrUnboundParameter, name)
}

func (r *Result) lookupScoped(g *domain.Graph, name string) (int32, bool) {
	slots, ok := r.paramSlots[g]
	if !ok {
		return machine.NoIndex, false
	}
	slot, ok := slots[name]
	return slot, ok
}

func (r *Result) checkType(slot int32, name string, want []uint8) (int32, error) {
	if len(want) == 0 {
		return slot, nil
	}
	got := r.Params[slot].Type
	for _, w := range want {
		if got == w {
			return slot, nil
		}
	}
	return machine.NoIndex, fmt.Errorf("%w: %q has incompatible type", domain.ErrUnboundParameter, name)
}
