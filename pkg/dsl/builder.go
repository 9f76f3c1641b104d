package dsl

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// Builder manages the construction of one graph scope.
type Builder struct {
	graph  domain.Graph
	states map[string]*StateBuilder
	order  []*StateBuilder
	errs   []error
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		graph:  domain.Graph{Name: name},
		states: map[string]*StateBuilder{},
	}
}

// Entry declares the machine's entry state by name.
func (b *Builder) Entry(name string) *Builder {
	b.graph.Entry = name
	return b
}

// Bool declares a bool parameter slot owned by this scope.
func (b *Builder) Bool(name string, def bool) *Builder {
	d := 0.0
	if def {
		d = 1
	}
	b.graph.Parameters = append(b.graph.Parameters, domain.Parameter{Name: name, Type: domain.ParamBool, Default: d})
	return b
}

// Int declares an int parameter slot owned by this scope.
func (b *Builder) Int(name string, def int64) *Builder {
	b.graph.Parameters = append(b.graph.Parameters, domain.Parameter{Name: name, Type: domain.ParamInt, Default: float64(def)})
	return b
}

// Float declares a float parameter slot owned by this scope.
func (b *Builder) Float(name string, def float64) *Builder {
	b.graph.Parameters = append(b.graph.Parameters, domain.Parameter{Name: name, Type: domain.ParamFloat, Default: def})
	return b
}

// Link redirects a name used inside a nested machine onto one of this
// scope's slots, bypassing the name+type fallback.
func (b *Builder) Link(machine, local, target string) *Builder {
	b.graph.ParamLinks = append(b.graph.ParamLinks, domain.ParamLink{Machine: machine, Local: local, Target: target})
	return b
}

// Clip adds a single-clip state.
func (b *Builder) Clip(name, clip string) *StateBuilder {
	sb := b.add(name)
	sb.state.Type = domain.StateTypeClip
	sb.state.Clip = clip
	return sb
}

// Blend1D adds a one-dimensional blend state driven by a float parameter.
// Populate it with Point.
func (b *Builder) Blend1D(name, param string) *StateBuilder {
	sb := b.add(name)
	sb.state.Type = domain.StateTypeBlend1D
	sb.state.Blend1D = &domain.Blend1D{Param: param}
	return sb
}

// Blend2D adds a two-dimensional blend state driven by two float
// parameters. Populate it with At.
func (b *Builder) Blend2D(name, paramX, paramY string) *StateBuilder {
	sb := b.add(name)
	sb.state.Type = domain.StateTypeBlend2D
	sb.state.Blend2D = &domain.Blend2D{ParamX: paramX, ParamY: paramY}
	return sb
}

// Machine embeds a nested graph built with another Builder. The nested
// builder is snapshotted here: configure it fully before embedding. The
// nested graph's name is forced to the state name so ParamLinks key
// naturally.
func (b *Builder) Machine(name string, nested *Builder) *StateBuilder {
	sb := b.add(name)
	sb.state.Type = domain.StateTypeMachine
	g, err := nested.Build()
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("nested machine %q: %w", name, err))
		return sb
	}
	g.Name = name
	sb.state.Machine = g
	return sb
}

// AnyTo adds an any-state transition evaluated regardless of the active
// leaf.
func (b *Builder) AnyTo(target string) *TransitionBuilder {
	b.graph.AnyState = append(b.graph.AnyState, domain.Transition{Target: target})
	return &TransitionBuilder{graph: b, idx: len(b.graph.AnyState) - 1}
}

// Build assembles the graph. If the entry was never set it defaults to
// the first added state.
func (b *Builder) Build() (*domain.Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if len(b.order) == 0 {
		return nil, fmt.Errorf("graph %q has no states", b.graph.Name)
	}
	g := b.graph
	g.States = make([]*domain.State, len(b.order))
	for i, sb := range b.order {
		s := sb.state
		g.States[i] = &s
	}
	if g.Entry == "" {
		g.Entry = g.States[0].Name
	}
	return &g, nil
}

// MustBuild panics on error. For tests and static graphs.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

func (b *Builder) add(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder{state: domain.State{Name: name}, builder: b}
	b.states[name] = sb
	b.order = append(b.order, sb)
	return sb
}
