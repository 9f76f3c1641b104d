// Package params provides the default in-memory parameter table: a flat,
// host-writable slice of typed values addressed by the small integer
// slots assigned during compilation. A Store belongs to one instance
// layer and is not synchronized; hosts write between ticks.
package params

import "github.com/aretw0/espalier/pkg/machine"

type value struct {
	b bool
	i int64
	f float64
}

// Store implements ports.ParameterStore over a fixed slot table.
type Store struct {
	values []value
}

// NewStore allocates a store sized for the compiled parameter table, with
// every slot at its authored default.
func NewStore(defs []machine.ParamDef) *Store {
	s := &Store{values: make([]value, len(defs))}
	for i, d := range defs {
		switch d.Type {
		case machine.ParamTypeBool:
			s.values[i].b = d.Default != 0
		case machine.ParamTypeInt:
			s.values[i].i = int64(d.Default)
		case machine.ParamTypeFloat:
			s.values[i].f = d.Default
		}
	}
	return s
}

func (s *Store) in(slot int) bool { return slot >= 0 && slot < len(s.values) }

// Bool returns the bool at slot, false when out of range.
func (s *Store) Bool(slot int) bool {
	if !s.in(slot) {
		return false
	}
	return s.values[slot].b
}

// Int returns the int at slot, 0 when out of range.
func (s *Store) Int(slot int) int64 {
	if !s.in(slot) {
		return 0
	}
	return s.values[slot].i
}

// Float returns the float at slot, 0 when out of range.
func (s *Store) Float(slot int) float64 {
	if !s.in(slot) {
		return 0
	}
	return s.values[slot].f
}

// SetBool writes slot; out-of-range writes are dropped at the boundary.
func (s *Store) SetBool(slot int, v bool) {
	if s.in(slot) {
		s.values[slot].b = v
	}
}

// SetInt writes slot; out-of-range writes are dropped at the boundary.
func (s *Store) SetInt(slot int, v int64) {
	if s.in(slot) {
		s.values[slot].i = v
	}
}

// SetFloat writes slot; out-of-range writes are dropped at the boundary.
func (s *Store) SetFloat(slot int, v float64) {
	if s.in(slot) {
		s.values[slot].f = v
	}
}
