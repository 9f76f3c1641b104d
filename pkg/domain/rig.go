package domain

// BlendMode defines how a layer combines with the layers below it.
type BlendMode string

const (
	// BlendOverride consumes remaining opacity, displacing lower layers'
	// share of the final pose.
	BlendOverride BlendMode = "override"
	// BlendAdditive adds on top without displacing lower layers.
	BlendAdditive BlendMode = "additive"
)

// MaxLayers bounds the number of layers per rig so composition can run on
// a stack-local fixed array.
const MaxLayers = 16

// Rig is a complete multi-layer animation setup: an ordered list of
// layers, each driving its own state machine. Layer 0 is the base.
type Rig struct {
	Name   string   `json:"name" yaml:"name"`
	Layers []*Layer `json:"layers" yaml:"layers"`
}

// Layer binds one state machine to a blend slot in the rig.
type Layer struct {
	Name   string    `json:"name" yaml:"name"`
	Graph  *Graph    `json:"graph" yaml:"graph"`
	Mode   BlendMode `json:"mode,omitempty" yaml:"mode,omitempty"` // default override
	Weight float64   `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// SingleLayer wraps one graph into a rig with a single full-weight
// override layer. Convenience for the common non-layered case.
func SingleLayer(g *Graph) *Rig {
	return &Rig{
		Name: g.Name,
		Layers: []*Layer{
			{Name: g.Name, Graph: g, Mode: BlendOverride, Weight: 1},
		},
	}
}
