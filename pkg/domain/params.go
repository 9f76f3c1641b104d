package domain

// ParamType defines the value kind stored in a parameter slot.
type ParamType string

const (
	ParamBool  ParamType = "bool"
	ParamInt   ParamType = "int"
	ParamFloat ParamType = "float"
)

// Parameter declares a named slot owned by a graph scope. Slots are
// addressed at runtime by small integer index assigned during compilation.
type Parameter struct {
	Name    string    `json:"name" yaml:"name"`
	Type    ParamType `json:"type" yaml:"type"`
	Default float64   `json:"default,omitempty" yaml:"default,omitempty"`
}

// ParamLink maps a parameter name as used inside a nested machine onto a
// slot declared at an outer scope. The link table is consulted before the
// name+type fallback during compilation.
type ParamLink struct {
	// Machine names the nested machine state whose references are being
	// redirected.
	Machine string `json:"machine" yaml:"machine"`
	// Local is the name used inside that machine.
	Local string `json:"local" yaml:"local"`
	// Target is the name of the owning scope's slot.
	Target string `json:"target" yaml:"target"`
}
