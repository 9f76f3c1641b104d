package domain

// Condition operators. Bool parameters only support eq/neq.
const (
	OpEq  = "eq"
	OpNeq = "neq"
	OpGt  = "gt"
	OpLt  = "lt"
)

// Transition defines a rule to crossfade from one state to another.
type Transition struct {
	// Target names the destination state. It may name a machine state, in
	// which case the compiler redirects it to that machine's entry leaf.
	Target string `json:"target" yaml:"target"`

	// Duration is the crossfade length in seconds.
	Duration float64 `json:"duration" yaml:"duration"`

	// ExitTime, when set, gates the transition until the source state's
	// normalized playback time reaches it. Nil means no time gate.
	ExitTime *float64 `json:"exit_time,omitempty" yaml:"exit_time,omitempty"`

	// Conditions are AND-combined parameter tests. Empty means the
	// transition is taken whenever its exit-time gate (if any) passes.
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// Curve shapes the crossfade as source-state weight over normalized
	// transition time. Empty means linear.
	Curve []CurvePoint `json:"curve,omitempty" yaml:"curve,omitempty"`
}

// Condition is a single parameter test against a bool or int slot.
type Condition struct {
	Param string `json:"param" yaml:"param"`
	Op    string `json:"op" yaml:"op"`
	Value int64  `json:"value" yaml:"value"` // bool conditions use 0/1
}

// CurvePoint is an authored Hermite control point on the blend curve.
// Time and Value are normalized to [0,1]; Value is the source-state weight
// (the compiler stores the inverted destination weight). Tangents are the
// slope of the value over normalized time.
type CurvePoint struct {
	Time       float64 `json:"time" yaml:"time"`
	Value      float64 `json:"value" yaml:"value"`
	InTangent  float64 `json:"in_tangent,omitempty" yaml:"in_tangent,omitempty"`
	OutTangent float64 `json:"out_tangent,omitempty" yaml:"out_tangent,omitempty"`
}
