package ports

// ParameterReader is the read side of the parameter table, addressed by
// the small integer slots assigned during compilation. Out-of-range slots
// return the zero value.
type ParameterReader interface {
	Bool(slot int) bool
	Int(slot int) int64
	Float(slot int) float64
}

// ParameterStore adds the host-facing write side. The core itself never
// writes parameters; gameplay code does, between ticks.
type ParameterStore interface {
	ParameterReader

	SetBool(slot int, v bool)
	SetInt(slot int, v int64)
	SetFloat(slot int, v float64)
}
