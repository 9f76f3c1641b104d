package domain

// Snapshot is a portable capture of one instance's animation state: the
// current state and local time of every layer plus the full parameter
// table, addressed by authored names so a snapshot survives recompiles
// that keep paths and parameters stable.
type Snapshot struct {
	Rig    string          `json:"rig"`
	Layers []LayerSnapshot `json:"layers"`
}

// LayerSnapshot captures one layer of an instance.
type LayerSnapshot struct {
	// Current is the state path of the layer's current state.
	Current string `json:"current"`
	// Time is the current state's local playback time in seconds.
	Time float32 `json:"time"`
	// Weight is the layer's blend weight.
	Weight float32 `json:"weight"`

	Bools  map[string]bool    `json:"bools,omitempty"`
	Ints   map[string]int64   `json:"ints,omitempty"`
	Floats map[string]float64 `json:"floats,omitempty"`
}
