package ports

// ClipSource is the slice of the pose-sampling service the core depends
// on: duration lookup by clip identifier. The core never samples poses
// itself; it hands (clip, time, weight) triples back to the service.
type ClipSource interface {
	// ClipDuration returns the clip's length in seconds, or 0 if the clip
	// is unknown. A zero duration disables looping wrap and exit-time
	// gating for states that play it.
	ClipDuration(clip string) float64
}

// Sample is one pose contribution handed to the sampling service after a
// tick: sample the clip at the given local time and mix it in at the
// given weight.
type Sample struct {
	Clip   string  `json:"clip"`
	Time   float32 `json:"time"`
	Weight float32 `json:"weight"`
}

// StaticClips is a ClipSource backed by a plain map. Handy for tests and
// offline tooling.
type StaticClips map[string]float64

// ClipDuration implements ClipSource.
func (s StaticClips) ClipDuration(clip string) float64 {
	return s[clip]
}
