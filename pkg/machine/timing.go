package machine

// ClampTiming fits a requested (exitTime, duration) pair into the source
// state's playback window. exitTime is normalized to the source duration;
// the returned duration is in seconds.
//
// Looping sources and variable-duration blend states (either side) are
// passed through: their effective duration shifts with parameters, so no
// fixed window exists to fit against. For a finite single-clip source the
// fade must fit in the playback remaining after the exit point; an
// oversized request is shortened rather than rejected. A zero source
// duration collapses the transition to an instant cut before any division
// can go non-finite.
func ClampTiming(fromDuration, exitTime, duration float32, fromLoops, fromIsBlend, toIsBlend bool) (float32, float32) {
	if exitTime < 0 {
		exitTime = 0
	} else if exitTime > 1 {
		exitTime = 1
	}
	if duration < 0 {
		duration = 0
	}

	if fromLoops || fromIsBlend || toIsBlend {
		return exitTime, duration
	}

	if fromDuration <= 0 {
		return 0, 0
	}

	remaining := fromDuration * (1 - exitTime)
	if duration > remaining {
		duration = remaining
	}
	return exitTime, duration
}
