package machine

// CurveKey is a byte-quantized Hermite control point: normalized time and
// value in 1/255 steps, tangents in 1/16 steps clamped to ±127/16. One
// keyframe occupies 4 bytes. The value is stored as destination-state
// weight (authored curves describe the source weight; the compiler
// inverts them) so evaluation needs no sign flip.
type CurveKey struct {
	Time  uint8
	Value uint8
	In    int8
	Out   int8
}

const tangentScale = 16

// DecodeTime returns the keyframe's normalized time.
func (k CurveKey) DecodeTime() float32 { return float32(k.Time) / 255 }

// DecodeValue returns the keyframe's normalized destination weight.
func (k CurveKey) DecodeValue() float32 { return float32(k.Value) / 255 }

// DecodeIn returns the incoming tangent slope.
func (k CurveKey) DecodeIn() float32 { return float32(k.In) / tangentScale }

// DecodeOut returns the outgoing tangent slope.
func (k CurveKey) DecodeOut() float32 { return float32(k.Out) / tangentScale }

// QuantizeKey packs one destination-weight control point.
func QuantizeKey(time, value, in, out float64) CurveKey {
	return CurveKey{
		Time:  quantizeUnit(time),
		Value: quantizeUnit(value),
		In:    quantizeTangent(in),
		Out:   quantizeTangent(out),
	}
}

func quantizeUnit(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func quantizeTangent(v float64) int8 {
	scaled := v * tangentScale
	if scaled >= 127 {
		return 127
	}
	if scaled <= -127 {
		return -127
	}
	if scaled >= 0 {
		return int8(scaled + 0.5)
	}
	return int8(scaled - 0.5)
}

// EvaluateCurve returns the destination-state weight at normalized
// progress t. Zero keyframes is the reserved linear encoding and returns
// t unchanged; otherwise the bracketing pair is located by time and a
// cubic Hermite segment evaluated with the decoded tangents. The result
// is clamped to [0,1] to guard against tangent overshoot.
func EvaluateCurve(keys []CurveKey, t float32) float32 {
	if len(keys) == 0 {
		return clamp01(t)
	}
	if t <= keys[0].DecodeTime() {
		return clamp01(keys[0].DecodeValue())
	}
	last := keys[len(keys)-1]
	if t >= last.DecodeTime() {
		return clamp01(last.DecodeValue())
	}

	hi := 1
	for hi < len(keys)-1 && keys[hi].DecodeTime() < t {
		hi++
	}
	k0, k1 := keys[hi-1], keys[hi]

	t0, t1 := k0.DecodeTime(), k1.DecodeTime()
	dt := t1 - t0
	if dt <= 0 {
		// Degenerate bracket: stacked keyframes at the same time.
		return clamp01(k0.DecodeValue())
	}

	u := (t - t0) / dt
	u2 := u * u
	u3 := u2 * u

	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	v := h00*k0.DecodeValue() +
		h10*dt*k0.DecodeOut() +
		h01*k1.DecodeValue() +
		h11*dt*k1.DecodeIn()
	return clamp01(v)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
