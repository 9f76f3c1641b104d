package runtime

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/aretw0/espalier/pkg/machine"
	"github.com/aretw0/espalier/pkg/ports"
)

// ComposedSamples expands every layer's active states into the
// (clip, time, weight) triples the pose-sampling service consumes. State
// weights are multiplied by the rig-level layer influence; zero-weight
// samples are skipped. Call after Tick so weights and times are settled.
func (inst *Instance) ComposedSamples() []ports.Sample {
	inf := composeInfluence(inst.layers)

	var out []ports.Sample
	for li := range inst.layers {
		l := &inst.layers[li]
		if inf[li] <= weightEpsilon {
			continue
		}
		for i := range l.mixer.active {
			s := &l.mixer.active[i]
			w := s.Weight * inf[li]
			if w <= weightEpsilon || s.State == machine.NoIndex {
				continue
			}
			out = inst.appendStateSamples(out, l, s, w)
		}
	}
	return out
}

func (inst *Instance) appendStateSamples(out []ports.Sample, l *Layer, s *ActiveState, w float32) []ports.Sample {
	def := l.Def
	sd := &def.States[s.State]

	switch sd.Kind {
	case machine.KindClip:
		clip := def.SingleClips[sd.Payload].Clip
		out = append(out, ports.Sample{Clip: def.Clips[clip], Time: s.Time, Weight: w})

	case machine.KindBlend1D:
		bd := &def.Blend1D[sd.Payload]
		entries := def.Blend1DPool[bd.Offset : bd.Offset+bd.Count]
		v := float32(0)
		if l.Params != nil {
			v = float32(l.Params.Float(int(bd.Param)))
		}
		out = append1DSamples(out, def, entries, v, s.Time, w)

	case machine.KindBlend2D:
		bd := &def.Blend2D[sd.Payload]
		entries := def.Blend2DPool[bd.Offset : bd.Offset+bd.Count]
		var p mgl32.Vec2
		if l.Params != nil {
			p = mgl32.Vec2{float32(l.Params.Float(int(bd.ParamX))), float32(l.Params.Float(int(bd.ParamY)))}
		}
		out = append2DSamples(out, def, entries, bd.Directional, p, s.Time, w)
	}
	return out
}

// append1DSamples interpolates the threshold-sorted entry list: a
// parameter outside the authored range clamps to the edge clip, inside it
// the two bracketing clips share the weight linearly. Per-entry speed
// multipliers apply to the sampled time.
func append1DSamples(out []ports.Sample, def *machine.Definition, entries []machine.Blend1DClip, v, t, w float32) []ports.Sample {
	n := len(entries)
	if n == 0 {
		return out
	}
	if n == 1 || v <= entries[0].Threshold {
		e := entries[0]
		return append(out, ports.Sample{Clip: def.Clips[e.Clip], Time: t * e.Speed, Weight: w})
	}
	if v >= entries[n-1].Threshold {
		e := entries[n-1]
		return append(out, ports.Sample{Clip: def.Clips[e.Clip], Time: t * e.Speed, Weight: w})
	}

	hi := 1
	for hi < n-1 && entries[hi].Threshold < v {
		hi++
	}
	lo := hi - 1
	span := entries[hi].Threshold - entries[lo].Threshold
	frac := float32(0.5)
	if span > 0 {
		frac = (v - entries[lo].Threshold) / span
	}

	if wLo := w * (1 - frac); wLo > weightEpsilon {
		e := entries[lo]
		out = append(out, ports.Sample{Clip: def.Clips[e.Clip], Time: t * e.Speed, Weight: wLo})
	}
	if wHi := w * frac; wHi > weightEpsilon {
		e := entries[hi]
		out = append(out, ports.Sample{Clip: def.Clips[e.Clip], Time: t * e.Speed, Weight: wHi})
	}
	return out
}

// append2DSamples distributes w across the positioned clips. Cartesian
// weighting is inverse square distance in parameter space; directional
// weighting measures distance in polar coordinates so clips arranged in a
// ring blend by heading first and magnitude second. A sample point on top
// of a clip position is an exact winner.
func append2DSamples(out []ports.Sample, def *machine.Definition, entries []machine.Blend2DClip, directional bool, p mgl32.Vec2, t, w float32) []ports.Sample {
	n := len(entries)
	if n == 0 {
		return out
	}

	weights := make([]float32, n)
	var total float32
	for i, e := range entries {
		var d float32
		if directional {
			d = polarDistance(p, e.Pos)
		} else {
			d = p.Sub(e.Pos).Len()
		}
		if d < 1e-4 {
			for j := range weights {
				weights[j] = 0
			}
			weights[i] = 1
			total = 1
			break
		}
		weights[i] = 1 / (d * d)
		total += weights[i]
	}

	for i, e := range entries {
		cw := w * weights[i] / total
		if cw <= weightEpsilon {
			continue
		}
		out = append(out, ports.Sample{Clip: def.Clips[e.Clip], Time: t, Weight: cw})
	}
	return out
}

// polarDistance compares two points by heading and magnitude. The angular
// difference is scaled by the mean radius so the metric stays meaningful
// near the origin.
func polarDistance(a, b mgl32.Vec2) float32 {
	la, lb := a.Len(), b.Len()
	dLen := la - lb
	if dLen < 0 {
		dLen = -dLen
	}

	mean := (la + lb) / 2
	if mean < 1e-4 {
		return dLen
	}

	angA := math.Atan2(float64(a.Y()), float64(a.X()))
	angB := math.Atan2(float64(b.Y()), float64(b.X()))
	dAng := angA - angB
	for dAng > math.Pi {
		dAng -= 2 * math.Pi
	}
	for dAng < -math.Pi {
		dAng += 2 * math.Pi
	}
	if dAng < 0 {
		dAng = -dAng
	}

	arc := float32(dAng) * mean
	return float32(math.Hypot(float64(arc), float64(dLen)))
}
