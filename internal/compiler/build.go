package compiler

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
)

// Compile flattens the authoring graph and builds the immutable runtime
// Definition. Any error aborts the build; the returned Definition is
// never partially valid.
func Compile(root *domain.Graph) (*machine.Definition, error) {
	res, err := Flatten(root)
	if err != nil {
		return nil, err
	}

	b := &builder{
		res: res,
		def: &machine.Definition{
			Entry:     res.Entry,
			Clips:     CollectAllClips(root),
			PathIndex: res.PathIndex,
			Params:    res.Params,
			Machines:  res.Machines,
		},
	}

	for i := range res.States {
		if err := b.buildState(&res.States[i]); err != nil {
			return nil, err
		}
	}
	if err := b.buildAnyState(); err != nil {
		return nil, err
	}
	if err := b.buildExitGroups(); err != nil {
		return nil, err
	}
	return b.def, nil
}

type builder struct {
	res *Result
	def *machine.Definition
}

func (b *builder) buildState(fs *FlattenedState) error {
	s := fs.State
	scope := b.res.graphs[fs.Machine]

	sd := machine.StateDef{
		ClipOffset: fs.ClipOffset,
		ClipCount:  int32(s.ClipCount()),
		Speed:      float32(s.Speed),
		SpeedParam: machine.NoIndex,
		Loop:       s.Loop,
		ExitGroup:  fs.ExitGroup,
		Machine:    fs.Machine,
		Path:       fs.Path,
	}
	if sd.Speed == 0 {
		sd.Speed = 1
	}
	if s.SpeedParam != "" {
		slot, err := b.res.ResolveParam(scope, s.SpeedParam, machine.ParamTypeFloat)
		if err != nil {
			return &domain.BuildError{Path: fs.Path, Err: err}
		}
		sd.SpeedParam = slot
	}

	switch s.Type {
	case domain.StateTypeClip:
		sd.Kind = machine.KindClip
		sd.Payload = int32(len(b.def.SingleClips))
		b.def.SingleClips = append(b.def.SingleClips, machine.SingleClipDef{Clip: fs.ClipOffset})

	case domain.StateTypeBlend1D:
		slot, err := b.res.ResolveParam(scope, s.Blend1D.Param, machine.ParamTypeFloat)
		if err != nil {
			return &domain.BuildError{Path: fs.Path, Err: err}
		}
		entries := make([]machine.Blend1DClip, len(s.Blend1D.Clips))
		for i, c := range s.Blend1D.Clips {
			speed := float32(c.Speed)
			if speed == 0 {
				speed = 1
			}
			entries[i] = machine.Blend1DClip{
				Clip:      fs.ClipOffset + int32(i),
				Threshold: float32(c.Threshold),
				Speed:     speed,
			}
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Threshold < entries[j].Threshold })

		sd.Kind = machine.KindBlend1D
		sd.Payload = int32(len(b.def.Blend1D))
		b.def.Blend1D = append(b.def.Blend1D, machine.Blend1DDef{
			Param:  slot,
			Offset: int32(len(b.def.Blend1DPool)),
			Count:  int32(len(entries)),
		})
		b.def.Blend1DPool = append(b.def.Blend1DPool, entries...)

	case domain.StateTypeBlend2D:
		sx, err := b.res.ResolveParam(scope, s.Blend2D.ParamX, machine.ParamTypeFloat)
		if err != nil {
			return &domain.BuildError{Path: fs.Path, Err: err}
		}
		sy, err := b.res.ResolveParam(scope, s.Blend2D.ParamY, machine.ParamTypeFloat)
		if err != nil {
			return &domain.BuildError{Path: fs.Path, Err: err}
		}
		directional := true
		switch s.Blend2D.Algorithm {
		case "", domain.Blend2DDirectional:
		case domain.Blend2DCartesian:
			directional = false
		default:
			return &domain.BuildError{Path: fs.Path, Err: fmt.Errorf("unknown blend2d algorithm %q", s.Blend2D.Algorithm)}
		}

		sd.Kind = machine.KindBlend2D
		sd.Payload = int32(len(b.def.Blend2D))
		b.def.Blend2D = append(b.def.Blend2D, machine.Blend2DDef{
			ParamX:      sx,
			ParamY:      sy,
			Directional: directional,
			Offset:      int32(len(b.def.Blend2DPool)),
			Count:       int32(len(s.Blend2D.Clips)),
		})
		for i, c := range s.Blend2D.Clips {
			b.def.Blend2DPool = append(b.def.Blend2DPool, machine.Blend2DClip{
				Clip: fs.ClipOffset + int32(i),
				Pos:  mgl32.Vec2{float32(c.X), float32(c.Y)},
			})
		}

	default:
		return &domain.BuildError{Path: fs.Path, Err: fmt.Errorf("unknown state type %q", s.Type)}
	}

	sd.TransOffset = int32(len(b.def.Transitions))
	sd.TransCount = int32(len(s.Transitions))
	for _, t := range s.Transitions {
		td, err := b.compileTransition(scope, fs.Path, t)
		if err != nil {
			return err
		}
		b.def.Transitions = append(b.def.Transitions, td)
	}

	b.def.States = append(b.def.States, sd)
	return nil
}

// buildAnyState pools the any-state transitions of every machine, root
// first. Targets resolve in the declaring scope.
func (b *builder) buildAnyState() error {
	for mi, g := range b.res.graphs {
		for _, t := range g.AnyState {
			td, err := b.compileTransition(g, b.res.Machines[mi].Name+"/<any>", t)
			if err != nil {
				return err
			}
			b.def.AnyState = append(b.def.AnyState, td)
		}
	}
	return nil
}

// buildExitGroups resolves each group's transitions in the scope the
// owning composite state is declared in.
func (b *builder) buildExitGroups() error {
	for _, g := range b.res.Groups {
		chain := b.res.scopes[g.Graph]
		// A sub-machine always has a declaring parent scope.
		parent := chain[len(chain)-2]

		eg := machine.ExitGroup{
			Machine: g.Machine,
			States:  g.States,
		}
		for _, t := range g.Owner.Transitions {
			td, err := b.compileTransition(parent, g.Graph.Name+"/<exit>", t)
			if err != nil {
				return err
			}
			eg.Transitions = append(eg.Transitions, td)
		}
		b.def.ExitGroups = append(b.def.ExitGroups, eg)
	}
	return nil
}

func condOpTag(op string) (uint8, bool) {
	switch op {
	case domain.OpEq:
		return machine.CondEq, true
	case domain.OpNeq:
		return machine.CondNeq, true
	case domain.OpGt:
		return machine.CondGt, true
	case domain.OpLt:
		return machine.CondLt, true
	}
	return 0, false
}

func (b *builder) compileTransition(scope *domain.Graph, srcPath string, t domain.Transition) (machine.TransitionDef, error) {
	target, err := b.res.ResolveTransitionTarget(scope, t.Target)
	if err != nil {
		return machine.TransitionDef{}, &domain.BuildError{Path: srcPath, Err: err}
	}

	td := machine.TransitionDef{
		Target:   target,
		Duration: float32(t.Duration),
		ExitTime: machine.NoExitTime,
	}
	if t.ExitTime != nil {
		et := float32(*t.ExitTime)
		if et < 0 {
			et = 0
		}
		td.ExitTime = et
	}

	td.CondOffset = int32(len(b.def.Conds))
	td.CondCount = int32(len(t.Conditions))
	for _, c := range t.Conditions {
		op, ok := condOpTag(c.Op)
		if !ok {
			return machine.TransitionDef{}, &domain.BuildError{Path: srcPath, Err: fmt.Errorf("unknown condition operator %q", c.Op)}
		}
		want := []uint8{machine.ParamTypeBool, machine.ParamTypeInt}
		if op == machine.CondGt || op == machine.CondLt {
			want = []uint8{machine.ParamTypeInt}
		}
		slot, err := b.res.ResolveParam(scope, c.Param, want...)
		if err != nil {
			return machine.TransitionDef{}, &domain.BuildError{Path: srcPath, Err: err}
		}
		val := c.Value
		if b.def.Params[slot].Type == machine.ParamTypeBool && val != 0 {
			val = 1
		}
		b.def.Conds = append(b.def.Conds, machine.CondDef{Param: slot, Op: op, Value: val})
	}

	off, count, err := b.packCurve(srcPath, t.Curve)
	if err != nil {
		return machine.TransitionDef{}, err
	}
	td.CurveOffset = off
	td.CurveCount = count
	return td, nil
}

// packCurve quantizes the authored source-weight curve into the shared
// pool, inverted to destination weight. Zero points is the reserved
// linear encoding; a single point cannot describe a segment.
func (b *builder) packCurve(srcPath string, points []domain.CurvePoint) (int32, int32, error) {
	if len(points) == 0 {
		return 0, 0, nil
	}
	if len(points) == 1 {
		return 0, 0, &domain.BuildError{Path: srcPath, Err: fmt.Errorf("blend curve needs at least 2 keyframes, got 1")}
	}

	off := int32(len(b.def.Curve))
	prev := -1.0
	for _, p := range points {
		if p.Time < prev {
			return 0, 0, &domain.BuildError{Path: srcPath, Err: fmt.Errorf("blend curve keyframes not sorted by time")}
		}
		prev = p.Time
		// Authored as source-state weight; stored as destination weight so
		// runtime evaluation needs no sign flip.
		b.def.Curve = append(b.def.Curve, machine.QuantizeKey(p.Time, 1-p.Value, -p.InTangent, -p.OutTangent))
	}
	return off, int32(len(points)), nil
}
