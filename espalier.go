package espalier

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/espalier/internal/compiler"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
	"github.com/aretw0/espalier/pkg/params"
	"github.com/aretw0/espalier/pkg/ports"
)

// Version is the released version of the module.
const Version = "0.3.0"

// Instance is the per-character runtime handle minted by an Engine.
type Instance = runtime.Instance

// Engine is the high-level entry point: it compiles a rig's layer graphs
// once into shared read-only Definitions and mints runtime instances over
// them.
type Engine struct {
	rig    *domain.Rig
	defs   []*machine.Definition
	clips  ports.ClipSource
	hooks  domain.LifecycleHooks
	logger *slog.Logger

	nextID atomic.Uint64
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger injects a structured logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithLifecycleHooks registers observability hooks, invoked inline with
// each instance's tick.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithClipSource injects the pose-sampling service's duration lookup.
// Without one, clip durations read as zero: looping states do not wrap
// and exit-time gates are not applied.
func WithClipSource(c ports.ClipSource) Option {
	return func(e *Engine) { e.clips = c }
}

// New compiles every layer of the rig and returns an Engine. Compilation
// errors name the offending state path; no partially compiled engine is
// ever returned.
func New(rig *domain.Rig, opts ...Option) (*Engine, error) {
	if len(rig.Layers) == 0 {
		return nil, fmt.Errorf("rig %q has no layers", rig.Name)
	}
	if len(rig.Layers) > domain.MaxLayers {
		return nil, fmt.Errorf("%w: %d > %d", domain.ErrTooManyLayers, len(rig.Layers), domain.MaxLayers)
	}

	e := &Engine{rig: rig}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}

	for _, layer := range rig.Layers {
		def, err := compiler.Compile(layer.Graph)
		if err != nil {
			return nil, fmt.Errorf("compiling layer %q: %w", layer.Name, err)
		}
		e.defs = append(e.defs, def)
	}

	states, clips := 0, 0
	for _, def := range e.defs {
		states += len(def.States)
		clips += len(def.Clips)
	}
	e.logger.Info("rig compiled",
		"rig", rig.Name,
		"layers", len(rig.Layers),
		"states", states,
		"clips", clips)
	return e, nil
}

// NewFromGraph wraps a single graph into a one-layer rig. Convenience for
// the common non-layered case.
func NewFromGraph(g *domain.Graph, opts ...Option) (*Engine, error) {
	return New(domain.SingleLayer(g), opts...)
}

// Validate compiles every layer and reports the first build error, if
// any. Used by offline tooling; the compiled output is discarded.
func Validate(rig *domain.Rig) error {
	if len(rig.Layers) > domain.MaxLayers {
		return fmt.Errorf("%w: %d > %d", domain.ErrTooManyLayers, len(rig.Layers), domain.MaxLayers)
	}
	for _, layer := range rig.Layers {
		if _, err := compiler.Compile(layer.Graph); err != nil {
			return fmt.Errorf("layer %q: %w", layer.Name, err)
		}
	}
	return nil
}

// Definition returns the compiled machine of one layer, or nil when out
// of range. Shared and read-only.
func (e *Engine) Definition(layer int) *machine.Definition {
	if layer < 0 || layer >= len(e.defs) {
		return nil
	}
	return e.defs[layer]
}

// Layers returns the number of layers in the rig.
func (e *Engine) Layers() int { return len(e.defs) }

// Name returns the rig's name.
func (e *Engine) Name() string { return e.rig.Name }

// NewInstance mints a runtime instance: fresh per-layer parameter stores
// seeded with authored defaults, entry states active at full weight.
// Instances are independent; ticking different instances concurrently is
// safe.
func (e *Engine) NewInstance() *Instance {
	layers := make([]runtime.LayerConfig, len(e.defs))
	for i, def := range e.defs {
		weight := float32(e.rig.Layers[i].Weight)
		if i == 0 && weight == 0 {
			// An unweighted base layer plays at full strength.
			weight = 1
		}
		layers[i] = runtime.LayerConfig{
			Def:    def,
			Params: params.NewStore(def.Params),
			Weight: weight,
			Mode:   e.rig.Layers[i].Mode,
		}
	}
	return runtime.NewInstance(runtime.Config{
		ID:     e.nextID.Add(1),
		Clips:  e.clips,
		Hooks:  e.hooks,
		Logger: e.logger,
	}, layers)
}

// RequestTransition starts a crossfade on an instance by state path
// (e.g. "root/locomotion/run") on the given layer. Unknown paths are a
// no-op, matching the index-based request semantics.
func (e *Engine) RequestTransition(inst *Instance, layer int, path string, duration float32) error {
	def := e.Definition(layer)
	if def == nil {
		return domain.ErrLayerRange
	}
	idx, ok := def.Index(path)
	if !ok {
		e.logger.Debug("transition request ignored: unknown path", "path", path)
		return nil
	}
	return inst.RequestTransition(layer, idx, duration)
}

// SetFloat writes a float parameter by name on every layer where the
// name resolves.
func (e *Engine) SetFloat(inst *Instance, name string, v float64) {
	for i, def := range e.defs {
		if slot := def.ParamIndex(name); slot != machine.NoIndex {
			inst.Layer(i).Params.SetFloat(int(slot), v)
		}
	}
}

// SetBool writes a bool parameter by name on every layer where the name
// resolves.
func (e *Engine) SetBool(inst *Instance, name string, v bool) {
	for i, def := range e.defs {
		if slot := def.ParamIndex(name); slot != machine.NoIndex {
			inst.Layer(i).Params.SetBool(int(slot), v)
		}
	}
}

// SetInt writes an int parameter by name on every layer where the name
// resolves.
func (e *Engine) SetInt(inst *Instance, name string, v int64) {
	for i, def := range e.defs {
		if slot := def.ParamIndex(name); slot != machine.NoIndex {
			inst.Layer(i).Params.SetInt(int(slot), v)
		}
	}
}
