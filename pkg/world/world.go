// Package world manages populations of animated instances and steps them
// in parallel. Instances are independent by construction, so a step
// fans the per-instance ticks out over a bounded worker pool and joins
// on a per-frame barrier.
package world

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
)

// World owns a set of instances minted from one engine. All methods are
// safe for concurrent use.
type World struct {
	mu        sync.RWMutex
	engine    *espalier.Engine
	instances map[uint64]*espalier.Instance

	// stepMu serializes the tick phase against out-of-band instance
	// access through Visit. Instances themselves are not goroutine safe,
	// so anything touching their mixer state while a step may be in
	// flight must hold it.
	stepMu sync.Mutex

	// pool workers persist across steps; idle ones exit after a second.
	pool      worker.DynamicWorkerPool
	workers   int
	collector *observability.Collector
	logger    *slog.Logger
}

// Option configures a World.
type Option func(*World)

// WithWorkers overrides the worker count, default NumCPU-1.
func WithWorkers(n int) Option {
	return func(w *World) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithCollector wires step timing into a metrics collector.
func WithCollector(c *observability.Collector) Option {
	return func(w *World) { w.collector = c }
}

// WithLogger injects a structured logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) { w.logger = l }
}

// New creates a world over a compiled engine.
func New(eng *espalier.Engine, opts ...Option) *World {
	w := &World{
		engine:    eng,
		instances: map[uint64]*espalier.Instance{},
		workers:   max(runtime.NumCPU()-1, 1),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	// Queue size 256 leaves headroom over typical populations; larger
	// worlds block the submitter briefly instead of dropping work.
	w.pool = worker.NewDynamicWorkerPool(w.workers, 256, 1*time.Second)
	return w
}

// Spawn mints a new instance and adds it to the world.
func (w *World) Spawn() *espalier.Instance {
	inst := w.engine.NewInstance()
	w.mu.Lock()
	w.instances[inst.ID] = inst
	w.mu.Unlock()
	w.logger.Debug("instance spawned", "instance", inst.ID)
	return inst
}

// Remove drops an instance from the world.
func (w *World) Remove(id uint64) {
	w.mu.Lock()
	delete(w.instances, id)
	w.mu.Unlock()
}

// Get returns an instance by id, nil if absent.
func (w *World) Get(id uint64) *espalier.Instance {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.instances[id]
}

// Count returns the current population.
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.instances)
}

// Step advances every instance by dt seconds on the worker pool and
// returns once all ticks finish. Each instance is touched by exactly one
// worker per step, so no instance-level locking is needed.
func (w *World) Step(dt float32) {
	w.mu.RLock()
	batch := make([]*espalier.Instance, 0, len(w.instances))
	for _, inst := range w.instances {
		batch = append(batch, inst)
	}
	w.mu.RUnlock()

	if len(batch) == 0 {
		return
	}
	w.stepMu.Lock()
	defer w.stepMu.Unlock()
	start := time.Now()

	// pool.Wait blocks until workers idle-exit, which is unsuitable for
	// frame-rate stepping; a WaitGroup gives the per-step barrier.
	var wg sync.WaitGroup
	for i, inst := range batch {
		wg.Add(1)
		in := inst
		w.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				in.Tick(dt)
				return nil, nil
			},
		})
	}
	wg.Wait()

	if w.collector != nil {
		w.collector.ObserveTick(time.Since(start).Seconds())
		active := 0
		for _, inst := range batch {
			for i := 0; i < inst.LayerCount(); i++ {
				active += len(inst.Layer(i).Mixer().Active())
			}
		}
		w.collector.SetActiveStates(active)
	}
}

// Visit runs fn on one instance with stepping held off, so goroutines
// outside the frame loop can read or mutate instance state without
// racing it. Returns false when the id is unknown. fn must not retain
// the instance or call back into Step or Visit.
func (w *World) Visit(id uint64, fn func(*espalier.Instance)) bool {
	inst := w.Get(id)
	if inst == nil {
		return false
	}
	w.stepMu.Lock()
	defer w.stepMu.Unlock()
	fn(inst)
	return true
}

// Samples collects the composed pose samples of one instance, nil if the
// instance is not in the world.
func (w *World) Samples(id uint64) []ports.Sample {
	var out []ports.Sample
	w.Visit(id, func(inst *espalier.Instance) {
		out = inst.ComposedSamples()
	})
	return out
}

// ForEach visits every instance under the map read lock, without the
// step lock: the callback may only touch immutable instance state such
// as the ID. Use Visit for anything that reads or writes blend state.
func (w *World) ForEach(fn func(*espalier.Instance)) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, inst := range w.instances {
		fn(inst)
	}
}
