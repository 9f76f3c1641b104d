// Package registry composes named clip banks into a single clip source.
// Hosts typically register one bank per loaded asset pack and hand the
// registry to the engine; lookups search banks in registration order.
package registry

import (
	"sync"

	"github.com/aretw0/espalier/pkg/ports"
)

// Registry manages the available clip banks. Safe for concurrent use;
// banks can be added and removed while instances sample.
type Registry struct {
	mu    sync.RWMutex
	names []string
	banks map[string]ports.ClipSource
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{banks: make(map[string]ports.ClipSource)}
}

// Register adds a clip bank under a name. Registering an existing name
// replaces the bank but keeps its position in the search order.
func (r *Registry) Register(name string, bank ports.ClipSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.banks[name]; !exists {
		r.names = append(r.names, name)
	}
	r.banks[name] = bank
}

// Unregister removes a bank; unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.banks[name]; !exists {
		return
	}
	delete(r.banks, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
}

// Banks returns the registered bank names in search order.
func (r *Registry) Banks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// ClipDuration searches the banks in registration order and returns the
// first positive duration; 0 means no bank knows the clip.
func (r *Registry) ClipDuration(clip string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.names {
		if d := r.banks[name].ClipDuration(clip); d > 0 {
			return d
		}
	}
	return 0
}

var _ ports.ClipSource = (*Registry)(nil)
