package session

import (
	"context"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// MemStore implements ports.SnapshotStore in memory. Safe for concurrent
// use.
type MemStore struct {
	data map[string]*domain.Snapshot
	mu   sync.RWMutex
}

// NewMemStore creates a new in-memory snapshot store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]*domain.Snapshot)}
}

// Save persists the snapshot in memory.
func (s *MemStore) Save(ctx context.Context, id string, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copySnapshot(snap)
	return nil
}

// Load retrieves the snapshot from memory.
func (s *MemStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[id]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

// Delete removes the snapshot.
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored snapshot ids.
func (s *MemStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// copySnapshot isolates store state from caller mutation in both
// directions.
func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	out := &domain.Snapshot{Rig: snap.Rig}
	for _, ls := range snap.Layers {
		c := domain.LayerSnapshot{Current: ls.Current, Time: ls.Time, Weight: ls.Weight}
		if ls.Bools != nil {
			c.Bools = make(map[string]bool, len(ls.Bools))
			for k, v := range ls.Bools {
				c.Bools[k] = v
			}
		}
		if ls.Ints != nil {
			c.Ints = make(map[string]int64, len(ls.Ints))
			for k, v := range ls.Ints {
				c.Ints[k] = v
			}
		}
		if ls.Floats != nil {
			c.Floats = make(map[string]float64, len(ls.Floats))
			for k, v := range ls.Floats {
				c.Floats[k] = v
			}
		}
		out.Layers = append(out.Layers, c)
	}
	return out
}
