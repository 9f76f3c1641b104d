package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// SnapshotStore is a driven port for snapshot persistence. Load returns
// domain.ErrSnapshotNotFound when the id is unknown.
type SnapshotStore interface {
	Save(ctx context.Context, id string, snap *domain.Snapshot) error
	Load(ctx context.Context, id string) (*domain.Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
