package healthid

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("health id not found")
	ErrDuplicate = errors.New("health id already registered")
)

// Directory answers whether a Health ID is already registered. It is the only
// contract the generator needs from the outside world.
type Directory interface {
	Exists(ctx context.Context, healthID string) (bool, error)
}

// Registry persists issued Health IDs. Numbers are stored in canonical
// dashed form.
type Registry interface {
	Directory
	GetByNumber(ctx context.Context, healthID string) (*Record, error)
	Create(ctx context.Context, r *Record) error
	CreateBatch(ctx context.Context, records []*Record) (int, error)
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
	SetActive(ctx context.Context, healthID string, active bool) error
}
