package owner

import "context"

type Repository interface {
	Create(ctx context.Context, o *Owner) error
	GetByID(ctx context.Context, id uint) (*Owner, error)
	// GetByNationalID returns nil, nil when no owner carries the id.
	GetByNationalID(ctx context.Context, nationalID string) (*Owner, error)
}
