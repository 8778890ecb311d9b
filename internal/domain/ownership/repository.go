package ownership

import "context"

type Repository interface {
	Create(ctx context.Context, e *ParcelOwner) error
	// Update persists share and active flag, failing with a version
	// conflict when the row changed since it was read.
	Update(ctx context.Context, e *ParcelOwner) error
	GetByID(ctx context.Context, id uint) (*ParcelOwner, error)
	ListActiveByParcel(ctx context.Context, parcelID uint) ([]*ParcelOwner, error)
}

// HistoryRepository is append-only.
type HistoryRepository interface {
	Append(ctx context.Context, h *TransferHistory) error
	ListByParcel(ctx context.Context, parcelID uint) ([]*TransferHistory, error)
}
