package parcel

import "context"

// Repository is the canonical parcel store.
type Repository interface {
	Create(ctx context.Context, p *Parcel) error
	Update(ctx context.Context, p *Parcel) error
	GetByID(ctx context.Context, id uint) (*Parcel, error)
	GetByUPIN(ctx context.Context, upin string) (*Parcel, error)
	// GetByUPINForUpdate loads the parcel with a row lock held until the
	// surrounding transaction ends.
	GetByUPINForUpdate(ctx context.Context, upin string) (*Parcel, error)
	// ExistingUPINs returns the subset of upins that are already registered.
	ExistingUPINs(ctx context.Context, upins []string) ([]string, error)
	ListChildren(ctx context.Context, parentUPIN string) ([]*Parcel, error)
}

type EncumbranceRepository interface {
	Create(ctx context.Context, e *Encumbrance) error
	Update(ctx context.Context, e *Encumbrance) error
	GetByID(ctx context.Context, id uint) (*Encumbrance, error)
	ListByParcel(ctx context.Context, parcelID uint) ([]*Encumbrance, error)
}

type LeaseRepository interface {
	Create(ctx context.Context, l *LeaseAgreement) error
	GetByParcel(ctx context.Context, parcelID uint) (*LeaseAgreement, error)
}
