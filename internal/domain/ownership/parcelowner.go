package ownership

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ParcelOwner is an ownership edge between a parcel and an owner.
// Inactive edges are kept for audit and never counted.
type ParcelOwner struct {
	id         uint
	parcelID   uint
	ownerID    uint
	share      decimal.Decimal
	acquiredAt time.Time
	active     bool
	version    int
	createdAt  time.Time
	updatedAt  time.Time
}

func NewParcelOwner(parcelID, ownerID uint, share decimal.Decimal, acquiredAt time.Time) (*ParcelOwner, error) {
	if parcelID == 0 || ownerID == 0 {
		return nil, fmt.Errorf("parcel and owner IDs are required")
	}
	if err := ValidateShare(share); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &ParcelOwner{
		parcelID:   parcelID,
		ownerID:    ownerID,
		share:      share,
		acquiredAt: acquiredAt,
		active:     true,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructParcelOwner(
	id, parcelID, ownerID uint,
	share decimal.Decimal,
	acquiredAt time.Time,
	active bool,
	version int,
	createdAt, updatedAt time.Time,
) *ParcelOwner {
	return &ParcelOwner{
		id:         id,
		parcelID:   parcelID,
		ownerID:    ownerID,
		share:      share,
		acquiredAt: acquiredAt,
		active:     active,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (e *ParcelOwner) ID() uint               { return e.id }
func (e *ParcelOwner) ParcelID() uint         { return e.parcelID }
func (e *ParcelOwner) OwnerID() uint          { return e.ownerID }
func (e *ParcelOwner) Share() decimal.Decimal { return e.share }
func (e *ParcelOwner) AcquiredAt() time.Time  { return e.acquiredAt }
func (e *ParcelOwner) IsActive() bool         { return e.active }
func (e *ParcelOwner) Version() int           { return e.version }
func (e *ParcelOwner) CreatedAt() time.Time   { return e.createdAt }
func (e *ParcelOwner) UpdatedAt() time.Time   { return e.updatedAt }

func (e *ParcelOwner) SetID(id uint) {
	e.id = id
}

func (e *ParcelOwner) setShare(share decimal.Decimal, at time.Time) {
	e.share = share
	e.updatedAt = at
	e.version++
}

// deactivate closes the edge once its share reaches zero.
func (e *ParcelOwner) deactivate(at time.Time) {
	e.share = decimal.Zero
	e.active = false
	e.updatedAt = at
	e.version++
}
