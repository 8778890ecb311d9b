package parcel

import (
	"fmt"
	"strings"
	"time"

	"github.com/landreg/cadastre/internal/shared/errors"
)

type EncumbranceType string

const (
	EncumbranceMortgage        EncumbranceType = "MORTGAGE"
	EncumbranceCourtFreeze     EncumbranceType = "COURT_FREEZE"
	EncumbranceGovtReservation EncumbranceType = "GOVT_RESERVATION"
)

func (t EncumbranceType) IsValid() bool {
	switch t {
	case EncumbranceMortgage, EncumbranceCourtFreeze, EncumbranceGovtReservation:
		return true
	}
	return false
}

type EncumbranceStatus string

const (
	EncumbranceActive   EncumbranceStatus = "ACTIVE"
	EncumbranceReleased EncumbranceStatus = "RELEASED"
)

// Encumbrance is a legal or financial claim registered against a parcel.
// It is never deleted; release is the only transition.
type Encumbrance struct {
	id              uint
	parcelID        uint
	encType         EncumbranceType
	issuingEntity   string
	referenceNumber string
	description     string
	status          EncumbranceStatus
	registeredAt    time.Time
	releasedAt      *time.Time
}

func NewEncumbrance(parcelID uint, encType EncumbranceType, issuingEntity, referenceNumber, description string, at time.Time) (*Encumbrance, error) {
	if parcelID == 0 {
		return nil, fmt.Errorf("parcel ID is required")
	}
	if !encType.IsValid() {
		return nil, errors.NewValidationError("invalid encumbrance type", string(encType))
	}
	issuingEntity = strings.TrimSpace(issuingEntity)
	if issuingEntity == "" {
		return nil, errors.NewValidationError("issuing_entity is required")
	}
	return &Encumbrance{
		parcelID:        parcelID,
		encType:         encType,
		issuingEntity:   issuingEntity,
		referenceNumber: strings.TrimSpace(referenceNumber),
		description:     description,
		status:          EncumbranceActive,
		registeredAt:    at,
	}, nil
}

func ReconstructEncumbrance(
	id, parcelID uint,
	encType EncumbranceType,
	issuingEntity, referenceNumber, description string,
	status EncumbranceStatus,
	registeredAt time.Time,
	releasedAt *time.Time,
) *Encumbrance {
	return &Encumbrance{
		id:              id,
		parcelID:        parcelID,
		encType:         encType,
		issuingEntity:   issuingEntity,
		referenceNumber: referenceNumber,
		description:     description,
		status:          status,
		registeredAt:    registeredAt,
		releasedAt:      releasedAt,
	}
}

func (e *Encumbrance) ID() uint                  { return e.id }
func (e *Encumbrance) ParcelID() uint            { return e.parcelID }
func (e *Encumbrance) Type() EncumbranceType     { return e.encType }
func (e *Encumbrance) IssuingEntity() string     { return e.issuingEntity }
func (e *Encumbrance) ReferenceNumber() string   { return e.referenceNumber }
func (e *Encumbrance) Description() string       { return e.description }
func (e *Encumbrance) Status() EncumbranceStatus { return e.status }
func (e *Encumbrance) RegisteredAt() time.Time   { return e.registeredAt }
func (e *Encumbrance) ReleasedAt() *time.Time    { return e.releasedAt }

func (e *Encumbrance) SetID(id uint) {
	e.id = id
}

func (e *Encumbrance) Release(at time.Time) error {
	if e.status != EncumbranceActive {
		return errors.NewStateError(fmt.Sprintf("encumbrance %d is already released", e.id))
	}
	e.status = EncumbranceReleased
	e.releasedAt = &at
	return nil
}
