package parcel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/shared/errors"
)

// Parcel is a registered land parcel identified by its UPIN.
type Parcel struct {
	id         uint
	upin       string
	fileNumber string
	location   Location
	totalArea  decimal.Decimal
	landUse    string
	tenure     TenureType
	boundary   Boundary
	status     Status
	parentUPIN string
	retiredAt  *time.Time
	version    int
	createdAt  time.Time
	updatedAt  time.Time
}

func NewParcel(
	upin string,
	fileNumber string,
	location Location,
	totalArea decimal.Decimal,
	landUse string,
	tenure TenureType,
	boundary Boundary,
) (*Parcel, error) {
	upin = strings.TrimSpace(upin)
	if upin == "" {
		return nil, errors.NewValidationError("upin is required")
	}
	if !totalArea.IsPositive() {
		return nil, errors.InvalidArea(fmt.Sprintf("parcel %s area must be positive", upin), totalArea.String())
	}
	if !tenure.IsValid() {
		return nil, errors.NewValidationError("invalid tenure type", string(tenure))
	}

	now := time.Now().UTC()
	return &Parcel{
		upin:       upin,
		fileNumber: strings.TrimSpace(fileNumber),
		location:   location,
		totalArea:  totalArea,
		landUse:    landUse,
		tenure:     tenure,
		boundary:   boundary,
		status:     StatusActive,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func ReconstructParcel(
	id uint,
	upin string,
	fileNumber string,
	location Location,
	totalArea decimal.Decimal,
	landUse string,
	tenure TenureType,
	boundary Boundary,
	status Status,
	parentUPIN string,
	retiredAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) (*Parcel, error) {
	if id == 0 {
		return nil, fmt.Errorf("parcel ID cannot be zero")
	}
	if upin == "" {
		return nil, fmt.Errorf("upin is required")
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid parcel status: %s", status)
	}

	return &Parcel{
		id:         id,
		upin:       upin,
		fileNumber: fileNumber,
		location:   location,
		totalArea:  totalArea,
		landUse:    landUse,
		tenure:     tenure,
		boundary:   boundary,
		status:     status,
		parentUPIN: parentUPIN,
		retiredAt:  retiredAt,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

func (p *Parcel) ID() uint                   { return p.id }
func (p *Parcel) UPIN() string               { return p.upin }
func (p *Parcel) FileNumber() string         { return p.fileNumber }
func (p *Parcel) Location() Location         { return p.location }
func (p *Parcel) TotalArea() decimal.Decimal { return p.totalArea }
func (p *Parcel) LandUse() string            { return p.landUse }
func (p *Parcel) Tenure() TenureType         { return p.tenure }
func (p *Parcel) Boundary() Boundary         { return p.boundary }
func (p *Parcel) Status() Status             { return p.status }
func (p *Parcel) ParentUPIN() string         { return p.parentUPIN }
func (p *Parcel) RetiredAt() *time.Time      { return p.retiredAt }
func (p *Parcel) Version() int               { return p.version }
func (p *Parcel) CreatedAt() time.Time       { return p.createdAt }
func (p *Parcel) UpdatedAt() time.Time       { return p.updatedAt }

func (p *Parcel) IsActive() bool {
	return p.status == StatusActive
}

func (p *Parcel) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("parcel ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("parcel ID cannot be zero")
	}
	p.id = id
	return nil
}

// EnsureAcceptsOwnership rejects new ownership edges on a retired parcel.
func (p *Parcel) EnsureAcceptsOwnership() error {
	if !p.IsActive() {
		return errors.NewStateError(fmt.Sprintf("parcel %s is retired and accepts no new ownership", p.upin))
	}
	return nil
}

// Retire marks the parcel as historical after a subdivision.
func (p *Parcel) Retire(at time.Time) error {
	if !p.IsActive() {
		return errors.NewStateError(fmt.Sprintf("parcel %s is already retired", p.upin))
	}
	p.status = StatusRetired
	p.retiredAt = &at
	p.updatedAt = at
	p.version++
	return nil
}

// NewChild builds a subdivision child of p. Unset location, land use and
// boundary fields are inherited from p.
func (p *Parcel) NewChild(spec ChildSpec) (*Parcel, error) {
	location := spec.Location.MergeFrom(p.location)
	landUse := spec.LandUse
	if landUse == "" {
		landUse = p.landUse
	}
	boundary := p.boundary
	if spec.Boundary != nil {
		boundary = spec.Boundary.MergeFrom(p.boundary)
	}

	child, err := NewParcel(spec.UPIN, spec.FileNumber, location, spec.Area, landUse, p.tenure, boundary)
	if err != nil {
		return nil, err
	}
	child.parentUPIN = p.upin
	return child, nil
}
