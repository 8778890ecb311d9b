package registration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/validation"
)

const dateLayout = "2006-01-02"

// Payload is the typed content of a payload-carrying step.
type Payload interface {
	Step() Step
	// Check returns domain problems the struct tags cannot express.
	Check() []string
}

type ParcelData struct {
	UPIN          string            `json:"upin" validate:"required,max=64"`
	FileNumber    string            `json:"file_number" validate:"required,max=64"`
	SubCity       string            `json:"sub_city" validate:"required,max=100"`
	Wereda        string            `json:"wereda" validate:"required,max=50"`
	Kebele        string            `json:"kebele,omitempty" validate:"omitempty,max=50"`
	BlockNumber   string            `json:"block_number,omitempty" validate:"omitempty,max=50"`
	ParcelNumber  string            `json:"parcel_number,omitempty" validate:"omitempty,max=50"`
	TotalAreaM2   decimal.Decimal   `json:"total_area_m2"`
	LandUse       string            `json:"land_use" validate:"required,max=50"`
	TenureType    parcel.TenureType `json:"tenure_type" validate:"required,oneof=OLD_POSSESSION LEASE"`
	BoundaryNorth string            `json:"boundary_north,omitempty" validate:"omitempty,max=255"`
	BoundaryEast  string            `json:"boundary_east,omitempty" validate:"omitempty,max=255"`
	BoundarySouth string            `json:"boundary_south,omitempty" validate:"omitempty,max=255"`
	BoundaryWest  string            `json:"boundary_west,omitempty" validate:"omitempty,max=255"`
	Geometry      json.RawMessage   `json:"geometry,omitempty"`
}

func (ParcelData) Step() Step { return StepParcel }

func (p ParcelData) Check() []string {
	var problems []string
	if !p.TotalAreaM2.IsPositive() {
		problems = append(problems, "total_area_m2 must be greater than 0")
	}
	if len(p.Geometry) > 0 && !json.Valid(p.Geometry) {
		problems = append(problems, "geometry must be valid GeoJSON")
	}
	return problems
}

func (p ParcelData) Location() parcel.Location {
	return parcel.Location{
		SubCity:      p.SubCity,
		Wereda:       p.Wereda,
		Kebele:       p.Kebele,
		BlockNumber:  p.BlockNumber,
		ParcelNumber: p.ParcelNumber,
	}
}

func (p ParcelData) Boundary() parcel.Boundary {
	return parcel.Boundary{
		North:    p.BoundaryNorth,
		East:     p.BoundaryEast,
		South:    p.BoundarySouth,
		West:     p.BoundaryWest,
		Geometry: p.Geometry,
	}
}

// OwnerData either references an existing owner by OwnerID or describes a
// new one.
type OwnerData struct {
	OwnerID     *uint           `json:"owner_id,omitempty"`
	FullName    string          `json:"full_name,omitempty" validate:"required_without=OwnerID,max=200"`
	NationalID  string          `json:"national_id,omitempty" validate:"required_without=OwnerID,max=64"`
	PhoneNumber string          `json:"phone_number,omitempty" validate:"required_without=OwnerID,max=32"`
	TINNumber   string          `json:"tin_number,omitempty" validate:"omitempty,max=32"`
	ShareRatio  decimal.Decimal `json:"share_ratio"`
	AcquiredAt  string          `json:"acquired_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (OwnerData) Step() Step { return StepOwner }

func (o OwnerData) Check() []string {
	var problems []string
	if o.OwnerID != nil && *o.OwnerID == 0 {
		problems = append(problems, "owner_id must be a positive id")
	}
	if err := ownership.ValidateShare(o.ShareRatio); err != nil {
		problems = append(problems, "share_ratio must be in (0, 1] with at most 6 decimals")
	}
	return problems
}

// IsExistingOwner reports whether the owner step references a registered owner.
func (o OwnerData) IsExistingOwner() bool {
	return o.OwnerID != nil
}

// AcquiredOn returns the acquisition date, defaulting to fallback.
func (o OwnerData) AcquiredOn(fallback time.Time) time.Time {
	if o.AcquiredAt == "" {
		return fallback
	}
	t, err := time.Parse(dateLayout, o.AcquiredAt)
	if err != nil {
		return fallback
	}
	return t
}

type LeaseData struct {
	LeasedAreaM2     decimal.Decimal `json:"leased_area_m2"`
	TotalLeaseAmount decimal.Decimal `json:"total_lease_amount"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	StartDate        string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	ExpiryDate       string          `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	ContractDate     string          `json:"contract_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (LeaseData) Step() Step { return StepLease }

func (l LeaseData) Check() []string {
	var problems []string
	if !l.LeasedAreaM2.IsPositive() {
		problems = append(problems, "leased_area_m2 must be greater than 0")
	}
	if l.TotalLeaseAmount.IsNegative() {
		problems = append(problems, "total_lease_amount must not be negative")
	}
	if l.DownPayment.IsNegative() || l.DownPayment.GreaterThan(l.TotalLeaseAmount) {
		problems = append(problems, "down_payment must be between 0 and total_lease_amount")
	}
	start, errStart := time.Parse(dateLayout, l.StartDate)
	expiry, errExpiry := time.Parse(dateLayout, l.ExpiryDate)
	if errStart == nil && errExpiry == nil && !expiry.After(start) {
		problems = append(problems, "expiry_date must be after start_date")
	}
	return problems
}

// Dates parses the lease dates. Call only on a validated payload.
func (l LeaseData) Dates() (start, expiry time.Time, contract *time.Time) {
	start, _ = time.Parse(dateLayout, l.StartDate)
	expiry, _ = time.Parse(dateLayout, l.ExpiryDate)
	if l.ContractDate != "" {
		if c, err := time.Parse(dateLayout, l.ContractDate); err == nil {
			contract = &c
		}
	}
	return start, expiry, contract
}

// DecodePayload strictly decodes raw into the payload type of step and
// validates it. Steps without a payload accept an empty body only.
func DecodePayload(step Step, raw []byte) (Payload, error) {
	raw = bytes.TrimSpace(raw)
	if !step.CarriesPayload() {
		if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
			return nil, nil
		}
		return nil, errors.InvalidPayload(fmt.Sprintf("step %s takes no payload", step))
	}
	if len(raw) == 0 {
		return nil, errors.InvalidPayload(fmt.Sprintf("step %s requires a payload", step))
	}

	var p Payload
	switch step {
	case StepParcel:
		var v ParcelData
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case StepOwner:
		var v OwnerData
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	case StepLease:
		var v LeaseData
		if err := decodeStrict(raw, &v); err != nil {
			return nil, err
		}
		p = v
	}

	if err := ValidatePayload(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidatePayload runs the tag rules and the domain checks of p.
func ValidatePayload(p Payload) error {
	problems := validation.FieldErrors(p)
	problems = append(problems, p.Check()...)
	if len(problems) > 0 {
		return errors.InvalidPayload(fmt.Sprintf("invalid %s payload", p.Step()), strings.Join(problems, "; "))
	}
	return nil
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidPayload("malformed payload", err.Error())
	}
	return nil
}
