package owner

import (
	"fmt"
	"strings"
	"time"

	"github.com/landreg/cadastre/internal/shared/errors"
)

// Owner is a natural or legal person who can hold shares in parcels.
type Owner struct {
	id          uint
	fullName    string
	nationalID  string
	phoneNumber string
	tinNumber   string
	createdAt   time.Time
	updatedAt   time.Time
}

func NewOwner(fullName, nationalID, phoneNumber, tinNumber string) (*Owner, error) {
	fullName = strings.TrimSpace(fullName)
	nationalID = strings.TrimSpace(nationalID)
	phoneNumber = strings.TrimSpace(phoneNumber)

	if fullName == "" {
		return nil, errors.NewValidationError("full_name is required")
	}
	if nationalID == "" {
		return nil, errors.NewValidationError("national_id is required")
	}
	if phoneNumber == "" {
		return nil, errors.NewValidationError("phone_number is required")
	}

	now := time.Now().UTC()
	return &Owner{
		fullName:    fullName,
		nationalID:  nationalID,
		phoneNumber: phoneNumber,
		tinNumber:   strings.TrimSpace(tinNumber),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func ReconstructOwner(id uint, fullName, nationalID, phoneNumber, tinNumber string, createdAt, updatedAt time.Time) (*Owner, error) {
	if id == 0 {
		return nil, fmt.Errorf("owner ID cannot be zero")
	}
	return &Owner{
		id:          id,
		fullName:    fullName,
		nationalID:  nationalID,
		phoneNumber: phoneNumber,
		tinNumber:   tinNumber,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (o *Owner) ID() uint             { return o.id }
func (o *Owner) FullName() string     { return o.fullName }
func (o *Owner) NationalID() string   { return o.nationalID }
func (o *Owner) PhoneNumber() string  { return o.phoneNumber }
func (o *Owner) TINNumber() string    { return o.tinNumber }
func (o *Owner) CreatedAt() time.Time { return o.createdAt }
func (o *Owner) UpdatedAt() time.Time { return o.updatedAt }

func (o *Owner) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("owner ID is already set")
	}
	o.id = id
	return nil
}

// Matches reports whether an incoming registration describes this same
// person. The national id is the identity; the name must agree as well.
func (o *Owner) Matches(fullName, nationalID string) bool {
	return o.nationalID == strings.TrimSpace(nationalID) &&
		strings.EqualFold(o.fullName, strings.TrimSpace(fullName))
}
