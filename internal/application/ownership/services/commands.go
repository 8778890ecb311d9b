package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/errors"
)

// Commands are stored verbatim as approval snapshots, so every field is
// JSON-tagged and Validate must not consult the store.

// OwnerRef names an existing owner by id or describes a person to register.
// A person whose national id is already registered resolves to that owner.
type OwnerRef struct {
	OwnerID     *uint  `json:"owner_id,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	NationalID  string `json:"national_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	TINNumber   string `json:"tin_number,omitempty"`
}

func (o OwnerRef) Validate() error {
	if o.OwnerID != nil {
		if *o.OwnerID == 0 {
			return errors.InvalidPayload("owner_id must be a positive id")
		}
		return nil
	}
	if strings.TrimSpace(o.NationalID) == "" || strings.TrimSpace(o.FullName) == "" {
		return errors.InvalidPayload("owner_id or full_name and national_id are required")
	}
	if strings.TrimSpace(o.PhoneNumber) == "" {
		return errors.InvalidPayload("phone_number is required for a new owner")
	}
	return nil
}

func ownerRefFrom(d registration.OwnerData) OwnerRef {
	return OwnerRef{
		OwnerID:     d.OwnerID,
		FullName:    d.FullName,
		NationalID:  d.NationalID,
		PhoneNumber: d.PhoneNumber,
		TINNumber:   d.TINNumber,
	}
}

// RegisterParcelCommand creates a parcel with its first owner, as frozen by
// a registration session.
type RegisterParcelCommand struct {
	Parcel registration.ParcelData `json:"parcel"`
	Owner  registration.OwnerData  `json:"owner"`
	Lease  *registration.LeaseData `json:"lease,omitempty"`
}

// RegisterParcelCommandFrom converts a session snapshot.
func RegisterParcelCommandFrom(snap registration.Snapshot) RegisterParcelCommand {
	return RegisterParcelCommand{
		Parcel: snap.Parcel,
		Owner:  snap.Owner,
		Lease:  snap.Lease,
	}
}

func (c RegisterParcelCommand) Validate() error {
	if err := registration.ValidatePayload(c.Parcel); err != nil {
		return err
	}
	if err := registration.ValidatePayload(c.Owner); err != nil {
		return err
	}
	if c.Parcel.TenureType.IsLease() {
		if c.Lease == nil {
			return errors.InvalidPayload("lease terms are required for LEASE tenure")
		}
		if err := registration.ValidatePayload(*c.Lease); err != nil {
			return err
		}
	}
	return nil
}

// LinkOwnerCommand adds an owner to a parcel from its unallocated share.
type LinkOwnerCommand struct {
	UPIN       string          `json:"upin"`
	Owner      OwnerRef        `json:"owner"`
	Share      decimal.Decimal `json:"share"`
	AcquiredAt *time.Time      `json:"acquired_at,omitempty"`
}

func (c LinkOwnerCommand) Validate() error {
	if strings.TrimSpace(c.UPIN) == "" {
		return errors.InvalidPayload("upin is required")
	}
	if err := ownership.ValidateShare(c.Share); err != nil {
		return err
	}
	return c.Owner.Validate()
}

// TransferCommand moves share from one owner to another. A nil FromOwnerID
// allocates from the unallocated pool.
type TransferCommand struct {
	UPIN         string                 `json:"upin"`
	FromOwnerID  *uint                  `json:"from_owner_id,omitempty"`
	To           OwnerRef               `json:"to"`
	Share        decimal.Decimal        `json:"share"`
	TransferType ownership.TransferType `json:"transfer_type"`
	Price        *decimal.Decimal       `json:"price,omitempty"`
	Reference    string                 `json:"reference,omitempty"`
}

func (c TransferCommand) Validate() error {
	if strings.TrimSpace(c.UPIN) == "" {
		return errors.InvalidPayload("upin is required")
	}
	if !c.TransferType.IsUserSelectable() {
		return errors.InvalidPayload(fmt.Sprintf("transfer type %q is not allowed", c.TransferType))
	}
	if err := ownership.ValidateShare(c.Share); err != nil {
		return err
	}
	if c.Price != nil && c.Price.IsNegative() {
		return errors.InvalidPayload("price must not be negative")
	}
	return c.To.Validate()
}

type ChildParcel struct {
	UPIN          string          `json:"upin"`
	FileNumber    string          `json:"file_number,omitempty"`
	AreaM2        decimal.Decimal `json:"area_m2"`
	SubCity       string          `json:"sub_city,omitempty"`
	Wereda        string          `json:"wereda,omitempty"`
	Kebele        string          `json:"kebele,omitempty"`
	BlockNumber   string          `json:"block_number,omitempty"`
	ParcelNumber  string          `json:"parcel_number,omitempty"`
	LandUse       string          `json:"land_use,omitempty"`
	BoundaryNorth string          `json:"boundary_north,omitempty"`
	BoundaryEast  string          `json:"boundary_east,omitempty"`
	BoundarySouth string          `json:"boundary_south,omitempty"`
	BoundaryWest  string          `json:"boundary_west,omitempty"`
}

func (c ChildParcel) spec() parcel.ChildSpec {
	spec := parcel.ChildSpec{
		UPIN:       strings.TrimSpace(c.UPIN),
		FileNumber: c.FileNumber,
		Area:       c.AreaM2,
		Location: parcel.Location{
			SubCity:      c.SubCity,
			Wereda:       c.Wereda,
			Kebele:       c.Kebele,
			BlockNumber:  c.BlockNumber,
			ParcelNumber: c.ParcelNumber,
		},
		LandUse: c.LandUse,
	}
	b := parcel.Boundary{North: c.BoundaryNorth, East: c.BoundaryEast, South: c.BoundarySouth, West: c.BoundaryWest}
	if b.North != "" || b.East != "" || b.South != "" || b.West != "" {
		spec.Boundary = &b
	}
	return spec
}

type SubdivideCommand struct {
	ParentUPIN string        `json:"parent_upin"`
	Children   []ChildParcel `json:"children"`
}

func (c SubdivideCommand) Validate() error {
	parentUPIN := strings.TrimSpace(c.ParentUPIN)
	if parentUPIN == "" {
		return errors.InvalidPayload("parent_upin is required")
	}
	if len(c.Children) < 2 {
		return errors.InvalidPayload("a subdivision needs at least two children")
	}
	for _, child := range c.Children {
		if strings.TrimSpace(child.UPIN) == parentUPIN {
			return errors.DuplicateChildUPIN(fmt.Sprintf("child upin %s equals the parent", parentUPIN))
		}
	}
	return nil
}

func (c SubdivideCommand) specs() []parcel.ChildSpec {
	out := make([]parcel.ChildSpec, 0, len(c.Children))
	for _, child := range c.Children {
		out = append(out, child.spec())
	}
	return out
}

// UPINs lists the parent and every child, for locking.
func (c SubdivideCommand) UPINs() []string {
	out := []string{strings.TrimSpace(c.ParentUPIN)}
	for _, child := range c.Children {
		out = append(out, strings.TrimSpace(child.UPIN))
	}
	return out
}

type UpdateShareCommand struct {
	OwnershipID uint            `json:"ownership_id"`
	Share       decimal.Decimal `json:"share"`
}

func (c UpdateShareCommand) Validate() error {
	if c.OwnershipID == 0 {
		return errors.InvalidPayload("ownership_id is required")
	}
	return ownership.ValidateShare(c.Share)
}

type EncumbranceCommand struct {
	UPIN            string                 `json:"upin"`
	Type            parcel.EncumbranceType `json:"type"`
	IssuingEntity   string                 `json:"issuing_entity"`
	ReferenceNumber string                 `json:"reference_number,omitempty"`
	Description     string                 `json:"description,omitempty"`
}

func (c EncumbranceCommand) Validate() error {
	if strings.TrimSpace(c.UPIN) == "" {
		return errors.InvalidPayload("upin is required")
	}
	if !c.Type.IsValid() {
		return errors.InvalidPayload(fmt.Sprintf("encumbrance type %q is not supported", c.Type))
	}
	if strings.TrimSpace(c.IssuingEntity) == "" {
		return errors.InvalidPayload("issuing_entity is required")
	}
	return nil
}

type ReleaseEncumbranceCommand struct {
	EncumbranceID uint `json:"encumbrance_id"`
}

func (c ReleaseEncumbranceCommand) Validate() error {
	if c.EncumbranceID == 0 {
		return errors.InvalidPayload("encumbrance id is required")
	}
	return nil
}
