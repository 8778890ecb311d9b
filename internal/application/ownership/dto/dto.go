package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/landreg/cadastre/internal/domain/owner"
	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/parcel"
)

// ParcelResponse represents a parcel with its location and lineage
type ParcelResponse struct {
	ID           uint            `json:"id"`
	UPIN         string          `json:"upin"`
	FileNumber   string          `json:"file_number"`
	SubCity      string          `json:"sub_city"`
	Wereda       string          `json:"wereda"`
	Kebele       string          `json:"kebele,omitempty"`
	BlockNumber  string          `json:"block_number,omitempty"`
	ParcelNumber string          `json:"parcel_number,omitempty"`
	TotalAreaM2  decimal.Decimal `json:"total_area_m2"`
	LandUse      string          `json:"land_use"`
	TenureType   string          `json:"tenure_type"`
	Status       string          `json:"status"`
	ParentUPIN   string          `json:"parent_upin,omitempty"`
	RetiredAt    *time.Time      `json:"retired_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func ToParcelResponse(p *parcel.Parcel) *ParcelResponse {
	if p == nil {
		return nil
	}
	loc := p.Location()
	return &ParcelResponse{
		ID:           p.ID(),
		UPIN:         p.UPIN(),
		FileNumber:   p.FileNumber(),
		SubCity:      loc.SubCity,
		Wereda:       loc.Wereda,
		Kebele:       loc.Kebele,
		BlockNumber:  loc.BlockNumber,
		ParcelNumber: loc.ParcelNumber,
		TotalAreaM2:  p.TotalArea(),
		LandUse:      p.LandUse(),
		TenureType:   string(p.Tenure()),
		Status:       string(p.Status()),
		ParentUPIN:   p.ParentUPIN(),
		RetiredAt:    p.RetiredAt(),
		CreatedAt:    p.CreatedAt(),
	}
}

// OwnershipResponse is one active ownership edge joined with its owner
type OwnershipResponse struct {
	ID          uint            `json:"id"`
	ParcelID    uint            `json:"parcel_id"`
	OwnerID     uint            `json:"owner_id"`
	FullName    string          `json:"full_name,omitempty"`
	NationalID  string          `json:"national_id,omitempty"`
	PhoneNumber string          `json:"phone_number,omitempty"`
	ShareRatio  decimal.Decimal `json:"share_ratio"`
	AcquiredAt  time.Time       `json:"acquired_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func ToOwnershipResponse(e *ownership.ParcelOwner, o *owner.Owner) *OwnershipResponse {
	resp := &OwnershipResponse{
		ID:         e.ID(),
		ParcelID:   e.ParcelID(),
		OwnerID:    e.OwnerID(),
		ShareRatio: e.Share(),
		AcquiredAt: e.AcquiredAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
	if o != nil {
		resp.FullName = o.FullName()
		resp.NationalID = o.NationalID()
		resp.PhoneNumber = o.PhoneNumber()
	}
	return resp
}

// ParcelOwnershipResponse lists the current owners of a parcel
type ParcelOwnershipResponse struct {
	Parcel      *ParcelResponse      `json:"parcel"`
	Owners      []*OwnershipResponse `json:"owners"`
	Allocated   decimal.Decimal      `json:"allocated"`
	Unallocated decimal.Decimal      `json:"unallocated"`
}

type TransferHistoryResponse struct {
	ID            uint             `json:"id"`
	FromOwnerID   *uint            `json:"from_owner_id,omitempty"`
	ToOwnerID     uint             `json:"to_owner_id"`
	ShareRatio    decimal.Decimal  `json:"share_ratio"`
	TransferType  string           `json:"transfer_type"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Reference     string           `json:"reference,omitempty"`
	TransferredAt time.Time        `json:"transferred_at"`
}

func ToTransferHistoryResponses(list []*ownership.TransferHistory) []*TransferHistoryResponse {
	out := make([]*TransferHistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, &TransferHistoryResponse{
			ID:            h.ID,
			FromOwnerID:   h.FromOwnerID,
			ToOwnerID:     h.ToOwnerID,
			ShareRatio:    h.Share,
			TransferType:  string(h.TransferType),
			Price:         h.Price,
			Reference:     h.Reference,
			TransferredAt: h.TransferredAt,
		})
	}
	return out
}

type EncumbranceResponse struct {
	ID              uint       `json:"id"`
	ParcelID        uint       `json:"parcel_id"`
	Type            string     `json:"type"`
	IssuingEntity   string     `json:"issuing_entity"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	RegisteredAt    time.Time  `json:"registered_at"`
	ReleasedAt      *time.Time `json:"released_at,omitempty"`
}

func ToEncumbranceResponse(e *parcel.Encumbrance) *EncumbranceResponse {
	return &EncumbranceResponse{
		ID:              e.ID(),
		ParcelID:        e.ParcelID(),
		Type:            string(e.Type()),
		IssuingEntity:   e.IssuingEntity(),
		ReferenceNumber: e.ReferenceNumber(),
		Description:     e.Description(),
		Status:          string(e.Status()),
		RegisteredAt:    e.RegisteredAt(),
		ReleasedAt:      e.ReleasedAt(),
	}
}

func ToEncumbranceResponses(list []*parcel.Encumbrance) []*EncumbranceResponse {
	out := make([]*EncumbranceResponse, 0, len(list))
	for _, e := range list {
		out = append(out, ToEncumbranceResponse(e))
	}
	return out
}

// TransferResponse reports both sides of a transfer
type TransferResponse struct {
	ParcelID uint               `json:"parcel_id"`
	From     *OwnershipResponse `json:"from,omitempty"`
	To       *OwnershipResponse `json:"to"`
	Closed   bool               `json:"from_closed"`
}

type SubdivisionResponse struct {
	Parent   *ParcelResponse   `json:"parent"`
	Children []*ParcelResponse `json:"children"`
}

type RegistrationResponse struct {
	Parcel      *ParcelResponse    `json:"parcel"`
	OwnerID     uint               `json:"owner_id"`
	Ownership   *OwnershipResponse `json:"ownership"`
	HasLease    bool               `json:"has_lease"`
	LeaseExpiry *time.Time         `json:"lease_expiry,omitempty"`
}
