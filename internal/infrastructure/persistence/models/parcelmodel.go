package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ParcelModel struct {
	ID            uint            `gorm:"primaryKey"`
	UPIN          string          `gorm:"column:upin;uniqueIndex;size:64;not null"`
	FileNumber    string          `gorm:"size:64;not null;index"`
	SubCity       string          `gorm:"size:100;not null;index:idx_parcel_location,priority:1"`
	Wereda        string          `gorm:"size:50;not null;index:idx_parcel_location,priority:2"`
	Kebele        string          `gorm:"size:50"`
	BlockNumber   string          `gorm:"size:50"`
	ParcelNumber  string          `gorm:"size:50"`
	TotalAreaM2   decimal.Decimal `gorm:"column:total_area_m2;type:decimal(14,4);not null"`
	LandUse       string          `gorm:"size:50;not null"`
	TenureType    string          `gorm:"size:20;not null"`
	BoundaryNorth string          `gorm:"size:255"`
	BoundaryEast  string          `gorm:"size:255"`
	BoundarySouth string          `gorm:"size:255"`
	BoundaryWest  string          `gorm:"size:255"`
	Geometry      datatypes.JSON
	Status        string     `gorm:"size:20;not null;index"`
	ParentUPIN    string     `gorm:"column:parent_upin;size:64;index"`
	RetiredAt     *time.Time
	Version       int `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ParcelModel) TableName() string {
	return "parcels"
}

type EncumbranceModel struct {
	ID              uint   `gorm:"primaryKey"`
	ParcelID        uint   `gorm:"not null;index"`
	Type            string `gorm:"size:30;not null"`
	IssuingEntity   string `gorm:"size:200;not null"`
	ReferenceNumber string `gorm:"size:100"`
	Description     string `gorm:"type:text"`
	Status          string `gorm:"size:20;not null;index"`
	RegisteredAt    time.Time
	ReleasedAt      *time.Time
}

func (EncumbranceModel) TableName() string {
	return "encumbrances"
}

type LeaseAgreementModel struct {
	ID               uint            `gorm:"primaryKey"`
	ParcelID         uint            `gorm:"not null;uniqueIndex"`
	LeasedAreaM2     decimal.Decimal `gorm:"column:leased_area_m2;type:decimal(14,4);not null"`
	TotalLeaseAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DownPayment      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StartDate        time.Time
	ExpiryDate       time.Time
	ContractDate     *time.Time
	Status           string `gorm:"size:20;not null"`
	CreatedAt        time.Time
}

func (LeaseAgreementModel) TableName() string {
	return "lease_agreements"
}
