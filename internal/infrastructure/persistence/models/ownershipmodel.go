package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParcelOwnerModel is an ownership edge. Closed edges keep is_active=false.
type ParcelOwnerModel struct {
	ID         uint            `gorm:"primaryKey"`
	ParcelID   uint            `gorm:"not null;index:idx_parcel_owner_active,priority:1"`
	OwnerID    uint            `gorm:"not null;index"`
	ShareRatio decimal.Decimal `gorm:"type:decimal(9,6);not null"`
	AcquiredAt time.Time
	IsActive   bool `gorm:"not null;default:true;index:idx_parcel_owner_active,priority:2"`
	Version    int  `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ParcelOwnerModel) TableName() string {
	return "parcel_owners"
}

type TransferHistoryModel struct {
	ID            uint                `gorm:"primaryKey"`
	ParcelID      uint                `gorm:"not null;index"`
	FromOwnerID   *uint               `gorm:"index"`
	ToOwnerID     uint                `gorm:"not null;index"`
	Share         decimal.Decimal     `gorm:"type:decimal(9,6);not null"`
	TransferType  string              `gorm:"size:20;not null"`
	Price         decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	Reference     string              `gorm:"size:200"`
	TransferredAt time.Time           `gorm:"not null;index"`
}

func (TransferHistoryModel) TableName() string {
	return "transfer_histories"
}
