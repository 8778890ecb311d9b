package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApprovalRequestModel persists a maker-checker request. PendingKey holds
// the session id only while the request is PENDING so the unique index
// allows one pending request per session.
type ApprovalRequestModel struct {
	ID              uint    `gorm:"primaryKey"`
	RequestID       string  `gorm:"uniqueIndex;size:32;not null;comment:Stripe-style ID: ar_xxx"`
	Action          string  `gorm:"size:40;not null"`
	EntityType      string  `gorm:"size:30;not null;index"`
	EntityID        string  `gorm:"size:64;index"`
	SessionID       *string `gorm:"size:32;index"`
	PendingKey      *string `gorm:"size:64;uniqueIndex"`
	Status          string  `gorm:"size:20;not null;index:idx_approval_inbox,priority:1"`
	MakerID         uint    `gorm:"not null;index"`
	MakerRole       string  `gorm:"size:40;not null"`
	ApproverRole    string  `gorm:"size:40;not null;index:idx_approval_inbox,priority:2"`
	SubAuthority    string  `gorm:"size:64"`
	RequestData     datatypes.JSON
	RejectionReason string `gorm:"type:text"`
	DecidedBy       *uint
	DecidedAt       *time.Time
	Version         int `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ApprovalRequestModel) TableName() string {
	return "approval_requests"
}

// BeforeSave keeps the one-pending-per-session guard in step with the status.
func (m *ApprovalRequestModel) BeforeSave(tx *gorm.DB) error {
	if m.Status == "PENDING" && m.SessionID != nil && *m.SessionID != "" {
		key := *m.SessionID
		m.PendingKey = &key
	} else {
		m.PendingKey = nil
	}
	return nil
}
