package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RegistrationSessionModel persists a wizard draft. OpenDraftKey holds the
// user id only while the row is a DRAFT so the unique index allows one open
// draft per user.
type RegistrationSessionModel struct {
	ID                uint   `gorm:"primaryKey"`
	SessionID         string `gorm:"uniqueIndex;size:32;not null;comment:Stripe-style ID: rs_xxx"`
	Status            string `gorm:"size:20;not null;index"`
	CurrentStep       string `gorm:"size:20;not null"`
	ParcelData        datatypes.JSON
	OwnerData         datatypes.JSON
	LeaseData         datatypes.JSON
	UserID            uint   `gorm:"not null;index"`
	SubAuthority      string `gorm:"size:64;index"`
	OpenDraftKey      *uint  `gorm:"uniqueIndex"`
	ApprovalRequestID string `gorm:"size:32"`
	RejectionReason   string `gorm:"type:text"`
	MergedParcelID    *uint
	ExpiresAt         time.Time `gorm:"not null;index"`
	SubmittedAt       *time.Time
	Version           int `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (RegistrationSessionModel) TableName() string {
	return "registration_sessions"
}

// BeforeSave keeps the open-draft guard in step with the status.
func (m *RegistrationSessionModel) BeforeSave(tx *gorm.DB) error {
	if m.Status == "DRAFT" {
		uid := m.UserID
		m.OpenDraftKey = &uid
	} else {
		m.OpenDraftKey = nil
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}

type SessionDocumentModel struct {
	ID           uint      `gorm:"primaryKey"`
	SessionRowID uint      `gorm:"not null;uniqueIndex:uk_session_step_handle,priority:1"`
	Step         string    `gorm:"size:20;not null;uniqueIndex:uk_session_step_handle,priority:2"`
	HandleID     string    `gorm:"size:64;not null;uniqueIndex:uk_session_step_handle,priority:3"`
	URL          string    `gorm:"column:url;size:1024;not null"`
	Name         string    `gorm:"size:255;not null"`
	UploadedAt   time.Time `gorm:"not null"`
	CreatedAt    time.Time
}

func (SessionDocumentModel) TableName() string {
	return "session_documents"
}
