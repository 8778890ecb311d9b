package dto

import (
	"time"

	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/registration"
)

// SessionResponse is the full view of a registration draft
type SessionResponse struct {
	SessionID         string                       `json:"session_id"`
	Status            string                       `json:"status"`
	CurrentStep       string                       `json:"current_step"`
	AvailableSteps    []string                     `json:"available_steps"`
	ParcelData        *registration.ParcelData     `json:"parcel_data,omitempty"`
	OwnerData         *registration.OwnerData      `json:"owner_data,omitempty"`
	LeaseData         *registration.LeaseData      `json:"lease_data,omitempty"`
	Documents         map[string][]document.Handle `json:"documents"`
	SubAuthority      string                       `json:"sub_authority,omitempty"`
	ApprovalRequestID string                       `json:"approval_request_id,omitempty"`
	RejectionReason   string                       `json:"rejection_reason,omitempty"`
	MergedParcelID    *uint                        `json:"merged_parcel_id,omitempty"`
	ExpiresAt         time.Time                    `json:"expires_at"`
	SubmittedAt       *time.Time                   `json:"submitted_at,omitempty"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

func ToSessionResponse(s *registration.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	docs := make(map[string][]document.Handle)
	for step, handles := range s.AllDocuments() {
		if len(handles) > 0 {
			docs[step.String()] = handles
		}
	}
	return &SessionResponse{
		SessionID:         s.SessionID(),
		Status:            s.Status().String(),
		CurrentStep:       s.CurrentStep().String(),
		AvailableSteps:    StepNames(registration.AvailableSteps(s)),
		ParcelData:        s.ParcelData(),
		OwnerData:         s.OwnerData(),
		LeaseData:         s.LeaseData(),
		Documents:         docs,
		SubAuthority:      s.SubAuthority(),
		ApprovalRequestID: s.ApprovalRequestID(),
		RejectionReason:   s.RejectionReason(),
		MergedParcelID:    s.MergedParcelID(),
		ExpiresAt:         s.ExpiresAt(),
		SubmittedAt:       s.SubmittedAt(),
		CreatedAt:         s.CreatedAt(),
		UpdatedAt:         s.UpdatedAt(),
	}
}

// SessionSummary is one row of a session listing
type SessionSummary struct {
	SessionID      string    `json:"session_id"`
	Status         string    `json:"status"`
	CurrentStep    string    `json:"current_step"`
	UPIN           string    `json:"upin,omitempty"`
	MergedParcelID *uint     `json:"merged_parcel_id,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListSessionsRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ListSessionsResponse struct {
	Sessions []*SessionSummary `json:"sessions"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func ToSessionSummaries(list []*registration.Session) []*SessionSummary {
	out := make([]*SessionSummary, 0, len(list))
	for _, s := range list {
		row := &SessionSummary{
			SessionID:      s.SessionID(),
			Status:         s.Status().String(),
			CurrentStep:    s.CurrentStep().String(),
			MergedParcelID: s.MergedParcelID(),
			ExpiresAt:      s.ExpiresAt(),
			UpdatedAt:      s.UpdatedAt(),
		}
		if p := s.ParcelData(); p != nil {
			row.UPIN = p.UPIN
		}
		out = append(out, row)
	}
	return out
}

// ValidationResponse answers the validation step
type ValidationResponse struct {
	Valid          bool     `json:"valid"`
	Missing        []string `json:"missing"`
	AvailableSteps []string `json:"available_steps"`
}

// DocumentResponse is the attached handle plus the list it now belongs to
type DocumentResponse struct {
	Step     string            `json:"step"`
	Handle   document.Handle   `json:"handle"`
	Attached bool              `json:"attached"`
	Handles  []document.Handle `json:"handles"`
}

func StepNames(steps []registration.Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.String())
	}
	return out
}
