package dto

import (
	"encoding/json"
	"time"

	"github.com/landreg/cadastre/internal/domain/approval"
)

// RequestResponse is the checker's view of an approval request
type RequestResponse struct {
	RequestID       string          `json:"request_id"`
	Action          string          `json:"action"`
	EntityType      string          `json:"entity_type"`
	EntityID        string          `json:"entity_id,omitempty"`
	SessionID       string          `json:"session_id,omitempty"`
	Status          string          `json:"status"`
	MakerID         uint            `json:"maker_id"`
	MakerRole       string          `json:"maker_role"`
	ApproverRole    string          `json:"approver_role"`
	SubAuthority    string          `json:"sub_authority,omitempty"`
	RequestData     json.RawMessage `json:"request_data,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	DecidedBy       *uint           `json:"decided_by,omitempty"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func ToRequestResponse(r *approval.Request, withData bool) *RequestResponse {
	resp := &RequestResponse{
		RequestID:       r.RequestID(),
		Action:          string(r.Action()),
		EntityType:      string(r.EntityType()),
		EntityID:        r.EntityID(),
		SessionID:       r.SessionID(),
		Status:          string(r.Status()),
		MakerID:         r.MakerID(),
		MakerRole:       string(r.MakerRole()),
		ApproverRole:    string(r.ApproverRole()),
		SubAuthority:    r.SubAuthority(),
		RejectionReason: r.RejectionReason(),
		DecidedBy:       r.DecidedBy(),
		DecidedAt:       r.DecidedAt(),
		CreatedAt:       r.CreatedAt(),
	}
	if withData {
		resp.RequestData = r.RequestData()
	}
	return resp
}

type ListPendingRequest struct {
	EntityType string `form:"entity_type"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

type ListPendingResponse struct {
	Requests []*RequestResponse `json:"requests"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// SubmitResponse tells the clerk whether the registration went straight in
// or is waiting for a checker.
type SubmitResponse struct {
	SessionID         string `json:"session_id"`
	Status            string `json:"status"`
	RequiresApproval  bool   `json:"requires_approval"`
	ApprovalRequestID string `json:"approval_request_id,omitempty"`
	ParcelID          *uint  `json:"parcel_id,omitempty"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Reason   string `json:"reason" binding:"max=1000"`
}

type DecisionResponse struct {
	Request *RequestResponse `json:"request"`
	Result  any              `json:"result,omitempty"`
}

// GatedResponse answers a direct ownership mutation: either its result or
// the request it was parked as.
type GatedResponse struct {
	RequiresApproval  bool   `json:"requires_approval"`
	ApprovalRequestID string `json:"approval_request_id,omitempty"`
	Result            any    `json:"result,omitempty"`
}
