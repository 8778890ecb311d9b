package approval

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
)

// Request is a parked mutation waiting for a checker. Decided requests are
// kept as audit records and never reopened.
type Request struct {
	id              uint
	requestID       string
	action          Action
	entityType      EntityType
	entityID        string
	sessionID       string
	status          Status
	makerID         uint
	makerRole       authorization.UserRole
	approverRole    authorization.UserRole
	subAuthority    string
	requestData     json.RawMessage
	rejectionReason string
	decidedBy       *uint
	decidedAt       *time.Time
	createdAt       time.Time
	updatedAt       time.Time
	version         int
}

// NewRequest snapshots data for action on entityID. sessionID is empty for
// direct entity actions.
func NewRequest(
	requestID string,
	action Action,
	entityID string,
	sessionID string,
	maker authorization.Actor,
	approverRole authorization.UserRole,
	data any,
	now time.Time,
) (*Request, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request ID is required")
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("unknown action: %s", action)
	}
	if maker.IsZero() {
		return nil, fmt.Errorf("maker is required")
	}
	if approverRole == "" {
		return nil, fmt.Errorf("approver role is required")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot request data: %w", err)
	}

	return &Request{
		requestID:    requestID,
		action:       action,
		entityType:   action.EntityType(),
		entityID:     entityID,
		sessionID:    sessionID,
		status:       StatusPending,
		makerID:      maker.UserID,
		makerRole:    maker.Role,
		approverRole: approverRole,
		subAuthority: maker.SubAuthority,
		requestData:  raw,
		createdAt:    now,
		updatedAt:    now,
		version:      1,
	}, nil
}

// RequestState carries persisted fields into ReconstructRequest.
type RequestState struct {
	ID              uint
	RequestID       string
	Action          Action
	EntityType      EntityType
	EntityID        string
	SessionID       string
	Status          Status
	MakerID         uint
	MakerRole       authorization.UserRole
	ApproverRole    authorization.UserRole
	SubAuthority    string
	RequestData     json.RawMessage
	RejectionReason string
	DecidedBy       *uint
	DecidedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

func ReconstructRequest(st RequestState) (*Request, error) {
	if st.ID == 0 {
		return nil, fmt.Errorf("request row ID cannot be zero")
	}
	if !st.Status.IsValid() {
		return nil, fmt.Errorf("invalid request status: %s", st.Status)
	}
	return &Request{
		id:              st.ID,
		requestID:       st.RequestID,
		action:          st.Action,
		entityType:      st.EntityType,
		entityID:        st.EntityID,
		sessionID:       st.SessionID,
		status:          st.Status,
		makerID:         st.MakerID,
		makerRole:       st.MakerRole,
		approverRole:    st.ApproverRole,
		subAuthority:    st.SubAuthority,
		requestData:     st.RequestData,
		rejectionReason: st.RejectionReason,
		decidedBy:       st.DecidedBy,
		decidedAt:       st.DecidedAt,
		createdAt:       st.CreatedAt,
		updatedAt:       st.UpdatedAt,
		version:         st.Version,
	}, nil
}

func (r *Request) ID() uint                             { return r.id }
func (r *Request) RequestID() string                    { return r.requestID }
func (r *Request) Action() Action                       { return r.action }
func (r *Request) EntityType() EntityType               { return r.entityType }
func (r *Request) EntityID() string                     { return r.entityID }
func (r *Request) SessionID() string                    { return r.sessionID }
func (r *Request) Status() Status                       { return r.status }
func (r *Request) MakerID() uint                        { return r.makerID }
func (r *Request) MakerRole() authorization.UserRole    { return r.makerRole }
func (r *Request) ApproverRole() authorization.UserRole { return r.approverRole }
func (r *Request) SubAuthority() string                 { return r.subAuthority }
func (r *Request) RequestData() json.RawMessage         { return r.requestData }
func (r *Request) RejectionReason() string              { return r.rejectionReason }
func (r *Request) DecidedBy() *uint                     { return r.decidedBy }
func (r *Request) DecidedAt() *time.Time                { return r.decidedAt }
func (r *Request) CreatedAt() time.Time                 { return r.createdAt }
func (r *Request) UpdatedAt() time.Time                 { return r.updatedAt }
func (r *Request) Version() int                         { return r.version }

func (r *Request) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("request ID is already set")
	}
	r.id = id
	return nil
}

// DecodeData unmarshals the snapshot into v.
func (r *Request) DecodeData(v any) error {
	if err := json.Unmarshal(r.requestData, v); err != nil {
		return fmt.Errorf("failed to decode request %s data: %w", r.requestID, err)
	}
	return nil
}

// EnsureDecidableBy checks that checker may decide this request.
func (r *Request) EnsureDecidableBy(checker authorization.Actor) error {
	if !r.status.IsPending() {
		return errors.NewStateError(fmt.Sprintf("request %s is already %s", r.requestID, r.status))
	}
	if checker.UserID == r.makerID {
		return errors.NewForbiddenError("the maker of a request cannot decide it")
	}
	return nil
}

func (r *Request) Approve(checker authorization.Actor, now time.Time) error {
	if err := r.EnsureDecidableBy(checker); err != nil {
		return err
	}
	r.decide(StatusApproved, checker, now)
	return nil
}

func (r *Request) Reject(checker authorization.Actor, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.NewValidationError("a rejection reason is required")
	}
	if err := r.EnsureDecidableBy(checker); err != nil {
		return err
	}
	r.decide(StatusRejected, checker, now)
	r.rejectionReason = reason
	return nil
}

func (r *Request) decide(status Status, checker authorization.Actor, now time.Time) {
	uid := checker.UserID
	r.status = status
	r.decidedBy = &uid
	r.decidedAt = &now
	r.updatedAt = now
	r.version++
}
