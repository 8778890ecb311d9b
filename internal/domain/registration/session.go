package registration

import (
	"fmt"
	"strings"
	"time"

	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/parcel"
	"github.com/landreg/cadastre/internal/shared/errors"
)

// Session is a registration wizard draft owned by one user until merged.
type Session struct {
	id                uint
	sessionID         string
	status            Status
	currentStep       Step
	parcelData        *ParcelData
	ownerData         *OwnerData
	leaseData         *LeaseData
	documents         map[Step][]document.Handle
	userID            uint
	subAuthority      string
	createdAt         time.Time
	updatedAt         time.Time
	expiresAt         time.Time
	submittedAt       *time.Time
	approvalRequestID string
	rejectionReason   string
	mergedParcelID    *uint
	version           int
	baseVersion       int
}

func NewSession(sessionID string, userID uint, subAuthority string, ttl time.Duration, now time.Time) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be positive")
	}

	return &Session{
		sessionID:    sessionID,
		status:       StatusDraft,
		currentStep:  StepParcel,
		documents:    make(map[Step][]document.Handle),
		userID:       userID,
		subAuthority: subAuthority,
		createdAt:    now,
		updatedAt:    now,
		expiresAt:    now.Add(ttl),
		version:      1,
		baseVersion:  1,
	}, nil
}

// SessionState carries persisted fields into ReconstructSession.
type SessionState struct {
	ID                uint
	SessionID         string
	Status            Status
	CurrentStep       Step
	ParcelData        *ParcelData
	OwnerData         *OwnerData
	LeaseData         *LeaseData
	Documents         map[Step][]document.Handle
	UserID            uint
	SubAuthority      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpiresAt         time.Time
	SubmittedAt       *time.Time
	ApprovalRequestID string
	RejectionReason   string
	MergedParcelID    *uint
	Version           int
}

func ReconstructSession(st SessionState) (*Session, error) {
	if st.ID == 0 {
		return nil, fmt.Errorf("session row ID cannot be zero")
	}
	if !st.Status.IsValid() {
		return nil, fmt.Errorf("invalid session status: %s", st.Status)
	}
	docs := st.Documents
	if docs == nil {
		docs = make(map[Step][]document.Handle)
	}
	return &Session{
		id:                st.ID,
		sessionID:         st.SessionID,
		status:            st.Status,
		currentStep:       st.CurrentStep,
		parcelData:        st.ParcelData,
		ownerData:         st.OwnerData,
		leaseData:         st.LeaseData,
		documents:         docs,
		userID:            st.UserID,
		subAuthority:      st.SubAuthority,
		createdAt:         st.CreatedAt,
		updatedAt:         st.UpdatedAt,
		expiresAt:         st.ExpiresAt,
		submittedAt:       st.SubmittedAt,
		approvalRequestID: st.ApprovalRequestID,
		rejectionReason:   st.RejectionReason,
		mergedParcelID:    st.MergedParcelID,
		version:           st.Version,
		baseVersion:       st.Version,
	}, nil
}

func (s *Session) ID() uint                  { return s.id }
func (s *Session) SessionID() string         { return s.sessionID }
func (s *Session) Status() Status            { return s.status }
func (s *Session) CurrentStep() Step         { return s.currentStep }
func (s *Session) ParcelData() *ParcelData   { return s.parcelData }
func (s *Session) OwnerData() *OwnerData     { return s.ownerData }
func (s *Session) LeaseData() *LeaseData     { return s.leaseData }
func (s *Session) UserID() uint              { return s.userID }
func (s *Session) SubAuthority() string      { return s.subAuthority }
func (s *Session) CreatedAt() time.Time      { return s.createdAt }
func (s *Session) UpdatedAt() time.Time      { return s.updatedAt }
func (s *Session) ExpiresAt() time.Time      { return s.expiresAt }
func (s *Session) SubmittedAt() *time.Time   { return s.submittedAt }
func (s *Session) ApprovalRequestID() string { return s.approvalRequestID }
func (s *Session) RejectionReason() string   { return s.rejectionReason }
func (s *Session) MergedParcelID() *uint     { return s.mergedParcelID }
func (s *Session) Version() int              { return s.version }

// BaseVersion is the version the session was loaded at.
func (s *Session) BaseVersion() int { return s.baseVersion }

// MarkSaved records that the current version is persisted.
func (s *Session) MarkSaved() {
	s.baseVersion = s.version
}

func (s *Session) SetID(id uint) error {
	if s.id != 0 {
		return fmt.Errorf("session ID is already set")
	}
	s.id = id
	return nil
}

// Documents returns a copy of the handles attached to step.
func (s *Session) Documents(step Step) []document.Handle {
	return append([]document.Handle(nil), s.documents[step]...)
}

func (s *Session) AllDocuments() map[Step][]document.Handle {
	out := make(map[Step][]document.Handle, len(s.documents))
	for step, handles := range s.documents {
		out[step] = append([]document.Handle(nil), handles...)
	}
	return out
}

func (s *Session) IsLease() bool {
	return s.parcelData != nil && s.parcelData.TenureType.IsLease()
}

func (s *Session) IsOwnedBy(userID uint) bool {
	return s.userID == userID
}

// IsExpired reports whether a DRAFT is past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return s.status == StatusDraft && !now.Before(s.expiresAt)
}

// EnsureEditable fails unless steps and documents may still change.
func (s *Session) EnsureEditable(now time.Time) error {
	if !s.status.IsEditable() {
		return errors.NewStateError(fmt.Sprintf("session %s is %s and cannot be edited", s.sessionID, s.status))
	}
	if s.IsExpired(now) {
		return errors.Expired(fmt.Sprintf("session %s expired at %s", s.sessionID, s.expiresAt.Format(time.RFC3339)))
	}
	return nil
}

// SaveStep stores payload for step and moves current_step there. Saving
// extends the draft's expiry by ttl.
func (s *Session) SaveStep(step Step, payload Payload, ttl time.Duration, now time.Time) error {
	if err := s.EnsureEditable(now); err != nil {
		return err
	}

	if step.CarriesPayload() {
		if payload == nil || payload.Step() != step {
			return errors.InvalidPayload(fmt.Sprintf("step %s requires its own payload", step))
		}
	} else if payload != nil {
		return errors.InvalidPayload(fmt.Sprintf("step %s takes no payload", step))
	}

	switch p := payload.(type) {
	case ParcelData:
		s.parcelData = &p
		if !p.TenureType.IsLease() {
			s.leaseData = nil
		}
	case OwnerData:
		s.ownerData = &p
	case LeaseData:
		if !s.IsLease() {
			return errors.InvalidPayload("lease step only applies to LEASE tenure")
		}
		s.leaseData = &p
	}

	if !IsStepAvailable(s, step) {
		return errors.InvalidPayload(fmt.Sprintf("step %s is not available for this session", step))
	}

	s.currentStep = step
	s.expiresAt = now.Add(ttl)
	s.touch(now)
	return nil
}

// EnsureDocumentStep checks that step holds documents and currently applies.
func (s *Session) EnsureDocumentStep(step Step) error {
	if !step.CarriesDocuments() {
		return errors.InvalidPayload(fmt.Sprintf("step %s does not take documents", step))
	}
	if !IsStepAvailable(s, step) {
		return errors.InvalidPayload(fmt.Sprintf("step %s is not available for this session", step))
	}
	return nil
}

// ValidationResult lists what still blocks submission.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// Validate is a pure completeness check. Documents are optional.
func (s *Session) Validate() ValidationResult {
	missing := []string{}
	if s.parcelData == nil {
		missing = append(missing, "parcel_data is required")
	}
	if s.ownerData == nil {
		missing = append(missing, "owner_data is required")
	}
	if s.IsLease() && s.leaseData == nil {
		missing = append(missing, "lease_data is required for LEASE tenure")
	}
	return ValidationResult{Valid: len(missing) == 0, Missing: missing}
}

// reopen moves a REJECTED session back to DRAFT ahead of a resubmission.
func (s *Session) reopen(now time.Time) error {
	if s.status == StatusRejected {
		return s.transition(StatusDraft, now)
	}
	return nil
}

// MarkPending links requestID and parks the session for a checker.
func (s *Session) MarkPending(requestID string, now time.Time) error {
	if strings.TrimSpace(requestID) == "" {
		return fmt.Errorf("approval request ID is required")
	}
	if err := s.reopen(now); err != nil {
		return err
	}
	if err := s.transition(StatusPendingApproval, now); err != nil {
		return err
	}
	s.approvalRequestID = requestID
	s.rejectionReason = ""
	s.submittedAt = &now
	return nil
}

// MarkApproved records a checker's approval. Merging follows in the same
// transaction.
func (s *Session) MarkApproved(now time.Time) error {
	return s.transition(StatusApproved, now)
}

// MarkMerged records that the payload reached the canonical store, either
// directly from DRAFT/REJECTED (self-approval) or after approval.
func (s *Session) MarkMerged(parcelID uint, now time.Time) error {
	selfApproved := s.status.IsEditable()
	if err := s.reopen(now); err != nil {
		return err
	}
	if err := s.transition(StatusMerged, now); err != nil {
		return err
	}
	if selfApproved {
		s.submittedAt = &now
		s.approvalRequestID = ""
	}
	s.mergedParcelID = &parcelID
	return nil
}

func (s *Session) Reject(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errors.NewValidationError("a rejection reason is required")
	}
	if err := s.transition(StatusRejected, now); err != nil {
		return err
	}
	s.rejectionReason = reason
	return nil
}

// Expire closes a DRAFT whose expiry has passed.
func (s *Session) Expire(now time.Time) error {
	if !s.IsExpired(now) {
		return errors.NewStateError(fmt.Sprintf("session %s has not expired", s.sessionID))
	}
	return s.transition(StatusExpired, now)
}

// EnsureAbandonable allows only DRAFT sessions to be discarded by their owner.
func (s *Session) EnsureAbandonable() error {
	if s.status != StatusDraft {
		return errors.NewStateError(fmt.Sprintf("session %s is %s and cannot be abandoned", s.sessionID, s.status))
	}
	return nil
}

// Snapshot is the frozen payload handed to the approval workflow.
type Snapshot struct {
	SessionID    string                     `json:"session_id"`
	UserID       uint                       `json:"user_id"`
	SubAuthority string                     `json:"sub_authority"`
	Parcel       ParcelData                 `json:"parcel"`
	Owner        OwnerData                  `json:"owner"`
	Lease        *LeaseData                 `json:"lease,omitempty"`
	Documents    map[Step][]document.Handle `json:"documents,omitempty"`
}

// Snapshot freezes the payload. Call only on a valid session.
func (s *Session) Snapshot() (Snapshot, error) {
	if res := s.Validate(); !res.Valid {
		return Snapshot{}, errors.NotReady("session is incomplete", strings.Join(res.Missing, "; "))
	}
	snap := Snapshot{
		SessionID:    s.sessionID,
		UserID:       s.userID,
		SubAuthority: s.subAuthority,
		Parcel:       *s.parcelData,
		Owner:        *s.ownerData,
		Documents:    make(map[Step][]document.Handle),
	}
	if s.IsLease() {
		lease := *s.leaseData
		snap.Lease = &lease
	}
	for _, step := range AvailableSteps(s) {
		if handles := s.documents[step]; len(handles) > 0 {
			snap.Documents[step] = append([]document.Handle(nil), handles...)
		}
	}
	return snap, nil
}

// IsLease reports whether the frozen parcel is leasehold.
func (sn Snapshot) IsLease() bool {
	return sn.Parcel.TenureType == parcel.TenureLease
}

func (s *Session) transition(next Status, now time.Time) error {
	if !s.status.CanTransitionTo(next) {
		return errors.NewStateError(fmt.Sprintf("session %s cannot move from %s to %s", s.sessionID, s.status, next))
	}
	s.status = next
	s.touch(now)
	return nil
}

func (s *Session) touch(now time.Time) {
	s.updatedAt = now
	s.version = s.baseVersion + 1
}
