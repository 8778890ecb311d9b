package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/id"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// SubmitSessionUseCase hands a complete draft to the approval router. A
// maker who may self-approve merges the registration immediately; anyone
// else parks it as a pending request for the approver role.
type SubmitSessionUseCase struct {
	sessions        registration.Repository
	approvals       approval.Repository
	policy          approval.Policy
	engine          *services.Engine
	tx              common.Transactor
	publisher       events.EventPublisher
	logger          logger.Interface
	requireRejected bool
	now             func() time.Time
}

func NewSubmitSessionUseCase(
	sessions registration.Repository,
	approvals approval.Repository,
	policy approval.Policy,
	engine *services.Engine,
	tx common.Transactor,
	publisher events.EventPublisher,
	logger logger.Interface,
) *SubmitSessionUseCase {
	return &SubmitSessionUseCase{
		sessions:  sessions,
		approvals: approvals,
		policy:    policy,
		engine:    engine,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

// NewResubmitSessionUseCase accepts REJECTED sessions only. Every
// resubmission creates a new request; the rejected one stays as history.
func NewResubmitSessionUseCase(
	sessions registration.Repository,
	approvals approval.Repository,
	policy approval.Policy,
	engine *services.Engine,
	tx common.Transactor,
	publisher events.EventPublisher,
	logger logger.Interface,
) *SubmitSessionUseCase {
	uc := NewSubmitSessionUseCase(sessions, approvals, policy, engine, tx, publisher, logger)
	uc.requireRejected = true
	return uc
}

func (uc *SubmitSessionUseCase) Execute(ctx context.Context, actor authorization.Actor, sessionID string) (*dto.SubmitResponse, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}

	// The UPIN is read outside the transaction only to pick the lock.
	current, err := uc.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var upins []string
	if pd := current.ParcelData(); pd != nil {
		upins = append(upins, pd.UPIN)
	}

	var (
		resp      *dto.SubmitResponse
		published []events.DomainEvent
	)
	err = ownership.WithParcelLocks(ctx, uc.engine.Locker(), upins, func(ctx context.Context) error {
		return uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			resp, published, err = uc.submit(ctx, actor, sessionID)
			return err
		})
	})
	if err != nil {
		uc.logger.Warnw("registration submission failed",
			"session_id", sessionID,
			"user_id", actor.UserID,
			"error", err,
		)
		return nil, err
	}

	common.PublishAll(ctx, uc.publisher, uc.logger, published...)
	uc.logger.Infow("registration submitted",
		"session_id", sessionID,
		"requires_approval", resp.RequiresApproval,
		"approval_request_id", resp.ApprovalRequestID,
	)
	return resp, nil
}

func (uc *SubmitSessionUseCase) submit(ctx context.Context, actor authorization.Actor, sessionID string) (*dto.SubmitResponse, []events.DomainEvent, error) {
	s, err := uc.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !s.IsOwnedBy(actor.UserID) {
		return nil, nil, errors.NewForbiddenError("only the session's maker can submit it")
	}

	now := uc.now()
	if s.Status() == registration.StatusPendingApproval {
		pending, err := uc.approvals.FindPendingBySession(ctx, s.SessionID())
		if err != nil {
			return nil, nil, err
		}
		if pending != nil {
			return nil, nil, errors.DuplicateRequest(
				fmt.Sprintf("session %s already has pending request %s", s.SessionID(), pending.RequestID()))
		}
	}
	if uc.requireRejected && s.Status() != registration.StatusRejected {
		return nil, nil, errors.NewStateError(fmt.Sprintf("session %s is %s; only rejected sessions can be resubmitted", s.SessionID(), s.Status()))
	}
	if err := s.EnsureEditable(now); err != nil {
		return nil, nil, err
	}

	snap, err := s.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	if _, err := uc.engine.GetParcel(ctx, snap.Parcel.UPIN); err == nil {
		return nil, nil, errors.DuplicateUPIN(fmt.Sprintf("parcel %s is already registered", snap.Parcel.UPIN))
	} else if !errors.IsNotFoundError(err) {
		return nil, nil, err
	}

	needsApproval, err := uc.policy.RequiresApproval(ctx, actor, approval.ActionRegisterParcel)
	if err != nil {
		return nil, nil, err
	}

	if !needsApproval {
		result, err := uc.engine.RegisterParcel(ctx, services.RegisterParcelCommandFrom(snap))
		if err != nil {
			return nil, nil, err
		}
		parcelID := result.Parcel.ID()
		if err := s.MarkMerged(parcelID, now); err != nil {
			return nil, nil, err
		}
		if err := uc.sessions.Update(ctx, s); err != nil {
			return nil, nil, err
		}

		evt := events.NewWorkflowEvent(events.EventRegistrationMerged, s.SessionID(), now)
		evt.SessionID = s.SessionID()
		evt.EntityType = string(approval.EntityRegistrationSession)
		evt.Status = s.Status().String()
		evt.ActorID = actor.UserID
		evt.SubAuthority = s.SubAuthority()
		return &dto.SubmitResponse{
			SessionID:        s.SessionID(),
			Status:           s.Status().String(),
			RequiresApproval: false,
			ParcelID:         &parcelID,
		}, []events.DomainEvent{evt}, nil
	}

	approverRole, err := uc.policy.ApproverRoleFor(ctx, actor, approval.ActionRegisterParcel)
	if err != nil {
		return nil, nil, err
	}
	rid, err := id.NewRequestID()
	if err != nil {
		return nil, nil, err
	}
	req, err := approval.NewRequest(rid, approval.ActionRegisterParcel, snap.Parcel.UPIN, s.SessionID(), actor, approverRole, snap, now)
	if err != nil {
		return nil, nil, err
	}
	if err := uc.approvals.Create(ctx, req); err != nil {
		return nil, nil, err
	}
	if err := s.MarkPending(rid, now); err != nil {
		return nil, nil, err
	}
	if err := uc.sessions.Update(ctx, s); err != nil {
		return nil, nil, err
	}

	return &dto.SubmitResponse{
		SessionID:         s.SessionID(),
		Status:            s.Status().String(),
		RequiresApproval:  true,
		ApprovalRequestID: rid,
	}, []events.DomainEvent{requestedEvent(req, now)}, nil
}

func requestedEvent(req *approval.Request, now time.Time) events.WorkflowEvent {
	evt := events.NewWorkflowEvent(events.EventApprovalRequested, req.RequestID(), now)
	evt.SessionID = req.SessionID()
	evt.RequestID = req.RequestID()
	evt.EntityType = string(req.EntityType())
	evt.Status = string(req.Status())
	evt.ApproverRole = string(req.ApproverRole())
	evt.ActorID = req.MakerID()
	evt.SubAuthority = req.SubAuthority()
	return evt
}
