package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
)

type DecideCommand struct {
	RequestID string
	Decision  approval.Decision
	Reason    string
}

// DecideRequestUseCase records a checker's decision. Approving replays the
// snapshot through the ownership engine in the same transaction; if the
// snapshot no longer applies nothing changes and the request stays pending.
type DecideRequestUseCase struct {
	approvals approval.Repository
	sessions  registration.Repository
	policy    approval.Policy
	applier   *Applier
	locker    ownership.ParcelLocker
	tx        common.Transactor
	publisher events.EventPublisher
	logger    logger.Interface
	now       func() time.Time
}

func NewDecideRequestUseCase(
	approvals approval.Repository,
	sessions registration.Repository,
	policy approval.Policy,
	applier *Applier,
	locker ownership.ParcelLocker,
	tx common.Transactor,
	publisher events.EventPublisher,
	logger logger.Interface,
) *DecideRequestUseCase {
	return &DecideRequestUseCase{
		approvals: approvals,
		sessions:  sessions,
		policy:    policy,
		applier:   applier,
		locker:    locker,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

func (uc *DecideRequestUseCase) Execute(ctx context.Context, actor authorization.Actor, cmd DecideCommand) (*dto.DecisionResponse, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}
	if !cmd.Decision.IsValid() {
		return nil, errors.NewValidationError(fmt.Sprintf("decision must be %s or %s", approval.DecisionApprove, approval.DecisionReject))
	}
	if cmd.Decision == approval.DecisionReject && strings.TrimSpace(cmd.Reason) == "" {
		return nil, errors.NewValidationError("a rejection reason is required")
	}

	req, err := uc.approvals.GetByRequestID(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}
	if err := req.EnsureDecidableBy(actor); err != nil {
		return nil, err
	}
	if err := authorizeChecker(ctx, uc.policy, actor, req); err != nil {
		return nil, err
	}

	var (
		command Command
		keys    []string
	)
	if cmd.Decision == approval.DecisionApprove {
		command, err = uc.applier.Decode(req)
		if err != nil {
			return nil, err
		}
		keys = uc.applier.LockKeys(ctx, command)
	}

	var (
		resp      *dto.DecisionResponse
		published []events.DomainEvent
	)
	err = ownership.WithParcelLocks(ctx, uc.locker, keys, func(ctx context.Context) error {
		return uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			if cmd.Decision == approval.DecisionApprove {
				resp, published, err = uc.approve(ctx, actor, cmd.RequestID, command)
			} else {
				resp, published, err = uc.reject(ctx, actor, cmd.RequestID, cmd.Reason)
			}
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	common.PublishAll(ctx, uc.publisher, uc.logger, published...)
	uc.logger.Infow("approval request decided",
		"request_id", cmd.RequestID,
		"decision", cmd.Decision,
		"checker_id", actor.UserID,
	)
	return resp, nil
}

func (uc *DecideRequestUseCase) approve(ctx context.Context, actor authorization.Actor, requestID string, command Command) (*dto.DecisionResponse, []events.DomainEvent, error) {
	now := uc.now()
	req, err := uc.approvals.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	// Claim the request first so a concurrent decision loses on its version.
	if err := req.Approve(actor, now); err != nil {
		return nil, nil, err
	}
	if err := uc.approvals.Update(ctx, req); err != nil {
		return nil, nil, err
	}

	outcome, err := uc.applier.ApplyCommand(ctx, command)
	if err != nil {
		if errors.IsBusinessRuleError(err) {
			uc.logger.Errorw("approved request no longer applies",
				"request_id", requestID,
				"action", req.Action(),
				"entity_id", req.EntityID(),
				"error", err,
			)
			return nil, nil, errors.StaleRequest(
				fmt.Sprintf("request %s no longer applies to the current records", requestID), err.Error())
		}
		return nil, nil, err
	}

	published := []events.DomainEvent{decidedEvent(req, actor, now)}
	if req.SessionID() != "" {
		s, err := uc.sessions.GetBySessionID(ctx, req.SessionID())
		if err != nil {
			return nil, nil, err
		}
		if err := s.MarkApproved(now); err != nil {
			return nil, nil, err
		}
		if err := s.MarkMerged(outcome.ParcelID, now); err != nil {
			return nil, nil, err
		}
		if err := uc.sessions.Update(ctx, s); err != nil {
			return nil, nil, err
		}

		merged := events.NewWorkflowEvent(events.EventRegistrationMerged, s.SessionID(), now)
		merged.SessionID = s.SessionID()
		merged.RequestID = req.RequestID()
		merged.EntityType = string(req.EntityType())
		merged.Status = s.Status().String()
		merged.ActorID = actor.UserID
		merged.SubAuthority = s.SubAuthority()
		published = append(published, merged)
	}

	return &dto.DecisionResponse{
		Request: dto.ToRequestResponse(req, false),
		Result:  outcome.Result,
	}, published, nil
}

func (uc *DecideRequestUseCase) reject(ctx context.Context, actor authorization.Actor, requestID, reason string) (*dto.DecisionResponse, []events.DomainEvent, error) {
	now := uc.now()
	req, err := uc.approvals.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if err := req.Reject(actor, reason, now); err != nil {
		return nil, nil, err
	}
	if err := uc.approvals.Update(ctx, req); err != nil {
		return nil, nil, err
	}

	if req.SessionID() != "" {
		s, err := uc.sessions.GetBySessionID(ctx, req.SessionID())
		if err != nil {
			return nil, nil, err
		}
		if err := s.Reject(reason, now); err != nil {
			return nil, nil, err
		}
		if err := uc.sessions.Update(ctx, s); err != nil {
			return nil, nil, err
		}
	}

	return &dto.DecisionResponse{Request: dto.ToRequestResponse(req, false)},
		[]events.DomainEvent{decidedEvent(req, actor, now)}, nil
}

// authorizeChecker requires the approver role for the request and, below
// city level, the maker's sub-authority.
func authorizeChecker(ctx context.Context, policy approval.Policy, actor authorization.Actor, req *approval.Request) error {
	if !actor.Role.IsAdmin() && req.SubAuthority() != "" && actor.SubAuthority != req.SubAuthority() {
		return errors.NewForbiddenError("request belongs to another sub-authority")
	}
	ok, err := policy.CanApprove(ctx, actor, req.Action(), req.ApproverRole())
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewForbiddenError(fmt.Sprintf("role %s cannot decide requests for %s", actor.Role, req.ApproverRole()))
	}
	return nil
}

func decidedEvent(req *approval.Request, checker authorization.Actor, now time.Time) events.WorkflowEvent {
	evt := events.NewWorkflowEvent(events.EventApprovalDecided, req.RequestID(), now)
	evt.SessionID = req.SessionID()
	evt.RequestID = req.RequestID()
	evt.EntityType = string(req.EntityType())
	evt.Status = string(req.Status())
	evt.ApproverRole = string(req.ApproverRole())
	evt.ActorID = checker.UserID
	evt.SubAuthority = req.SubAuthority()
	return evt
}
