package usecases

import (
	"context"
	"time"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/id"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// GatedCommandUseCase routes a direct ownership mutation through the
// maker-checker policy: it applies at once when the actor may self-approve
// and is parked as a pending request otherwise.
type GatedCommandUseCase struct {
	approvals approval.Repository
	policy    approval.Policy
	applier   *Applier
	publisher events.EventPublisher
	logger    logger.Interface
	now       func() time.Time
}

func NewGatedCommandUseCase(
	approvals approval.Repository,
	policy approval.Policy,
	applier *Applier,
	publisher events.EventPublisher,
	logger logger.Interface,
) *GatedCommandUseCase {
	return &GatedCommandUseCase{
		approvals: approvals,
		policy:    policy,
		applier:   applier,
		publisher: publisher,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

func (uc *GatedCommandUseCase) Execute(ctx context.Context, actor authorization.Actor, cmd Command) (*dto.GatedResponse, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}
	action, err := ActionFor(cmd)
	if err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	needsApproval, err := uc.policy.RequiresApproval(ctx, actor, action)
	if err != nil {
		return nil, err
	}
	if !needsApproval {
		outcome, err := uc.applier.ApplyCommand(ctx, cmd)
		if err != nil {
			return nil, err
		}
		return &dto.GatedResponse{Result: outcome.Result}, nil
	}

	approverRole, err := uc.policy.ApproverRoleFor(ctx, actor, action)
	if err != nil {
		return nil, err
	}
	rid, err := id.NewRequestID()
	if err != nil {
		return nil, err
	}
	now := uc.now()
	req, err := approval.NewRequest(rid, action, EntityRef(cmd), "", actor, approverRole, cmd, now)
	if err != nil {
		return nil, err
	}
	if err := uc.approvals.Create(ctx, req); err != nil {
		return nil, err
	}

	common.PublishAll(ctx, uc.publisher, uc.logger, requestedEvent(req, now))
	uc.logger.Infow("ownership change parked for approval",
		"request_id", rid,
		"action", action,
		"entity_id", req.EntityID(),
		"approver_role", approverRole,
	)
	return &dto.GatedResponse{RequiresApproval: true, ApprovalRequestID: rid}, nil
}
