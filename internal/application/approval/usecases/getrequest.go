package usecases

import (
	"context"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// GetRequestUseCase returns a request with its snapshot to its maker, to
// checkers who could decide it, and to administrators.
type GetRequestUseCase struct {
	approvals approval.Repository
	policy    approval.Policy
	logger    logger.Interface
}

func NewGetRequestUseCase(approvals approval.Repository, policy approval.Policy, logger logger.Interface) *GetRequestUseCase {
	return &GetRequestUseCase{approvals: approvals, policy: policy, logger: logger}
}

func (uc *GetRequestUseCase) Execute(ctx context.Context, actor authorization.Actor, requestID string) (*dto.RequestResponse, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}
	req, err := uc.approvals.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.MakerID() != actor.UserID && !actor.Role.IsAdmin() {
		if err := authorizeChecker(ctx, uc.policy, actor, req); err != nil {
			return nil, err
		}
	}
	return dto.ToRequestResponse(req, true), nil
}
