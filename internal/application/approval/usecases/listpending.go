package usecases

import (
	"context"

	"github.com/landreg/cadastre/internal/application/approval/dto"
	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/query"
)

// ListPendingRequestsUseCase is the checker inbox: pending requests routed
// to a role the actor may approve for.
type ListPendingRequestsUseCase struct {
	approvals approval.Repository
	policy    approval.Policy
	logger    logger.Interface
}

func NewListPendingRequestsUseCase(approvals approval.Repository, policy approval.Policy, logger logger.Interface) *ListPendingRequestsUseCase {
	return &ListPendingRequestsUseCase{approvals: approvals, policy: policy, logger: logger}
}

func (uc *ListPendingRequestsUseCase) Execute(ctx context.Context, actor authorization.Actor, req dto.ListPendingRequest) (*dto.ListPendingResponse, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}

	page := query.NewPageFilter(req.Page, req.PageSize)
	resp := &dto.ListPendingResponse{
		Requests: []*dto.RequestResponse{},
		Page:     page.Page,
		PageSize: page.PageSize,
	}

	roles, err := uc.policy.ApprovableRoles(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return resp, nil
	}

	filter := approval.ListFilter{PageFilter: page}
	for _, r := range roles {
		filter.ApproverRoles = append(filter.ApproverRoles, string(r))
	}
	if !actor.Role.IsAdmin() {
		filter.SubAuthority = actor.SubAuthority
	}
	if req.EntityType != "" {
		et := approval.EntityType(req.EntityType)
		filter.EntityType = &et
	}

	list, total, err := uc.approvals.ListPending(ctx, filter)
	if err != nil {
		uc.logger.Errorw("failed to list pending requests", "user_id", actor.UserID, "error", err)
		return nil, err
	}
	for _, r := range list {
		resp.Requests = append(resp.Requests, dto.ToRequestResponse(r, false))
	}
	resp.Total = total
	return resp, nil
}
