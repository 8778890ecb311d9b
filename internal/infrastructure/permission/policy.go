package permission

import (
	"context"
	"fmt"

	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
)

var _ approval.Policy = (*ApprovalPolicy)(nil)

// ApprovalPolicy answers maker-checker questions from casbin rules. Role
// names are passed through untouched.
type ApprovalPolicy struct {
	enforcer *Enforcer
}

func NewApprovalPolicy(enforcer *Enforcer) *ApprovalPolicy {
	return &ApprovalPolicy{enforcer: enforcer}
}

func (p *ApprovalPolicy) RequiresApproval(ctx context.Context, actor authorization.Actor, action approval.Action) (bool, error) {
	canExecute, err := p.enforcer.Enforce(actor.Role.String(), string(action), ActExecute)
	if err != nil {
		return false, err
	}
	return !canExecute, nil
}

func (p *ApprovalPolicy) ApproverRoleFor(ctx context.Context, actor authorization.Actor, action approval.Action) (authorization.UserRole, error) {
	role, err := p.enforcer.ApproverRole(actor.Role.String())
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", errors.NewForbiddenError(fmt.Sprintf("no approver is configured for role %s", actor.Role))
	}
	return authorization.UserRole(role), nil
}

// CanApprove requires the actor to hold approverRole, directly or by
// inheritance, and the approve grant for action.
func (p *ApprovalPolicy) CanApprove(ctx context.Context, actor authorization.Actor, action approval.Action, approverRole authorization.UserRole) (bool, error) {
	roles, err := p.ApprovableRoles(ctx, actor)
	if err != nil {
		return false, err
	}
	holds := false
	for _, r := range roles {
		if r == approverRole {
			holds = true
			break
		}
	}
	if !holds {
		return false, nil
	}
	return p.enforcer.Enforce(actor.Role.String(), string(action), ActApprove)
}

// ApprovableRoles lists the approver roles whose inbox actor may read.
func (p *ApprovalPolicy) ApprovableRoles(ctx context.Context, actor authorization.Actor) ([]authorization.UserRole, error) {
	implied, err := p.enforcer.ImpliedRoles(actor.Role.String())
	if err != nil {
		return nil, err
	}
	out := make([]authorization.UserRole, 0, len(implied))
	for _, r := range implied {
		out = append(out, authorization.UserRole(r))
	}
	return out, nil
}
