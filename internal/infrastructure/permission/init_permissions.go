package permission

import (
	"fmt"

	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// SeedDefaultPolicy installs the municipal default: sub-city clerks need a
// sub-city approver, approvers and administrators apply their own changes,
// and super admins inherit the city administrator's grants. Existing rules
// are left untouched.
func SeedDefaultPolicy(e *Enforcer, log logger.Interface) error {
	approvers := []authorization.UserRole{
		authorization.RoleSubcityApprover,
		authorization.RoleCityAdmin,
	}

	for _, role := range approvers {
		for _, act := range []string{ActExecute, ActApprove} {
			if err := e.AddPolicy(role.String(), "*", act); err != nil {
				log.Errorw("failed to add default policy",
					"error", err,
					"role", role,
					"act", act)
				return fmt.Errorf("failed to add policy [%s, *, %s]: %w", role, act, err)
			}
		}
	}

	if err := e.AddRoleInheritance(authorization.RoleSuperAdmin.String(), authorization.RoleCityAdmin.String()); err != nil {
		return err
	}

	routes := map[authorization.UserRole]authorization.UserRole{
		authorization.RoleSubcityNormal: authorization.RoleSubcityApprover,
	}
	for maker, checker := range routes {
		current, err := e.ApproverRole(maker.String())
		if err != nil {
			return err
		}
		if current != "" {
			continue
		}
		if err := e.SetApproverRole(maker.String(), checker.String()); err != nil {
			return err
		}
	}

	log.Infow("default approval policy initialized",
		"actions", len(approval.AllActions()))
	return nil
}
