package approval

import (
	"context"

	"github.com/landreg/cadastre/internal/shared/authorization"
)

// Policy is the external authorization decision the router consults. Role
// names are opaque tokens to the workflow.
type Policy interface {
	RequiresApproval(ctx context.Context, actor authorization.Actor, action Action) (bool, error)
	ApproverRoleFor(ctx context.Context, actor authorization.Actor, action Action) (authorization.UserRole, error)
	// CanApprove reports whether actor may act as a checker for requests
	// routed to approverRole.
	CanApprove(ctx context.Context, actor authorization.Actor, action Action, approverRole authorization.UserRole) (bool, error)
	// ApprovableRoles lists the approver roles whose inbox actor may read.
	ApprovableRoles(ctx context.Context, actor authorization.Actor) ([]authorization.UserRole, error)
}
