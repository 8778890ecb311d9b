package authorization

import (
	"github.com/gin-gonic/gin"

	"github.com/landreg/cadastre/internal/shared/constants"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/utils"
)

// ActorFromContext returns the actor the auth middleware stored on c.
func ActorFromContext(c *gin.Context) (Actor, bool) {
	userID, ok := c.Get(constants.ContextKeyUserID)
	if !ok {
		return Actor{}, false
	}
	uid, ok := userID.(uint)
	if !ok || uid == 0 {
		return Actor{}, false
	}
	return Actor{
		UserID:       uid,
		Role:         UserRole(c.GetString(constants.ContextKeyRole)),
		SubAuthority: c.GetString(constants.ContextKeySubAuthority),
	}, true
}

// RequireAnyRole aborts with 403 unless the caller holds one of roles.
func RequireAnyRole(roles ...UserRole) gin.HandlerFunc {
	allowed := make(map[UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := UserRole(c.GetString(constants.ContextKeyRole))
		if _, ok := allowed[role]; !ok {
			utils.ErrorResponseWithError(c, errors.NewForbiddenError("role not permitted for this operation"))
			c.Abort()
			return
		}
		c.Next()
	}
}
