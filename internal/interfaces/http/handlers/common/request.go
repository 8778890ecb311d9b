package common

import (
	"github.com/gin-gonic/gin"

	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/utils"
)

// RequireActor returns the authenticated actor or writes a 401.
func RequireActor(c *gin.Context) (authorization.Actor, bool) {
	actor, ok := authorization.ActorFromContext(c)
	if !ok {
		utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("an authenticated actor is required"))
		return authorization.Actor{}, false
	}
	return actor, true
}

// BindJSON decodes the request body into req, answering 400 on failure.
func BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponseWithError(c, errors.InvalidPayload("invalid request body", err.Error()))
		return false
	}
	return true
}

// BindQuery decodes query parameters into req, answering 400 on failure.
func BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return false
	}
	return true
}
