package routes

import (
	"github.com/gin-gonic/gin"

	approvalhandlers "github.com/landreg/cadastre/internal/interfaces/http/handlers/approval"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/common"
	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
	"github.com/landreg/cadastre/internal/shared/authorization"
)

type ApprovalRouteConfig struct {
	Handler        *approvalhandlers.Handler
	InboxHub       *common.InboxHub
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupApprovalRoutes(engine *gin.Engine, config *ApprovalRouteConfig) {
	approvals := engine.Group("/approvals")
	approvals.Use(config.AuthMiddleware.RequireAuth())
	{
		// Register before /:rid so "events" is not taken as a request id.
		approvals.GET("/events", config.InboxHub.StreamInbox)

		approvals.GET("",
			authorization.RequireAnyRole(
				authorization.RoleSubcityApprover,
				authorization.RoleCityAdmin,
				authorization.RoleSuperAdmin,
			),
			config.Handler.ListPending)
		approvals.POST("/:rid/decision", config.Handler.Decide)
		approvals.GET("/:rid", config.Handler.GetRequest)
	}
}
