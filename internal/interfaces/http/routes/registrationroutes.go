package routes

import (
	"github.com/gin-gonic/gin"

	registrationhandlers "github.com/landreg/cadastre/internal/interfaces/http/handlers/registration"
	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
)

type RegistrationRouteConfig struct {
	Handler        *registrationhandlers.Handler
	AuthMiddleware *middleware.AuthMiddleware
	// UploadLimiter is optional; nil disables upload rate limiting.
	UploadLimiter *middleware.RateLimiter
}

func SetupRegistrationRoutes(engine *gin.Engine, config *RegistrationRouteConfig) {
	sessions := engine.Group("/registration/sessions")
	sessions.Use(config.AuthMiddleware.RequireAuth())
	{
		sessions.POST("", config.Handler.CreateSession)
		sessions.GET("", config.Handler.ListSessions)

		sessions.PUT("/:sid/steps/:step", config.Handler.SaveStep)
		attach := []gin.HandlerFunc{}
		if config.UploadLimiter != nil {
			attach = append(attach, config.UploadLimiter.Limit())
		}
		attach = append(attach, config.Handler.AttachDocument)
		sessions.POST("/:sid/steps/:step/documents", attach...)
		sessions.DELETE("/:sid/steps/:step/documents/:did", config.Handler.RemoveDocument)
		sessions.GET("/:sid/validation", config.Handler.ValidateSession)
		sessions.POST("/:sid/submit", config.Handler.Submit)
		sessions.POST("/:sid/resubmit", config.Handler.Resubmit)

		sessions.GET("/:sid", config.Handler.GetSession)
		sessions.DELETE("/:sid", config.Handler.AbandonSession)
	}
}
