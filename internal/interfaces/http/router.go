package http

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/infrastructure/config"
	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
	"github.com/landreg/cadastre/internal/interfaces/http/routes"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	c, err := NewContainer(db, cfg, log)
	if err != nil {
		return nil, err
	}
	return &Router{Container: c}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CustomLogger(r.log))
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.hdlrs.healthHandler.HealthCheck)

	routes.SetupRegistrationRoutes(r.engine, &routes.RegistrationRouteConfig{
		Handler:        r.hdlrs.registrationHandler,
		AuthMiddleware: r.authMiddleware,
		UploadLimiter:  r.uploadLimiter,
	})

	routes.SetupApprovalRoutes(r.engine, &routes.ApprovalRouteConfig{
		Handler:        r.hdlrs.approvalHandler,
		InboxHub:       r.inboxHub,
		AuthMiddleware: r.authMiddleware,
	})

	routes.SetupParcelRoutes(r.engine, &routes.ParcelRouteConfig{
		Handler:        r.hdlrs.parcelHandler,
		AuthMiddleware: r.authMiddleware,
	})

	routes.SetupDocumentRoutes(r.engine, &routes.DocumentRouteConfig{
		StorageDir:     r.gateway.Dir(),
		AuthMiddleware: r.authMiddleware,
	})
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}

// StartScheduler starts the session expiry and policy reload jobs.
func (r *Router) StartScheduler() {
	if r.schedulerManager != nil {
		r.schedulerManager.Start()
	}
}

// Shutdown gracefully shuts down the router
func (r *Router) Shutdown() {
	if r.schedulerManager != nil {
		if err := r.schedulerManager.Stop(); err != nil {
			r.log.Errorw("failed to stop scheduler", "error", err)
		}
	}

	r.workflowBusCancelMu.Lock()
	if r.workflowBusCancel != nil {
		r.workflowBusCancel()
		r.workflowBusCancel = nil
	}
	r.workflowBusCancelMu.Unlock()

	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			r.log.Errorw("failed to close redis client", "error", err)
		}
	}
}

