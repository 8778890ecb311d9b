package http

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/domain/ownership"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/infrastructure/auth"
	"github.com/landreg/cadastre/internal/infrastructure/config"
	"github.com/landreg/cadastre/internal/infrastructure/document"
	"github.com/landreg/cadastre/internal/infrastructure/permission"
	"github.com/landreg/cadastre/internal/infrastructure/pubsub"
	"github.com/landreg/cadastre/internal/infrastructure/scheduler"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/common"
	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
	shareddb "github.com/landreg/cadastre/internal/shared/db"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// Container holds the infrastructure components, repositories, use cases,
// handlers and background services, wires them together and provides
// Shutdown() for graceful termination.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client
	tx     *shareddb.TransactionManager

	repos *repositories
	ucs   *allUseCases
	hdlrs *allHandlers

	// Middlewares
	authMiddleware *middleware.AuthMiddleware
	uploadLimiter  *middleware.RateLimiter

	jwtSvc      *auth.JWTService
	locker      ownership.ParcelLocker
	enforcer    *permission.Enforcer
	gateway     *document.LocalGateway
	ownerEngine *services.Engine

	// Workflow events and the checker inbox
	publisher           events.EventPublisher
	inboxHub            *common.InboxHub
	workflowBus         *pubsub.RedisWorkflowEventBus
	workflowBusCancel   context.CancelFunc
	workflowBusCancelMu sync.Mutex

	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired together.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
		tx:     shareddb.NewTransactionManager(db),
	}

	// Section 1: Infrastructure - Redis, locker, policy, documents, events
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Use cases
	c.initUseCases()

	// Section 3: Handlers and middlewares
	c.initHandlers()

	// Section 4: Scheduled jobs
	if err := c.initScheduler(); err != nil {
		return nil, err
	}

	return c, nil
}
