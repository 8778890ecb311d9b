package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/infrastructure/auth"
	"github.com/landreg/cadastre/internal/infrastructure/cache"
	"github.com/landreg/cadastre/internal/infrastructure/config"
	"github.com/landreg/cadastre/internal/infrastructure/document"
	"github.com/landreg/cadastre/internal/infrastructure/permission"
	"github.com/landreg/cadastre/internal/infrastructure/pubsub"
	"github.com/landreg/cadastre/internal/infrastructure/scheduler"
	"github.com/landreg/cadastre/internal/interfaces/http/handlers/common"
	"github.com/landreg/cadastre/internal/interfaces/http/middleware"
	"github.com/landreg/cadastre/internal/shared/goroutine"
	"github.com/landreg/cadastre/internal/shared/logger"
)

const (
	uploadRateLimit       = 30
	uploadRateLimitWindow = time.Minute
	policyReloadInterval  = 5 * time.Minute
)

// ============================================================
// Section 1: Infrastructure
// ============================================================

// initInfrastructure connects Redis when enabled and builds the parcel
// locker, approval policy, document gateway and workflow event fan-out.
func (c *Container) initInfrastructure() error {
	cfg := c.cfg
	log := c.log

	if cfg.Redis.Enabled {
		client, err := initRedis(cfg, log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	c.repos = newRepositories(c.db)

	// Parcel locks must be shared across instances once Redis is available.
	if c.redis != nil {
		c.locker = cache.NewRedisParcelLocker(c.redis, cfg.Registration.LockTTL(), cfg.Registration.LockWait(), log)
	} else {
		log.Warnw("redis disabled, parcel locks are local to this process")
		c.locker = cache.NewMemoryParcelLocker(cfg.Registration.LockWait())
	}
	c.ownerEngine = services.NewEngine(c.tx, c.locker, c.repos.stores, log)

	enforcer, err := permission.NewEnforcer(c.db, log)
	if err != nil {
		return fmt.Errorf("failed to create approval policy enforcer: %w", err)
	}
	if cfg.Approval.SeedDefaultPolicy {
		if err := permission.SeedDefaultPolicy(enforcer, log); err != nil {
			return fmt.Errorf("failed to seed approval policy: %w", err)
		}
	}
	c.enforcer = enforcer

	gateway, err := document.NewLocalGateway(cfg.Documents, log)
	if err != nil {
		return fmt.Errorf("failed to create document gateway: %w", err)
	}
	c.gateway = gateway

	c.jwtSvc = auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, log)
	if c.redis != nil {
		c.uploadLimiter = middleware.NewRateLimiter(c.redis, "documents", uploadRateLimit, uploadRateLimitWindow, log)
	}

	c.inboxHub = common.NewInboxHub(log)
	return c.initWorkflowEvents()
}

func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Infow("Redis connection established successfully")

	return redisClient, nil
}

// initWorkflowEvents publishes over Redis when it is available so every
// instance's inbox streams see the event. Without Redis the events stay in
// process.
func (c *Container) initWorkflowEvents() error {
	log := c.log

	if c.redis == nil {
		dispatcher := events.NewInMemoryEventDispatcher()
		for _, eventType := range []string{
			events.EventApprovalRequested,
			events.EventApprovalDecided,
			events.EventRegistrationMerged,
			events.EventSessionExpired,
		} {
			if err := dispatcher.Subscribe(eventType, c.inboxHub); err != nil {
				return fmt.Errorf("failed to subscribe inbox to %s: %w", eventType, err)
			}
		}
		c.publisher = dispatcher
		return nil
	}

	c.workflowBus = pubsub.NewRedisWorkflowEventBus(c.redis, c.cfg.Approval.EventsChannel, log)
	c.publisher = c.workflowBus

	busCtx, busCancel := context.WithCancel(context.Background())
	c.workflowBusCancelMu.Lock()
	c.workflowBusCancel = busCancel
	c.workflowBusCancelMu.Unlock()

	goroutine.SafeGo(log, "workflow-event-subscriber", func() {
		if err := c.workflowBus.Subscribe(busCtx, c.inboxHub.Deliver); err != nil {
			logSubscriberExit(log, "workflow event subscriber", err)
		}
	})
	return nil
}

// ============================================================
// Section 4: Scheduled jobs
// ============================================================

func (c *Container) initScheduler() error {
	log := c.log

	schedulerManager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler manager: %w", err)
	}
	c.schedulerManager = schedulerManager

	if err := schedulerManager.RegisterSessionExpiryJob(c.ucs.expireSessionsUC, c.cfg.Registration.SweepInterval()); err != nil {
		return fmt.Errorf("failed to register session expiry job: %w", err)
	}

	// Other instances may edit the policy table.
	if err := schedulerManager.RegisterPolicyReloadJob(c.enforcer, policyReloadInterval); err != nil {
		log.Warnw("failed to register policy reload job", "error", err)
	}
	return nil
}

func logSubscriberExit(log logger.Interface, name string, err error) {
	if errors.Is(err, context.Canceled) {
		log.Infow(name+" stopped", "reason", "context canceled")
		return
	}
	log.Errorw(name+" failed", "error", err)
}
