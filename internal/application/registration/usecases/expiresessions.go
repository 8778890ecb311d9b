package usecases

import (
	"context"

	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
)

const defaultExpiryBatchSize = 200

// ExpireSessionsUseCase closes DRAFT sessions past their expiry. It runs as
// a scheduled batch job; a draft saved concurrently is skipped and picked up
// again only if it is still stale on the next run.
type ExpireSessionsUseCase struct {
	sessions  registration.Repository
	publisher events.EventPublisher
	batchSize int
	logger    logger.Interface
	now       clock
}

func NewExpireSessionsUseCase(
	sessions registration.Repository,
	publisher events.EventPublisher,
	batchSize int,
	logger logger.Interface,
) *ExpireSessionsUseCase {
	if batchSize <= 0 {
		batchSize = defaultExpiryBatchSize
	}
	return &ExpireSessionsUseCase{
		sessions:  sessions,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

// Execute expires one batch and returns how many sessions it closed.
func (uc *ExpireSessionsUseCase) Execute(ctx context.Context) (int, error) {
	now := uc.now()
	stale, err := uc.sessions.ListExpiredDrafts(ctx, now, uc.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, s := range stale {
		if err := s.Expire(now); err != nil {
			uc.logger.Warnw("skipping session that can no longer expire", "session_id", s.SessionID(), "error", err)
			continue
		}
		if err := uc.sessions.Update(ctx, s); err != nil {
			if errors.HasReason(err, errors.ReasonVersionConflict) {
				uc.logger.Debugw("session changed during expiry sweep", "session_id", s.SessionID())
				continue
			}
			return expired, err
		}
		expired++

		evt := events.NewWorkflowEvent(events.EventSessionExpired, s.SessionID(), now)
		evt.SessionID = s.SessionID()
		evt.Status = s.Status().String()
		evt.ActorID = s.UserID()
		evt.SubAuthority = s.SubAuthority()
		common.PublishAll(ctx, uc.publisher, uc.logger, evt)
	}

	if expired > 0 {
		uc.logger.Infow("registration sessions expired", "count", expired)
	}
	return expired, nil
}
