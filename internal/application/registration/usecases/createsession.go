package usecases

import (
	"context"
	"time"

	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/id"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// CreateSessionUseCase opens a registration draft, or resumes the clerk's
// open one. An open draft past its expiry is closed and replaced.
type CreateSessionUseCase struct {
	sessions  registration.Repository
	tx        common.Transactor
	publisher events.EventPublisher
	ttl       time.Duration
	logger    logger.Interface
	now       clock
}

func NewCreateSessionUseCase(
	sessions registration.Repository,
	tx common.Transactor,
	publisher events.EventPublisher,
	ttl time.Duration,
	logger logger.Interface,
) *CreateSessionUseCase {
	return &CreateSessionUseCase{
		sessions:  sessions,
		tx:        tx,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger,
		now:       biztime.NowUTC,
	}
}

// Execute returns the draft and whether it was created by this call.
func (uc *CreateSessionUseCase) Execute(ctx context.Context, actor authorization.Actor) (*dto.SessionResponse, bool, error) {
	if actor.IsZero() {
		return nil, false, errors.NewUnauthorizedError("an authenticated actor is required")
	}

	var (
		session *registration.Session
		created bool
		expired *registration.Session
		err     error
	)
	// A concurrent create for the same clerk loses on the open-draft index;
	// the second attempt then resumes the winner's draft.
	for attempt := 0; attempt < 2; attempt++ {
		session, created, expired, err = uc.openOrCreate(ctx, actor)
		if err == nil || !errors.IsConflictError(err) {
			break
		}
		uc.logger.Debugw("open draft raced, retrying", "user_id", actor.UserID, "error", err)
	}
	if err != nil {
		uc.logger.Errorw("failed to open registration session", "user_id", actor.UserID, "error", err)
		return nil, false, err
	}

	if expired != nil {
		evt := events.NewWorkflowEvent(events.EventSessionExpired, expired.SessionID(), uc.now())
		evt.SessionID = expired.SessionID()
		evt.Status = expired.Status().String()
		evt.ActorID = expired.UserID()
		evt.SubAuthority = expired.SubAuthority()
		common.PublishAll(ctx, uc.publisher, uc.logger, evt)
	}

	if created {
		uc.logger.Infow("registration session created",
			"session_id", session.SessionID(),
			"user_id", actor.UserID,
			"expires_at", session.ExpiresAt(),
		)
	}
	return dto.ToSessionResponse(session), created, nil
}

func (uc *CreateSessionUseCase) openOrCreate(ctx context.Context, actor authorization.Actor) (session *registration.Session, created bool, expired *registration.Session, err error) {
	err = uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		now := uc.now()
		open, err := uc.sessions.FindOpenDraft(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if open != nil {
			if !open.IsExpired(now) {
				session = open
				return nil
			}
			if err := open.Expire(now); err != nil {
				return err
			}
			if err := uc.sessions.Update(ctx, open); err != nil {
				return err
			}
			expired = open
		}

		sid, err := id.NewSessionID()
		if err != nil {
			return err
		}
		s, err := registration.NewSession(sid, actor.UserID, actor.SubAuthority, uc.ttl, now)
		if err != nil {
			return err
		}
		if err := uc.sessions.Create(ctx, s); err != nil {
			return err
		}
		session = s
		created = true
		return nil
	})
	if err != nil {
		return nil, false, nil, err
	}
	return session, created, expired, nil
}
