package usecases

import (
	"context"
	"time"

	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// SaveStepUseCase stores one wizard step. The body is decoded strictly into
// the step's payload type and validated before the session is touched.
type SaveStepUseCase struct {
	sessions registration.Repository
	tx       common.Transactor
	ttl      time.Duration
	logger   logger.Interface
	now      clock
}

func NewSaveStepUseCase(
	sessions registration.Repository,
	tx common.Transactor,
	ttl time.Duration,
	logger logger.Interface,
) *SaveStepUseCase {
	return &SaveStepUseCase{
		sessions: sessions,
		tx:       tx,
		ttl:      ttl,
		logger:   logger,
		now:      biztime.NowUTC,
	}
}

func (uc *SaveStepUseCase) Execute(ctx context.Context, actor authorization.Actor, sessionID, stepName string, body []byte) (*dto.SessionResponse, error) {
	step, err := parseStep(stepName)
	if err != nil {
		return nil, err
	}
	payload, err := registration.DecodePayload(step, body)
	if err != nil {
		return nil, err
	}

	var session *registration.Session
	err = uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := loadOwnedSession(ctx, uc.sessions, sessionID, actor)
		if err != nil {
			return err
		}
		if err := s.SaveStep(step, payload, uc.ttl, uc.now()); err != nil {
			return err
		}
		if err := uc.sessions.Update(ctx, s); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		uc.logger.Warnw("failed to save registration step",
			"session_id", sessionID,
			"step", stepName,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("registration step saved",
		"session_id", sessionID,
		"step", step.String(),
		"version", session.Version(),
	)
	return dto.ToSessionResponse(session), nil
}
