package usecases

import (
	"context"

	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// AbandonSessionUseCase deletes the clerk's DRAFT and frees the open-draft
// slot. Sessions in any other status are kept.
type AbandonSessionUseCase struct {
	sessions registration.Repository
	docs     registration.DocumentRepository
	tx       common.Transactor
	logger   logger.Interface
}

func NewAbandonSessionUseCase(
	sessions registration.Repository,
	docs registration.DocumentRepository,
	tx common.Transactor,
	logger logger.Interface,
) *AbandonSessionUseCase {
	return &AbandonSessionUseCase{
		sessions: sessions,
		docs:     docs,
		tx:       tx,
		logger:   logger,
	}
}

func (uc *AbandonSessionUseCase) Execute(ctx context.Context, actor authorization.Actor, sessionID string) error {
	err := uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := loadOwnedSession(ctx, uc.sessions, sessionID, actor)
		if err != nil {
			return err
		}
		if err := s.EnsureAbandonable(); err != nil {
			return err
		}
		if err := uc.docs.DeleteBySession(ctx, s.ID()); err != nil {
			return err
		}
		return uc.sessions.Delete(ctx, s.ID())
	})
	if err != nil {
		return err
	}

	uc.logger.Infow("registration session abandoned", "session_id", sessionID, "user_id", actor.UserID)
	return nil
}
