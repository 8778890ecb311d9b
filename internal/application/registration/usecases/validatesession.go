package usecases

import (
	"context"

	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// ValidateSessionUseCase reports what still blocks submission. An
// incomplete session is a normal answer, not an error.
type ValidateSessionUseCase struct {
	sessions registration.Repository
	logger   logger.Interface
}

func NewValidateSessionUseCase(sessions registration.Repository, logger logger.Interface) *ValidateSessionUseCase {
	return &ValidateSessionUseCase{sessions: sessions, logger: logger}
}

func (uc *ValidateSessionUseCase) Execute(ctx context.Context, actor authorization.Actor, sessionID string) (*dto.ValidationResponse, error) {
	s, err := loadVisibleSession(ctx, uc.sessions, sessionID, actor)
	if err != nil {
		return nil, err
	}
	res := s.Validate()
	return &dto.ValidationResponse{
		Valid:          res.Valid,
		Missing:        res.Missing,
		AvailableSteps: dto.StepNames(registration.AvailableSteps(s)),
	}, nil
}
