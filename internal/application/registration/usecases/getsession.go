package usecases

import (
	"context"

	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/query"
)

type GetSessionUseCase struct {
	sessions registration.Repository
	logger   logger.Interface
}

func NewGetSessionUseCase(sessions registration.Repository, logger logger.Interface) *GetSessionUseCase {
	return &GetSessionUseCase{sessions: sessions, logger: logger}
}

func (uc *GetSessionUseCase) Execute(ctx context.Context, actor authorization.Actor, sessionID string) (*dto.SessionResponse, error) {
	s, err := loadVisibleSession(ctx, uc.sessions, sessionID, actor)
	if err != nil {
		return nil, err
	}
	return dto.ToSessionResponse(s), nil
}

// ListSessionsUseCase lists the actor's own sessions, newest first.
type ListSessionsUseCase struct {
	sessions registration.Repository
	logger   logger.Interface
}

func NewListSessionsUseCase(sessions registration.Repository, logger logger.Interface) *ListSessionsUseCase {
	return &ListSessionsUseCase{sessions: sessions, logger: logger}
}

func (uc *ListSessionsUseCase) Execute(ctx context.Context, actor authorization.Actor, req dto.ListSessionsRequest) (*dto.ListSessionsResponse, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}

	filter := registration.ListFilter{PageFilter: query.NewPageFilter(req.Page, req.PageSize)}
	if req.Status != "" {
		status := registration.Status(req.Status)
		if !status.IsValid() {
			return nil, errors.NewValidationError("invalid session status: " + req.Status)
		}
		filter.Status = &status
	}

	list, total, err := uc.sessions.ListByUser(ctx, actor.UserID, filter)
	if err != nil {
		uc.logger.Errorw("failed to list registration sessions", "user_id", actor.UserID, "error", err)
		return nil, err
	}
	return &dto.ListSessionsResponse{
		Sessions: dto.ToSessionSummaries(list),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}
