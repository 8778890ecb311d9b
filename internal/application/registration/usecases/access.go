package usecases

import (
	"context"
	"time"

	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/errors"
)

// loadOwnedSession returns the session only to the clerk who created it.
func loadOwnedSession(ctx context.Context, sessions registration.Repository, sessionID string, actor authorization.Actor) (*registration.Session, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}
	s, err := sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.IsOwnedBy(actor.UserID) {
		return nil, errors.NewForbiddenError("session belongs to another user")
	}
	return s, nil
}

// loadVisibleSession also lets city administrators read any session.
func loadVisibleSession(ctx context.Context, sessions registration.Repository, sessionID string, actor authorization.Actor) (*registration.Session, error) {
	if actor.IsZero() {
		return nil, errors.NewUnauthorizedError("an authenticated actor is required")
	}
	s, err := sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.IsOwnedBy(actor.UserID) && !actor.Role.IsAdmin() {
		return nil, errors.NewForbiddenError("session belongs to another user")
	}
	return s, nil
}

func parseStep(name string) (registration.Step, error) {
	step, ok := registration.ParseStep(name)
	if !ok {
		return "", errors.InvalidPayload("unknown step " + name)
	}
	return step, nil
}

// clock is swapped in tests.
type clock func() time.Time
