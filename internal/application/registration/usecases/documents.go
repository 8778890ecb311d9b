package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/landreg/cadastre/internal/application/common"
	"github.com/landreg/cadastre/internal/application/registration/dto"
	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/domain/registration"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/biztime"
	"github.com/landreg/cadastre/internal/shared/errors"
	"github.com/landreg/cadastre/internal/shared/logger"
	"github.com/landreg/cadastre/internal/shared/validation"
)

// AttachDocumentCommand carries either an uploaded file for the gateway or
// a handle the caller already obtained from it.
type AttachDocumentCommand struct {
	SessionID string
	Step      string
	Handle    *document.Handle
	File      *document.File
}

// AttachDocumentUseCase adds a handle to a document step. Attaching a handle
// that is already present is a no-op.
type AttachDocumentUseCase struct {
	sessions registration.Repository
	docs     registration.DocumentRepository
	gateway  document.Gateway
	tx       common.Transactor
	logger   logger.Interface
	now      clock
}

func NewAttachDocumentUseCase(
	sessions registration.Repository,
	docs registration.DocumentRepository,
	gateway document.Gateway,
	tx common.Transactor,
	logger logger.Interface,
) *AttachDocumentUseCase {
	return &AttachDocumentUseCase{
		sessions: sessions,
		docs:     docs,
		gateway:  gateway,
		tx:       tx,
		logger:   logger,
		now:      biztime.NowUTC,
	}
}

func (uc *AttachDocumentUseCase) Execute(ctx context.Context, actor authorization.Actor, cmd AttachDocumentCommand) (*dto.DocumentResponse, error) {
	step, err := parseStep(cmd.Step)
	if err != nil {
		return nil, err
	}
	if (cmd.Handle == nil) == (cmd.File == nil) {
		return nil, errors.InvalidPayload("provide either a file or a document handle")
	}

	// Fail fast before the upload reaches the gateway.
	s, err := loadOwnedSession(ctx, uc.sessions, cmd.SessionID, actor)
	if err != nil {
		return nil, err
	}
	if err := checkDocumentStep(s, step, uc.now()); err != nil {
		return nil, err
	}

	var (
		handle document.Handle
		stored bool
	)
	if cmd.File != nil {
		if uc.gateway == nil {
			return nil, errors.NewInternalError("document uploads are not configured")
		}
		handle, err = uc.gateway.StoreHandle(ctx, actor.UserID, *cmd.File)
		if err != nil {
			return nil, err
		}
		stored = true
	} else {
		handle = *cmd.Handle
		handle.ID = strings.TrimSpace(handle.ID)
		if problems := validation.FieldErrors(handle); len(problems) > 0 {
			return nil, errors.InvalidPayload("invalid document handle", strings.Join(problems, "; "))
		}
		if handle.UploadedAt.IsZero() {
			handle.UploadedAt = uc.now()
		}
	}

	resp := &dto.DocumentResponse{Step: step.String(), Handle: handle}
	err = uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := loadOwnedSession(ctx, uc.sessions, cmd.SessionID, actor)
		if err != nil {
			return err
		}
		if err := checkDocumentStep(s, step, uc.now()); err != nil {
			return err
		}
		resp.Attached, err = uc.docs.Add(ctx, s.ID(), step, handle)
		if err != nil {
			return err
		}
		all, err := uc.docs.ListBySession(ctx, s.ID())
		if err != nil {
			return err
		}
		resp.Handles = all[step]
		return nil
	})
	if err != nil {
		if stored {
			if delErr := uc.gateway.DeleteHandle(ctx, handle.ID); delErr != nil {
				uc.logger.Warnw("failed to delete orphaned document", "document_id", handle.ID, "error", delErr)
			}
		}
		return nil, err
	}

	uc.logger.Infow("document attached",
		"session_id", cmd.SessionID,
		"step", step.String(),
		"document_id", handle.ID,
		"attached", resp.Attached,
	)
	return resp, nil
}

// RemoveDocumentUseCase detaches a handle from a document step. The stored
// file itself is left with the gateway.
type RemoveDocumentUseCase struct {
	sessions registration.Repository
	docs     registration.DocumentRepository
	tx       common.Transactor
	logger   logger.Interface
	now      clock
}

func NewRemoveDocumentUseCase(
	sessions registration.Repository,
	docs registration.DocumentRepository,
	tx common.Transactor,
	logger logger.Interface,
) *RemoveDocumentUseCase {
	return &RemoveDocumentUseCase{
		sessions: sessions,
		docs:     docs,
		tx:       tx,
		logger:   logger,
		now:      biztime.NowUTC,
	}
}

func (uc *RemoveDocumentUseCase) Execute(ctx context.Context, actor authorization.Actor, sessionID, stepName, documentID string) error {
	step, err := parseStep(stepName)
	if err != nil {
		return err
	}

	err = uc.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		s, err := loadOwnedSession(ctx, uc.sessions, sessionID, actor)
		if err != nil {
			return err
		}
		if err := checkDocumentStep(s, step, uc.now()); err != nil {
			return err
		}
		removed, err := uc.docs.Remove(ctx, s.ID(), step, documentID)
		if err != nil {
			return err
		}
		if !removed {
			return errors.NewNotFoundError("document " + documentID + " is not attached to step " + step.String())
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Infow("document removed",
		"session_id", sessionID,
		"step", step.String(),
		"document_id", documentID,
	)
	return nil
}

func checkDocumentStep(s *registration.Session, step registration.Step, now time.Time) error {
	if err := s.EnsureEditable(now); err != nil {
		return err
	}
	return s.EnsureDocumentStep(step)
}
