package registration

import (
	"context"
	"time"

	"github.com/landreg/cadastre/internal/domain/document"
	"github.com/landreg/cadastre/internal/shared/query"
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	// Update writes the session if its row is still at BaseVersion.
	Update(ctx context.Context, s *Session) error
	GetBySessionID(ctx context.Context, sessionID string) (*Session, error)
	// FindOpenDraft returns the user's DRAFT, or nil when there is none.
	FindOpenDraft(ctx context.Context, userID uint) (*Session, error)
	ListByUser(ctx context.Context, userID uint, filter ListFilter) ([]*Session, int64, error)
	ListExpiredDrafts(ctx context.Context, now time.Time, limit int) ([]*Session, error)
	Delete(ctx context.Context, id uint) error
}

type ListFilter struct {
	Status *Status
	query.PageFilter
}

// DocumentRepository stores handle lists one row per handle so concurrent
// attach and remove calls never overwrite each other.
type DocumentRepository interface {
	// Add is a no-op returning false when the handle is already attached.
	Add(ctx context.Context, sessionRowID uint, step Step, h document.Handle) (bool, error)
	Remove(ctx context.Context, sessionRowID uint, step Step, handleID string) (bool, error)
	ListBySession(ctx context.Context, sessionRowID uint) (map[Step][]document.Handle, error)
	DeleteBySession(ctx context.Context, sessionRowID uint) error
}
