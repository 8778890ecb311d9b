package approval

import (
	"context"

	"github.com/landreg/cadastre/internal/shared/query"
)

type Repository interface {
	// Create fails with DuplicateRequest when the session already has a
	// pending request.
	Create(ctx context.Context, r *Request) error
	Update(ctx context.Context, r *Request) error
	GetByRequestID(ctx context.Context, requestID string) (*Request, error)
	// FindPendingBySession returns nil when the session has no pending request.
	FindPendingBySession(ctx context.Context, sessionID string) (*Request, error)
	ListPending(ctx context.Context, filter ListFilter) ([]*Request, int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]*Request, error)
}

type ListFilter struct {
	ApproverRoles []string
	SubAuthority  string
	EntityType    *EntityType
	query.PageFilter
}
