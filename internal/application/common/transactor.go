package common

import "context"

// Transactor runs fn inside one database transaction, joining the one ctx
// already carries.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
