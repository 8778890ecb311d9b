package ownership

import (
	"context"
	"sort"
)

// ParcelLocker serialises work on one parcel across goroutines and processes.
type ParcelLocker interface {
	// Acquire blocks until key is held or ctx is done.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type heldLocksKey struct{}

func heldLocks(ctx context.Context) map[string]struct{} {
	held, _ := ctx.Value(heldLocksKey{}).(map[string]struct{})
	return held
}

// WithParcelLocks runs fn while holding the lock of every upin. Locks already
// held by ctx are not taken again, and new ones are acquired in sorted order.
// Call it before opening a database transaction.
func WithParcelLocks(ctx context.Context, locker ParcelLocker, upins []string, fn func(ctx context.Context) error) error {
	held := heldLocks(ctx)

	keys := make([]string, 0, len(upins))
	seen := make(map[string]struct{}, len(upins))
	for _, u := range upins {
		if u == "" {
			continue
		}
		if _, ok := held[u]; ok {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		keys = append(keys, u)
	}
	if len(keys) == 0 {
		return fn(ctx)
	}
	sort.Strings(keys)

	next := make(map[string]struct{}, len(held)+len(keys))
	for k := range held {
		next[k] = struct{}{}
	}

	for _, k := range keys {
		release, err := locker.Acquire(ctx, "parcel:"+k)
		if err != nil {
			return err
		}
		defer release()
		next[k] = struct{}{}
	}

	return fn(context.WithValue(ctx, heldLocksKey{}, next))
}
