package lock

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrNotHeld is returned by Release when this manager does not hold the lock.
var ErrNotHeld = errors.New("lock not held")

// DistributedLockManager coordinates work across reportfire instances.
type DistributedLockManager interface {
	// Acquire blocks until the lock is held or ctx is done.
	Acquire(ctx context.Context, lockID int) error

	// TryAcquire takes the lock only if it is free right now.
	TryAcquire(ctx context.Context, lockID int) (bool, error)

	Release(ctx context.Context, lockID int) error
}
