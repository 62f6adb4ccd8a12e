package app

import (
	"context"

	"github.com/example/t2p/internal/ports/secondary"
)

// LockService mediates per-repo exclusive access through the state store.
type LockService struct {
	store secondary.StateStore
}

// NewLockService creates a lock service over the given store.
func NewLockService(store secondary.StateStore) *LockService {
	return &LockService{store: store}
}

// Acquire attempts to claim the repo for runID. When the claim is refused
// it also returns the id of the holding run.
func (l *LockService) Acquire(ctx context.Context, repo, runID string) (bool, string, error) {
	ok, err := l.store.TryLock(ctx, repo, runID)
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "", nil
	}
	holder, err := l.store.GetLock(ctx, repo)
	if err != nil {
		return false, "", err
	}
	return false, holder, nil
}

// Release drops the repo lock. Safe to call when the lock is already gone.
func (l *LockService) Release(ctx context.Context, repo string) error {
	return l.store.ClearLock(ctx, repo)
}

// Sweep removes every lock row. For operators cleaning up after a killed
// process; returns the number removed.
func (l *LockService) Sweep(ctx context.Context) (int, error) {
	return l.store.ClearAllLocks(ctx)
}
