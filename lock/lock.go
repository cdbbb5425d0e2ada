package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("ledger lock not acquired")

// Locker serialises ledger mutations. The returned unlock func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Local is a process-wide Locker for single-process deployments.
type Local struct {
	ch chan struct{}
}

func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

// Lock waits for the lock or until ctx is done.
func (l *Local) Lock(ctx context.Context) (func(), error) {
	select {
	case l.ch <- struct{}{}:
		return func() { <-l.ch }, nil
	case <-ctx.Done():
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}
}
