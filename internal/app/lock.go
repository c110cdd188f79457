package app

import "context"

// RunLock is a lease that keeps overlapping expiry checks from dispatching the same
// groceries twice. Acquire returns an owner token that must be passed to Release.
type RunLock interface {
	Acquire(ctx context.Context) (token string, acquired bool, err error)
	Release(ctx context.Context, token string) error
}

// noopRunLock always grants the lease. Used when no lock backend is configured.
type noopRunLock struct{}

func (noopRunLock) Acquire(context.Context) (string, bool, error) { return "", true, nil }

func (noopRunLock) Release(context.Context, string) error { return nil }
