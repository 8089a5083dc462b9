// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package lock wraps a kstore.Backend's lease contract with the renewal
// cycle used by the publishing state machine, flattener, and garbage
// collector during long-running locked operations.
package lock

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codelynx/kronoa/internal/sync2"
	"github.com/codelynx/kronoa/pkg/kstore"
)

// Path is the well-known backend key every Kronoa repository locks.
const Path = "contents/.lock"

// Handle is a held lease together with the lease duration it was
// acquired with, so Renew can keep extending it by the same amount.
type Handle struct {
	backend kstore.Backend
	inner   kstore.LockHandle
	lease   time.Duration
}

// Acquire takes the repository lock, retrying within timeout.
func Acquire(ctx context.Context, backend kstore.Backend, timeout, lease time.Duration) (*Handle, error) {
	inner, err := backend.AcquireLock(ctx, Path, timeout, lease)
	if err != nil {
		return nil, err
	}
	return &Handle{backend: backend, inner: inner, lease: lease}, nil
}

// Owner returns this handle's owner id.
func (h *Handle) Owner() string { return h.inner.Owner() }

// ExpiresAt returns the lease expiry as of the last acquire or renew.
func (h *Handle) ExpiresAt() time.Time { return h.inner.ExpiresAt() }

// Renew extends the lease by the duration it was originally acquired
// with.
func (h *Handle) Renew(ctx context.Context) error {
	return h.inner.Renew(ctx, h.lease)
}

// Release gives up the lock.
func (h *Handle) Release(ctx context.Context) error {
	return h.inner.Release(ctx)
}

// StartRenewal launches a background cycle that renews h every interval,
// tracked by group, until ctx is canceled or the returned Cycle is
// stopped. interval must be strictly shorter than the lease duration so
// the lease never lapses between renewals. Callers performing a long
// locked operation (stage's ref-index scan, flatten, GC) start renewal
// before the operation and Stop it once the operation completes, before
// the final Release.
func (h *Handle) StartRenewal(ctx context.Context, group *errgroup.Group, interval time.Duration) *sync2.Cycle {
	cycle := sync2.NewCycle(interval)
	cycle.Start(ctx, group, func(ctx context.Context) error {
		return h.Renew(ctx)
	})
	return cycle
}
