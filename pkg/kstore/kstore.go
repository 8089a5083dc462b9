// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package kstore defines the storage backend contract that the Kronoa
// content engine is built against. Concrete backends (an object store, a
// local filesystem, an in-memory store for tests) implement Backend; the
// rest of the engine never talks to a byte store directly.
package kstore

import (
	"context"
	"time"
)

// Backend is the minimal byte-addressable store the content engine
// consumes. All paths are slash-separated keys relative to the store's
// root; the backend does not interpret them beyond that.
type Backend interface {
	// Read returns the bytes stored at path, or ErrNotFound if absent.
	Read(ctx context.Context, path string) ([]byte, error)

	// Write overwrites path with data, creating it if necessary.
	Write(ctx context.Context, path string, data []byte) error

	// WriteIfAbsent writes data to path only if nothing is stored there
	// yet. wrote is true iff this call actually created the object.
	WriteIfAbsent(ctx context.Context, path string, data []byte) (wrote bool, err error)

	// Delete removes path. Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether path is present.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns keys at prefix. When delimiter is non-empty, only
	// immediate children are returned: a key with further delimiter-
	// separated components beyond prefix is collapsed to the first
	// component and reported with a trailing delimiter.
	List(ctx context.Context, prefix string, delimiter string) ([]string, error)

	// Stat reports the last-write time and size of path.
	Stat(ctx context.Context, path string) (modTime time.Time, size int64, err error)

	// AtomicIncrement atomically increments the integer counter stored at
	// path and returns the new value. If the counter does not yet exist,
	// the call stores and returns initial itself.
	AtomicIncrement(ctx context.Context, path string, initial int) (int, error)

	// AcquireLock attempts to take a time-bounded lease on path, retrying
	// within timeout. It returns ErrLockTimeout if no lease could be
	// acquired in time.
	AcquireLock(ctx context.Context, path string, timeout, lease time.Duration) (LockHandle, error)
}

// LockHandle is a held lease on a lock path. Ownership is verified on every
// Renew and Release call; a handle that is merely dropped (never released)
// does not silently free the lock early — the lease simply runs out at
// ExpiresAt.
type LockHandle interface {
	// Owner returns this handle's unique owner id.
	Owner() string

	// ExpiresAt returns the lease expiry as of the last successful
	// acquire or renew.
	ExpiresAt() time.Time

	// Renew extends the lease by duration, verifying that this handle
	// still owns the lock. Returns ErrLockExpired if ownership was lost.
	Renew(ctx context.Context, duration time.Duration) error

	// Release gives up the lock, verifying ownership first. Returns
	// ErrLockExpired if ownership was already lost.
	Release(ctx context.Context) error
}
