// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package kstore

import "github.com/zeebo/errs"

// Error classes for the storage-backend layer. Higher layers (edition,
// session, publish, gc, lock) define their own classes for their own
// kinds and wrap backend errors with errs.Wrap rather than reclassifying
// them, so a caller can still test errs.Is(err, ErrNotFound) after the
// error has passed through several layers.
var (
	// ErrNotFound indicates a path has no stored value.
	ErrNotFound = errs.Class("not_found")

	// ErrStorage wraps any backend failure not otherwise classified
	// (I/O errors, permission errors, transient network errors). Retry
	// policy for storage_error is left to the caller.
	ErrStorage = errs.Class("storage_error")

	// ErrLockTimeout indicates AcquireLock could not obtain the lease
	// within the requested timeout.
	ErrLockTimeout = errs.Class("lock_timeout")

	// ErrLockExpired indicates a lock handle no longer owns its lease,
	// discovered during Renew or Release.
	ErrLockExpired = errs.Class("lock_expired")
)
