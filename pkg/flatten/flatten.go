// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package flatten implements the flattener: it materializes every path
// reachable from an edition's full ancestry into that edition directly,
// then marks it as a traversal terminus, so later reads never need to
// walk past it.
package flatten

import (
	"context"
	"strings"

	"github.com/zeebo/errs"
	"golang.org/x/sync/errgroup"

	"github.com/codelynx/kronoa/internal/kronoaconfig"
	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/lock"
)

// ErrLockExpired classifies a flatten whose lease renewal failed mid-run.
var ErrLockExpired = errs.Class("lock_expired")

// Flattener materializes an edition's ancestry-resolved content locally.
type Flattener struct {
	backend  kstore.Backend
	editions *edition.Store
}

// NewFlattener returns a Flattener sharing backend and editions with the
// rest of the engine.
func NewFlattener(backend kstore.Backend, editions *edition.Store) *Flattener {
	return &Flattener{backend: backend, editions: editions}
}

// Flatten runs under the repository lock, with periodic lease renewal.
func (f *Flattener) Flatten(ctx context.Context, id int, cfg kronoaconfig.LockConfig) error {
	handle, err := lock.Acquire(ctx, f.backend, cfg.AcquireTimeout, cfg.Lease)
	if err != nil {
		return err
	}
	defer handle.Release(ctx)

	group, gctx := errgroup.WithContext(ctx)
	cycle := handle.StartRenewal(gctx, group, cfg.RenewInterval)

	runErr := f.flatten(gctx, id)

	cycle.Stop()
	cycle.Close()
	if renewErr := group.Wait(); renewErr != nil {
		return ErrLockExpired.Wrap(renewErr)
	}
	return runErr
}

func (f *Flattener) flatten(ctx context.Context, id int) error {
	paths, err := f.ancestryPaths(ctx, id)
	if err != nil {
		return err
	}

	for _, path := range paths {
		res, err := f.editions.Resolve(ctx, id, path)
		if err != nil {
			return err
		}
		if res.Status != edition.StatusExists {
			continue
		}
		if err := f.backend.Write(ctx, khash.EditionPathFile(id, path), []byte(res.Hash.EncodePayload())); err != nil {
			return err
		}
	}

	return f.backend.Write(ctx, khash.EditionFlattenedPath(id), []byte{})
}

// ancestryPaths collects every content path (excluding system files) ever
// recorded by id or any of its ancestors.
func (f *Flattener) ancestryPaths(ctx context.Context, id int) ([]string, error) {
	ancestors, err := f.editions.Ancestors(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var paths []string
	for _, ancestorID := range ancestors {
		keys, err := f.editions.PathFiles(ctx, ancestorID)
		if err != nil {
			return nil, err
		}
		prefix := khash.EditionsPrefix(ancestorID)
		for _, key := range keys {
			path := strings.TrimPrefix(key, prefix)
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
