// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package gc implements the two-phase garbage collector: a live-set
// computation over the published pointers, pending submissions, and
// working labels, followed by a per-object reclamation pass that prefers
// the `.ref` index, falls back to a bloom-filter-accelerated authoritative
// scan, and only then applies the grace-period age check.
package gc

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/errs"
	"golang.org/x/sync/errgroup"

	"github.com/codelynx/kronoa/internal/errs2"
	"github.com/codelynx/kronoa/internal/kronoaconfig"
	"github.com/codelynx/kronoa/pkg/bloomfilter"
	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/lock"
	"github.com/codelynx/kronoa/pkg/publish"
)

// ErrLockExpired classifies a run whose lease renewal failed mid-scan.
var ErrLockExpired = errs.Class("lock_expired")

// Result reports what one collection run did.
type Result struct {
	ScannedObjects int
	DeletedObjects int
	SkippedByRef   int
	SkippedByScan  int
	SkippedByAge   int
	Errors         []error
}

// Collector runs garbage collection over a repository.
type Collector struct {
	backend  kstore.Backend
	editions *edition.Store
	publish  *publish.Machine
}

// NewCollector returns a Collector sharing backend, editions, and pub with
// the rest of the engine.
func NewCollector(backend kstore.Backend, editions *edition.Store, pub *publish.Machine) *Collector {
	return &Collector{backend: backend, editions: editions, publish: pub}
}

// Run performs one collection pass under the repository lock, with
// periodic lease renewal, and returns the resulting counts. When
// cfg.DryRun is set, steps that would delete objects are skipped but
// everything else — including the counts that would have resulted — still
// runs.
func (c *Collector) Run(ctx context.Context, cfg kronoaconfig.GCConfig, lockCfg kronoaconfig.LockConfig, now time.Time) (Result, error) {
	handle, err := lock.Acquire(ctx, c.backend, lockCfg.AcquireTimeout, lockCfg.Lease)
	if err != nil {
		return Result{}, err
	}
	defer handle.Release(ctx)

	group, gctx := errgroup.WithContext(ctx)
	cycle := handle.StartRenewal(gctx, group, lockCfg.RenewInterval)

	result, runErr := c.run(gctx, cfg, now)

	cycle.Stop()
	cycle.Close()
	if renewErr := group.Wait(); renewErr != nil {
		return Result{}, ErrLockExpired.Wrap(renewErr)
	}
	return result, runErr
}

func (c *Collector) run(ctx context.Context, cfg kronoaconfig.GCConfig, now time.Time) (Result, error) {
	live, err := c.liveSet(ctx)
	if err != nil {
		return Result{}, err
	}

	filter, err := c.buildFilter(ctx, live)
	if err != nil {
		return Result{}, err
	}

	return c.scanObjects(ctx, live, filter, cfg, now)
}

// liveSet computes every edition id reachable from the production and
// staging pointers, every pending submission, and every checked-out
// working label, together with each of their ancestors.
func (c *Collector) liveSet(ctx context.Context) (map[int]struct{}, error) {
	live := map[int]struct{}{}

	add := func(id int) error {
		ancestors, err := c.editions.Ancestors(ctx, id)
		if err != nil {
			return err
		}
		for _, a := range ancestors {
			live[a] = struct{}{}
		}
		return nil
	}

	staging, err := c.publish.Staging(ctx)
	if err != nil {
		return nil, err
	}
	if err := add(staging); err != nil {
		return nil, err
	}

	production, err := c.publish.Production(ctx)
	if err != nil {
		return nil, err
	}
	if err := add(production); err != nil {
		return nil, err
	}

	pendingKeys, err := c.backend.List(ctx, "contents/.pending/", "")
	if err != nil {
		return nil, err
	}
	for _, key := range pendingKeys {
		data, err := c.backend.Read(ctx, "contents/.pending/"+key)
		if err != nil {
			return nil, err
		}
		var pending publish.Pending
		if err := json.Unmarshal(data, &pending); err != nil {
			return nil, errs.New("corrupt pending record %q: %v", key, err)
		}
		if err := add(pending.Edition); err != nil {
			return nil, err
		}
	}

	labelFiles, err := c.backend.List(ctx, "contents/", "/")
	if err != nil {
		return nil, err
	}
	for _, child := range labelFiles {
		if strings.HasSuffix(child, "/") {
			continue
		}
		if child == ".production.json" || child == ".staging.json" || child == ".lock" {
			continue
		}
		if !strings.HasPrefix(child, ".") || !strings.HasSuffix(child, ".json") {
			continue
		}
		label := strings.TrimSuffix(strings.TrimPrefix(child, "."), ".json")
		state, err := c.publish.ReadLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		if err := add(state.Edition); err != nil {
			return nil, err
		}
	}

	return live, nil
}

// buildFilter builds a bloom filter over every hash referenced by a live
// edition's path files, scanning editions concurrently.
func (c *Collector) buildFilter(ctx context.Context, live map[int]struct{}) (*bloomfilter.Filter, error) {
	var mu sync.Mutex
	var hashes []khash.Hash

	var group errs2.Group
	for id := range live {
		id := id
		group.Go(func() error {
			files, err := c.editions.PathFiles(ctx, id)
			if err != nil {
				return err
			}
			var local []khash.Hash
			for _, key := range files {
				data, err := c.backend.Read(ctx, key)
				if err != nil {
					return err
				}
				hash, ok, err := khash.DecodePayload(data)
				if err != nil {
					return err
				}
				if ok {
					local = append(local, hash)
				}
			}
			mu.Lock()
			hashes = append(hashes, local...)
			mu.Unlock()
			return nil
		})
	}
	if errList := group.Wait(); len(errList) > 0 {
		return nil, errs.Combine(errList...)
	}

	filter := bloomfilter.NewFilter(len(hashes)+1, 0.01)
	for _, h := range hashes {
		filter.Add([]byte(h))
	}
	return filter, nil
}

func (c *Collector) scanObjects(ctx context.Context, live map[int]struct{}, filter *bloomfilter.Filter, cfg kronoaconfig.GCConfig, now time.Time) (Result, error) {
	keys, err := c.backend.List(ctx, "objects/", "")
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, key := range keys {
		if !strings.HasSuffix(key, ".dat") {
			continue
		}
		parts := strings.SplitN(key, "/", 2)
		if len(parts) != 2 {
			continue
		}
		hash, err := khash.Parse(strings.TrimSuffix(parts[1], ".dat"))
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.ScannedObjects++

		keep, err := c.keptByRefIndex(ctx, hash, live)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if keep {
			result.SkippedByRef++
			continue
		}

		if filter.Contains([]byte(hash)) {
			referenced, err := c.keptByScan(ctx, hash, live)
			if err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			if referenced {
				result.SkippedByScan++
				continue
			}
		}

		modTime, _, err := c.backend.Stat(ctx, "objects/"+key)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		if now.Sub(modTime) < cfg.GracePeriod {
			result.SkippedByAge++
			continue
		}

		if !cfg.DryRun {
			if err := c.backend.Delete(ctx, hash.DataPath()); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			if err := c.backend.Delete(ctx, hash.RefPath()); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
		}
		result.DeletedObjects++
	}

	return result, nil
}

func (c *Collector) keptByRefIndex(ctx context.Context, hash khash.Hash, live map[int]struct{}) (bool, error) {
	data, err := c.backend.Read(ctx, hash.RefPath())
	if kstore.ErrNotFound.Has(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		id, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		if _, ok := live[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Collector) keptByScan(ctx context.Context, hash khash.Hash, live map[int]struct{}) (bool, error) {
	var found int32

	var group errs2.Group
	for id := range live {
		id := id
		group.Go(func() error {
			if atomic.LoadInt32(&found) != 0 {
				return nil
			}
			files, err := c.editions.PathFiles(ctx, id)
			if err != nil {
				return err
			}
			for _, key := range files {
				data, err := c.backend.Read(ctx, key)
				if err != nil {
					return err
				}
				h, ok, err := khash.DecodePayload(data)
				if err != nil {
					return err
				}
				if ok && h == hash {
					atomic.StoreInt32(&found, 1)
					return nil
				}
			}
			return nil
		})
	}
	if errList := group.Wait(); len(errList) > 0 {
		return false, errs.Combine(errList...)
	}
	return atomic.LoadInt32(&found) != 0, nil
}
