// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package gc_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/internal/kronoaconfig"
	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/gc"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore/memstore"
	"github.com/codelynx/kronoa/pkg/publish"
)

func lockCfg() kronoaconfig.LockConfig {
	c := kronoaconfig.DefaultLocalLockConfig()
	c.AcquireTimeout = time.Second
	c.Lease = 5 * time.Second
	c.RenewInterval = 2 * time.Second
	return c
}

func TestGCDeletesUnreferencedObjectPastGracePeriod(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	backend := memstore.NewWithClock(clock)
	editions := edition.NewStore(backend)
	_, err := editions.Bootstrap(ctx)
	require.NoError(t, err)
	pub := publish.NewMachine(backend, editions)
	require.NoError(t, pub.Bootstrap(ctx))

	// write an object that no path file references, then stage an edition
	// that only tombstones an unrelated path, so nothing live points at it.
	hash := khash.Sum([]byte("orphaned"))
	require.NoError(t, backend.Write(ctx, hash.DataPath(), []byte("orphaned")))

	id, err := editions.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(id, "gone.txt"), []byte(khash.PayloadDeleted)))

	state := publish.SessionState{Edition: id, Base: edition.GenesisID, Source: edition.SourceStaging}
	require.NoError(t, pub.Submit(ctx, id, state, "alice", "remove", clock.Now()))
	require.NoError(t, pub.Stage(ctx, id, lockCfg()))

	collector := gc.NewCollector(backend, editions, pub)
	cfg := kronoaconfig.GCConfig{GracePeriod: time.Hour}

	result, err := collector.Run(ctx, cfg, lockCfg(), clock.Now())
	require.NoError(t, err)
	require.Equal(t, 0, result.DeletedObjects)
	require.Equal(t, 1, result.SkippedByAge)

	clock.Advance(2 * time.Hour)
	result, err = collector.Run(ctx, cfg, lockCfg(), clock.Now())
	require.NoError(t, err)
	require.Equal(t, 1, result.DeletedObjects)

	exists, err := backend.Exists(ctx, hash.DataPath())
	require.NoError(t, err)
	require.False(t, exists)
}

func TestGCKeepsLiveObjects(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	backend := memstore.NewWithClock(clock)
	editions := edition.NewStore(backend)
	_, err := editions.Bootstrap(ctx)
	require.NoError(t, err)
	pub := publish.NewMachine(backend, editions)
	require.NoError(t, pub.Bootstrap(ctx))

	hash := khash.Sum([]byte("keep me"))
	require.NoError(t, backend.Write(ctx, hash.DataPath(), []byte("keep me")))

	id, err := editions.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(id, "kept.txt"), []byte(hash.EncodePayload())))

	state := publish.SessionState{Edition: id, Base: edition.GenesisID, Source: edition.SourceStaging}
	require.NoError(t, pub.Submit(ctx, id, state, "alice", "keep", clock.Now()))
	require.NoError(t, pub.Stage(ctx, id, lockCfg()))

	clock.Advance(48 * time.Hour)

	collector := gc.NewCollector(backend, editions, pub)
	result, err := collector.Run(ctx, kronoaconfig.DefaultGCConfig(), lockCfg(), clock.Now())
	require.NoError(t, err)
	require.Equal(t, 0, result.DeletedObjects)
	require.Equal(t, 1, result.SkippedByRef)

	exists, err := backend.Exists(ctx, hash.DataPath())
	require.NoError(t, err)
	require.True(t, exists)
}
