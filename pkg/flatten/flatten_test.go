// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package flatten_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/internal/kronoaconfig"
	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/flatten"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore/memstore"
)

func lockCfg() kronoaconfig.LockConfig {
	c := kronoaconfig.DefaultLocalLockConfig()
	c.AcquireTimeout = time.Second
	c.Lease = 5 * time.Second
	c.RenewInterval = 2 * time.Second
	return c
}

func TestFlattenMaterializesAncestry(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	editions := edition.NewStore(backend)
	_, err := editions.Bootstrap(ctx)
	require.NoError(t, err)

	base := edition.GenesisID
	h1 := khash.Sum([]byte("v1"))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(base, "a.txt"), []byte(h1.EncodePayload())))

	mid, err := editions.Allocate(ctx, base)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(mid, "b.txt"), []byte(khash.PayloadDeleted)))

	tip, err := editions.Allocate(ctx, mid)
	require.NoError(t, err)

	f := flatten.NewFlattener(backend, editions)
	require.NoError(t, f.Flatten(ctx, tip, lockCfg()))

	data, err := backend.Read(ctx, khash.EditionPathFile(tip, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, h1.EncodePayload(), string(data))

	flattened, err := backend.Exists(ctx, khash.EditionFlattenedPath(tip))
	require.NoError(t, err)
	require.True(t, flattened)

	// resolving through tip no longer walks past it.
	ancestors, err := editions.Ancestors(ctx, tip)
	require.NoError(t, err)
	require.Equal(t, []int{tip}, ancestors)
}
