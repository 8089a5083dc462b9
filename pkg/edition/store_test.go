// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package edition_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore/memstore"
)

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := edition.NewStore(memstore.New())

	isNew, err := store.Bootstrap(ctx)
	require.NoError(t, err)
	require.True(t, isNew)

	isNew, err = store.Bootstrap(ctx)
	require.NoError(t, err)
	require.False(t, isNew)
}

func TestAllocateAfterGenesis(t *testing.T) {
	ctx := context.Background()
	store := edition.NewStore(memstore.New())

	_, err := store.Bootstrap(ctx)
	require.NoError(t, err)

	id, err := store.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	require.Equal(t, edition.GenesisID+1, id)

	ancestors, err := store.Ancestors(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []int{id, edition.GenesisID}, ancestors)
}

func TestResolveWalksAncestry(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	store := edition.NewStore(backend)

	_, err := store.Bootstrap(ctx)
	require.NoError(t, err)

	base := edition.GenesisID
	hash := khash.Sum([]byte("hello"))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(base, "greeting.txt"), []byte(hash.EncodePayload())))

	child, err := store.Allocate(ctx, base)
	require.NoError(t, err)

	res, err := store.Resolve(ctx, child, "greeting.txt")
	require.NoError(t, err)
	require.Equal(t, edition.StatusExists, res.Status)
	require.Equal(t, base, res.ResolvedFrom)
	require.Equal(t, hash, res.Hash)

	res, err = store.Resolve(ctx, child, "missing.txt")
	require.NoError(t, err)
	require.Equal(t, edition.StatusMissing, res.Status)
}

func TestResolveStopsAtTombstone(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	store := edition.NewStore(backend)

	_, err := store.Bootstrap(ctx)
	require.NoError(t, err)

	base := edition.GenesisID
	hash := khash.Sum([]byte("v1"))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(base, "doc.txt"), []byte(hash.EncodePayload())))

	mid, err := store.Allocate(ctx, base)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(mid, "doc.txt"), []byte(khash.PayloadDeleted)))

	// the v1 hash recorded on base, older than the tombstone, must never
	// resurface; older is computed but never written to any edition.
	older := khash.Sum([]byte("v0"))
	_ = older

	tip, err := store.Allocate(ctx, mid)
	require.NoError(t, err)

	res, err := store.Resolve(ctx, tip, "doc.txt")
	require.NoError(t, err)
	require.Equal(t, edition.StatusDeleted, res.Status)
	require.Equal(t, mid, res.ResolvedFrom)
}

func TestListMergedShadowsByName(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	store := edition.NewStore(backend)

	_, err := store.Bootstrap(ctx)
	require.NoError(t, err)

	base := edition.GenesisID
	h1 := khash.Sum([]byte("one"))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(base, "a.txt"), []byte(h1.EncodePayload())))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(base, "b.txt"), []byte(h1.EncodePayload())))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(base, "dir/c.txt"), []byte(h1.EncodePayload())))

	child, err := store.Allocate(ctx, base)
	require.NoError(t, err)
	h2 := khash.Sum([]byte("two"))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(child, "a.txt"), []byte(h2.EncodePayload())))
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(child, "b.txt"), []byte(khash.PayloadDeleted)))

	entries, err := store.ListMerged(ctx, child, "")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = e.IsDir
	}
	require.True(t, names["a.txt"] == false)
	_, hasB := names["b.txt"]
	require.False(t, hasB)
	require.Contains(t, names, "dir/")
}
