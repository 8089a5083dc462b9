// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package kstoretest runs a shared behavioral test suite against any
// kstore.Backend implementation, the way the teacher's
// private/kvstore/testsuite runs one table of CRUD/range tests against
// every kvstore.Store implementation.
package kstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/pkg/kstore"
)

// RunSuite exercises backend with the full behavioral contract kstore.Backend
// promises. Every reference backend (memstore, localfs) must pass it.
func RunSuite(t *testing.T, backend kstore.Backend) {
	t.Run("ReadWriteDelete", func(t *testing.T) { testReadWriteDelete(t, backend) })
	t.Run("WriteIfAbsent", func(t *testing.T) { testWriteIfAbsent(t, backend) })
	t.Run("List", func(t *testing.T) { testList(t, backend) })
	t.Run("AtomicIncrement", func(t *testing.T) { testAtomicIncrement(t, backend) })
	t.Run("Lock", func(t *testing.T) { testLock(t, backend) })
}

func testReadWriteDelete(t *testing.T, backend kstore.Backend) {
	ctx := context.Background()

	_, err := backend.Read(ctx, "a/b/missing")
	require.Error(t, err)
	require.True(t, kstore.ErrNotFound.Has(err))

	require.NoError(t, backend.Write(ctx, "a/b/c", []byte("hello")))
	got, err := backend.Read(ctx, "a/b/c")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)

	exists, err := backend.Exists(ctx, "a/b/c")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, backend.Write(ctx, "a/b/c", []byte("world")))
	got, err = backend.Read(ctx, "a/b/c")
	require.NoError(t, err)
	require.Equal(t, []byte("world"), got)

	require.NoError(t, backend.Delete(ctx, "a/b/c"))
	exists, err = backend.Exists(ctx, "a/b/c")
	require.NoError(t, err)
	require.False(t, exists)

	// deleting an absent key is not an error
	require.NoError(t, backend.Delete(ctx, "a/b/c"))
}

func testWriteIfAbsent(t *testing.T, backend kstore.Backend) {
	ctx := context.Background()
	defer func() { _ = backend.Delete(ctx, "wia/x") }()

	wrote, err := backend.WriteIfAbsent(ctx, "wia/x", []byte("first"))
	require.NoError(t, err)
	require.True(t, wrote)

	wrote, err = backend.WriteIfAbsent(ctx, "wia/x", []byte("second"))
	require.NoError(t, err)
	require.False(t, wrote)

	got, err := backend.Read(ctx, "wia/x")
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got)
}

func testList(t *testing.T, backend kstore.Backend) {
	ctx := context.Background()
	keys := []string{
		"list/a",
		"list/b/1",
		"list/b/2",
		"list/c",
	}
	for _, k := range keys {
		require.NoError(t, backend.Write(ctx, k, []byte(k)))
	}
	defer func() {
		for _, k := range keys {
			_ = backend.Delete(ctx, k)
		}
	}()

	children, err := backend.List(ctx, "list/", "/")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b/", "c"}, children)

	all, err := backend.List(ctx, "list/", "")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b/1", "b/2", "c"}, all)
}

func testAtomicIncrement(t *testing.T, backend kstore.Backend) {
	ctx := context.Background()
	defer func() { _ = backend.Delete(ctx, "counters/head") }()

	first, err := backend.AtomicIncrement(ctx, "counters/head", 10000)
	require.NoError(t, err)
	require.Equal(t, 10000, first)

	second, err := backend.AtomicIncrement(ctx, "counters/head", 10000)
	require.NoError(t, err)
	require.Equal(t, 10001, second)

	third, err := backend.AtomicIncrement(ctx, "counters/head", 10000)
	require.NoError(t, err)
	require.Equal(t, 10002, third)
}

func testLock(t *testing.T, backend kstore.Backend) {
	ctx := context.Background()
	defer func() { _ = backend.Delete(ctx, "locks/one") }()

	first, err := backend.AcquireLock(ctx, "locks/one", time.Second, time.Minute)
	require.NoError(t, err)

	_, err = backend.AcquireLock(ctx, "locks/one", 50*time.Millisecond, time.Minute)
	require.Error(t, err)
	require.True(t, kstore.ErrLockTimeout.Has(err))

	require.NoError(t, first.Renew(ctx, time.Minute))
	require.NoError(t, first.Release(ctx))

	second, err := backend.AcquireLock(ctx, "locks/one", time.Second, time.Minute)
	require.NoError(t, err)
	require.NoError(t, second.Release(ctx))
}
