// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package txbuffer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore/memstore"
	"github.com/codelynx/kronoa/pkg/txbuffer"
)

func TestFlushWritesObjectsAndPathFiles(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	buf := txbuffer.New()

	hash := buf.Write("a.txt", []byte("hello"))
	buf.Delete("b.txt")

	require.NoError(t, buf.Flush(ctx, backend, 10001))
	require.True(t, buf.Empty())

	data, err := backend.Read(ctx, hash.DataPath())
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	payload, err := backend.Read(ctx, khash.EditionPathFile(10001, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, hash.EncodePayload(), string(payload))

	payload, err = backend.Read(ctx, khash.EditionPathFile(10001, "b.txt"))
	require.NoError(t, err)
	require.Equal(t, khash.PayloadDeleted, string(payload))
}

func TestFlushIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	buf := txbuffer.New()

	buf.Write("a.txt", []byte("hello"))
	require.NoError(t, buf.Flush(ctx, backend, 10001))

	// flushing an empty buffer again is a no-op, matching the
	// "safe to retry" guidance for a session recovering from a
	// partially-applied flush.
	require.NoError(t, buf.Flush(ctx, backend, 10001))
}

func TestRollbackDiscardsBuffer(t *testing.T) {
	buf := txbuffer.New()
	require.NoError(t, buf.Begin())
	buf.Write("a.txt", []byte("hello"))
	require.False(t, buf.Empty())

	buf.Rollback()
	require.True(t, buf.Empty())
	require.False(t, buf.InTransaction())
}

func TestBeginTwiceFails(t *testing.T) {
	buf := txbuffer.New()
	require.NoError(t, buf.Begin())
	require.Error(t, buf.Begin())
}

func TestCopyRecordsHashWithoutBytes(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()
	buf := txbuffer.New()

	hash := khash.Sum([]byte("existing"))
	buf.Copy("c.txt", hash)
	require.NoError(t, buf.Flush(ctx, backend, 10001))

	exists, err := backend.Exists(ctx, hash.DataPath())
	require.NoError(t, err)
	require.False(t, exists)

	payload, err := backend.Read(ctx, khash.EditionPathFile(10001, "c.txt"))
	require.NoError(t, err)
	require.Equal(t, hash.EncodePayload(), string(payload))
}
