// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/kstore/memstore"
	"github.com/codelynx/kronoa/pkg/publish"
	"github.com/codelynx/kronoa/pkg/session"
)

func bootstrap(t *testing.T) (*memstore.Store, *edition.Store, *publish.Machine) {
	ctx := context.Background()
	backend := memstore.New()
	editions := edition.NewStore(backend)
	_, err := editions.Bootstrap(ctx)
	require.NoError(t, err)

	pub := publish.NewMachine(backend, editions)
	require.NoError(t, pub.Bootstrap(ctx))
	return backend, editions, pub
}

func TestCheckoutAndEditLifecycle(t *testing.T) {
	ctx := context.Background()
	backend, editions, pub := bootstrap(t)

	sess, err := session.Open(ctx, backend, editions, pub, edition.SourceStaging)
	require.NoError(t, err)
	require.Equal(t, session.ModeReadOnly, sess.Mode())

	require.NoError(t, sess.Checkout(ctx, "alice", edition.SourceStaging))
	require.Equal(t, session.ModeEditing, sess.Mode())

	hash, err := sess.Write("article.md", []byte("draft"))
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	require.NoError(t, sess.EndEditing(ctx))

	data, err := sess.Read(ctx, "article.md")
	require.NoError(t, err)
	require.Equal(t, []byte("draft"), data)

	stat, err := sess.Stat(ctx, "article.md")
	require.NoError(t, err)
	require.Equal(t, edition.StatusExists, stat.Status)
	require.Equal(t, int64(len("draft")), stat.Size)

	require.NoError(t, sess.Submit(ctx, "first draft", time.Now()))
	require.Equal(t, session.ModeSubmitted, sess.Mode())
}

func TestWriteOutsideEditingFails(t *testing.T) {
	ctx := context.Background()
	backend, editions, pub := bootstrap(t)

	sess, err := session.Open(ctx, backend, editions, pub, edition.SourceStaging)
	require.NoError(t, err)

	_, err = sess.Write("a.txt", []byte("x"))
	require.Error(t, err)
	require.True(t, session.ErrReadOnlyMode.Has(err))
}

func TestCheckoutRejectsDuplicateLabel(t *testing.T) {
	ctx := context.Background()
	backend, editions, pub := bootstrap(t)

	first, err := session.Open(ctx, backend, editions, pub, edition.SourceStaging)
	require.NoError(t, err)
	require.NoError(t, first.Checkout(ctx, "alice", edition.SourceStaging))

	second, err := session.Open(ctx, backend, editions, pub, edition.SourceStaging)
	require.NoError(t, err)
	err = second.Checkout(ctx, "alice", edition.SourceStaging)
	require.Error(t, err)
	require.True(t, session.ErrLabelInUse.Has(err))
}

func TestDiscardFallsThroughToAncestry(t *testing.T) {
	ctx := context.Background()
	backend, editions, pub := bootstrap(t)

	sess, err := session.Open(ctx, backend, editions, pub, edition.SourceStaging)
	require.NoError(t, err)
	require.NoError(t, sess.Checkout(ctx, "alice", edition.SourceStaging))

	_, err = sess.Write("a.txt", []byte("v1"))
	require.NoError(t, err)
	require.NoError(t, sess.EndEditing(ctx))

	require.NoError(t, sess.Discard(ctx, "a.txt"))

	stat, err := sess.Stat(ctx, "a.txt")
	require.NoError(t, err)
	require.Equal(t, edition.StatusMissing, stat.Status)
}
