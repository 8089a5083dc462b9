// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/pkg/kstore/memstore"
	"github.com/codelynx/kronoa/pkg/lock"
)

func TestAcquireRenewRelease(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()

	h, err := lock.Acquire(ctx, backend, time.Second, 50*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, h.Renew(ctx))
	require.NoError(t, h.Release(ctx))

	// a second acquire succeeds now that the lease was released.
	h2, err := lock.Acquire(ctx, backend, time.Second, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, h2.Release(ctx))
}

func TestSecondAcquireTimesOutWhileHeld(t *testing.T) {
	ctx := context.Background()
	backend := memstore.New()

	h, err := lock.Acquire(ctx, backend, time.Second, time.Minute)
	require.NoError(t, err)
	defer h.Release(ctx)

	_, err = lock.Acquire(ctx, backend, 50*time.Millisecond, time.Minute)
	require.Error(t, err)
}
