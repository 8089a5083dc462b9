// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package errs2_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/internal/errs2"
)

func TestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.True(t, errs2.IsCanceled(ctx.Err()))
	require.False(t, errs2.IsCanceled(fmt.Errorf("boom")))
}

func TestIgnoreCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, errs2.IgnoreCanceled(ctx.Err()))

	boom := fmt.Errorf("boom")
	require.Equal(t, boom, errs2.IgnoreCanceled(boom))
}
