// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package localfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/pkg/kstore/kstoretest"
	"github.com/codelynx/kronoa/pkg/kstore/localfs"
)

func TestSuite(t *testing.T) {
	store, err := localfs.New(t.TempDir())
	require.NoError(t, err)

	kstoretest.RunSuite(t, store)
}
