// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package publish_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codelynx/kronoa/internal/kronoaconfig"
	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore/memstore"
	"github.com/codelynx/kronoa/pkg/publish"
)

func setup(t *testing.T) (*memstore.Store, *edition.Store, *publish.Machine) {
	backend := memstore.New()
	editions := edition.NewStore(backend)

	_, err := editions.Bootstrap(context.Background())
	require.NoError(t, err)

	machine := publish.NewMachine(backend, editions)
	require.NoError(t, machine.Bootstrap(context.Background()))
	return backend, editions, machine
}

func cfg() kronoaconfig.LockConfig {
	c := kronoaconfig.DefaultLocalLockConfig()
	c.AcquireTimeout = time.Second
	c.Lease = 5 * time.Second
	c.RenewInterval = 2 * time.Second
	return c
}

func TestSubmitStageDeploy(t *testing.T) {
	ctx := context.Background()
	backend, editions, machine := setup(t)

	id, err := editions.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, khash.EditionPathFile(id, "a.txt"), []byte(khash.Sum([]byte("x")).EncodePayload())))

	state := publish.SessionState{Edition: id, Base: edition.GenesisID, Source: edition.SourceStaging}
	require.NoError(t, machine.Submit(ctx, id, state, "alice", "first edit", time.Now()))

	require.NoError(t, machine.Stage(ctx, id, cfg()))

	staging, err := machine.Staging(ctx)
	require.NoError(t, err)
	require.Equal(t, id, staging)

	ref, err := backend.Read(ctx, khash.Sum([]byte("x")).RefPath())
	require.NoError(t, err)
	require.Contains(t, string(ref), "10001")

	require.NoError(t, machine.Deploy(ctx, cfg()))
	production, err := machine.Production(ctx)
	require.NoError(t, err)
	require.Equal(t, id, production)
}

func TestStageDetectsConflict(t *testing.T) {
	ctx := context.Background()
	_, editions, machine := setup(t)

	idA, err := editions.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	stateA := publish.SessionState{Edition: idA, Base: edition.GenesisID, Source: edition.SourceStaging}
	require.NoError(t, machine.Submit(ctx, idA, stateA, "alice", "a", time.Now()))
	require.NoError(t, machine.Stage(ctx, idA, cfg()))

	idB, err := editions.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	stateB := publish.SessionState{Edition: idB, Base: edition.GenesisID, Source: edition.SourceStaging}
	require.NoError(t, machine.Submit(ctx, idB, stateB, "bob", "b", time.Now()))

	err = machine.Stage(ctx, idB, cfg())
	require.Error(t, err)
	require.True(t, publish.ErrConflictDetected.Has(err))
}

func TestRejectRemovesPending(t *testing.T) {
	ctx := context.Background()
	_, editions, machine := setup(t)

	id, err := editions.Allocate(ctx, edition.GenesisID)
	require.NoError(t, err)
	state := publish.SessionState{Edition: id, Base: edition.GenesisID, Source: edition.SourceStaging}
	require.NoError(t, machine.Submit(ctx, id, state, "alice", "a", time.Now()))

	require.NoError(t, machine.Reject(ctx, id, "needs work", time.Now()))

	err = machine.Stage(ctx, id, cfg())
	require.Error(t, err)
	require.True(t, publish.ErrPendingNotFound.Has(err))
}

func TestSetStagingPointerRejectsUnknownEdition(t *testing.T) {
	ctx := context.Background()
	_, _, machine := setup(t)

	err := machine.SetStagingPointer(ctx, 99999, cfg())
	require.Error(t, err)
	require.True(t, publish.ErrEditionNotFound.Has(err))
}
