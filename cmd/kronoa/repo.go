// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"context"
	"strconv"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/kstore/localfs"
	"github.com/codelynx/kronoa/pkg/publish"
	"github.com/codelynx/kronoa/pkg/session"
)

// repository bundles the three long-lived handles every subcommand needs.
type repository struct {
	backend  kstore.Backend
	editions *edition.Store
	publish  *publish.Machine
}

// openRepository opens the local filesystem backend rooted at cfg.Root and
// wires up the edition store and publishing machine over it. It does not
// bootstrap: bootstrapCmd is the only command that may create the initial
// pointers and genesis edition.
func openRepository() (*repository, error) {
	backend, err := localfs.New(cfg.Root)
	if err != nil {
		return nil, err
	}
	editions := edition.NewStore(backend)
	pub := publish.NewMachine(backend, editions)
	return &repository{backend: backend, editions: editions, publish: pub}, nil
}

// resolveSession returns a session positioned at ref, which may name a
// published pointer ("staging", "production") or a numeric edition id
// (both read-only), or a checked-out working label (an editing session).
func resolveSession(ctx context.Context, repo *repository, ref string) (*session.Session, error) {
	switch ref {
	case "staging", "production":
		source, err := edition.ParseSource(ref)
		if err != nil {
			return nil, err
		}
		return session.Open(ctx, repo.backend, repo.editions, repo.publish, source)
	}

	if id, err := strconv.Atoi(ref); err == nil {
		return session.OpenEdition(repo.backend, repo.editions, repo.publish, id), nil
	}

	return session.Resume(ctx, repo.backend, repo.editions, repo.publish, ref)
}
