// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package edition

import (
	"context"
	"sort"
	"strconv"

	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore"
)

// Store is the edition lineage, backed by a kstore.Backend.
type Store struct {
	backend kstore.Backend
}

// NewStore returns a Store backed by backend.
func NewStore(backend kstore.Backend) *Store {
	return &Store{backend: backend}
}

// Bootstrap creates the genesis edition if the repository has never been
// initialized. isNew is false when bootstrap had already run.
func (s *Store) Bootstrap(ctx context.Context) (isNew bool, err error) {
	wrote, err := s.backend.WriteIfAbsent(ctx, khash.HeadCounterPath, []byte(strconv.Itoa(GenesisID)))
	if err != nil {
		return false, err
	}
	if !wrote {
		return false, nil
	}
	if err := s.backend.Write(ctx, khash.EditionFlattenedPath(GenesisID), []byte{}); err != nil {
		return false, err
	}
	return true, nil
}

// Allocate reserves a new edition id rooted at base.
func (s *Store) Allocate(ctx context.Context, base int) (int, error) {
	id, err := s.backend.AtomicIncrement(ctx, khash.HeadCounterPath, GenesisID)
	if err != nil {
		return 0, err
	}
	if err := s.backend.Write(ctx, khash.EditionOriginPath(id), []byte(strconv.Itoa(base))); err != nil {
		return 0, err
	}
	return id, nil
}

// Exists reports whether id has actually been allocated: either it is the
// genesis edition, or it carries an `.origin` marker written by Allocate.
func (s *Store) Exists(ctx context.Context, id int) (bool, error) {
	if id == GenesisID {
		return true, nil
	}
	return s.backend.Exists(ctx, khash.EditionOriginPath(id))
}

// parent returns the origin of edition id, and ok=false if id is the
// ancestry terminus (flattened, or has no recorded origin).
func (s *Store) parent(ctx context.Context, id int) (parentID int, ok bool, err error) {
	flattened, err := s.backend.Exists(ctx, khash.EditionFlattenedPath(id))
	if err != nil {
		return 0, false, err
	}
	if flattened {
		return 0, false, nil
	}

	data, err := s.backend.Read(ctx, khash.EditionOriginPath(id))
	if kstore.ErrNotFound.Has(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	parentID, err = parseEditionID(data)
	if err != nil {
		return 0, false, err
	}
	return parentID, true, nil
}

// Ancestors returns the ancestry chain starting at id, id included, in
// nearest-first order, up to and including the edition at which the chain
// terminates (flattened, or has no origin).
func (s *Store) Ancestors(ctx context.Context, id int) ([]int, error) {
	chain := []int{id}
	for {
		parentID, ok, err := s.parent(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return chain, nil
		}
		chain = append(chain, parentID)
		id = parentID
	}
}

// Resolve walks edition's ancestry for path, returning the nearest
// ancestor's recorded state.
func (s *Store) Resolve(ctx context.Context, id int, path string) (Resolution, error) {
	for {
		data, err := s.backend.Read(ctx, khash.EditionPathFile(id, path))
		if err == nil {
			hash, ok, derr := khash.DecodePayload(data)
			if derr != nil {
				return Resolution{}, derr
			}
			if !ok {
				return Resolution{Status: StatusDeleted, ResolvedFrom: id}, nil
			}
			return Resolution{Status: StatusExists, ResolvedFrom: id, Hash: hash}, nil
		}
		if !kstore.ErrNotFound.Has(err) {
			return Resolution{}, err
		}

		parentID, ok, err := s.parent(ctx, id)
		if err != nil {
			return Resolution{}, err
		}
		if !ok {
			return Resolution{Status: StatusMissing}, nil
		}
		id = parentID
	}
}

// ListMerged lists the immediate children of dir as seen through edition's
// ancestry, applying name-first shadowing: the nearest ancestor to record a
// name (file or subdirectory) decides that name's fate, and farther
// ancestors are never consulted for it again.
func (s *Store) ListMerged(ctx context.Context, id int, dir string) ([]Entry, error) {
	decided := map[string]bool{}
	var out []Entry

	walkID := id
	for {
		prefix := khash.EditionsPrefix(walkID)
		if dir != "" {
			prefix += dir + "/"
		}

		children, err := s.backend.List(ctx, prefix, "/")
		if err != nil {
			return nil, err
		}

		for _, child := range children {
			isDir := len(child) > 0 && child[len(child)-1] == '/'
			name := child
			if isDir {
				name = child[:len(child)-1]
			}
			if name == "" || isSystemFile(name) {
				continue
			}
			if _, seen := decided[name]; seen {
				continue
			}

			if isDir {
				decided[name] = true
				// A subdirectory prefix decides the name at this level, but
				// it is only surfaced if it still has a surviving entry once
				// its own ancestry is merged: an all-tombstoned subtree must
				// not appear as a live "name/".
				sub, err := s.ListMerged(ctx, id, joinDir(dir, name))
				if err != nil {
					return nil, err
				}
				if len(sub) > 0 {
					out = append(out, Entry{Name: name + "/", IsDir: true})
				}
				continue
			}

			data, err := s.backend.Read(ctx, khash.EditionPathFile(walkID, joinDir(dir, name)))
			if err != nil {
				return nil, err
			}
			_, ok, derr := khash.DecodePayload(data)
			if derr != nil {
				return nil, derr
			}
			decided[name] = true
			if ok {
				out = append(out, Entry{Name: name})
			}
		}

		parentID, ok, err := s.parent(ctx, walkID)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		walkID = parentID
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PathFiles enumerates every path file recorded directly in edition id
// (not its ancestry), as full backend keys (editions/{id}/{path}). It is
// used by staging (to build the ref index) and flattening (to discover
// what a single edition contributed).
func (s *Store) PathFiles(ctx context.Context, id int) ([]string, error) {
	prefix := khash.EditionsPrefix(id)
	keys, err := s.backend.List(ctx, prefix, "")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if isSystemFile(key) {
			continue
		}
		out = append(out, prefix+key)
	}
	sort.Strings(out)
	return out, nil
}

func isSystemFile(name string) bool {
	return name == ".origin" || name == ".flattened"
}
