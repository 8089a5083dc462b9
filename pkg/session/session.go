// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package session implements the content session façade: the public
// surface editors and admins drive checkout, reads, buffered writes, and
// submission through.
package session

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/pathpolicy"
	"github.com/codelynx/kronoa/pkg/publish"
	"github.com/codelynx/kronoa/pkg/txbuffer"
)

// Mode is the session's current lifecycle state.
type Mode int

// The three session modes.
const (
	// ModeReadOnly is the state a freshly opened session starts in.
	ModeReadOnly Mode = iota
	// ModeEditing is entered by Checkout and exited by Submit.
	ModeEditing
	// ModeSubmitted is the terminal state of one checkout; a new
	// Checkout is required to edit again.
	ModeSubmitted
)

// Error classes for session operations.
var (
	ErrReadOnlyMode = errs.Class("read_only_mode")
	ErrLabelInUse   = errs.Class("label_in_use")
	ErrInvalidState = errs.Class("invalid_state")
)

// Stat is the result of resolving one path.
type Stat struct {
	Path         string
	Status       edition.Status
	ResolvedFrom int
	Hash         khash.Hash
	Size         int64
}

// Session is the public façade over one edition lineage. It is not safe
// for concurrent use by multiple goroutines: ordering within a session is
// sequential, matching the single-logical-thread concurrency model.
type Session struct {
	backend  kstore.Backend
	editions *edition.Store
	publish  *publish.Machine

	mode      Mode
	editionID int
	baseID    int
	source    edition.Source
	label     string
	buffer    *txbuffer.Buffer
}

// Open returns a read-only session positioned at the edition currently
// pointed to by source (staging or production).
func Open(ctx context.Context, backend kstore.Backend, editions *edition.Store, pub *publish.Machine, source edition.Source) (*Session, error) {
	var id int
	var err error
	switch source {
	case edition.SourceStaging:
		id, err = pub.Staging(ctx)
	case edition.SourceProduction:
		id, err = pub.Production(ctx)
	default:
		err = edition.ErrInvalidSource.New("%q", source)
	}
	if err != nil {
		return nil, err
	}
	return &Session{backend: backend, editions: editions, publish: pub, mode: ModeReadOnly, editionID: id}, nil
}

// OpenEdition returns a read-only session positioned directly at id, for
// inspecting history independent of either pointer.
func OpenEdition(backend kstore.Backend, editions *edition.Store, pub *publish.Machine, id int) *Session {
	return &Session{backend: backend, editions: editions, publish: pub, mode: ModeReadOnly, editionID: id}
}

// Resume reconstructs the editing session checked out under label, reading
// its working pointer back from storage. Each command-line invocation is a
// fresh process, so this is how a multi-step checkout/write/submit workflow
// survives across separate runs of the same binary; the transaction buffer
// always starts empty, matching the fact that an unflushed buffer never
// left memory from the run that built it.
func Resume(ctx context.Context, backend kstore.Backend, editions *edition.Store, pub *publish.Machine, label string) (*Session, error) {
	state, err := pub.ReadLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	return &Session{
		backend:   backend,
		editions:  editions,
		publish:   pub,
		mode:      ModeEditing,
		editionID: state.Edition,
		baseID:    state.Base,
		source:    state.Source,
		label:     label,
		buffer:    txbuffer.New(),
	}, nil
}

// Mode returns the session's current lifecycle state.
func (s *Session) Mode() Mode { return s.mode }

// EditionID returns the edition this session is currently positioned at.
func (s *Session) EditionID() int { return s.editionID }

// Checkout allocates a new working edition rooted at the current state of
// from, and transitions the session into editing mode under label.
func (s *Session) Checkout(ctx context.Context, label string, from edition.Source) error {
	if s.mode != ModeReadOnly {
		return ErrInvalidState.New("session is not read-only")
	}
	if err := pathpolicy.ValidateLabel(label); err != nil {
		return err
	}

	inUse, err := s.publish.LabelExists(ctx, label)
	if err != nil {
		return err
	}
	if inUse {
		return ErrLabelInUse.New("%s", label)
	}

	var base int
	switch from {
	case edition.SourceStaging:
		base, err = s.publish.Staging(ctx)
	case edition.SourceProduction:
		base, err = s.publish.Production(ctx)
	default:
		err = edition.ErrInvalidSource.New("%q", from)
	}
	if err != nil {
		return err
	}

	id, err := s.editions.Allocate(ctx, base)
	if err != nil {
		return err
	}

	state := publish.SessionState{Edition: id, Base: base, Source: from}
	if err := s.publish.WriteLabel(ctx, label, state); err != nil {
		return err
	}

	s.mode = ModeEditing
	s.editionID = id
	s.baseID = base
	s.source = from
	s.label = label
	s.buffer = txbuffer.New()
	return nil
}

// Read returns the bytes at path, resolved through the session's current
// edition and its ancestry.
func (s *Session) Read(ctx context.Context, path string) ([]byte, error) {
	res, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if res.Status != edition.StatusExists {
		return nil, kstore.ErrNotFound.New("%s", path)
	}
	return s.backend.Read(ctx, res.Hash.DataPath())
}

// Stat resolves path without fetching its bytes.
func (s *Session) Stat(ctx context.Context, path string) (Stat, error) {
	res, err := s.resolve(ctx, path)
	if err != nil {
		return Stat{}, err
	}
	out := Stat{Path: path, Status: res.Status, ResolvedFrom: res.ResolvedFrom}
	if res.Status == edition.StatusExists {
		out.Hash = res.Hash
		_, size, err := s.backend.Stat(ctx, res.Hash.DataPath())
		if err != nil {
			return Stat{}, err
		}
		out.Size = size
	}
	return out, nil
}

// Exists reports whether path currently resolves to a live hash.
func (s *Session) Exists(ctx context.Context, path string) (bool, error) {
	stat, err := s.Stat(ctx, path)
	if err != nil {
		return false, err
	}
	return stat.Status == edition.StatusExists, nil
}

func (s *Session) resolve(ctx context.Context, path string) (edition.Resolution, error) {
	path = pathpolicy.Normalize(path)
	if err := pathpolicy.ValidatePublic(path); err != nil {
		return edition.Resolution{}, err
	}
	return s.editions.Resolve(ctx, s.editionID, path)
}

// List returns the merged directory listing of dir as seen through the
// session's current edition.
func (s *Session) List(ctx context.Context, dir string) ([]edition.Entry, error) {
	dir = pathpolicy.Normalize(dir)
	if dir != "" {
		if err := pathpolicy.ValidatePublic(dir); err != nil {
			return nil, err
		}
	}
	return s.editions.ListMerged(ctx, s.editionID, dir)
}

func (s *Session) requireEditing() error {
	if s.mode != ModeEditing {
		return ErrReadOnlyMode.New("session is not in editing mode")
	}
	return nil
}

// Write buffers path as written with data, returning its content hash.
func (s *Session) Write(path string, data []byte) (khash.Hash, error) {
	if err := s.requireEditing(); err != nil {
		return "", err
	}
	path = pathpolicy.Normalize(path)
	if err := pathpolicy.ValidatePublic(path); err != nil {
		return "", err
	}
	return s.buffer.Write(path, data), nil
}

// Delete buffers path as tombstoned.
func (s *Session) Delete(path string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	path = pathpolicy.Normalize(path)
	if err := pathpolicy.ValidatePublic(path); err != nil {
		return err
	}
	s.buffer.Delete(path)
	return nil
}

// Copy resolves from through the current edition's ancestry and buffers
// to as a reference to the same hash, with no byte transfer.
func (s *Session) Copy(ctx context.Context, from, to string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	to = pathpolicy.Normalize(to)
	if err := pathpolicy.ValidatePublic(to); err != nil {
		return err
	}
	res, err := s.resolve(ctx, from)
	if err != nil {
		return err
	}
	if res.Status != edition.StatusExists {
		return kstore.ErrNotFound.New("%s", from)
	}
	s.buffer.Copy(to, res.Hash)
	return nil
}

// Discard removes path from the buffer; if it was already flushed to the
// current edition (and not re-buffered since), it deletes that path file
// so resolution falls through to ancestry again.
func (s *Session) Discard(ctx context.Context, path string) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	path = pathpolicy.Normalize(path)
	if err := pathpolicy.ValidatePublic(path); err != nil {
		return err
	}
	if s.buffer.Discard(path) {
		return nil
	}
	return s.backend.Delete(ctx, khash.EditionPathFile(s.editionID, path))
}

// BeginEditing opens an explicit transaction on the buffer.
func (s *Session) BeginEditing() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	return s.buffer.Begin()
}

// EndEditing flushes the buffer. On failure the session stays in editing
// mode with the buffer untouched, so the caller can retry EndEditing
// (idempotent) or call Rollback.
func (s *Session) EndEditing(ctx context.Context) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	return s.buffer.Flush(ctx, s.backend, s.editionID)
}

// Rollback discards the buffer without touching storage.
func (s *Session) Rollback() error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	s.buffer.Rollback()
	return nil
}

// Submit flushes any open transaction, records a pending submission, and
// transitions the session to ModeSubmitted.
func (s *Session) Submit(ctx context.Context, message string, now time.Time) error {
	if err := s.requireEditing(); err != nil {
		return err
	}
	if err := s.buffer.Flush(ctx, s.backend, s.editionID); err != nil {
		return err
	}

	state := publish.SessionState{Edition: s.editionID, Base: s.baseID, Source: s.source}
	if err := s.publish.Submit(ctx, s.editionID, state, s.label, message, now); err != nil {
		return err
	}
	s.mode = ModeSubmitted
	return nil
}
