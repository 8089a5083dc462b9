// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package txbuffer implements the content session's in-memory write
// buffer: writes, tombstones, and copies accumulate locally and are
// flushed to the backend as a unit.
package txbuffer

import (
	"context"

	"github.com/zeebo/errs"

	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore"
)

// ErrAlreadyEditing classifies a beginEditing call made while already in
// a transaction.
var ErrAlreadyEditing = errs.Class("already_editing")

type write struct {
	hash khash.Hash
	data []byte
}

// Buffer accumulates an edition's pending mutations until flushed. It is
// owned exclusively by one session; there is no package-level state and
// no sharing between sessions.
type Buffer struct {
	inTransaction bool

	writes     map[string]write
	tombstones map[string]struct{}
	copies     map[string]khash.Hash
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{
		writes:     make(map[string]write),
		tombstones: make(map[string]struct{}),
		copies:     make(map[string]khash.Hash),
	}
}

// InTransaction reports whether Begin has been called without a matching
// Flush or Rollback.
func (b *Buffer) InTransaction() bool {
	return b.inTransaction
}

// Begin opens an explicit transaction. Write, Delete and Copy only record
// in the buffer, inside or outside a transaction: a single call outside a
// transaction is not committed on its own, and nothing reaches storage
// until Flush.
func (b *Buffer) Begin() error {
	if b.inTransaction {
		return ErrAlreadyEditing.New("already in a transaction")
	}
	b.inTransaction = true
	return nil
}

// Write records path as written with the given bytes, computing its hash.
func (b *Buffer) Write(path string, data []byte) khash.Hash {
	hash := khash.Sum(data)
	b.writes[path] = write{hash: hash, data: data}
	delete(b.tombstones, path)
	delete(b.copies, path)
	return hash
}

// Delete records path as tombstoned.
func (b *Buffer) Delete(path string) {
	b.tombstones[path] = struct{}{}
	delete(b.writes, path)
	delete(b.copies, path)
}

// Copy records that path to should resolve to hash, with no byte
// transfer.
func (b *Buffer) Copy(to string, hash khash.Hash) {
	b.copies[to] = hash
	delete(b.writes, to)
	delete(b.tombstones, to)
}

// Discard removes path from the buffer, if present, reporting whether
// anything was there. It does not touch any path file already flushed to
// storage; callers that need to unwind a flushed write do so by deleting
// the edition's path file directly.
func (b *Buffer) Discard(path string) (had bool) {
	if _, ok := b.writes[path]; ok {
		delete(b.writes, path)
		had = true
	}
	if _, ok := b.tombstones[path]; ok {
		delete(b.tombstones, path)
		had = true
	}
	if _, ok := b.copies[path]; ok {
		delete(b.copies, path)
		had = true
	}
	return had
}

// Empty reports whether the buffer has nothing to flush.
func (b *Buffer) Empty() bool {
	return len(b.writes) == 0 && len(b.tombstones) == 0 && len(b.copies) == 0
}

// Rollback discards the buffer without touching storage.
func (b *Buffer) Rollback() {
	b.writes = make(map[string]write)
	b.tombstones = make(map[string]struct{})
	b.copies = make(map[string]khash.Hash)
	b.inTransaction = false
}

// Flush uploads any object bytes not yet present, then writes every
// buffered path file under edition id, then clears the buffer. Flush is
// idempotent: step 1 uses write-if-absent semantics and step 2 always
// overwrites, so a retried Flush after a partial failure is safe.
func (b *Buffer) Flush(ctx context.Context, backend kstore.Backend, id int) error {
	for _, w := range b.writes {
		exists, err := backend.Exists(ctx, w.hash.DataPath())
		if err != nil {
			return err
		}
		if !exists {
			if _, err := backend.WriteIfAbsent(ctx, w.hash.DataPath(), w.data); err != nil {
				return err
			}
		}
	}

	for path, w := range b.writes {
		if err := backend.Write(ctx, khash.EditionPathFile(id, path), []byte(w.hash.EncodePayload())); err != nil {
			return err
		}
	}
	for path, hash := range b.copies {
		if err := backend.Write(ctx, khash.EditionPathFile(id, path), []byte(hash.EncodePayload())); err != nil {
			return err
		}
	}
	for path := range b.tombstones {
		if err := backend.Write(ctx, khash.EditionPathFile(id, path), []byte(khash.PayloadDeleted)); err != nil {
			return err
		}
	}

	b.writes = make(map[string]write)
	b.tombstones = make(map[string]struct{})
	b.copies = make(map[string]khash.Hash)
	b.inTransaction = false
	return nil
}
