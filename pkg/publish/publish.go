// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package publish implements the three-pointer publishing state machine:
// submit, stage, reject, deploy, and direct staging-pointer moves, all
// gated by the repository lock where the design calls for it.
package publish

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/errs"
	"golang.org/x/sync/errgroup"

	"github.com/codelynx/kronoa/internal/kronoaconfig"
	"github.com/codelynx/kronoa/pkg/edition"
	"github.com/codelynx/kronoa/pkg/khash"
	"github.com/codelynx/kronoa/pkg/kstore"
	"github.com/codelynx/kronoa/pkg/lock"
)

// Well-known pointer and record paths.
const (
	ProductionPath = "contents/.production.json"
	StagingPath    = "contents/.staging.json"
)

// Error classes for the publishing state machine.
var (
	ErrPendingNotFound  = errs.Class("pending_not_found")
	ErrPendingCorrupt   = errs.Class("pending_corrupt")
	ErrConflictDetected = errs.Class("conflict_detected")
	ErrLockExpired      = errs.Class("lock_expired")
	ErrEditionNotFound  = errs.Class("edition_not_found")
)

// Pointer is the JSON shape of a published pointer file.
type Pointer struct {
	Edition int `json:"edition"`
}

// SessionState is the JSON shape of a per-label working pointer.
type SessionState struct {
	Edition int            `json:"edition"`
	Base    int            `json:"base"`
	Source  edition.Source `json:"source"`
}

// Pending is a submitted edition awaiting stage or reject.
type Pending struct {
	Edition     int            `json:"edition"`
	Base        int            `json:"base"`
	Source      edition.Source `json:"source"`
	Label       string         `json:"label"`
	Message     string         `json:"message"`
	SubmittedAt time.Time      `json:"submittedAt"`
}

// Rejected is a reviewed-and-declined submission.
type Rejected struct {
	Edition    int       `json:"edition"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejectedAt"`
}

// Machine drives pointer and submission-record mutations over a
// kstore.Backend and the edition lineage.
type Machine struct {
	backend  kstore.Backend
	editions *edition.Store
}

// NewMachine returns a Machine backed by backend, sharing the edition
// lineage rooted at editions.
func NewMachine(backend kstore.Backend, editions *edition.Store) *Machine {
	return &Machine{backend: backend, editions: editions}
}

// Bootstrap creates the initial production and staging pointers, both
// pointing at the genesis edition, if they don't already exist.
func (m *Machine) Bootstrap(ctx context.Context) error {
	if err := m.writePointerIfAbsent(ctx, ProductionPath, edition.GenesisID); err != nil {
		return err
	}
	return m.writePointerIfAbsent(ctx, StagingPath, edition.GenesisID)
}

func (m *Machine) writePointerIfAbsent(ctx context.Context, path string, id int) error {
	data, err := json.Marshal(Pointer{Edition: id})
	if err != nil {
		return err
	}
	_, err = m.backend.WriteIfAbsent(ctx, path, data)
	return err
}

func (m *Machine) readPointer(ctx context.Context, path string) (int, error) {
	data, err := m.backend.Read(ctx, path)
	if err != nil {
		return 0, err
	}
	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, errs.New("corrupt pointer at %s: %v", path, err)
	}
	return p.Edition, nil
}

// Production returns the current production pointer's edition id.
func (m *Machine) Production(ctx context.Context) (int, error) {
	return m.readPointer(ctx, ProductionPath)
}

// Staging returns the current staging pointer's edition id.
func (m *Machine) Staging(ctx context.Context) (int, error) {
	return m.readPointer(ctx, StagingPath)
}

func labelPath(label string) string {
	return "contents/." + label + ".json"
}

func pendingPath(id int) string {
	return "contents/.pending/" + strconv.Itoa(id) + ".json"
}

func rejectedPath(id int) string {
	return "contents/.rejected/" + strconv.Itoa(id) + ".json"
}

// LabelExists reports whether label already names a checked-out working
// edition.
func (m *Machine) LabelExists(ctx context.Context, label string) (bool, error) {
	return m.backend.Exists(ctx, labelPath(label))
}

// ReadLabel returns the working state recorded for label.
func (m *Machine) ReadLabel(ctx context.Context, label string) (SessionState, error) {
	data, err := m.backend.Read(ctx, labelPath(label))
	if err != nil {
		return SessionState{}, err
	}
	var state SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return SessionState{}, errs.New("corrupt session state for %q: %v", label, err)
	}
	return state, nil
}

// WriteLabel records label's working state.
func (m *Machine) WriteLabel(ctx context.Context, label string, state SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return m.backend.Write(ctx, labelPath(label), data)
}

// DeleteLabel removes label's working state.
func (m *Machine) DeleteLabel(ctx context.Context, label string) error {
	return m.backend.Delete(ctx, labelPath(label))
}

// Submit records a pending submission for edition id and clears the
// label's working state; the caller has already flushed any open
// transaction.
func (m *Machine) Submit(ctx context.Context, id int, state SessionState, label, message string, now time.Time) error {
	pending := Pending{
		Edition:     id,
		Base:        state.Base,
		Source:      state.Source,
		Label:       label,
		Message:     message,
		SubmittedAt: now,
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	if err := m.backend.Write(ctx, pendingPath(id), data); err != nil {
		return err
	}
	return m.DeleteLabel(ctx, label)
}

func (m *Machine) readPending(ctx context.Context, id int) (Pending, error) {
	data, err := m.backend.Read(ctx, pendingPath(id))
	if kstore.ErrNotFound.Has(err) {
		return Pending{}, ErrPendingNotFound.New("%d", id)
	}
	if err != nil {
		return Pending{}, err
	}
	var pending Pending
	if err := json.Unmarshal(data, &pending); err != nil {
		return Pending{}, ErrPendingCorrupt.Wrap(err)
	}
	return pending, nil
}

// Reject declines a pending submission, recording reason and removing the
// pending record. It does not require the lock: it only ever writes a
// record and deletes a pending entry, neither of which a concurrent stage
// of a different id can race with.
func (m *Machine) Reject(ctx context.Context, id int, reason string, now time.Time) error {
	if _, err := m.readPending(ctx, id); err != nil {
		return err
	}
	rejected := Rejected{Edition: id, Reason: reason, RejectedAt: now}
	data, err := json.Marshal(rejected)
	if err != nil {
		return err
	}
	if err := m.backend.Write(ctx, rejectedPath(id), data); err != nil {
		return err
	}
	return m.backend.Delete(ctx, pendingPath(id))
}

// Stage promotes a pending submission to the staging pointer: it checks
// that nothing else has moved the submission's base pointer since
// checkout, appends this edition's hashes to the ref index, moves the
// staging pointer, and removes the pending record. The whole operation
// runs under the repository lock with periodic lease renewal during the
// ref-index scan.
func (m *Machine) Stage(ctx context.Context, id int, cfg kronoaconfig.LockConfig) error {
	handle, err := lock.Acquire(ctx, m.backend, cfg.AcquireTimeout, cfg.Lease)
	if err != nil {
		return err
	}
	defer handle.Release(ctx)

	pending, err := m.readPending(ctx, id)
	if err != nil {
		return err
	}

	var current int
	switch pending.Source {
	case edition.SourceStaging:
		current, err = m.Staging(ctx)
	case edition.SourceProduction:
		current, err = m.Production(ctx)
	default:
		err = edition.ErrInvalidSource.New("%q", pending.Source)
	}
	if err != nil {
		return err
	}
	if pending.Base != current {
		return ErrConflictDetected.New("base=%d current=%d source=%s", pending.Base, current, pending.Source)
	}

	group, gctx := errgroup.WithContext(ctx)
	cycle := handle.StartRenewal(gctx, group, cfg.RenewInterval)
	scanErr := m.updateRefIndex(gctx, id)
	cycle.Stop()
	cycle.Close()
	if renewErr := group.Wait(); renewErr != nil {
		return ErrLockExpired.Wrap(renewErr)
	}
	if scanErr != nil {
		return scanErr
	}

	data, err := json.Marshal(Pointer{Edition: id})
	if err != nil {
		return err
	}
	if err := m.backend.Write(ctx, StagingPath, data); err != nil {
		return err
	}
	return m.backend.Delete(ctx, pendingPath(id))
}

func (m *Machine) updateRefIndex(ctx context.Context, id int) error {
	keys, err := m.editions.PathFiles(ctx, id)
	if err != nil {
		return err
	}
	for _, key := range keys {
		data, err := m.backend.Read(ctx, key)
		if err != nil {
			return err
		}
		hash, ok, err := khash.DecodePayload(data)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := appendRef(ctx, m.backend, hash, id); err != nil {
			return err
		}
	}
	return nil
}

func appendRef(ctx context.Context, backend kstore.Backend, hash khash.Hash, id int) error {
	existing, err := backend.Read(ctx, hash.RefPath())
	if err != nil && !kstore.ErrNotFound.Has(err) {
		return err
	}
	idStr := strconv.Itoa(id)
	lines := splitLines(string(existing))
	for _, line := range lines {
		if line == idStr {
			return nil
		}
	}
	lines = append(lines, idStr)
	return backend.Write(ctx, hash.RefPath(), []byte(strings.Join(lines, "\n")+"\n"))
}

func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Deploy copies the staging pointer to production under the repository
// lock.
func (m *Machine) Deploy(ctx context.Context, cfg kronoaconfig.LockConfig) error {
	handle, err := lock.Acquire(ctx, m.backend, cfg.AcquireTimeout, cfg.Lease)
	if err != nil {
		return err
	}
	defer handle.Release(ctx)

	staging, err := m.Staging(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(Pointer{Edition: staging})
	if err != nil {
		return err
	}
	return m.backend.Write(ctx, ProductionPath, data)
}

// SetStagingPointer moves the staging pointer directly to id, under the
// repository lock, without going through submit/stage.
func (m *Machine) SetStagingPointer(ctx context.Context, id int, cfg kronoaconfig.LockConfig) error {
	handle, err := lock.Acquire(ctx, m.backend, cfg.AcquireTimeout, cfg.Lease)
	if err != nil {
		return err
	}
	defer handle.Release(ctx)

	exists, err := m.editions.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrEditionNotFound.New("%d", id)
	}

	data, err := json.Marshal(Pointer{Edition: id})
	if err != nil {
		return err
	}
	return m.backend.Write(ctx, StagingPath, data)
}
