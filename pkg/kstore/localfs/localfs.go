// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package localfs provides a kstore.Backend backed by a local directory
// tree, for single-machine development use. It is a reference
// implementation, not a hardened production backend: no retry policy, no
// server-side encryption, and its lock is only safe across processes on
// the same filesystem (it relies on O_EXCL file creation, not a
// distributed consensus primitive).
package localfs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skyrings/skyring-common/tools/uuid"

	"github.com/codelynx/kronoa/pkg/kstore"
)

// Store is a kstore.Backend rooted at a local directory.
type Store struct {
	root  string
	clock clockwork.Clock
}

// New returns a Store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, kstore.ErrStorage.Wrap(err)
	}
	return &Store{root: root, clock: clockwork.NewRealClock()}, nil
}

func (s *Store) abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Read implements kstore.Backend.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kstore.ErrNotFound.New("%s", path)
		}
		return nil, kstore.ErrStorage.Wrap(err)
	}
	return data, nil
}

// Write implements kstore.Backend.
func (s *Store) Write(ctx context.Context, path string, data []byte) error {
	full := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return kstore.ErrStorage.Wrap(err)
	}
	tmp := full + ".tmp-" + strconv.FormatInt(s.clock.Now().UnixNano(), 36)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return kstore.ErrStorage.Wrap(err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return kstore.ErrStorage.Wrap(err)
	}
	return nil
}

// WriteIfAbsent implements kstore.Backend.
func (s *Store) WriteIfAbsent(ctx context.Context, path string, data []byte) (bool, error) {
	full := s.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, kstore.ErrStorage.Wrap(err)
	}
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, kstore.ErrStorage.Wrap(err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(data); err != nil {
		return false, kstore.ErrStorage.Wrap(err)
	}
	return true, nil
}

// Delete implements kstore.Backend.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := os.Remove(s.abs(path)); err != nil && !os.IsNotExist(err) {
		return kstore.ErrStorage.Wrap(err)
	}
	return nil
}

// Exists implements kstore.Backend.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.abs(path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, kstore.ErrStorage.Wrap(err)
}

// Stat implements kstore.Backend.
func (s *Store) Stat(ctx context.Context, path string) (time.Time, int64, error) {
	info, err := os.Stat(s.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, 0, kstore.ErrNotFound.New("%s", path)
		}
		return time.Time{}, 0, kstore.ErrStorage.Wrap(err)
	}
	return info.ModTime(), info.Size(), nil
}

// List implements kstore.Backend. It walks the prefix's directory tree and
// applies the same prefix/delimiter collapsing rule memstore uses, so
// behavior is identical between the two reference backends regardless of
// how each one happens to lay keys out on disk.
func (s *Store) List(ctx context.Context, prefix string, delimiter string) ([]string, error) {
	seen := make(map[string]struct{})
	err := filepath.Walk(s.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel := filepath.ToSlash(mustRel(s.root, p))
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		rest := rel[len(prefix):]
		if rest == "" {
			return nil
		}
		if delimiter == "" {
			seen[rest] = struct{}{}
			return nil
		}
		if idx := strings.Index(rest, delimiter); idx >= 0 {
			seen[rest[:idx+len(delimiter)]] = struct{}{}
		} else {
			seen[rest] = struct{}{}
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, kstore.ErrStorage.Wrap(err)
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func mustRel(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return p
	}
	return rel
}

// AtomicIncrement implements kstore.Backend. It serializes concurrent
// incrementers in the same process with a lease-style lock on a sibling
// path, since plain file rename is not itself a compare-and-swap.
func (s *Store) AtomicIncrement(ctx context.Context, path string, initial int) (int, error) {
	lockPath := path + ".counterlock"
	handle, err := s.AcquireLock(ctx, lockPath, 10*time.Second, 5*time.Second)
	if err != nil {
		return 0, err
	}
	defer func() { _ = handle.Release(ctx) }()

	cur := initial
	data, err := s.Read(ctx, path)
	switch {
	case err == nil:
		n, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr != nil {
			return 0, kstore.ErrStorage.Wrap(perr)
		}
		cur = n
	case kstore.ErrNotFound.Has(err):
		cur = initial - 1
	default:
		return 0, err
	}
	cur++
	if err := s.Write(ctx, path, []byte(strconv.Itoa(cur))); err != nil {
		return 0, err
	}
	return cur, nil
}

type lockFile struct {
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquiredAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// AcquireLock implements kstore.Backend using O_EXCL file creation as the
// compare-and-swap primitive and a stale-lease reclaim on conflict.
func (s *Store) AcquireLock(ctx context.Context, path string, timeout, lease time.Duration) (kstore.LockHandle, error) {
	deadline := s.clock.Now().Add(timeout)
	backoff := 10 * time.Millisecond
	const maxBackoff = 200 * time.Millisecond

	ownerID, err := uuid.New()
	if err != nil {
		return nil, kstore.ErrStorage.Wrap(err)
	}
	owner := ownerID.String()

	for {
		handle, ok, err := s.tryAcquire(ctx, path, owner, lease)
		if err != nil {
			return nil, err
		}
		if ok {
			return handle, nil
		}

		if !s.clock.Now().Before(deadline) {
			return nil, kstore.ErrLockTimeout.New("%s", path)
		}

		select {
		case <-ctx.Done():
			return nil, kstore.ErrStorage.Wrap(ctx.Err())
		case <-s.clock.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *Store) tryAcquire(ctx context.Context, path, owner string, lease time.Duration) (kstore.LockHandle, bool, error) {
	now := s.clock.Now()
	lf := lockFile{Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(lease)}
	data, err := json.Marshal(lf)
	if err != nil {
		return nil, false, kstore.ErrStorage.Wrap(err)
	}

	wrote, err := s.WriteIfAbsent(ctx, path, data)
	if err != nil {
		return nil, false, err
	}
	if wrote {
		return &fsHandle{store: s, path: path, owner: owner, expiresAt: lf.ExpiresAt}, true, nil
	}

	// Conflict: check for a stale lease and reclaim it.
	existing, err := s.Read(ctx, path)
	if err != nil {
		if kstore.ErrNotFound.Has(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var cur lockFile
	if err := json.Unmarshal(existing, &cur); err != nil {
		return nil, false, nil
	}
	if !cur.ExpiresAt.Before(now) {
		return nil, false, nil
	}

	if err := s.Delete(ctx, path); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

type fsHandle struct {
	store     *Store
	path      string
	owner     string
	expiresAt time.Time
}

func (h *fsHandle) Owner() string        { return h.owner }
func (h *fsHandle) ExpiresAt() time.Time { return h.expiresAt }

func (h *fsHandle) Renew(ctx context.Context, duration time.Duration) error {
	data, err := h.store.Read(ctx, h.path)
	if err != nil {
		return kstore.ErrLockExpired.Wrap(err)
	}
	var cur lockFile
	if err := json.Unmarshal(data, &cur); err != nil || cur.Owner != h.owner {
		return kstore.ErrLockExpired.New("%s", h.path)
	}
	cur.ExpiresAt = h.store.clock.Now().Add(duration)
	out, err := json.Marshal(cur)
	if err != nil {
		return kstore.ErrStorage.Wrap(err)
	}
	if err := h.store.Write(ctx, h.path, out); err != nil {
		return err
	}
	h.expiresAt = cur.ExpiresAt
	return nil
}

func (h *fsHandle) Release(ctx context.Context) error {
	data, err := h.store.Read(ctx, h.path)
	if err != nil {
		return kstore.ErrLockExpired.Wrap(err)
	}
	var cur lockFile
	if err := json.Unmarshal(data, &cur); err != nil || cur.Owner != h.owner {
		return kstore.ErrLockExpired.New("%s", h.path)
	}
	return h.store.Delete(ctx, h.path)
}
