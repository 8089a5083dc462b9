// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package memstore provides an in-memory kstore.Backend used by tests and
// local development. It is not a production backend: nothing is persisted
// across process restarts and all operations hold a single mutex.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skyrings/skyring-common/tools/uuid"
	"github.com/zeebo/errs"

	"github.com/codelynx/kronoa/pkg/kstore"
)

type entry struct {
	data    []byte
	modTime time.Time
}

// Store is an in-memory kstore.Backend.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	locks   map[string]*lockState
	clock   clockwork.Clock
}

type lockState struct {
	owner     string
	expiresAt time.Time
}

// New returns an empty in-memory store using the real wall clock.
func New() *Store {
	return NewWithClock(clockwork.NewRealClock())
}

// NewWithClock returns an empty in-memory store using clock for all
// timestamps, so lease expiry and mtimes are deterministically testable.
func NewWithClock(clock clockwork.Clock) *Store {
	return &Store{
		entries: make(map[string]entry),
		locks:   make(map[string]*lockState),
		clock:   clock,
	}
}

// Read implements kstore.Backend.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[path]
	if !ok {
		return nil, kstore.ErrNotFound.New("%s", path)
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Write implements kstore.Backend.
func (s *Store) Write(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.entries[path] = entry{data: cp, modTime: s.clock.Now()}
	return nil
}

// WriteIfAbsent implements kstore.Backend.
func (s *Store) WriteIfAbsent(ctx context.Context, path string, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[path]; ok {
		return false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.entries[path] = entry{data: cp, modTime: s.clock.Now()}
	return true, nil
}

// Delete implements kstore.Backend.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, path)
	return nil
}

// Exists implements kstore.Backend.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[path]
	return ok, nil
}

// Stat implements kstore.Backend.
func (s *Store) Stat(ctx context.Context, path string) (time.Time, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[path]
	if !ok {
		return time.Time{}, 0, kstore.ErrNotFound.New("%s", path)
	}
	return e.modTime, int64(len(e.data)), nil
}

// List implements kstore.Backend.
func (s *Store) List(ctx context.Context, prefix string, delimiter string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for key := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if rest == "" {
			continue
		}
		if delimiter == "" {
			seen[rest] = struct{}{}
			continue
		}
		if idx := strings.Index(rest, delimiter); idx >= 0 {
			seen[rest[:idx+len(delimiter)]] = struct{}{}
		} else {
			seen[rest] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// AtomicIncrement implements kstore.Backend.
func (s *Store) AtomicIncrement(ctx context.Context, path string, initial int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := initial
	if e, ok := s.entries[path]; ok {
		n, err := parseInt(string(e.data))
		if err != nil {
			return 0, kstore.ErrStorage.Wrap(err)
		}
		cur = n
	} else {
		cur = initial - 1
	}
	cur++
	s.entries[path] = entry{data: []byte(formatInt(cur)), modTime: s.clock.Now()}
	return cur, nil
}

// AcquireLock implements kstore.Backend.
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
		if handle, ok := s.tryAcquire(path, owner, lease); ok {
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

func (s *Store) tryAcquire(path, owner string, lease time.Duration) (kstore.LockHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if existing, ok := s.locks[path]; ok {
		if existing.expiresAt.After(now) {
			return nil, false
		}
		// stale lease, reclaim it
	}

	expiresAt := now.Add(lease)
	s.locks[path] = &lockState{owner: owner, expiresAt: expiresAt}
	return &handle{store: s, path: path, owner: owner, expiresAt: expiresAt}, true
}

type handle struct {
	store     *Store
	path      string
	owner     string
	expiresAt time.Time
}

func (h *handle) Owner() string        { return h.owner }
func (h *handle) ExpiresAt() time.Time { return h.expiresAt }

func (h *handle) Renew(ctx context.Context, duration time.Duration) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	cur, ok := h.store.locks[h.path]
	if !ok || cur.owner != h.owner {
		return kstore.ErrLockExpired.New("%s", h.path)
	}
	cur.expiresAt = h.store.clock.Now().Add(duration)
	h.expiresAt = cur.expiresAt
	return nil
}

func (h *handle) Release(ctx context.Context) error {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	cur, ok := h.store.locks[h.path]
	if !ok || cur.owner != h.owner {
		return kstore.ErrLockExpired.New("%s", h.path)
	}
	delete(h.store.locks, h.path)
	return nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	n := 0
	if s == "" {
		return 0, errs.New("empty counter value")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errs.New("invalid counter value %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func formatInt(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
