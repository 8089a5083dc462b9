// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package edition implements the immutable edition lineage: allocation of
// new edition ids, ancestry-based path resolution, and ancestry-aware
// directory listing. It is the lowest layer that understands the
// edition/path-file data model; everything above it (session, publish,
// gc, flatten) is built on top of Store.
package edition

import (
	"strconv"
	"strings"

	"github.com/zeebo/errs"

	"github.com/codelynx/kronoa/pkg/khash"
)

// GenesisID is the first edition id, created by bootstrap rather than by
// Allocate.
const GenesisID = 10000

// Source names which published pointer a working edition was checked out
// from.
type Source string

// The two pointer roles a working edition can be based on.
const (
	SourceStaging    Source = "staging"
	SourceProduction Source = "production"
)

// ErrInvalidSource classifies an unrecognized Source value.
var ErrInvalidSource = errs.Class("invalid_source")

// ParseSource validates s as a Source.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceStaging, SourceProduction:
		return Source(s), nil
	default:
		return "", ErrInvalidSource.New("%q", s)
	}
}

// Status is the outcome of resolving a path against an edition's
// ancestry.
type Status int

// The three possible resolution outcomes.
const (
	// StatusMissing means no ancestor ever recorded this path.
	StatusMissing Status = iota
	// StatusExists means the nearest recording ancestor has a live hash.
	StatusExists
	// StatusDeleted means the nearest recording ancestor tombstoned the
	// path.
	StatusDeleted
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusExists:
		return "exists"
	case StatusDeleted:
		return "deleted"
	default:
		return "notFound"
	}
}

// Resolution is the result of resolving a path through an edition's
// ancestry chain.
type Resolution struct {
	Status Status

	// ResolvedFrom is the edition id at which Status was decided. Zero
	// when Status is StatusMissing.
	ResolvedFrom int

	// Hash is set only when Status is StatusExists.
	Hash khash.Hash
}

// Entry is one immediate child produced by ListMerged.
type Entry struct {
	// Name is the child's name relative to the listed directory. A
	// subdirectory entry carries a trailing "/".
	Name string

	// IsDir is true when Name names a subdirectory rather than a leaf
	// path.
	IsDir bool
}

func joinDir(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func parseEditionID(data []byte) (int, error) {
	s := strings.TrimSpace(string(data))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.New("corrupt edition id %q: %v", s, err)
	}
	return n, nil
}
