// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package khash implements Kronoa's canonical content hash and the
// sharded object layout derived from it, modeled on the split-directory
// content-addressable blob store layout used by Docker's distribution
// registry (<algorithm>/<first two hex bytes>/<hex digest>), adapted to
// Kronoa's fixed single algorithm and its own object path shape.
package khash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/errs"
)

// Length is the number of hex characters in a Hash.
const Length = 64

// Hash is a lowercase hex-encoded SHA-256 digest. It is a distinct type
// from string so a hash can never be silently passed where a path is
// expected, or vice versa.
type Hash string

// ErrInvalidHash classifies malformed hash strings.
var ErrInvalidHash = errs.Class("invalid_hash")

// Sum computes the canonical hash of data.
func Sum(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// Parse validates s as a canonical hash and returns it as a Hash.
func Parse(s string) (Hash, error) {
	if len(s) != Length {
		return "", ErrInvalidHash.New("wrong length %d", len(s))
	}
	for _, r := range s {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			return "", ErrInvalidHash.New("non-hex-lowercase character %q", r)
		}
	}
	return Hash(s), nil
}

// Verify reports whether data hashes to h.
func (h Hash) Verify(data []byte) bool {
	return Sum(data) == h
}

// String implements fmt.Stringer.
func (h Hash) String() string { return string(h) }

const objectsPrefix = "objects"

// shard returns the first two hex characters of the hash, used as the
// directory-sharding component of the object layout.
func (h Hash) shard() string {
	return string(h)[:2]
}

// DataPath returns the object-store key holding this hash's raw bytes:
// objects/{hh}/{hash}.dat
func (h Hash) DataPath() string {
	return fmt.Sprintf("%s/%s/%s.dat", objectsPrefix, h.shard(), h)
}

// RefPath returns the object-store key holding this hash's ref-index:
// objects/{hh}/{hash}.ref
func (h Hash) RefPath() string {
	return fmt.Sprintf("%s/%s/%s.ref", objectsPrefix, h.shard(), h)
}

// InfoPath returns the reserved-for-future object-store key:
// objects/{hh}/{hash}.info
func (h Hash) InfoPath() string {
	return fmt.Sprintf("%s/%s/%s.info", objectsPrefix, h.shard(), h)
}

const payloadPrefix = "sha256:"

// PayloadDeleted is the literal path-file payload that records a
// tombstone.
const PayloadDeleted = "deleted"

// EncodePayload renders h as a path-file payload: "sha256:{hash}".
func (h Hash) EncodePayload() string {
	return payloadPrefix + string(h)
}

// DecodePayload parses a path-file payload, which is either exactly
// "sha256:{64hex}" (optional trailing whitespace tolerated) or exactly
// "deleted". ok is false, with a nil error, for the deleted payload; a
// malformed payload returns ok false and a non-nil error, so callers check
// the error first and then ok.
func DecodePayload(payload []byte) (h Hash, ok bool, err error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == PayloadDeleted {
		return "", false, nil
	}
	if !strings.HasPrefix(trimmed, payloadPrefix) {
		return "", false, errs.New("malformed path-file payload %q", trimmed)
	}
	parsed, err := Parse(strings.TrimPrefix(trimmed, payloadPrefix))
	if err != nil {
		return "", false, err
	}
	return parsed, true, nil
}

// HeadCounterPath is the backend key for the edition id counter.
const HeadCounterPath = "editions/.head"

// EditionsPrefix returns the backend key prefix for a given edition's
// path-file tree: editions/{id}/
func EditionsPrefix(id int) string {
	return fmt.Sprintf("editions/%d/", id)
}

// EditionOriginPath returns the backend key for an edition's parent
// pointer: editions/{id}/.origin
func EditionOriginPath(id int) string {
	return fmt.Sprintf("editions/%d/.origin", id)
}

// EditionFlattenedPath returns the backend key for an edition's
// ancestry-traversal terminus marker: editions/{id}/.flattened
func EditionFlattenedPath(id int) string {
	return fmt.Sprintf("editions/%d/.flattened", id)
}

// EditionPathFile returns the backend key for a single path file within
// edition id: editions/{id}/{path}
func EditionPathFile(id int, path string) string {
	return fmt.Sprintf("editions/%d/%s", id, path)
}
