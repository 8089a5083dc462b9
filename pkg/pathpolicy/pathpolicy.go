// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

// Package pathpolicy normalizes and validates the content paths every
// session operation accepts, and draws the line between paths a caller
// may name and the small set of system dotfiles reserved for internal
// bookkeeping.
package pathpolicy

import (
	"strings"

	"github.com/zeebo/errs"
)

// ErrInvalidPath classifies any path-policy violation.
var ErrInvalidPath = errs.Class("invalid_path")

// systemDotfiles are permitted only for internal use (edition store,
// publishing state machine); Validate lets them through, and
// ValidatePublic rejects them for public session APIs.
var systemDotfiles = map[string]struct{}{
	".production.json": {},
	".staging.json":    {},
	".origin":          {},
	".flattened":       {},
	".head":            {},
}

// Normalize trims whitespace and leading/trailing slashes and collapses
// consecutive slashes in p.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}

	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}

// Validate rejects paths that are empty, contain a ".." component, or
// contain a component starting with "." — except for the fixed allow-list
// of system dotfiles, which internal callers may still pass through
// Validate (but never through ValidatePublic).
func Validate(p string) error {
	if p == "" {
		return ErrInvalidPath.New("empty path")
	}

	for _, part := range strings.Split(p, "/") {
		if part == "" {
			return ErrInvalidPath.New("empty path component in %q", p)
		}
		if part == ".." {
			return ErrInvalidPath.New("parent-reference component in %q", p)
		}
		if strings.HasPrefix(part, ".") {
			if _, ok := systemDotfiles[part]; ok {
				continue
			}
			return ErrInvalidPath.New("dotfile component %q in %q", part, p)
		}
	}
	return nil
}

// ValidatePublic validates p the way Validate does, but additionally
// rejects the system dotfile allow-list: public session APIs never accept
// those names, even though internal components write them directly.
func ValidatePublic(p string) error {
	if err := Validate(p); err != nil {
		return err
	}
	for _, part := range strings.Split(p, "/") {
		if _, ok := systemDotfiles[part]; ok {
			return ErrInvalidPath.New("reserved system path %q", p)
		}
	}
	return nil
}

// ValidateLabel rejects working-label names that are empty, exactly "." or
// "..", or contain any "/" — labels are used as filename components, not
// paths.
func ValidateLabel(label string) error {
	if label == "" {
		return ErrInvalidPath.New("empty label")
	}
	if strings.Contains(label, "/") {
		return ErrInvalidPath.New("label %q contains a slash", label)
	}
	if label == "." || label == ".." {
		return ErrInvalidPath.New("label %q is reserved", label)
	}
	return nil
}
