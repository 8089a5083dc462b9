// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package errs2

import (
	"context"
	"errors"
)

// IsCanceled reports whether err is, or wraps, context.Canceled.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IgnoreCanceled returns nil if err is context.Canceled (or wraps it),
// and err unchanged otherwise, so a caller-initiated shutdown need not
// surface as a failure.
func IgnoreCanceled(err error) error {
	if IsCanceled(err) {
		return nil
	}
	return err
}
