// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package errs2

import (
	"time"

	"github.com/zeebo/errs"
)

// Collect drains errchan for up to duration, combining every error
// received into one via errs.Combine. It returns nil if no errors arrive
// before the channel is closed or the duration elapses.
func Collect(errchan <-chan error, duration time.Duration) error {
	timeout := time.NewTimer(duration)
	defer timeout.Stop()

	var combined error
	for {
		select {
		case err, ok := <-errchan:
			if !ok {
				return combined
			}
			combined = errs.Combine(combined, err)
		case <-timeout.C:
			return combined
		}
	}
}
