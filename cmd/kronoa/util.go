// Copyright (C) 2026 Kronoa Authors.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"strconv"
)

// parseEditionArg parses a command-line edition id argument.
func parseEditionArg(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid edition id %q: %w", s, err)
	}
	return id, nil
}
