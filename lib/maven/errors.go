// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"errors"
	"fmt"
	"strings"
)

// Attempt records one repository's failure during resolution.
type Attempt struct {
	Repository string
	Err        error
}

// ResolutionError is returned when a coordinate is not in the local
// cache and every repository failed to provide it.
type ResolutionError struct {
	Coordinate Coordinate
	Attempts   []Attempt
}

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("resolving %s: no repositories configured", e.Coordinate)
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "resolving %s: tried %d repositories", e.Coordinate, len(e.Attempts))
	for _, attempt := range e.Attempts {
		fmt.Fprintf(&builder, "\n  %s: %v", attempt.Repository, attempt.Err)
	}
	return builder.String()
}

// Unwrap exposes every attempt's cause to errors.Is and errors.As.
func (e *ResolutionError) Unwrap() []error {
	causes := make([]error, len(e.Attempts))
	for i, attempt := range e.Attempts {
		causes[i] = attempt.Err
	}
	return causes
}

// NotFound reports whether every repository answered "not found", as
// opposed to a network or integrity failure somewhere.
func (e *ResolutionError) NotFound() bool {
	for _, attempt := range e.Attempts {
		if !errors.Is(attempt.Err, ErrNotFound) {
			return false
		}
	}
	return true
}
