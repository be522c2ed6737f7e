// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package project

import "fmt"

// ValidationError reports a builder that was finalized with a missing
// or invalid field.
type ValidationError struct {
	// Type is the value being built ("RunConfig" or "Project").
	Type string

	// Field is the builder method name of the offending field.
	Field string

	// Reason is empty for a missing required field.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s is required", e.Type, e.Field)
	}
	return fmt.Sprintf("%s: %s %s", e.Type, e.Field, e.Reason)
}
