// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import "fmt"

// TaskError is a failure returned by one task's handler.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// NotFoundError describes a requested name that matched no task. It is
// reported in Report.NotFound and never returned as a failure.
type NotFoundError struct {
	Name string

	// Suggestion is the closest registered name, or empty.
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("no task named %q (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("no task named %q", e.Name)
}
