// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
)

// ErrTransformation is wrapped by every failure of a remapper or
// decompiler, as opposed to failures to locate inputs or write the
// cache.
var ErrTransformation = errors.New("transformation failed")

// StageError reports the stage that failed. When a stage fails because
// an earlier stage failed, Err is the earlier stage's *StageError.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
