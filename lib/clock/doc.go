// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that stamp or measure time (the stage pipeline's
// manifests, the task dispatcher's durations, jar entry timestamps in
// the mod build) take a Clock in their config and default to Real().
// Tests pass Fake() and move time with Advance:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	dispatcher := task.Options{Clock: c}
//	// inside a handler:
//	c.Advance(3 * time.Second)
package clock
