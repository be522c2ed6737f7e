// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for molt packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that concurrency
// tests for memoized values, the resolver, and the task dispatcher do
// not hang forever when an invariant breaks.
//
// [WriteJar] and [ReadJar] build and inspect small zip archives so that
// pipeline, remapper, and build tests can work with real jar files in
// t.TempDir() without checked-in fixtures.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
