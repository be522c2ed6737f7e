// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lazy provides the memoized computation cell that every other
// molt package uses for shared, expensive results: resolved artifacts,
// staged jars, mapping tables, and the deferred fields of run
// configurations.
//
// A [Value] wraps a zero-argument function and runs it at most once.
// Callers that arrive while the computation is in flight block on a
// channel until it finishes and then observe the same result. A failed
// computation is cached exactly like a successful one: every later
// caller receives the same error, and nothing retries automatically.
// [Value.Reset] is the only way back to the empty state.
//
// A [Group] is a keyed family of Values. It is the one place in molt
// where a mutex guards a map; components that need "one computation
// per key" (the resolver's per-coordinate downloads, for example) use
// a Group instead of their own locking.
//
// This package depends on no other molt packages.
package lazy
