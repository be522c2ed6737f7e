// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package modproject assembles one mod project from its capability set.
//
// A [Config] names the mod, the platform jar, the mapping publications,
// the loader, the mod dependencies, and an optional decompiler. [New]
// turns it into a [Project] that owns:
//
//   - a lazily loaded mapping table (merged publications, cached as a
//     snapshot keyed by the source files' fingerprints),
//   - a [pipeline.Pipeline] for the platform jar,
//   - the client and server run configurations,
//   - a [task.Registry] with the build, vscode, netbeans, and decompile
//     tasks.
//
// Nothing is resolved or transformed until a task or accessor asks for
// it. Shared computations run under the project's own context, so a
// caller that stops waiting does not cancel work other callers share;
// [Project.Close] cancels them.
package modproject
