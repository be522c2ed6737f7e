// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package task is molt's named-task registry and dispatcher.
//
// A [Registry] holds the tasks a project offers (build, vscode,
// decompile, ...). [Dispatch] runs the tasks named on the command line
// concurrently. Names that match no task are skipped: a project that
// does not offer a task is not an error. Strict mode reports the skipped
// names without failing.
//
// Tasks do no work at registration. Each handler pulls the pipeline
// stages it needs when it runs, so invoking "vscode" never triggers
// decompilation.
package task
