// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ide writes IDE project files for a [project.Project].
//
// Each [Generator] owns a small set of files under the project root and
// rewrites them on every run. Files the IDE shares with the user (VS
// Code's launch.json and settings.json) are merged: entries molt does
// not manage are preserved, entries it does manage are replaced. Reading
// accepts JSON with comments and trailing commas; writing produces plain
// JSON, so comments in those files do not survive a regeneration.
package ide
