// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

// WriteJar writes a zip archive at path with one entry per map key.
// Entries are written in sorted order so the archive bytes are
// deterministic for a given map.
func WriteJar(t testing.TB, path string, entries map[string][]byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating jar directory: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating jar %s: %v", path, err)
	}
	defer file.Close()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	writer := zip.NewWriter(file)
	for _, name := range names {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("creating jar entry %s: %v", name, err)
		}
		if _, err := entry.Write(entries[name]); err != nil {
			t.Fatalf("writing jar entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing jar %s: %v", path, err)
	}
}

// ReadJar returns every file entry of the zip archive at path.
func ReadJar(t testing.TB, path string) map[string][]byte {
	t.Helper()

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening jar %s: %v", path, err)
	}
	defer reader.Close()

	entries := make(map[string][]byte, len(reader.File))
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		stream, err := file.Open()
		if err != nil {
			t.Fatalf("opening jar entry %s: %v", file.Name, err)
		}
		data, err := io.ReadAll(stream)
		stream.Close()
		if err != nil {
			t.Fatalf("reading jar entry %s: %v", file.Name, err)
		}
		entries[file.Name] = data
	}
	return entries
}

// JarNames returns the entry names of the zip archive at path in
// archive order.
func JarNames(t testing.TB, path string) []string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening jar %s: %v", path, err)
	}
	defer reader.Close()

	names := make([]string, len(reader.File))
	for i, file := range reader.File {
		names[i] = file.Name
	}
	return names
}
