// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package modbuild

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/molt/lib/version"
)

const manifestEntry = "META-INF/MANIFEST.MF"

// packageJar writes every regular file under roots into a jar at
// path. Earlier roots win when two roots contain the same relative
// path. Entries are sorted so identical inputs give identical jars
// apart from the timestamp.
func packageJar(path string, roots []string, modified time.Time) (int, error) {
	files := make(map[string]string)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(file string, entry fs.DirEntry, err error) error {
			if err != nil {
				if file == root && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if !entry.Type().IsRegular() {
				return nil
			}
			relative, err := filepath.Rel(root, file)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(relative)
			if _, exists := files[name]; !exists {
				files[name] = file
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	output, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	writer := zip.NewWriter(output)
	count, err := writeEntries(writer, files, modified)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if closeErr := output.Close(); err == nil {
		err = closeErr
	}
	return count, err
}

// writeEntries writes the manifest first, as java.util.jar expects,
// generating a minimal one when the roots have none.
func writeEntries(writer *zip.Writer, files map[string]string, modified time.Time) (int, error) {
	manifest := []byte("Manifest-Version: 1.0\r\nCreated-By: " + version.CreatedBy() + "\r\n\r\n")
	if source, exists := files[manifestEntry]; exists {
		data, err := os.ReadFile(source)
		if err != nil {
			return 0, err
		}
		manifest = data
	}
	if err := writeEntry(writer, manifestEntry, manifest, modified); err != nil {
		return 0, err
	}
	count := 1
	for _, name := range slices.Sorted(maps.Keys(files)) {
		if name == manifestEntry {
			continue
		}
		data, err := os.ReadFile(files[name])
		if err != nil {
			return count, err
		}
		if err := writeEntry(writer, name, data, modified); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func writeEntry(writer *zip.Writer, name string, data []byte, modified time.Time) error {
	entry, err := writer.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return fmt.Errorf("creating entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}
	return nil
}
