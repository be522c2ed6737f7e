// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/molt/lib/codec"
)

const manifestFormat = 1

// manifest is the CBOR sidecar of a cached stage output. A cache entry
// counts as present only when its manifest decodes and matches.
type manifest struct {
	Format      int       `cbor:"format"`
	Stage       string    `cbor:"stage"`
	Key         string    `cbor:"key"`
	Input       string    `cbor:"input"`
	Output      string    `cbor:"output"`
	Transformer string    `cbor:"transformer"`
	Created     time.Time `cbor:"created"`
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var decoded manifest
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if decoded.Format != manifestFormat {
		return nil, fmt.Errorf("%s has manifest format %d, want %d", path, decoded.Format, manifestFormat)
	}
	return &decoded, nil
}

func writeManifest(path, temporaryDir string, value *manifest) error {
	data, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	temporary, err := os.CreateTemp(temporaryDir, "manifest-*.cbor")
	if err != nil {
		return err
	}
	temporaryPath := temporary.Name()
	defer os.Remove(temporaryPath)
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.Rename(temporaryPath, path)
}
