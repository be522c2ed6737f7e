// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/molt/lib/codec"
	"github.com/bureau-foundation/molt/lib/compress"
)

// snapshotFormat changes whenever the snapshot layout does, so old
// snapshots become cache misses instead of decode errors.
const snapshotFormat = 1

type snapshot struct {
	Format     int             `cbor:"format"`
	Version    string          `cbor:"version"`
	Namespaces []string        `cbor:"namespaces"`
	Classes    []snapshotClass `cbor:"classes"`
}

type snapshotClass struct {
	Names   []string         `cbor:"names"`
	Fields  []snapshotMember `cbor:"fields,omitempty"`
	Methods []snapshotMember `cbor:"methods,omitempty"`
}

type snapshotMember struct {
	Names      []string `cbor:"names"`
	Descriptor string   `cbor:"descriptor"`
}

// MarshalSnapshot encodes the table as CBOR framed with codec.
func (t *Table) MarshalSnapshot(codecTag compress.Codec) ([]byte, error) {
	value := snapshot{
		Format:     snapshotFormat,
		Version:    t.version,
		Namespaces: t.namespaces,
		Classes:    make([]snapshotClass, len(t.classes)),
	}
	for i, class := range t.classes {
		entry := snapshotClass{Names: class.Names}
		for _, field := range class.Fields {
			entry.Fields = append(entry.Fields, snapshotMember{Names: field.Names, Descriptor: field.Descriptors[0]})
		}
		for _, method := range class.Methods {
			entry.Methods = append(entry.Methods, snapshotMember{Names: method.Names, Descriptor: method.Descriptors[0]})
		}
		value.Classes[i] = entry
	}

	data, err := codec.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding mapping snapshot: %w", err)
	}
	return compress.Encode(data, codecTag)
}

// LoadSnapshot decodes a table written by MarshalSnapshot.
func LoadSnapshot(frame []byte) (*Table, error) {
	data, err := compress.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("decompressing mapping snapshot: %w", err)
	}
	var value snapshot
	if err := codec.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decoding mapping snapshot: %w", err)
	}
	if value.Format != snapshotFormat {
		return nil, fmt.Errorf("mapping snapshot format %d, want %d", value.Format, snapshotFormat)
	}

	table, err := newBuilder(value.Namespaces)
	if err != nil {
		return nil, err
	}
	for _, entry := range value.Classes {
		class := table.addClass(entry.Names)
		for _, field := range entry.Fields {
			table.addField(class, field.Descriptor, field.Names)
		}
		for _, method := range entry.Methods {
			table.addMethod(class, method.Descriptor, method.Names)
		}
	}
	return table.finalize(value.Version)
}

// Cache stores parsed tables as snapshot files keyed by a caller
// supplied key (normally the fingerprint of the mapping source files).
type Cache struct {
	Dir    string
	Codec  compress.Codec
	Logger *slog.Logger
}

// Load returns the snapshot stored under key, or calls parse and
// stores its result. A snapshot that fails to decode is replaced.
func (c *Cache) Load(key string, parse func() (*Table, error)) (*Table, error) {
	path := filepath.Join(c.Dir, key+".snapshot")
	if frame, err := os.ReadFile(path); err == nil {
		table, err := LoadSnapshot(frame)
		if err == nil {
			c.logger().Debug("mapping snapshot hit", "path", path, "classes", len(table.classes))
			return table, nil
		}
		c.logger().Warn("discarding unreadable mapping snapshot", "path", path, "error", err)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading mapping snapshot: %w", err)
	}

	table, err := parse()
	if err != nil {
		return nil, err
	}
	frame, err := table.MarshalSnapshot(c.Codec)
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(path, frame); err != nil {
		// The table is valid; a missing snapshot only costs a reparse.
		c.logger().Warn("writing mapping snapshot failed", "path", path, "error", err)
	}
	return table, nil
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
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
	return os.Rename(temporaryPath, path)
}
