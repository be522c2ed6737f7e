// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/molt/lib/classfile"
	"github.com/bureau-foundation/molt/lib/mapping"
)

// JarRemapper rewrites a jar from namespace From to namespace To of
// Table. The zero Logger discards.
type JarRemapper struct {
	Table  *mapping.Table
	From   string
	To     string
	Logger *slog.Logger
}

// New returns a JarRemapper after checking that table has both
// namespaces.
func New(table *mapping.Table, from, to string) (*JarRemapper, error) {
	if table == nil {
		return nil, errors.New("remap: nil mapping table")
	}
	if _, err := table.Mapper(from, to); err != nil {
		return nil, fmt.Errorf("remap: %w", err)
	}
	return &JarRemapper{Table: table, From: from, To: to}, nil
}

// Identity names the transformation for cache keys. It changes when
// the mapping content or the direction changes.
func (r *JarRemapper) Identity() string {
	return fmt.Sprintf("remap/%s:%s->%s", r.Table.Version(), r.From, r.To)
}

// Transform reads the jar at input and writes the remapped jar to
// output. Classpath jars contribute to hierarchy resolution only.
// Signature files under META-INF are dropped because renaming
// invalidates them; every other resource is copied unchanged.
func (r *JarRemapper) Transform(ctx context.Context, input, output string, classpath []string) error {
	mapper, err := r.Table.Mapper(r.From, r.To)
	if err != nil {
		return err
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	source, err := zip.OpenReader(input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", input, err)
	}
	defer source.Close()

	h := newHierarchy(mapper, logger)
	classes := make(map[string]*classfile.Class)
	for _, file := range source.File {
		if !isClassEntry(file.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		class, err := readClass(file)
		if err != nil {
			return err
		}
		node, err := newClassNode(class)
		if err != nil {
			return fmt.Errorf("%s: %w", file.Name, err)
		}
		h.add(node)
		classes[file.Name] = class
	}

	for _, jar := range classpath {
		library, err := zip.OpenReader(jar)
		if err != nil {
			return fmt.Errorf("opening classpath jar %s: %w", jar, err)
		}
		defer library.Close()
		h.indexClasspath(&library.Reader)
	}

	destination, err := os.Create(output)
	if err != nil {
		return err
	}
	renamed, err := writeRemapped(ctx, destination, source.File, classes, h)
	if closeErr := destination.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	from, to := mapper.Namespaces()
	logger.Debug("remapped jar",
		"input", input,
		"from", from,
		"to", to,
		"classes", len(classes),
		"renamed", renamed,
	)
	return nil
}

// writeRemapped writes every entry of files to destination in input
// order, remapping classes. It returns the number of classes whose
// entry name changed.
func writeRemapped(ctx context.Context, destination io.Writer, files []*zip.File, classes map[string]*classfile.Class, h *hierarchy) (int, error) {
	writer := zip.NewWriter(destination)
	renamed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return renamed, err
		}
		if file.FileInfo().IsDir() || isSignatureFile(file.Name) {
			continue
		}
		name := file.Name
		var data []byte
		var err error
		if class := classes[file.Name]; class != nil {
			originalName, err := class.Name()
			if err != nil {
				return renamed, fmt.Errorf("%s: %w", file.Name, err)
			}
			if err := classfile.Remap(class, h); err != nil {
				return renamed, err
			}
			if data, err = class.Bytes(); err != nil {
				return renamed, fmt.Errorf("encoding %s: %w", file.Name, err)
			}
			if mappedName := h.Class(originalName); mappedName != originalName {
				name = mappedName + ".class"
				renamed++
			}
		} else if data, err = readEntry(file); err != nil {
			return renamed, err
		}

		entry, err := writer.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return renamed, fmt.Errorf("creating entry %s: %w", name, err)
		}
		if _, err := entry.Write(data); err != nil {
			return renamed, fmt.Errorf("writing entry %s: %w", name, err)
		}
	}
	return renamed, writer.Close()
}

func isClassEntry(name string) bool {
	return strings.HasSuffix(name, ".class") && !strings.HasPrefix(name, "META-INF/")
}

func isSignatureFile(name string) bool {
	if path.Dir(name) != "META-INF" {
		return false
	}
	switch strings.ToUpper(path.Ext(name)) {
	case ".SF", ".RSA", ".DSA", ".EC":
		return true
	}
	return false
}

func readEntry(file *zip.File) ([]byte, error) {
	stream, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer stream.Close()
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Name, err)
	}
	return data, nil
}

func readClass(file *zip.File) (*classfile.Class, error) {
	data, err := readEntry(file)
	if err != nil {
		return nil, err
	}
	class, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file.Name, err)
	}
	return class, nil
}
