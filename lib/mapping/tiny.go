// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/zeebo/blake3"
)

// JarEntry is where mapping publications store their Tiny file.
const JarEntry = "mappings/mappings.tiny"

// ReadFile loads a table from a Tiny file or from a jar containing one
// at JarEntry.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mappings %s: %w", path, err)
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		data, err = readJarEntry(data, JarEntry)
		if err != nil {
			return nil, fmt.Errorf("reading mappings from %s: %w", path, err)
		}
	}
	table, err := ParseTiny(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing mappings %s: %w", path, err)
	}
	return table, nil
}

func readJarEntry(archive []byte, name string) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		stream, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer stream.Close()
		return io.ReadAll(stream)
	}
	return nil, fmt.Errorf("jar has no %s entry", name)
}

// ParseTiny reads a Tiny v1 or v2 mapping file. The table's version
// is the BLAKE3 hash of the input bytes.
func ParseTiny(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	digest := blake3.Sum256(data)
	version := hex.EncodeToString(digest[:])

	header, _, _ := bytes.Cut(data, []byte("\n"))
	switch {
	case bytes.HasPrefix(header, []byte("tiny\t2\t")):
		return parseTinyV2(data, version)
	case bytes.HasPrefix(header, []byte("v1\t")):
		return parseTinyV1(data, version)
	default:
		return nil, errors.New("unrecognized mapping format (expected a Tiny v1 or v2 header)")
	}
}

// parseTinyV2 handles the tab-indented format:
//
//	tiny	2	0	official	intermediary	named
//	c	a	net/minecraft/class_1	net/minecraft/World
//		m	(La;)V	b	method_1	tick
//		f	I	c	field_1	time
//
// Parameters, local variables, and comments are skipped.
func parseTinyV2(data []byte, version string) (*Table, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64<<10), 16<<20)

	scanner.Scan()
	headerFields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	if len(headerFields) < 5 {
		return nil, fmt.Errorf("tiny v2 header has %d fields, want at least 5", len(headerFields))
	}
	table, err := newBuilder(headerFields[3:])
	if err != nil {
		return nil, err
	}
	namespaceCount := len(table.namespaces)

	escaped := false
	var current *Class
	inHeader := true
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		depth := 0
		for depth < len(text) && text[depth] == '\t' {
			depth++
		}
		fields := strings.Split(text[depth:], "\t")

		if inHeader && depth == 1 {
			if fields[0] == "escaped-names" {
				escaped = true
			}
			continue
		}
		inHeader = false

		if escaped {
			for i := range fields {
				fields[i] = unescapeTiny(fields[i])
			}
		}

		switch {
		case depth == 0 && fields[0] == "c":
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: class entry has no names", line)
			}
			current = table.addClass(limit(fields[1:], namespaceCount))
		case depth == 1 && (fields[0] == "f" || fields[0] == "m"):
			if current == nil {
				return nil, fmt.Errorf("line %d: member outside of a class", line)
			}
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: member entry needs a descriptor and a name", line)
			}
			names := limit(fields[2:], namespaceCount)
			if fields[0] == "f" {
				table.addField(current, fields[1], names)
			} else {
				table.addMethod(current, fields[1], names)
			}
		case depth == 0:
			return nil, fmt.Errorf("line %d: unexpected top-level entry %q", line, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table.finalize(version)
}

// parseTinyV1 handles the flat format older intermediary publications
// use:
//
//	v1	official	intermediary
//	CLASS	a	net/minecraft/class_1
//	FIELD	a	I	c	field_1
//	METHOD	a	(La;)V	b	method_1
func parseTinyV1(data []byte, version string) (*Table, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64<<10), 16<<20)

	scanner.Scan()
	headerFields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	table, err := newBuilder(headerFields[1:])
	if err != nil {
		return nil, err
	}
	namespaceCount := len(table.namespaces)

	classes := make(map[string]*Class)
	classFor := func(owner string) *Class {
		class := classes[owner]
		if class == nil {
			class = table.addClass([]string{owner})
			classes[owner] = class
		}
		return class
	}

	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		switch fields[0] {
		case "CLASS":
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: CLASS entry has no names", line)
			}
			if existing := classes[fields[1]]; existing != nil {
				copy(existing.Names, table.fill(limit(fields[1:], namespaceCount)))
				continue
			}
			classes[fields[1]] = table.addClass(limit(fields[1:], namespaceCount))
		case "FIELD", "METHOD":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %s entry needs owner, descriptor, and name", line, fields[0])
			}
			class := classFor(fields[1])
			names := limit(fields[3:], namespaceCount)
			if fields[0] == "FIELD" {
				table.addField(class, fields[2], names)
			} else {
				table.addMethod(class, fields[2], names)
			}
		default:
			return nil, fmt.Errorf("line %d: unknown entry kind %q", line, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table.finalize(version)
}

func limit(names []string, count int) []string {
	if len(names) > count {
		return names[:count]
	}
	return names
}

var tinyEscapes = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t", `\0`, "\x00")

func unescapeTiny(text string) string {
	if strings.IndexByte(text, '\\') < 0 {
		return text
	}
	return tinyEscapes.Replace(text)
}
