// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"fmt"
	"path"
	"strings"
)

// DefaultExtension is the file extension used when a coordinate does
// not name one.
const DefaultExtension = "jar"

// Coordinate identifies a resolvable artifact. It is a comparable
// value type: two coordinates are equal when every field is equal, so
// a Coordinate can key a map directly.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string

	// Extension is the file extension without the dot. Empty means
	// DefaultExtension; Normalize fills it in.
	Extension string
}

// ParseCoordinate parses "group:artifact:version[:classifier][@extension]".
func ParseCoordinate(text string) (Coordinate, error) {
	var coordinate Coordinate

	body := text
	if at := strings.LastIndexByte(text, '@'); at >= 0 {
		coordinate.Extension = text[at+1:]
		body = text[:at]
		if coordinate.Extension == "" {
			return Coordinate{}, fmt.Errorf("coordinate %q: empty extension after '@'", text)
		}
	}

	parts := strings.Split(body, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("coordinate %q: want group:artifact:version[:classifier]", text)
	}
	coordinate.Group, coordinate.Artifact, coordinate.Version = parts[0], parts[1], parts[2]
	if len(parts) == 4 {
		coordinate.Classifier = parts[3]
		if coordinate.Classifier == "" {
			return Coordinate{}, fmt.Errorf("coordinate %q: empty classifier", text)
		}
	}
	if err := coordinate.Validate(); err != nil {
		return Coordinate{}, err
	}
	return coordinate.Normalize(), nil
}

// MustParseCoordinate is ParseCoordinate for compile-time constants.
// It panics on malformed input.
func MustParseCoordinate(text string) Coordinate {
	coordinate, err := ParseCoordinate(text)
	if err != nil {
		panic(err)
	}
	return coordinate
}

// Validate checks that the required fields are present and that no
// field can escape the repository layout.
func (c Coordinate) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"group", c.Group},
		{"artifact", c.Artifact},
		{"version", c.Version},
	} {
		if field.value == "" {
			return fmt.Errorf("coordinate %s: %s is required", c, field.name)
		}
	}
	for _, value := range []string{c.Group, c.Artifact, c.Version, c.Classifier, c.Extension} {
		if strings.ContainsAny(value, "/\\: \t\n") || value == "." || value == ".." {
			return fmt.Errorf("coordinate %s: field %q contains a path separator or whitespace", c, value)
		}
	}
	return nil
}

// Normalize returns c with the default extension filled in, so that
// "g:a:v" and "g:a:v@jar" compare equal.
func (c Coordinate) Normalize() Coordinate {
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	return c
}

// WithClassifier returns a copy of c with a different classifier.
func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

// WithExtension returns a copy of c with a different extension.
func (c Coordinate) WithExtension(extension string) Coordinate {
	c.Extension = extension
	return c
}

// String returns the canonical text form. The extension is included
// only when it differs from DefaultExtension.
func (c Coordinate) String() string {
	var builder strings.Builder
	builder.WriteString(c.Group)
	builder.WriteByte(':')
	builder.WriteString(c.Artifact)
	builder.WriteByte(':')
	builder.WriteString(c.Version)
	if c.Classifier != "" {
		builder.WriteByte(':')
		builder.WriteString(c.Classifier)
	}
	if c.Extension != "" && c.Extension != DefaultExtension {
		builder.WriteByte('@')
		builder.WriteString(c.Extension)
	}
	return builder.String()
}

// FileName returns artifact-version[-classifier].extension.
func (c Coordinate) FileName() string {
	c = c.Normalize()
	name := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.Extension
}

// Path returns the repository-relative path with forward slashes:
// group/with/slashes/artifact/version/artifact-version[-classifier].extension.
func (c Coordinate) Path() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, c.FileName())
}

// MarshalText implements encoding.TextMarshaler so coordinates can be
// written to YAML and CBOR in their text form.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
