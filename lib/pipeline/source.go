// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/molt/lib/maven"
)

// RawSource locates the obfuscated platform jar.
type RawSource interface {
	// Locate returns the path of the jar, fetching it if necessary.
	Locate(ctx context.Context) (string, error)

	// String describes the source for logs and errors.
	String() string
}

// FromPath uses a jar already on disk.
func FromPath(path string) RawSource {
	return pathSource{path: path}
}

type pathSource struct {
	path string
}

func (s pathSource) Locate(context.Context) (string, error) {
	absolute, err := filepath.Abs(s.path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(absolute)
	if err != nil {
		return "", fmt.Errorf("platform jar: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("platform jar %s is not a regular file", absolute)
	}
	return absolute, nil
}

func (s pathSource) String() string { return s.path }

// FromResolver fetches the jar through a maven.Resolver. The resolver
// memoizes, so several pipelines sharing a resolver download it once.
func FromResolver(resolver *maven.Resolver, coordinate maven.Coordinate, repositories []maven.Repository) RawSource {
	return resolverSource{resolver: resolver, coordinate: coordinate, repositories: repositories}
}

type resolverSource struct {
	resolver     *maven.Resolver
	coordinate   maven.Coordinate
	repositories []maven.Repository
}

func (s resolverSource) Locate(ctx context.Context) (string, error) {
	artifact, err := s.resolver.Resolve(ctx, s.coordinate, s.repositories)
	if err != nil {
		return "", err
	}
	return artifact.Path, nil
}

func (s resolverSource) String() string { return s.coordinate.String() }
