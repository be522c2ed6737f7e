// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bureau-foundation/molt/lib/lazy"
)

// ResolvedArtifact is a coordinate backed by a file in the local
// cache. Values are shared between every caller that resolved the same
// coordinate and must not be modified.
type ResolvedArtifact struct {
	Coordinate Coordinate

	// Path is the absolute path of the cached file.
	Path string

	// SourcesPath is the cached sources jar, or empty when sources
	// were not requested or the repositories do not publish them.
	SourcesPath string
}

// Options configures a Resolver.
type Options struct {
	// CacheDir is the root of the local repository cache. Required.
	CacheDir string

	// VerifyChecksums compares every download (and every cache hit)
	// against the repository's .sha1 sidecar.
	VerifyChecksums bool

	// FetchSources additionally resolves the "sources" classifier for
	// classifier-less coordinates. Missing sources are not an error.
	FetchSources bool

	Logger *slog.Logger
}

// Resolver maps coordinates to files in a local cache, downloading on
// a miss. A Resolver is safe for concurrent use.
type Resolver struct {
	cacheDir        string
	verifyChecksums bool
	fetchSources    bool
	logger          *slog.Logger

	artifacts lazy.Group[Coordinate, *ResolvedArtifact]
}

// NewResolver creates the cache directory if needed and returns a
// Resolver rooted there.
func NewResolver(options Options) (*Resolver, error) {
	if options.CacheDir == "" {
		return nil, errors.New("maven: resolver cache directory is required")
	}
	cacheDir, err := filepath.Abs(options.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolving cache directory: %w", err)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", cacheDir, err)
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		cacheDir:        cacheDir,
		verifyChecksums: options.VerifyChecksums,
		fetchSources:    options.FetchSources,
		logger:          logger,
	}, nil
}

// CacheDir returns the absolute root of the local cache.
func (r *Resolver) CacheDir() string { return r.cacheDir }

// Resolve returns the local file for coordinate, downloading it from
// the first repository that has it. The result (or failure) is
// memoized per coordinate for the lifetime of the Resolver; the
// repository list of the first request for a coordinate is the one
// used. A resolution abandoned because ctx was cancelled is not
// memoized.
func (r *Resolver) Resolve(ctx context.Context, coordinate Coordinate, repositories []Repository) (*ResolvedArtifact, error) {
	coordinate = coordinate.Normalize()
	if err := coordinate.Validate(); err != nil {
		return nil, err
	}

	for {
		ours := false
		cell := r.artifacts.Value(coordinate, func() (*ResolvedArtifact, error) {
			ours = true
			return r.resolve(ctx, coordinate, repositories)
		})
		artifact, err := cell.Wait(ctx)
		if err == nil || !isContextError(err) {
			return artifact, err
		}
		// Cancellation is not memoized. A caller whose own context is
		// still live retries instead of inheriting another caller's
		// cancellation.
		if cell.State() == lazy.StateFailed {
			r.artifacts.ForgetValue(coordinate, cell)
		}
		if ctx.Err() != nil || ours {
			return nil, err
		}
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ResolveAll resolves coordinates concurrently and returns the results
// in input order. Every failure is reported; successful entries are
// still populated when others fail.
func (r *Resolver) ResolveAll(ctx context.Context, coordinates []Coordinate, repositories []Repository) ([]*ResolvedArtifact, error) {
	results := make([]*ResolvedArtifact, len(coordinates))
	failures := make([]error, len(coordinates))

	var wg sync.WaitGroup
	for i, coordinate := range coordinates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], failures[i] = r.Resolve(ctx, coordinate, repositories)
		}()
	}
	wg.Wait()

	return results, errors.Join(failures...)
}

func (r *Resolver) resolve(ctx context.Context, coordinate Coordinate, repositories []Repository) (*ResolvedArtifact, error) {
	path, err := r.resolveFile(ctx, coordinate, repositories)
	if err != nil {
		return nil, err
	}
	artifact := &ResolvedArtifact{Coordinate: coordinate, Path: path}

	if r.fetchSources && coordinate.Classifier == "" && coordinate.Extension == DefaultExtension {
		sources := coordinate.WithClassifier("sources")
		sourcesPath, err := r.resolveFile(ctx, sources, repositories)
		if err != nil {
			r.logger.Debug("sources unavailable", "coordinate", sources.String(), "error", err)
		} else {
			artifact.SourcesPath = sourcesPath
		}
	}
	return artifact, nil
}

// resolveFile is the unmemoized cache-then-repositories lookup for a
// single file.
func (r *Resolver) resolveFile(ctx context.Context, coordinate Coordinate, repositories []Repository) (string, error) {
	relative := coordinate.Path()
	target := filepath.Join(r.cacheDir, filepath.FromSlash(relative))

	if r.cached(target) {
		r.logger.Debug("artifact cache hit", "coordinate", coordinate.String(), "path", target)
		return target, nil
	}

	resolutionError := &ResolutionError{Coordinate: coordinate}
	for _, repository := range repositories {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := r.download(ctx, repository, relative, target)
		if err == nil {
			r.logger.Info("downloaded artifact",
				"coordinate", coordinate.String(),
				"repository", repository.Name(),
				"path", target,
			)
			return target, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		r.logger.Debug("repository miss",
			"coordinate", coordinate.String(),
			"repository", repository.Name(),
			"error", err,
		)
		resolutionError.Attempts = append(resolutionError.Attempts, Attempt{
			Repository: repository.Name(),
			Err:        err,
		})
	}
	return "", resolutionError
}

func (r *Resolver) cached(target string) bool {
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if r.verifyChecksums && !verifyCached(target) {
		r.logger.Warn("cached artifact failed checksum verification, downloading again", "path", target)
		return false
	}
	return true
}

// download fetches relative from repository into a temp file beside
// target and renames it into place. If another process promoted the
// same file first, the temp file is discarded and the existing file
// is kept.
func (r *Resolver) download(ctx context.Context, repository Repository, relative, target string) error {
	directory := filepath.Dir(target)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}

	var digest string
	if r.verifyChecksums {
		var sidecar bytes.Buffer
		if err := repository.Fetch(ctx, relative+checksumExtension, &sidecar); err != nil {
			return fmt.Errorf("fetching checksum: %w", err)
		}
		parsed, err := parseChecksum(sidecar.Bytes())
		if err != nil {
			return err
		}
		digest = parsed
	}

	temporary, err := os.CreateTemp(directory, filepath.Base(target)+".part-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	temporaryPath := temporary.Name()
	promoted := false
	defer func() {
		if !promoted {
			os.Remove(temporaryPath)
		}
	}()

	if err := repository.Fetch(ctx, relative, temporary); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if r.verifyChecksums {
		got, err := hashFile(temporaryPath)
		if err != nil {
			return err
		}
		if got != digest {
			return &ChecksumMismatchError{Path: relative, Want: digest, Got: got}
		}
		if err := writeFileAtomic(target+checksumExtension, []byte(digest+"\n")); err != nil {
			return fmt.Errorf("writing checksum sidecar: %w", err)
		}
	}

	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := os.Rename(temporaryPath, target); err != nil {
		return fmt.Errorf("promoting %s: %w", target, err)
	}
	promoted = true
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".part-*")
	if err != nil {
		return err
	}
	temporaryPath := temporary.Name()
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporaryPath)
		return err
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return err
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return err
	}
	return nil
}
