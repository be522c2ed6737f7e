// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package maven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned (wrapped) by a Repository that does not have
// the requested path.
var ErrNotFound = errors.New("not found")

// Repository retrieves files by repository-relative path.
type Repository interface {
	// Name identifies the repository in logs and errors.
	Name() string

	// Fetch copies the file at path into w. Returns an error wrapping
	// ErrNotFound if the repository does not have it.
	Fetch(ctx context.Context, path string, w io.Writer) error
}

// maxErrorBody bounds how much of an HTTP error response is quoted in
// an error message.
const maxErrorBody = 4 << 10

// HTTPRepository fetches over HTTP(S) from a base URL.
type HTTPRepository struct {
	BaseURL string

	// Client is used for requests. Nil means http.DefaultClient.
	Client *http.Client
}

// Name returns the base URL.
func (r *HTTPRepository) Name() string { return r.BaseURL }

// Fetch issues a GET for BaseURL/path. 404 and 410 map to ErrNotFound.
func (r *HTTPRepository) Fetch(ctx context.Context, path string, w io.Writer) error {
	target := strings.TrimSuffix(r.BaseURL, "/") + "/" + path
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", target, err)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	response, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer response.Body.Close()

	switch {
	case response.StatusCode == http.StatusNotFound || response.StatusCode == http.StatusGone:
		return fmt.Errorf("GET %s: %w", target, ErrNotFound)
	case response.StatusCode < 200 || response.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
		return fmt.Errorf("GET %s: %s: %s", target, response.Status, strings.TrimSpace(string(body)))
	}

	if _, err := io.Copy(w, response.Body); err != nil {
		return fmt.Errorf("reading %s: %w", target, err)
	}
	return nil
}

// FileRepository reads from a directory on the local filesystem laid
// out like a Maven repository.
type FileRepository struct {
	Root string
}

// Name returns the root directory.
func (r *FileRepository) Name() string { return r.Root }

// Fetch copies Root/path into w.
func (r *FileRepository) Fetch(ctx context.Context, path string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	source := filepath.Join(r.Root, filepath.FromSlash(path))
	file, err := os.Open(source)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", source, ErrNotFound)
		}
		return fmt.Errorf("opening %s: %w", source, err)
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}
	return nil
}

// RepositoryFromURL returns an HTTPRepository for http and https URLs
// and a FileRepository for file URLs and absolute paths.
func RepositoryFromURL(raw string, client *http.Client) (Repository, error) {
	if filepath.IsAbs(raw) {
		return &FileRepository{Root: raw}, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing repository URL %q: %w", raw, err)
	}
	switch parsed.Scheme {
	case "http", "https":
		return &HTTPRepository{BaseURL: raw, Client: client}, nil
	case "file":
		return &FileRepository{Root: filepath.FromSlash(parsed.Path)}, nil
	default:
		return nil, fmt.Errorf("repository URL %q: unsupported scheme %q", raw, parsed.Scheme)
	}
}

// RepositoriesFromURLs converts each URL with RepositoryFromURL,
// preserving order.
func RepositoriesFromURLs(raws []string, client *http.Client) ([]Repository, error) {
	repositories := make([]Repository, 0, len(raws))
	for _, raw := range raws {
		repository, err := RepositoryFromURL(raw, client)
		if err != nil {
			return nil, err
		}
		repositories = append(repositories, repository)
	}
	return repositories, nil
}
