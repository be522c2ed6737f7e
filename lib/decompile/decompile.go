// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package decompile turns a jar into a sources jar by running an
// external decompiler.
package decompile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/bureau-foundation/molt/lib/process"
)

// ToolError is returned when the decompiler exits non-zero, cannot be
// started, or produces no usable output.
type ToolError = process.ToolError

// ErrEmptyOutput is wrapped by a ToolError when the decompiler exited
// successfully but wrote no sources.
var ErrEmptyOutput = errors.New("decompiler produced no output")

// Placeholders recognised in Process.Command.
const (
	PlaceholderInput     = "{input}"
	PlaceholderOutput    = "{output}"
	PlaceholderClasspath = "{classpath}"
)

// Decompiler produces a sources jar from a class jar.
type Decompiler interface {
	// Identity names the decompiler and its version for cache keys.
	Identity() string

	Decompile(ctx context.Context, input string, classpath []string, output string) error
}

// Process runs a decompiler as an external command. Every element of
// Command has {input}, {output}, and {classpath} replaced; classpath
// entries are joined with the platform list separator.
type Process struct {
	Name    string
	Version string
	Command []string
	Logger  *slog.Logger
}

// Identity implements Decompiler. The command template is part of the
// identity so changing decompiler options invalidates cached sources.
func (p *Process) Identity() string {
	return fmt.Sprintf("decompile/%s@%s:%s", p.Name, p.Version, strings.Join(p.Command, " "))
}

// Validate checks that the command can receive its input and output.
func (p *Process) Validate() error {
	if len(p.Command) == 0 {
		return errors.New("decompiler command is empty")
	}
	joined := strings.Join(p.Command, " ")
	for _, placeholder := range []string{PlaceholderInput, PlaceholderOutput} {
		if !strings.Contains(joined, placeholder) {
			return fmt.Errorf("decompiler command %q has no %s placeholder", joined, placeholder)
		}
	}
	return nil
}

// Expand returns the argument vector for one run.
func (p *Process) Expand(input string, classpath []string, output string) []string {
	replacer := strings.NewReplacer(
		PlaceholderInput, input,
		PlaceholderOutput, output,
		PlaceholderClasspath, strings.Join(classpath, string(os.PathListSeparator)),
	)
	args := make([]string, len(p.Command))
	for i, arg := range p.Command {
		args[i] = replacer.Replace(arg)
	}
	return args
}

// Decompile implements Decompiler. Success requires exit status zero
// and an output jar with at least one entry.
func (p *Process) Decompile(ctx context.Context, input string, classpath []string, output string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return err
	}
	name := p.Name
	if name == "" {
		name = "decompiler"
	}
	args := p.Expand(input, classpath, output)
	if _, err := (process.Tool{Name: name, Args: args, Logger: p.Logger}).Run(ctx); err != nil {
		return err
	}
	if err := checkOutput(output); err != nil {
		return &ToolError{Tool: name, Args: args, ExitCode: 0, Err: err}
	}
	return nil
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrEmptyOutput
		}
		return err
	}
	if info.Size() == 0 {
		return ErrEmptyOutput
	}
	reader, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("decompiler output is not a jar: %w", err)
	}
	defer reader.Close()
	if len(reader.File) == 0 {
		return ErrEmptyOutput
	}
	return nil
}
