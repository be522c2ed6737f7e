// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxStderrTail bounds how much of a failing tool's stderr a ToolError
// keeps.
const maxStderrTail = 4096

// waitDelay bounds how long Run waits for a killed tool's children to
// release its output pipes.
const waitDelay = 5 * time.Second

// ToolError reports a failed external tool run.
type ToolError struct {
	// Tool is the tool's display name ("decompiler", "javac").
	Tool string

	// Args is the full argument vector, program first.
	Args []string

	// ExitCode is the process exit status, or -1 when the process
	// could not be started or was killed.
	ExitCode int

	// Stderr is the tail of the tool's standard error.
	Stderr string

	Err error
}

func (e *ToolError) Error() string {
	var message strings.Builder
	fmt.Fprintf(&message, "%s failed", e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&message, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&message, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&message, "\nstderr:\n%s", e.Stderr)
	}
	return message.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// Tool describes one invocation of an external program.
type Tool struct {
	// Name is used in logs and errors.
	Name string

	// Args is the argument vector, program first.
	Args []string

	// Dir is the working directory; empty means the current one.
	Dir string

	// Env is appended to the inherited environment.
	Env []string

	Logger *slog.Logger
}

// Run executes the tool and returns its standard output. The process
// is killed when ctx is done. Any failure is a *ToolError.
func (t Tool) Run(ctx context.Context) (string, error) {
	if len(t.Args) == 0 {
		return "", &ToolError{Tool: t.Name, ExitCode: -1, Err: errors.New("empty command")}
	}
	logger := t.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, t.Args[0], t.Args[1:]...)
	command.Dir = t.Dir
	command.Stdout = &stdout
	command.Stderr = &stderr
	command.WaitDelay = waitDelay
	if len(t.Env) > 0 {
		command.Env = append(command.Environ(), t.Env...)
	}

	start := time.Now()
	logger.Debug("running tool", "tool", t.Name, "args", t.Args, "dir", t.Dir)
	err := command.Run()
	if err == nil {
		logger.Debug("tool finished", "tool", t.Name, "duration", time.Since(start))
		return stdout.String(), nil
	}

	toolErr := &ToolError{
		Tool:     t.Name,
		Args:     t.Args,
		ExitCode: -1,
		Stderr:   tail(strings.TrimSpace(stderr.String()), maxStderrTail),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		toolErr.Err = ctxErr
	}
	return "", toolErr
}

// tail returns the last limit bytes of text, starting at a line
// boundary when one is available.
func tail(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	text = text[len(text)-limit:]
	if newline := strings.IndexByte(text, '\n'); newline >= 0 && newline < len(text)-1 {
		text = text[newline+1:]
	}
	return "..." + "\n" + text
}
