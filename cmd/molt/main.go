// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// molt is the command-line front end: it loads molt.yaml from the
// project directory and runs tasks, resolves artifacts, and produces
// platform jar stages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/molt/cmd/molt/commands"
	"github.com/bureau-foundation/molt/lib/process"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own report (like run) return an
		// ExitError with the desired exit code. Don't print a redundant
		// "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
