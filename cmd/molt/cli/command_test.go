// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "molt",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "tasks",
				Run: func(_ context.Context, args []string) error {
					called = "tasks"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"tasks"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "tasks" {
		t.Errorf("dispatched to %q, want %q", called, "tasks")
	}
}

func TestCommand_Execute_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")
	var got any

	root := &Command{
		Name: "molt",
		Subcommands: []*Command{{
			Name: "run",
			Run: func(ctx context.Context, _ []string) error {
				got = ctx.Value(key{})
				return nil
			},
		}},
	}
	if err := root.Execute(ctx, []string{"run"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got != "marker" {
		t.Errorf("context value = %v, want marker", got)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var configPath string
	var received []string

	command := &Command{
		Name: "stage",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("stage", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "project file")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			received = args
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--config", "/tmp/molt.yaml", "named"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if configPath != "/tmp/molt.yaml" {
		t.Errorf("configPath = %q, want %q", configPath, "/tmp/molt.yaml")
	}
	if !slices.Equal(received, []string{"named"}) {
		t.Errorf("args = %v, want [named]", received)
	}
}

func TestCommand_Execute_KeepsDash(t *testing.T) {
	var received []string
	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.Bool("strict", false, "")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			received = args
			return nil
		},
	}

	args := []string{"build", "--strict", "vscode", "--", "--width", "3"}
	if err := command.Execute(context.Background(), args); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := []string{"build", "vscode", "--", "--width", "3"}
	if !slices.Equal(received, want) {
		t.Errorf("args = %v, want %v", received, want)
	}

	own, forwarded := SplitAtDash(received)
	if !slices.Equal(own, []string{"build", "vscode"}) || !slices.Equal(forwarded, []string{"--width", "3"}) {
		t.Errorf("SplitAtDash = %v, %v", own, forwarded)
	}
}

func TestSplitAtDash(t *testing.T) {
	tests := []struct {
		args      []string
		own       []string
		forwarded []string
	}{
		{nil, nil, nil},
		{[]string{"build"}, []string{"build"}, nil},
		{[]string{"build", "--"}, []string{"build"}, []string{}},
		{[]string{"--", "x", "--", "y"}, []string{}, []string{"x", "--", "y"}},
	}
	for _, test := range tests {
		own, forwarded := SplitAtDash(test.args)
		if !slices.Equal(own, test.own) || !slices.Equal(forwarded, test.forwarded) {
			t.Errorf("SplitAtDash(%v) = %v, %v, want %v, %v", test.args, own, forwarded, test.own, test.forwarded)
		}
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.Bool("strict", false, "report unknown tasks")
			flagSet.Int("parallelism", 0, "task limit")
			return flagSet
		},
		Run: func(context.Context, []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--stirct"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --strict") {
		t.Errorf("error = %q, want suggestion for '--strict'", errStr)
	}
	if !strings.Contains(errStr, "stirct") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "run",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.Bool("strict", false, "")
			return flagSet
		},
		Run: func(context.Context, []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "molt",
		Subcommands: []*Command{
			{Name: "resolve"},
			{Name: "stage"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"stgae"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"stage\"") {
		t.Errorf("error = %q, want suggestion for 'stage'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "molt",
		Subcommands: []*Command{
			{Name: "resolve"},
			{Name: "stage"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_RunHandlesNonSubcommandArgs(t *testing.T) {
	var received []string
	root := &Command{
		Name:        "molt",
		Subcommands: []*Command{{Name: "stage"}},
		Run: func(_ context.Context, args []string) error {
			received = args
			return nil
		},
	}

	if err := root.Execute(context.Background(), []string{"stgae"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !slices.Equal(received, []string{"stgae"}) {
		t.Errorf("Run received %v, want [stgae]", received)
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "molt",
				Summary: "Mod development toolchain",
				Subcommands: []*Command{
					{Name: "run", Summary: "Run project tasks"},
				},
			}

			if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "molt",
		Subcommands: []*Command{
			{Name: "run", Summary: "Run project tasks"},
		},
	}

	err := root.Execute(context.Background(), []string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_Execute_ReturnsRunError(t *testing.T) {
	failure := &ExitError{Code: 3}
	command := &Command{
		Name: "run",
		Run:  func(context.Context, []string) error { return failure },
	}
	err := command.Execute(context.Background(), nil)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("Execute() = %v, want ExitError code 3", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "molt",
		Description: "Mod development toolchain.",
		Subcommands: []*Command{
			{Name: "run", Summary: "Run project tasks"},
			{Name: "stage", Summary: "Produce a platform jar stage"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Generate IDE files",
				Command:     "molt run vscode netbeans",
			},
			{
				Description: "Print the named platform jar",
				Command:     "molt stage named",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Mod development toolchain.",
		"Usage:",
		"molt <command> [flags]",
		"Commands:",
		"run",
		"Run project tasks",
		"stage",
		"Produce a platform jar stage",
		"Examples:",
		"molt run vscode netbeans",
		"molt stage named",
		"Run 'molt <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "run",
		Summary: "Run project tasks",
		Usage:   "molt run <task>... [-- args...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.String("config", "", "project file")
			flagSet.Bool("strict", false, "report unknown task names")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"molt run <task>... [-- args...]",
		"Flags:",
		"config",
		"strict",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "molt"}
	stage := &Command{Name: "stage", parent: root}
	named := &Command{Name: "named", parent: stage}

	if got := root.fullName(); got != "molt" {
		t.Errorf("root.fullName() = %q, want %q", got, "molt")
	}
	if got := stage.fullName(); got != "molt stage" {
		t.Errorf("stage.fullName() = %q, want %q", got, "molt stage")
	}
	if got := named.fullName(); got != "molt stage named" {
		t.Errorf("named.fullName() = %q, want %q", got, "molt stage named")
	}
}

func TestNewLogger(t *testing.T) {
	var buffer bytes.Buffer
	newLogger(&buffer, false, false).Debug("hidden")
	newLogger(&buffer, false, false).Info("shown", "task", "build")
	output := buffer.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("debug record written at info level: %s", output)
	}
	if !strings.Contains(output, `"msg":"shown"`) || !strings.Contains(output, `"task":"build"`) {
		t.Errorf("non-terminal output is not JSON: %s", output)
	}

	buffer.Reset()
	newLogger(&buffer, true, true).Debug("detail", "stage", "named")
	if !strings.Contains(buffer.String(), "msg=detail") || !strings.Contains(buffer.String(), "stage=named") {
		t.Errorf("verbose terminal output = %q", buffer.String())
	}
}
