// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/molt/lib/clock"
	"github.com/bureau-foundation/molt/lib/suggest"
)

// maxSuggestDistance is tighter than the CLI's: task names are short.
const maxSuggestDistance = 2

// Status is the outcome of one task in a dispatch.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed

	// StatusCancelled means ctx ended before the task started.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Options configures Dispatch.
type Options struct {
	// Strict logs a warning for every requested name that matches no
	// task. Unmatched names are listed in Report.NotFound either way.
	Strict bool

	// Parallelism bounds how many tasks run at once. Zero or negative
	// runs every matched task at once.
	Parallelism int

	Clock  clock.Clock
	Logger *slog.Logger
}

// Result is the outcome of one task.
type Result struct {
	Task     string
	Status   Status
	Duration time.Duration
	Err      error
}

// Report summarizes a dispatch. Results are in registry (sorted name)
// order.
type Report struct {
	Results  []Result
	NotFound []*NotFoundError
}

// Failed reports whether any task failed or was cancelled.
func (r *Report) Failed() bool {
	return slices.ContainsFunc(r.Results, func(result Result) bool {
		return result.Status != StatusSucceeded
	})
}

// Dispatch runs every registered task whose name equals one of names,
// passing args to each. Tasks run concurrently; one failure does not
// stop the others. The returned error joins a *TaskError for every
// failed task and is nil when all matched tasks succeeded, including
// when none matched.
func (r *Registry) Dispatch(ctx context.Context, names, args []string, options Options) (*Report, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	registered := r.Tasks()
	report := &Report{}
	var matched []Task
	for _, task := range registered {
		if slices.Contains(names, task.Name) {
			matched = append(matched, task)
		}
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := r.Lookup(name); ok {
			continue
		}
		notFound := &NotFoundError{Name: name, Suggestion: suggest.Closest(name, r.Names(), maxSuggestDistance)}
		report.NotFound = append(report.NotFound, notFound)
		if options.Strict {
			logger.Warn("skipping unknown task", "task", name, "suggestion", notFound.Suggestion)
		} else {
			logger.Debug("skipping unknown task", "task", name)
		}
	}
	if len(matched) == 0 {
		return report, nil
	}

	parallelism := options.Parallelism
	if parallelism <= 0 || parallelism > len(matched) {
		parallelism = len(matched)
	}
	slots := make(chan struct{}, parallelism)

	report.Results = make([]Result, len(matched))
	var wg sync.WaitGroup
	for i, task := range matched {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				report.Results[i] = Result{Task: task.Name, Status: StatusCancelled, Err: ctx.Err()}
				return
			}
			defer func() { <-slots }()
			report.Results[i] = runTask(ctx, task, args, clk, logger)
		}()
	}
	wg.Wait()

	var errs []error
	for _, result := range report.Results {
		if result.Err != nil {
			errs = append(errs, &TaskError{Task: result.Task, Err: result.Err})
		}
	}
	return report, errors.Join(errs...)
}

func runTask(ctx context.Context, task Task, args []string, clk clock.Clock, logger *slog.Logger) (result Result) {
	result.Task = task.Name
	start := clk.Now()
	logger.Info("task started", "task", task.Name)

	defer func() {
		if recovered := recover(); recovered != nil {
			result.Err = fmt.Errorf("panic: %v\n%s", recovered, debug.Stack())
		}
		result.Duration = clock.Since(clk, start)
		if result.Err != nil {
			result.Status = StatusFailed
			logger.Error("task failed", "task", task.Name, "duration", result.Duration, "error", result.Err)
			return
		}
		result.Status = StatusSucceeded
		logger.Info("task finished", "task", task.Name, "duration", result.Duration)
	}()

	result.Err = task.Run(ctx, args)
	return result
}
