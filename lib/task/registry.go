// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name        string
	Description string

	// Run does the work. args are the arguments after "--" on the
	// command line, shared by every task of one invocation.
	Run func(ctx context.Context, args []string) error
}

// Registry is a set of tasks keyed by name. The zero Registry is ready
// to use and safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// Register adds task. Names must be non-empty, free of whitespace, and
// unique within the registry.
func (r *Registry) Register(task Task) error {
	if task.Name == "" {
		return errors.New("task: name is required")
	}
	if strings.ContainsFunc(task.Name, isSpace) {
		return fmt.Errorf("task: name %q contains whitespace", task.Name)
	}
	if task.Run == nil {
		return fmt.Errorf("task %q: Run is nil", task.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks == nil {
		r.tasks = make(map[string]Task)
	}
	if _, exists := r.tasks[task.Name]; exists {
		return fmt.Errorf("task %q is already registered", task.Name)
	}
	r.tasks[task.Name] = task
	return nil
}

// MustRegister is Register for static registration tables, where a
// duplicate name is a programming error.
func (r *Registry) MustRegister(task Task) {
	if err := r.Register(task); err != nil {
		panic(err)
	}
}

// Lookup returns the task named name.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[name]
	return task, ok
}

// Tasks returns every registered task sorted by name.
func (r *Registry) Tasks() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tasks := make([]Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	slices.SortFunc(tasks, func(a, b Task) int { return strings.Compare(a.Name, b.Name) })
	return tasks
}

// Names returns every registered task name, sorted.
func (r *Registry) Names() []string {
	tasks := r.Tasks()
	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name
	}
	return names
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
