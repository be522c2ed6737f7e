// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lazy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/molt/lib/testutil"
)

func TestValueRunsOnceUnderConcurrency(t *testing.T) {
	const callers = 64

	var executions atomic.Int32
	release := make(chan struct{})
	entered := make(chan struct{})
	value := New(func() (int, error) {
		executions.Add(1)
		close(entered)
		<-release
		return 42, nil
	})

	results := make(chan int, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := value.Get()
			if err != nil {
				t.Errorf("Get: %v", err)
			}
			results <- got
		}()
	}

	testutil.RequireClosed(t, entered, 5*time.Second, "computation never started")
	if state := value.State(); state != StateComputing {
		t.Errorf("State during computation = %v, want computing", state)
	}
	close(release)
	wg.Wait()
	close(results)

	for got := range results {
		if got != 42 {
			t.Errorf("Get = %d, want 42", got)
		}
	}
	if count := executions.Load(); count != 1 {
		t.Errorf("computation ran %d times, want 1", count)
	}
	if state := value.State(); state != StateDone {
		t.Errorf("State = %v, want done", state)
	}
}

func TestValueNoSideEffectsBeforeGet(t *testing.T) {
	var executions atomic.Int32
	value := New(func() (string, error) {
		executions.Add(1)
		return "x", nil
	})
	if executions.Load() != 0 {
		t.Fatal("computation ran during construction")
	}
	if value.State() != StateEmpty {
		t.Fatalf("State = %v, want empty", value.State())
	}
}

func TestValueCachesFailure(t *testing.T) {
	sentinel := errors.New("boom")
	var executions atomic.Int32
	value := New(func() (int, error) {
		executions.Add(1)
		return 0, sentinel
	})

	for range 3 {
		if _, err := value.Get(); !errors.Is(err, sentinel) {
			t.Fatalf("Get error = %v, want %v", err, sentinel)
		}
	}
	if executions.Load() != 1 {
		t.Errorf("failed computation ran %d times, want 1", executions.Load())
	}
	if value.State() != StateFailed {
		t.Errorf("State = %v, want failed", value.State())
	}
}

func TestValueResetAllowsRetry(t *testing.T) {
	var attempts atomic.Int32
	value := New(func() (int, error) {
		if attempts.Add(1) == 1 {
			return 0, errors.New("transient")
		}
		return 7, nil
	})

	if _, err := value.Get(); err == nil {
		t.Fatal("first Get should fail")
	}
	if !value.Reset() {
		t.Fatal("Reset of a failed value should succeed")
	}
	got, err := value.Get()
	if err != nil {
		t.Fatalf("Get after Reset: %v", err)
	}
	if got != 7 {
		t.Errorf("Get after Reset = %d, want 7", got)
	}
}

func TestValueResetRefusedWhileComputing(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	value := New(func() (int, error) {
		close(entered)
		<-release
		return 1, nil
	})

	go value.Get()
	testutil.RequireClosed(t, entered, 5*time.Second, "computation never started")

	if value.Reset() {
		t.Error("Reset during computation should be refused")
	}
	close(release)
	if _, err := value.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestValuePanicBecomesError(t *testing.T) {
	value := New(func() (int, error) {
		panic("kaboom")
	})

	_, err := value.Get()
	var panicError *PanicError
	if !errors.As(err, &panicError) {
		t.Fatalf("Get error = %v, want *PanicError", err)
	}
	if panicError.Value != "kaboom" {
		t.Errorf("PanicError.Value = %v, want kaboom", panicError.Value)
	}
	if len(panicError.Stack) == 0 {
		t.Error("PanicError.Stack is empty")
	}
}

func TestValueWaitCancelledLeavesComputationRunning(t *testing.T) {
	release := make(chan struct{})
	value := New(func() (int, error) {
		<-release
		return 9, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := value.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}

	close(release)
	got, err := value.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != 9 {
		t.Errorf("Get = %d, want 9", got)
	}
}

func TestOf(t *testing.T) {
	value := Of([]string{"a", "b"})
	if value.State() != StateDone {
		t.Fatalf("State = %v, want done", value.State())
	}
	got, err := value.Get()
	if err != nil || len(got) != 2 {
		t.Fatalf("Get = %v, %v", got, err)
	}
}
