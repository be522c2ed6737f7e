// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lazy

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// State is the lifecycle position of a [Value].
type State int

const (
	// StateEmpty means the computation has not been started.
	StateEmpty State = iota

	// StateComputing means a caller is running the computation.
	StateComputing

	// StateDone means the computation returned a value.
	StateDone

	// StateFailed means the computation returned an error or panicked.
	StateFailed
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateComputing:
		return "computing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// PanicError is returned to every caller of a Value whose computation
// panicked. The panic does not propagate past the computing goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("lazy computation panicked: %v", e.Value)
}

// call is one attempt at the computation. Its value and err fields are
// written before done is closed and never afterwards, so waiters read
// them without holding the Value's lock.
type call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Value is a one-shot, concurrency-safe lazy computation. The zero
// Value is not usable; create one with [New] or [Of].
type Value[T any] struct {
	compute func() (T, error)

	mu      sync.Mutex
	current *call[T]
}

// New returns a Value that will run compute on the first call to Get
// or Wait. Construction has no side effects.
func New[T any](compute func() (T, error)) *Value[T] {
	return &Value[T]{compute: compute}
}

// Of returns a Value that is already done with the given result.
func Of[T any](value T) *Value[T] {
	done := make(chan struct{})
	close(done)
	return &Value[T]{
		compute: func() (T, error) { return value, nil },
		current: &call[T]{done: done, value: value},
	}
}

// Get returns the result of the computation, running it in the calling
// goroutine if no other caller has started it yet. Callers that find
// the computation in progress block until it finishes.
func (v *Value[T]) Get() (T, error) {
	active, started := v.begin()
	if started {
		v.run(active)
	}
	<-active.done
	return active.value, active.err
}

// Wait is Get with a cancellable wait. If Wait starts the computation,
// the computation runs in its own goroutine so that abandoning the wait
// does not abandon the work: other callers still receive the result.
// Returns ctx.Err() if ctx is done before the result is available.
func (v *Value[T]) Wait(ctx context.Context) (T, error) {
	active, started := v.begin()
	if started {
		go v.run(active)
	}
	select {
	case <-active.done:
		return active.value, active.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// State reports the current lifecycle position.
func (v *Value[T]) State() State {
	v.mu.Lock()
	active := v.current
	v.mu.Unlock()

	if active == nil {
		return StateEmpty
	}
	select {
	case <-active.done:
		if active.err != nil {
			return StateFailed
		}
		return StateDone
	default:
		return StateComputing
	}
}

// Reset returns a finished Value to the empty state so that the next
// Get runs the computation again. A computation in flight is not
// interrupted and the reset is refused; Reset reports whether it took
// effect.
func (v *Value[T]) Reset() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current == nil {
		return true
	}
	select {
	case <-v.current.done:
		v.current = nil
		return true
	default:
		return false
	}
}

// begin returns the active call, creating it if the Value is empty.
// started is true for exactly one caller per call: the one that must
// run the computation.
func (v *Value[T]) begin() (*call[T], bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current != nil {
		return v.current, false
	}
	v.current = &call[T]{done: make(chan struct{})}
	return v.current, true
}

func (v *Value[T]) run(active *call[T]) {
	defer close(active.done)
	defer func() {
		if recovered := recover(); recovered != nil {
			var zero T
			active.value = zero
			active.err = &PanicError{Value: recovered, Stack: debug.Stack()}
		}
	}()
	active.value, active.err = v.compute()
}
