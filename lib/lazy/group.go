// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lazy

import "sync"

// Group is a keyed family of Values: one computation per key. The zero
// Group is ready to use.
type Group[K comparable, V any] struct {
	mu     sync.Mutex
	values map[K]*Value[V]
}

// Value returns the cell for key, creating it with compute if it does
// not exist. compute is ignored for keys that already have a cell.
func (g *Group[K, V]) Value(key K, compute func() (V, error)) *Value[V] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.values == nil {
		g.values = make(map[K]*Value[V])
	}
	cell, ok := g.values[key]
	if !ok {
		cell = New(compute)
		g.values[key] = cell
	}
	return cell
}

// Get runs (or joins, or replays) the computation for key.
func (g *Group[K, V]) Get(key K, compute func() (V, error)) (V, error) {
	return g.Value(key, compute).Get()
}

// Forget drops the cell for key so the next Get starts a fresh
// computation. Callers already waiting on the old cell still receive
// its result.
func (g *Group[K, V]) Forget(key K) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, key)
}

// ForgetValue drops the cell for key only if it is still cell. A
// caller that saw cell fail uses this so it does not discard a newer
// cell another caller already started.
func (g *Group[K, V]) ForgetValue(key K, cell *Value[V]) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.values[key] != cell {
		return false
	}
	delete(g.values, key)
	return true
}

// Len returns the number of keys with a cell.
func (g *Group[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.values)
}
