// Package arena implements the renderer's two ownership disciplines:
// scoped bump-arenas for per-ray/per-shading-call values, and atomic
// retain/release reference counting for long-lived scene-graph nodes. Neither touches manual memory layout (the host language is
// garbage collected); an Arena's job is purely to bound the *lifetime* of
// the values it hands out, and a Ref's job is to make teardown order of
// shared nodes deterministic and race-free.
package arena

import "sync/atomic"

// Arena is a scoped allocator: Reset invalidates every value handed out
// since the last Reset by dropping this arena's only references to them,
// a compositor or allocator is owned by exactly one worker, and at
// scope end everything it produced is invalidated en masse. T is
// typically a pointer type; a caller that retains a copy of the pointer
// past Reset keeps a dangling reference by contract, not by enforcement
// (the GC still owns the backing memory).
type Arena[T any] struct {
	items []T
}

// New records v as having been produced by this arena and returns it.
func (a *Arena[T]) New(v T) T {
	a.items = append(a.items, v)
	return v
}

// Reset drops this arena's references to everything it has produced.
// Must be called exactly once per scope (once per camera ray for a
// compositor, once per shading call for a BSDF/texture-coordinate
// allocator, once per trace for a shape-hit allocator).
func (a *Arena[T]) Reset() {
	a.items = a.items[:0]
}

// Len reports how many values the arena currently holds, for diagnostics
// and tests (e.g. the compositor-reset-invalidation testable property).
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// Ref is an atomically reference-counted handle to a long-lived
// scene-graph value (shapes, materials, lights, mipmaps, the colour
// extrapolator). Per these are the only shared-mutable atomics in the
// core; construction/destruction of per-ray arena values never touches
// them.
type Ref[T any] struct {
	value   T
	count   atomic.Int32
	release func(T)
}

// NewRef wraps value in a Ref with an initial count of 1. release, if
// non-nil, runs exactly once when the count reaches zero.
func NewRef[T any](value T, release func(T)) *Ref[T] {
	r := &Ref[T]{value: value, release: release}
	r.count.Store(1)
	return r
}

// Retain increments the reference count and returns the ref for chaining.
func (r *Ref[T]) Retain() *Ref[T] {
	r.count.Add(1)
	return r
}

// Release decrements the reference count, running the release callback
// exactly once when it reaches zero. Releasing more times than retained
// is a programming error (scene-graph lifetime bug), not a recoverable
// runtime condition, so nothing here defends against double-release.
func (r *Ref[T]) Release() {
	if r.count.Add(-1) == 0 && r.release != nil {
		r.release(r.value)
	}
}

// Value returns the wrapped value.
func (r *Ref[T]) Value() T {
	return r.value
}
