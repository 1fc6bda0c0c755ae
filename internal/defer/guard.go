// Package defer implements the scoped release guard described in
// spec.md §4.2 (C2): a wrapper around a value plus a release closure,
// invoked exactly once regardless of which exit path (normal return,
// panic, early return) unwinds the scope. Go has no destructor, so the
// guard is driven explicitly via Release, paired with a deferred call
// at the construction site — per spec.md §9's Design Note on
// "Cancellation via drop": an explicit call plus a guard type, not
// destructor-only semantics.
package guard

import "sync"

// Guard wraps a value V and guarantees that release runs exactly once.
type Guard[V any] struct {
	value   V
	release func(V)
	once    sync.Once
}

// New wraps value with a release action. Callers pair this with
// `defer g.Release()` at the call site that owns the scope.
func New[V any](value V, release func(V)) *Guard[V] {
	return &Guard[V]{value: value, release: release}
}

// Value returns the wrapped value.
func (g *Guard[V]) Value() V { return g.value }

// Release runs the release closure exactly once. Safe to call from a
// deferred statement, from an explicit early-return path, or both.
func (g *Guard[V]) Release() {
	g.once.Do(func() {
		if g.release != nil {
			g.release(g.value)
		}
	})
}
