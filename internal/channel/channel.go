// Package channel implements the bounded and unbounded typed message
// queues described in spec.md §4.1 (C1). Both flavors are
// process-local: no reconnection semantics. A channel closes only when
// Close is called; there are no per-sender handles whose release
// would close it.
package channel

import "errors"

// ErrClosed is returned by Send once the channel has been closed.
var ErrClosed = errors.New("channel: send on closed channel")

// RecvResult is the outcome of a non-blocking receive.
type RecvResult int

const (
	// RecvOK means Value holds a delivered item.
	RecvOK RecvResult = iota
	// RecvEmpty means the channel has no buffered item right now but
	// is still open.
	RecvEmpty
	// RecvClosed means the channel is closed and drained — the
	// spec.md §4.1 "Closed" sentinel.
	RecvClosed
)
