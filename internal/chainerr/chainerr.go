// Package chainerr names the error kinds the core distinguishes
// (spec.md §7), so logging and restart decisions can branch on kind
// without coupling to the originating package's concrete error types.
//
// Built on the standard errors package rather than a third-party
// errors library: the teacher's own error taxonomy (blockchain/blockchain.go's
// reorg/validation errors) is likewise a plain set of sentinel values
// and errors.Is/As checks, not a wrapped hierarchy library, so this
// stays in the same idiom. github.com/pkg/errors (present in go.mod
// for wrapping at the config-load boundary) is used directly in
// internal/config instead of being re-exported here.
package chainerr

import "errors"

// Kind classifies a failure the way spec.md §7 enumerates them.
type Kind int

const (
	Configuration Kind = iota
	KeyDerivation
	Transport
	RPCStatus
	SequenceMismatch
	Simulation
	GasExceeds
	Deserialization
	Expiration
	TaskExit
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case KeyDerivation:
		return "key-derivation"
	case Transport:
		return "transport"
	case RPCStatus:
		return "rpc-status"
	case SequenceMismatch:
		return "sequence-mismatch"
	case Simulation:
		return "simulation"
	case GasExceeds:
		return "gas-exceeds"
	case Deserialization:
		return "deserialization"
	case Expiration:
		return "expiration"
	case TaskExit:
		return "task-exit"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with the underlying cause, preserving error
// chains via Unwrap so callers can still errors.Is/As through it.
type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Fatal reports whether kind terminates the process rather than being
// handled by the restart policy at the task level (spec.md §7: kinds
// 1 and 2 are fatal, all others are task-local).
func (k Kind) Fatal() bool {
	return k == Configuration || k == KeyDerivation
}

// errUnknownKind is returned by As-style lookups that fall through;
// kept as a sentinel so call sites can errors.Is against "some
// chainerr.Error with no more specific cause" without a cause value.
var errUnknownKind = errors.New("chainerr: no cause recorded")

// Bare wraps kind with no further cause, for sites that only need to
// signal the kind (e.g. a synthetic gas-exceeds rejection).
func Bare(kind Kind) *Error {
	return &Error{Kind: kind, Cause: errUnknownKind}
}
