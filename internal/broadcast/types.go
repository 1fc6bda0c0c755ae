// Package broadcast implements the single-consumer transaction
// pipeline described in spec.md §4.7 (C7): simulate, sign, commit,
// confirm, with sequence reconciliation and package expiration.
package broadcast

import (
	"time"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"

	"github.com/nolus-protocol/chain-ops/internal/node"
)

// Synthetic response codes the broadcaster itself assigns, layered on
// top of the chain's own result codes (node.CodeSuccess,
// node.CodeInvalidSequence) per spec.md §3.
const (
	CodeExpired         uint32 = 1_000_000
	CodeExceedsGasLimit uint32 = 1_000_001
)

// Expiration is a package's willingness to wait, either None (never
// expires) or a monotonic deadline (spec.md §3).
type Expiration struct {
	has      bool
	deadline time.Time
}

// NoExpiration never expires.
func NoExpiration() Expiration { return Expiration{} }

// ExpireAt sets a monotonic deadline.
func ExpireAt(deadline time.Time) Expiration {
	return Expiration{has: true, deadline: deadline}
}

// Expired reports whether, as of now, the deadline has passed.
func (e Expiration) Expired(now time.Time) bool {
	return e.has && now.After(e.deadline)
}

// Package is one transaction request (spec.md §3's TxPackage): an
// ordered sequence of protobuf-encoded contract-call messages, a
// source label for logging, a hard gas limit, a fallback gas, and an
// expiration. Feedback is delivered exactly once on a buffered,
// one-shot channel so the broadcaster never blocks on a requester
// that stopped listening.
type Package struct {
	Body         []*codectypes.Any
	Source       string
	HardGasLimit uint64
	FallbackGas  uint64
	Expiration   Expiration

	feedback chan node.Response
}

// NewPackage builds a Package and returns the feedback channel the
// caller should receive exactly one node.Response from.
func NewPackage(body []*codectypes.Any, source string, hardGasLimit, fallbackGas uint64, expiration Expiration) (*Package, <-chan node.Response) {
	fb := make(chan node.Response, 1)
	return &Package{
		Body:         body,
		Source:       source,
		HardGasLimit: hardGasLimit,
		FallbackGas:  fallbackGas,
		Expiration:   expiration,
		feedback:     fb,
	}, fb
}

// Deliver sends resp on the package's feedback sink without blocking.
// A requester that gave up (nobody ever reads the buffered slot) is
// not treated as an error — spec.md §4.7 step 8: "ignore send errors".
// The broadcaster is the only production caller; exported so an
// alternate delivery path (or a test double standing in for one) can
// complete a Package the same way.
func (p *Package) Deliver(resp node.Response) {
	select {
	case p.feedback <- resp:
	default:
	}
}
