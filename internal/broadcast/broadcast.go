package broadcast

import (
	"context"
	"strconv"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/nolus-protocol/chain-ops/internal/chainerr"
	"github.com/nolus-protocol/chain-ops/internal/channel"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/metrics"
	"github.com/nolus-protocol/chain-ops/internal/node"
	"github.com/nolus-protocol/chain-ops/internal/signer"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var logger = log.New(log.ModuleBroadcaster)

// TxQuerier is the subset of node.QueryTx the broadcaster needs.
// node.QueryTx satisfies this structurally.
type TxQuerier interface {
	Simulate(ctx context.Context, txBytes []byte) (uint64, error)
	BroadcastCommit(ctx context.Context, txBytes []byte) (node.Response, error)
}

// TxQuerierProvider re-acquires a TxQuerier bound to the node
// client's current transport, picking up any reconnect that happened
// since the last package (spec.md §4.3).
type TxQuerierProvider func() (TxQuerier, error)

// AccountFetcherProvider re-acquires a signer.AccountFetcher the same
// way, for the sequence-mismatch recovery path.
type AccountFetcherProvider func() (signer.AccountFetcher, error)

// Broadcaster is the single consumer of Package values (spec.md
// §4.7). It owns the signer exclusively: no other component may call
// Sign, TxConfirmed, or RefreshSequence while the broadcaster runs.
type Broadcaster struct {
	cfg    Config
	signer *signer.State
	txOf   TxQuerierProvider
	authOf AccountFetcherProvider
	rx     *channel.Unbounded[*Package]
}

// New constructs a Broadcaster. rx is the channel application tasks
// send Packages on; the supervisor owns the sender side.
func New(cfg Config, s *signer.State, txOf TxQuerierProvider, authOf AccountFetcherProvider, rx *channel.Unbounded[*Package]) *Broadcaster {
	return &Broadcaster{cfg: cfg, signer: s, txOf: txOf, authOf: authOf, rx: rx}
}

// AsTask wraps the broadcaster as the built-in Broadcaster task the
// supervisor spawns (spec.md §3, §4.10).
func (b *Broadcaster) AsTask() task.Task {
	return task.FromFunc(task.Broadcaster, func(ctx context.Context, _ task.RunnableState) error {
		return b.Run(ctx)
	})
}

// Run is the broadcaster's Runnable body: receive, process, repeat,
// strictly FIFO, until the channel closes (spec.md §4.7, §5).
func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		pkg, res := b.rx.Recv()
		if res == channel.RecvClosed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		b.process(ctx, pkg)
	}
}

func (b *Broadcaster) process(ctx context.Context, pkg *Package) {
	if pkg.Expiration.Expired(time.Now()) {
		metrics.BroadcastOutcomes.WithLabelValues(strconv.FormatUint(uint64(CodeExpired), 10)).Inc()
		pkg.Deliver(node.Response{Code: CodeExpired, Info: "package expired before processing"})
		return
	}

	gas := b.estimateGas(ctx, pkg)
	if gas > pkg.HardGasLimit {
		logger.Warn("package exceeds hard gas limit", "source", pkg.Source, "gas", gas, "limit", pkg.HardGasLimit)
		metrics.BroadcastOutcomes.WithLabelValues(strconv.FormatUint(uint64(CodeExceedsGasLimit), 10)).Inc()
		pkg.Deliver(node.Response{Code: CodeExceedsGasLimit, Info: "simulated gas exceeds hard limit"})
		return
	}

	adjustedGas := b.cfg.AdjustGas(gas, pkg.HardGasLimit)
	fee := signer.Fee{
		Amount:   sdk.NewCoins(sdk.NewCoin(b.cfg.FeeDenom, sdkIntFromBig(b.cfg.Fee(adjustedGas)))),
		GasLimit: adjustedGas,
	}

	resp, err := b.signAndCommit(ctx, pkg, fee)
	if err != nil {
		cerr := chainerr.New(chainerr.RPCStatus, err)
		logger.Error("commit failed", "source", pkg.Source, "kind", cerr.Kind, "err", err)
		// RPCStatus is never Fatal: the broadcaster reports the failure
		// back through the package and moves on to the next package;
		// it does not retry and does not exit.
		pkg.Deliver(node.Response{Info: cerr.Error()})
		return
	}

	if resp.Code == node.CodeInvalidSequence {
		resp, err = b.recoverSequenceAndRetry(ctx, pkg, fee)
		if err != nil {
			cerr := chainerr.New(chainerr.SequenceMismatch, err)
			logger.Error("sequence recovery failed", "source", pkg.Source, "kind", cerr.Kind, "err", err)
			pkg.Deliver(node.Response{Info: cerr.Error()})
			return
		}
	}

	if resp.Code == node.CodeSuccess {
		b.signer.TxConfirmed()
	}
	metrics.BroadcastOutcomes.WithLabelValues(strconv.FormatUint(uint64(resp.Code), 10)).Inc()
	pkg.Deliver(resp)
}

// estimateGas simulates pkg's body at the signer's current sequence,
// falling back to pkg.FallbackGas on any simulation failure (spec.md
// §4.7 step 3).
func (b *Broadcaster) estimateGas(ctx context.Context, pkg *Package) uint64 {
	simFee := signer.Fee{Amount: sdk.NewCoins(), GasLimit: pkg.HardGasLimit}
	simTxBytes, err := b.signer.Sign(pkg.Body, pkg.Source, simFee)
	if err != nil {
		logger.Warn("simulation signing failed, using fallback gas", "source", pkg.Source, "err", err)
		return pkg.FallbackGas
	}

	txq, err := b.txOf()
	if err != nil {
		logger.Warn("could not acquire tx querier, using fallback gas", "source", pkg.Source, "err", err)
		return pkg.FallbackGas
	}

	gasUsed, err := txq.Simulate(ctx, simTxBytes)
	if err != nil {
		logger.Warn("simulate failed, using fallback gas", "source", pkg.Source, "err", err)
		return pkg.FallbackGas
	}
	return gasUsed
}

func (b *Broadcaster) signAndCommit(ctx context.Context, pkg *Package, fee signer.Fee) (node.Response, error) {
	txBytes, err := b.signer.Sign(pkg.Body, pkg.Source, fee)
	if err != nil {
		return node.Response{}, err
	}
	txq, err := b.txOf()
	if err != nil {
		return node.Response{}, err
	}
	return txq.BroadcastCommit(ctx, txBytes)
}

// recoverSequenceAndRetry implements spec.md §4.7 step 6: on an
// invalid-sequence result, refresh the signer's sequence from chain
// and retry signing + commit exactly once (spec.md §9's resolved Open
// Question: single retry, then surface).
func (b *Broadcaster) recoverSequenceAndRetry(ctx context.Context, pkg *Package, fee signer.Fee) (node.Response, error) {
	authClient, err := b.authOf()
	if err != nil {
		return node.Response{}, err
	}
	if err := b.signer.RefreshSequence(ctx, authClient); err != nil {
		return node.Response{}, err
	}
	return b.signAndCommit(ctx, pkg, fee)
}
