// Package feeder supplies the market-data feeder's supervisor
// plumbing: the PriceFetcher task id, the Provider contract a
// concrete DEX client implements, a comparison wrapper that cross
// checks two providers, and the oracle ExecuteMsg builder. The
// concrete Astroport/Osmosis wire encodings are out of scope (spec.md
// §1 Non-goals) — only the shape a provider must have is defined here.
package feeder

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"

	"github.com/nolus-protocol/chain-ops/internal/broadcast"
	"github.com/nolus-protocol/chain-ops/internal/log"
	"github.com/nolus-protocol/chain-ops/internal/task"
)

var logger = log.New(log.ModuleFeeder)

// TaskID is the PriceFetcher TaskId variant (spec.md §4.12): one
// fetcher per (protocol, provider) pair.
type TaskID struct {
	ProtocolName string
	Provider     string
}

func (id TaskID) String() string { return fmt.Sprintf("price-fetcher/%s/%s", id.ProtocolName, id.Provider) }

func (id TaskID) Protocol() (string, bool) {
	if id.ProtocolName == "" {
		return "", false
	}
	return id.ProtocolName, true
}

// Price is one ticker's spot price as reported by a Provider.
type Price struct {
	Ticker string
	Amount *big.Rat
}

// Provider is the contract a concrete DEX client (Astroport, Osmosis,
// ...) implements; this package never depends on a concrete one.
type Provider interface {
	Name() string
	Prices(ctx context.Context) ([]Price, error)
}

// ContractSink is where a built TxPackage is sent for the broadcaster
// to pick up — the feeder's only coupling to the supervisor wiring.
type ContractSink interface {
	Send(pkg *broadcast.Package) error
}

// Task runs one provider's fetch-then-feed loop: refresh the oracle's
// supported-currency table, pull prices, drop anything the oracle
// does not currently quote, build the feed_prices message, hand it to
// the broadcaster, and ignore the feedback (the oracle contract
// itself rejects stale or malformed feeds; the feeder does not retry
// at this layer).
type Task struct {
	id            TaskID
	provider      Provider
	wasm          CurrenciesQuerier
	oracleAddr    string
	signerAddress string
	sink          ContractSink
	hardGasLimit  uint64
	fallbackGas   uint64
}

// NewTask constructs a PriceFetcherTask bound to one provider.
// signerAddress is the broadcaster's signer address, the message
// sender every built ExecuteMsg is attributed to. wasm is used to
// refresh the oracle's currently supported currency table on every
// run, so a ticker the oracle has since stopped quoting is dropped
// instead of broadcast.
func NewTask(protocolName string, provider Provider, wasm CurrenciesQuerier, oracleAddr, signerAddress string, sink ContractSink, hardGasLimit, fallbackGas uint64) *Task {
	return &Task{
		id:            TaskID{ProtocolName: protocolName, Provider: provider.Name()},
		provider:      provider,
		wasm:          wasm,
		oracleAddr:    oracleAddr,
		signerAddress: signerAddress,
		sink:          sink,
		hardGasLimit:  hardGasLimit,
		fallbackGas:   fallbackGas,
	}
}

func (t *Task) ID() task.Id { return t.id }

// Run implements task.Runnable: one fetch-and-submit per invocation.
// The supervisor's restart policy supplies the polling cadence by
// respawning this task on each clean exit, matching the teacher's
// preference for many small restartable units over one internal
// ticker loop duplicating the supervisor's own timing authority.
func (t *Task) Run(ctx context.Context, _ task.RunnableState) error {
	currencies, err := FetchCurrencyTable(ctx, t.wasm, t.oracleAddr)
	if err != nil {
		return fmt.Errorf("feeder: %s: fetching currencies: %w", t.provider.Name(), err)
	}
	logger.Debug("currencies refreshed", "oracle", t.oracleAddr, "tickers", currencies.Tickers())

	prices, err := t.provider.Prices(ctx)
	if err != nil {
		return fmt.Errorf("feeder: %s: %w", t.provider.Name(), err)
	}
	prices = filterQuoted(prices, currencies)

	body, err := buildFeedPricesMsg(t.oracleAddr, t.signerAddress, prices)
	if err != nil {
		return err
	}

	pkg, feedback := broadcast.NewPackage(body, t.id.String(), t.hardGasLimit, t.fallbackGas, broadcast.NoExpiration())
	if err := t.sink.Send(pkg); err != nil {
		return err
	}

	resp := <-feedback
	logger.Debug("price feed submitted", "task", t.id, "code", resp.Code)
	return nil
}

// filterQuoted drops any price whose ticker the oracle does not
// currently list in its currency table, logging each drop — a
// provider's ticker set and the oracle's configured set drift
// independently, and feeding an unquoted ticker is just a rejected tx.
func filterQuoted(prices []Price, currencies CurrencyTable) []Price {
	out := prices[:0:0]
	for _, p := range prices {
		if _, ok := currencies[p.Ticker]; !ok {
			logger.Debug("dropping unquoted ticker", "ticker", p.Ticker)
			continue
		}
		out = append(out, p)
	}
	return out
}

// feedPricesMsg is the oracle contract's feed_prices ExecuteMsg shape.
type feedPricesMsg struct {
	FeedPrices feedPricesBody `json:"feed_prices"`
}

type feedPricesBody struct {
	Prices []priceEntry `json:"prices"`
}

type priceEntry struct {
	Amount      string `json:"amount"`
	AmountQuote string `json:"amount_quote"`
	Ticker      string `json:"ticker"`
}

func buildFeedPricesMsg(contractAddr, senderAddress string, prices []Price) ([]*codectypes.Any, error) {
	entries := make([]priceEntry, 0, len(prices))
	for _, p := range prices {
		entries = append(entries, priceEntry{
			Amount:      p.Amount.Num().String(),
			AmountQuote: p.Amount.Denom().String(),
			Ticker:      p.Ticker,
		})
	}

	payload, err := json.Marshal(feedPricesMsg{FeedPrices: feedPricesBody{Prices: entries}})
	if err != nil {
		return nil, err
	}

	execMsg := &wasmtypes.MsgExecuteContract{
		Sender:   senderAddress,
		Contract: contractAddr,
		Msg:      wasmtypes.RawContractMessage(payload),
	}
	any, err := codectypes.NewAnyWithValue(execMsg)
	if err != nil {
		return nil, err
	}
	return []*codectypes.Any{any}, nil
}
