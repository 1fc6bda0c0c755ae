package feeder

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/nolus-protocol/chain-ops/internal/broadcast"
	"github.com/nolus-protocol/chain-ops/internal/node"
)

type stubProvider struct {
	name   string
	prices []Price
	err    error
}

func (p stubProvider) Name() string { return p.name }
func (p stubProvider) Prices(ctx context.Context) ([]Price, error) { return p.prices, p.err }

func TestComparisonProviderDropsDivergentTicker(t *testing.T) {
	primary := stubProvider{name: "astroport", prices: []Price{
		{Ticker: "ATOM", Amount: big.NewRat(10, 1)},
		{Ticker: "OSMO", Amount: big.NewRat(1, 1)},
	}}
	secondary := stubProvider{name: "osmosis", prices: []Price{
		{Ticker: "ATOM", Amount: big.NewRat(1001, 100)}, // 0.1% off, within the 0.5% tolerance
		{Ticker: "OSMO", Amount: big.NewRat(2, 1)},       // 100% off, well beyond tolerance
	}}
	cp := NewComparisonProvider("cmp", primary, secondary, 50) // 0.5%

	prices, err := cp.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(prices) != 1 || prices[0].Ticker != "ATOM" {
		t.Fatalf("expected only ATOM to survive, got %+v", prices)
	}
}

func TestComparisonProviderDropsMissingSecondaryTicker(t *testing.T) {
	primary := stubProvider{name: "a", prices: []Price{{Ticker: "ATOM", Amount: big.NewRat(1, 1)}}}
	secondary := stubProvider{name: "b", prices: nil}
	cp := NewComparisonProvider("cmp", primary, secondary, 50)

	prices, err := cp.Prices(context.Background())
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(prices) != 0 {
		t.Fatalf("expected no prices when the secondary has no quote, got %+v", prices)
	}
}

func TestComparisonProviderPropagatesProviderError(t *testing.T) {
	primary := stubProvider{name: "a", err: errors.New("rpc down")}
	secondary := stubProvider{name: "b"}
	cp := NewComparisonProvider("cmp", primary, secondary, 50)

	if _, err := cp.Prices(context.Background()); err == nil {
		t.Fatal("expected the primary's error to propagate")
	}
}

type fakeSink struct {
	sent []*broadcast.Package
}

func (f *fakeSink) Send(pkg *broadcast.Package) error {
	f.sent = append(f.sent, pkg)
	return nil
}

type stubCurrenciesQuerier struct {
	tickers []string
}

func (q stubCurrenciesQuerier) SmartQuery(_ context.Context, _ string, _, out interface{}) error {
	resp := out.(*[]currencyResponse)
	for _, ticker := range q.tickers {
		*resp = append(*resp, currencyResponse{Ticker: ticker, DexSymbol: ticker, DecimalDigits: 6})
	}
	return nil
}

func TestTaskRunBuildsPackageAndWaitsForFeedback(t *testing.T) {
	provider := stubProvider{name: "astroport", prices: []Price{{Ticker: "ATOM", Amount: big.NewRat(10, 1)}}}
	sink := &fakeSink{}
	wasm := stubCurrenciesQuerier{tickers: []string{"ATOM"}}
	tsk := NewTask("osmosis-osmosis-usdc_noble", provider, wasm, "nolus1oracle", "nolus1signer", sink, 500_000, 200_000)

	errCh := make(chan error, 1)
	go func() { errCh <- tsk.Run(context.Background(), 0) }()

	// give the goroutine a moment to enqueue the package and block on feedback
	for len(sink.sent) == 0 {
	}
	sink.sent[0].Deliver(node.Response{Code: node.CodeSuccess})

	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestTaskIDIncludesProtocolAndProvider(t *testing.T) {
	provider := stubProvider{name: "osmosis"}
	wasm := stubCurrenciesQuerier{}
	tsk := NewTask("osmosis-osmosis-usdc_noble", provider, wasm, "addr", "signer", &fakeSink{}, 1, 1)
	if got := tsk.ID().String(); got != "price-fetcher/osmosis-osmosis-usdc_noble/osmosis" {
		t.Fatalf("unexpected id: %s", got)
	}
	if name, ok := tsk.ID().Protocol(); !ok || name != "osmosis-osmosis-usdc_noble" {
		t.Fatalf("unexpected protocol: %s, %v", name, ok)
	}
}
