package feeder

import (
	"context"
	"testing"
)

func TestFetchCurrencyTable(t *testing.T) {
	wasm := stubCurrenciesQuerier{tickers: []string{"ATOM", "OSMO"}}
	table, err := FetchCurrencyTable(context.Background(), wasm, "nolus1oracle")
	if err != nil {
		t.Fatalf("FetchCurrencyTable: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 currencies, got %d", len(table))
	}
	c, ok := table["ATOM"]
	if !ok {
		t.Fatal("expected ATOM in table")
	}
	if c.Decimals != 6 || c.DexDenom != "ATOM" {
		t.Fatalf("unexpected currency record: %+v", c)
	}
}

func TestFilterQuotedDropsUnknownTickers(t *testing.T) {
	table := CurrencyTable{"ATOM": Currency{Ticker: "ATOM"}}
	prices := []Price{{Ticker: "ATOM"}, {Ticker: "UNKNOWN"}}

	out := filterQuoted(prices, table)
	if len(out) != 1 || out[0].Ticker != "ATOM" {
		t.Fatalf("expected only ATOM to survive, got %+v", out)
	}
}
