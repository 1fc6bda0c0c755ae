package feeder

import "context"

// Currency describes one ticker the oracle contract currently quotes:
// its symbol, the decimal exponent the DEX-side price carries, and
// the DEX-side denom a provider should look the spot price up under.
// The wire-level detail of any one DEX's lookup is out of scope
// (spec.md §1 Non-goals); only the table shape — what the core needs
// to know a ticker exists and how many decimals it carries — is in
// scope (supplemented from
// original_source/market-data-feeder/src/oracle.rs's
// query_currencies, which the distilled spec.md dropped).
type Currency struct {
	Ticker   string
	Decimals uint32
	DexDenom string
}

// CurrencyTable is the oracle contract's currently supported ticker
// set, keyed by ticker.
type CurrencyTable map[string]Currency

// Tickers returns every configured ticker symbol.
func (t CurrencyTable) Tickers() []string {
	out := make([]string, 0, len(t))
	for ticker := range t {
		out = append(out, ticker)
	}
	return out
}

// CurrenciesQuerier is the subset of node.QueryWasm needed to read an
// oracle contract's supported-currency table.
type CurrenciesQuerier interface {
	SmartQuery(ctx context.Context, contractAddr string, query, out interface{}) error
}

// currenciesQuery is the oracle contract's JSON query for its
// currently supported currencies: {"currencies": {}}.
type currenciesQuery struct {
	Currencies struct{} `json:"currencies"`
}

// currencyResponse is one entry of the oracle's currencies query
// response (original_source/market-data-feeder/src/oracle.rs's
// Currency: ticker, dex_symbol, decimal_digits).
type currencyResponse struct {
	Ticker        string `json:"ticker"`
	DexSymbol     string `json:"dex_symbol"`
	DecimalDigits uint32 `json:"decimal_digits"`
}

// FetchCurrencyTable queries oracleAddr's currencies entry point and
// returns the result as a CurrencyTable.
func FetchCurrencyTable(ctx context.Context, wasm CurrenciesQuerier, oracleAddr string) (CurrencyTable, error) {
	var resp []currencyResponse
	if err := wasm.SmartQuery(ctx, oracleAddr, currenciesQuery{}, &resp); err != nil {
		return nil, err
	}

	table := make(CurrencyTable, len(resp))
	for _, c := range resp {
		table[c.Ticker] = Currency{Ticker: c.Ticker, Decimals: c.DecimalDigits, DexDenom: c.DexSymbol}
	}
	return table, nil
}
