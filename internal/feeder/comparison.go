package feeder

import (
	"context"
	"fmt"
	"math/big"
)

// ComparisonProvider wraps two underlying Providers and cross checks
// their reported spot price per ticker, dropping any ticker whose two
// quotes diverge by more than toleranceBps (basis points). Grounded on
// original_source's market-data-feeder comparison_providers config,
// which pairs a primary DEX source with a secondary one purely to
// sanity-check prices before they reach the oracle contract.
type ComparisonProvider struct {
	name        string
	primary     Provider
	secondary   Provider
	toleranceBp int64
}

// NewComparisonProvider builds a ComparisonProvider named name,
// comparing primary against secondary with toleranceBps basis points
// of allowed divergence.
func NewComparisonProvider(name string, primary, secondary Provider, toleranceBps int64) *ComparisonProvider {
	return &ComparisonProvider{name: name, primary: primary, secondary: secondary, toleranceBp: toleranceBps}
}

func (c *ComparisonProvider) Name() string { return c.name }

// Prices fetches both underlying providers' quotes and keeps only the
// primary's price for tickers where the two agree within tolerance.
func (c *ComparisonProvider) Prices(ctx context.Context) ([]Price, error) {
	primaryPrices, err := c.primary.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("comparison provider %s: primary %s: %w", c.name, c.primary.Name(), err)
	}
	secondaryPrices, err := c.secondary.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("comparison provider %s: secondary %s: %w", c.name, c.secondary.Name(), err)
	}

	secondaryByTicker := make(map[string]*big.Rat, len(secondaryPrices))
	for _, p := range secondaryPrices {
		secondaryByTicker[p.Ticker] = p.Amount
	}

	out := make([]Price, 0, len(primaryPrices))
	for _, p := range primaryPrices {
		other, ok := secondaryByTicker[p.Ticker]
		if !ok {
			logger.Warn("comparison provider missing secondary quote, dropping ticker", "provider", c.name, "ticker", p.Ticker)
			continue
		}
		if !withinTolerance(p.Amount, other, c.toleranceBp) {
			logger.Warn("comparison provider quotes diverge beyond tolerance, dropping ticker",
				"provider", c.name, "ticker", p.Ticker, "primary", p.Amount.FloatString(8), "secondary", other.FloatString(8))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// withinTolerance reports whether a and b differ by no more than
// toleranceBps/10000 of a's value.
func withinTolerance(a, b *big.Rat, toleranceBps int64) bool {
	if a.Sign() == 0 {
		return b.Sign() == 0
	}
	diff := new(big.Rat).Sub(a, b)
	diff.Abs(diff)

	bound := new(big.Rat).Mul(a, big.NewRat(toleranceBps, 10_000))
	bound.Abs(bound)

	return diff.Cmp(bound) <= 0
}
