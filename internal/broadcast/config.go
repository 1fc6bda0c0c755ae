package broadcast

import (
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Config holds the gas/fee computation parameters read from the
// node table of the TOML configuration (spec.md §6): gas adjustment,
// gas price, and fee adjustment, each a rational numerator/denominator
// pair, plus the fee denom.
type Config struct {
	GasAdjustmentNum   uint64
	GasAdjustmentDenom uint64
	GasPriceNum        uint64
	GasPriceDenom      uint64
	FeeAdjustmentNum   uint64
	FeeAdjustmentDenom uint64
	FeeDenom           string
}

// AdjustGas scales gasUsed by GasAdjustmentNum/Denom and clamps the
// result at hardGasLimit (spec.md §4.7 step 4).
func (c Config) AdjustGas(gasUsed, hardGasLimit uint64) uint64 {
	adjusted := new(big.Int).Mul(big.NewInt(int64(gasUsed)), big.NewInt(int64(c.GasAdjustmentNum)))
	adjusted.Div(adjusted, big.NewInt(int64(c.GasAdjustmentDenom)))

	limit := big.NewInt(int64(hardGasLimit))
	if adjusted.Cmp(limit) > 0 {
		return hardGasLimit
	}
	return adjusted.Uint64()
}

// Fee computes gas * (GasPriceNum/GasPriceDenom) * (FeeAdjustmentNum/
// FeeAdjustmentDenom) of the configured denom, saturating at
// math.MaxInt64 rather than overflowing (spec.md §4.7 step 4).
func (c Config) Fee(gas uint64) *big.Int {
	amount := new(big.Int).SetUint64(gas)
	amount.Mul(amount, big.NewInt(int64(c.GasPriceNum)))
	amount.Mul(amount, big.NewInt(int64(c.FeeAdjustmentNum)))

	denom := new(big.Int).Mul(big.NewInt(int64(c.GasPriceDenom)), big.NewInt(int64(c.FeeAdjustmentDenom)))
	if denom.Sign() == 0 {
		denom = big.NewInt(1)
	}
	amount.Div(amount, denom)

	maxInt64 := big.NewInt(math.MaxInt64)
	if amount.Cmp(maxInt64) > 0 {
		return maxInt64
	}
	return amount
}

// sdkIntFromBig converts a non-negative *big.Int into an sdkmath.Int
// for use as a Coin amount.
func sdkIntFromBig(v *big.Int) sdkmath.Int {
	return sdkmath.NewIntFromBigInt(v)
}
