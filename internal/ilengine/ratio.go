/*

This file contains the scaled price-ratio and impermanent-loss
calculations. All arithmetic is integer fixed-point: ratios carry
RatioScale, results are signed basis points.

*/

package ilengine

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/shieldvault/ilguard/internal/fixedpoint"
	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/types"
)

var ilLogger = logger.GetForComponent("il_engine")

var (
	ErrInvalidRatio   = errors.New("invalid asset ratio")
	ErrDivisionByZero = errors.New("asset ratio denominator is zero")
)

const (
	// RatioScale is the fixed-point scale carried by price ratios: a ratio
	// of RatioScale means the pair price is unchanged.
	RatioScale = int64(10_000)

	// PriceScale is the fixed-point scale carried by the oracle prices in
	// an AssetRatio: an amount of PriceScale means a unit price of 1.0.
	PriceScale = int64(1_000_000)

	// bpsScale converts a unit fraction to basis points.
	bpsScale = int64(10_000)
)

// validateRatio rejects nil, zero, and negative price components before any
// arithmetic touches them.
func validateRatio(r types.AssetRatio) error {
	if r.AssetAAmount.IsNil() || r.AssetBAmount.IsNil() {
		return errors.Join(ErrInvalidRatio, errors.New("price component is nil"))
	}
	if r.AssetBAmount.IsZero() {
		return ErrDivisionByZero
	}
	if !r.AssetAAmount.IsPositive() || !r.AssetBAmount.IsPositive() {
		return errors.Join(ErrInvalidRatio, errors.New("price components must be strictly positive"))
	}
	return nil
}

// PriceRatio returns current.price / initial.price scaled by RatioScale,
// where price = assetA / assetB. The two per-asset denominators cancel, so
// the computation stays exact:
//
//	R = RatioScale * curA * initB / (curB * initA)
func PriceRatio(initial, current types.AssetRatio) (sdkmath.Int, error) {
	if err := validateRatio(initial); err != nil {
		return sdkmath.Int{}, err
	}
	if err := validateRatio(current); err != nil {
		return sdkmath.Int{}, err
	}

	num, err := fixedpoint.SafeMul(current.AssetAAmount, initial.AssetBAmount)
	if err != nil {
		return sdkmath.Int{}, err
	}
	num, err = fixedpoint.SafeMul(num, sdkmath.NewInt(RatioScale))
	if err != nil {
		return sdkmath.Int{}, err
	}
	den, err := fixedpoint.SafeMul(current.AssetBAmount, initial.AssetAAmount)
	if err != nil {
		return sdkmath.Int{}, err
	}

	ratio, err := fixedpoint.DivRoundHalfUp(num, den)
	if err != nil {
		return sdkmath.Int{}, err
	}

	ilLogger.Debug().
		Str("initialA", initial.AssetAAmount.String()).
		Str("initialB", initial.AssetBAmount.String()).
		Str("currentA", current.AssetAAmount.String()).
		Str("currentB", current.AssetBAmount.String()).
		Str("scaledRatio", ratio.String()).
		Msg("Price ratio calculated")

	return ratio, nil
}

// ImpermanentLossBps computes the impermanent loss of an LP position versus
// holding, in signed basis points. Negative denotes loss. The closed form
//
//	IL = 2*sqrt(r)/(1+r) - 1
//
// is evaluated entirely in scaled integers: sqrt(R*RatioScale) gives
// RatioScale*sqrt(r) exactly floored, and the final division rounds half
// up so an unchanged price yields exactly zero.
func ImpermanentLossBps(initial, current types.AssetRatio) (int64, error) {
	ratio, err := PriceRatio(initial, current)
	if err != nil {
		return 0, err
	}

	scale := sdkmath.NewInt(RatioScale)

	// sqrtScaled = RatioScale * sqrt(r)
	radicand, err := fixedpoint.SafeMul(ratio, scale)
	if err != nil {
		return 0, err
	}
	sqrtScaled, err := fixedpoint.IntegerSqrt(radicand)
	if err != nil {
		return 0, err
	}

	// lpFactor = bpsScale * 2*sqrt(r)/(1+r)
	num, err := fixedpoint.SafeMul(sqrtScaled.MulRaw(2), sdkmath.NewInt(bpsScale))
	if err != nil {
		return 0, err
	}
	den := scale.Add(ratio)
	lpFactor, err := fixedpoint.DivRoundHalfUp(num, den)
	if err != nil {
		return 0, err
	}

	il := lpFactor.SubRaw(bpsScale)
	if !il.IsInt64() {
		return 0, fixedpoint.ErrOverflow
	}

	ilLogger.Debug().
		Str("scaledRatio", ratio.String()).
		Str("sqrtScaled", sqrtScaled.String()).
		Int64("ilBps", il.Int64()).
		Msg("Impermanent loss calculated")

	return il.Int64(), nil
}
