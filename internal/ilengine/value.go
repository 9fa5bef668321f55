/*

This file contains the HODL-vs-LP value comparison and the derived
financial metrics built on it.

*/

package ilengine

import (
	"errors"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/shieldvault/ilguard/internal/fixedpoint"
	"github.com/shieldvault/ilguard/internal/types"
)

var (
	ErrInvalidDeposit   = errors.New("initial deposit must be positive")
	ErrInvalidPoolState = errors.New("invalid pool state")
	ErrInvalidLPTokens  = errors.New("invalid LP token amount")
	ErrNotFinite        = errors.New("value is not finite")
)

// HodlVsLp returns the value of holding the original deposit versus the
// value of the caller's LP share of current reserves, both in quote units.
//
// The HODL side extrapolates each half of the deposit by its asset's
// independent price change; the two PriceScale factors cancel:
//
//	hodl = D/2 * curA/initA + D/2 * curB/initB
//
// The LP side prices the pro-rata share of current reserves at current
// oracle prices:
//
//	lp = lpTokens/totalLP * (reserveA*curA + reserveB*curB) / PriceScale
func HodlVsLp(initialDeposit sdkmath.Int, initialRatio, currentRatio types.AssetRatio, lpTokens sdkmath.Int, pool types.PoolState) (sdkmath.Int, sdkmath.Int, error) {
	if initialDeposit.IsNil() || !initialDeposit.IsPositive() {
		return sdkmath.Int{}, sdkmath.Int{}, ErrInvalidDeposit
	}
	if err := validateRatio(initialRatio); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if err := validateRatio(currentRatio); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if lpTokens.IsNil() || lpTokens.IsNegative() {
		return sdkmath.Int{}, sdkmath.Int{}, ErrInvalidLPTokens
	}
	if pool.ReserveA.IsNil() || pool.ReserveB.IsNil() || pool.TotalLPTokens.IsNil() {
		return sdkmath.Int{}, sdkmath.Int{}, errors.Join(ErrInvalidPoolState, errors.New("reserve or share total is nil"))
	}
	if pool.ReserveA.IsNegative() || pool.ReserveB.IsNegative() {
		return sdkmath.Int{}, sdkmath.Int{}, errors.Join(ErrInvalidPoolState, errors.New("reserves cannot be negative"))
	}
	if !pool.TotalLPTokens.IsPositive() {
		return sdkmath.Int{}, sdkmath.Int{}, errors.Join(ErrInvalidPoolState, errors.New("total LP tokens must be positive"))
	}
	if lpTokens.GT(pool.TotalLPTokens) {
		return sdkmath.Int{}, sdkmath.Int{}, errors.Join(ErrInvalidLPTokens, errors.New("LP tokens exceed pool total"))
	}

	hodlA, err := extrapolateHalf(initialDeposit, currentRatio.AssetAAmount, initialRatio.AssetAAmount)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	hodlB, err := extrapolateHalf(initialDeposit, currentRatio.AssetBAmount, initialRatio.AssetBAmount)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	hodlValue := hodlA.Add(hodlB)

	valueA, err := fixedpoint.SafeMul(pool.ReserveA, currentRatio.AssetAAmount)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	valueB, err := fixedpoint.SafeMul(pool.ReserveB, currentRatio.AssetBAmount)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	shareNum, err := fixedpoint.SafeMul(valueA.Add(valueB), lpTokens)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	shareDen, err := fixedpoint.SafeMul(pool.TotalLPTokens, sdkmath.NewInt(PriceScale))
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	lpValue, err := fixedpoint.DivRoundHalfUp(shareNum, shareDen)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}

	ilLogger.Debug().
		Uint64("poolID", uint64(pool.PoolID)).
		Str("hodlValue", hodlValue.String()).
		Str("lpValue", lpValue.String()).
		Msg("HODL vs LP values calculated")

	return hodlValue, lpValue, nil
}

// extrapolateHalf returns deposit/2 scaled by currentPrice/initialPrice,
// rounded half up.
func extrapolateHalf(deposit, currentPrice, initialPrice sdkmath.Int) (sdkmath.Int, error) {
	num, err := fixedpoint.SafeMul(deposit, currentPrice)
	if err != nil {
		return sdkmath.Int{}, err
	}
	den, err := fixedpoint.SafeMul(initialPrice, sdkmath.NewInt(2))
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixedpoint.DivRoundHalfUp(num, den)
}

// EstimatedLoss is the non-negative shortfall of the LP position versus
// holding: max(0, hodlValue - lpValue).
func EstimatedLoss(record types.ILRecord) sdkmath.Int {
	if record.HodlValue.IsNil() || record.LPValue.IsNil() {
		return sdkmath.ZeroInt()
	}
	loss := record.HodlValue.Sub(record.LPValue)
	if loss.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return loss
}

// ProtectionAPR annualizes the net benefit of the protection system as a
// simple percentage:
//
//	((lossesPrevented - feesPaid) / principal / periodDays) * 365 * 100
//
// This is a reporting metric only; protection decisions never consume it.
func ProtectionAPR(feesPaid, lossesPrevented, periodDays, principal float64) (float64, error) {
	for _, v := range []float64{feesPaid, lossesPrevented, periodDays, principal} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, ErrNotFinite
		}
	}
	if principal <= 0 {
		return 0, errors.New("principal must be positive")
	}
	if periodDays <= 0 {
		return 0, errors.New("period days must be positive")
	}

	apr := (lossesPrevented - feesPaid) / principal / periodDays * 365 * 100
	if math.IsNaN(apr) || math.IsInf(apr, 0) {
		return 0, ErrNotFinite
	}
	return apr, nil
}
