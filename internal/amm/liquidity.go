package amm

import (
	"math/big"
)

// DepositLP computes the LP tokens to mint for a deposit that moved
// the pool reserves from oldReserves to newReserves.
//
// The first deposit into an empty pool mints the sum of the deposited
// amounts. Afterwards minting is proportional to invariant growth:
// lpSupply * (D_new - D_old) / D_old, truncating.
func DepositLP(oldReserves, newReserves []uint64, lpSupply, amplification uint64) (uint64, error) {
	if len(oldReserves) != len(newReserves) {
		return 0, ErrInvalidInputLength
	}

	oldSum := new(big.Int)
	newSum := new(big.Int)
	for i := range oldReserves {
		oldSum.Add(oldSum, new(big.Int).SetUint64(oldReserves[i]))
		newSum.Add(newSum, new(big.Int).SetUint64(newReserves[i]))
	}

	if oldSum.Sign() == 0 {
		minted := new(big.Int).Sub(newSum, oldSum)
		if !minted.IsUint64() {
			return 0, ErrMathOverflow
		}
		return minted.Uint64(), nil
	}

	oldD, err := Invariant(oldReserves, amplification)
	if err != nil {
		return 0, err
	}
	newD, err := Invariant(newReserves, amplification)
	if err != nil {
		return 0, err
	}
	if newD < oldD {
		return 0, ErrMathOverflow
	}

	minted := new(big.Int).SetUint64(lpSupply)
	minted.Mul(minted, new(big.Int).SetUint64(newD-oldD))
	minted.Div(minted, new(big.Int).SetUint64(oldD))
	if !minted.IsUint64() {
		return 0, ErrMathOverflow
	}
	return minted.Uint64(), nil
}

// WithdrawAmounts computes the per-asset amounts paid out when burning
// lpAmount of an lpSupply total. The share is truncated to basis
// points before being applied to each reserve, matching the on-chain
// accounting this engine settles against.
func WithdrawAmounts(reserves []uint64, lpAmount, lpSupply uint64) ([]uint64, error) {
	if lpSupply == 0 {
		return nil, ErrMathOverflow
	}

	ratio := new(big.Int).SetUint64(lpAmount)
	ratio.Mul(ratio, new(big.Int).SetUint64(WeightDenominator))
	ratio.Div(ratio, new(big.Int).SetUint64(lpSupply))

	denom := new(big.Int).SetUint64(WeightDenominator)
	amounts := make([]uint64, len(reserves))
	for i, r := range reserves {
		a := new(big.Int).SetUint64(r)
		a.Mul(a, ratio)
		a.Div(a, denom)
		if !a.IsUint64() {
			return nil, ErrMathOverflow
		}
		amounts[i] = a.Uint64()
	}
	return amounts, nil
}
