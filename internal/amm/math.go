package amm

import (
	"math/big"
)

// Fee model constants. Fees are expressed as parts per 1000.
const (
	BaseFee        uint64 = 1 // 0.1%
	MaxFee         uint64 = 5 // 0.5%
	FeeMultiplier  uint64 = 1
	FeeDenominator uint64 = 1000
)

// Price constants for concentrated liquidity. Prices are expressed as
// x/1000, so the tradeable band for a stable pair is [0.995, 1.005].
const (
	MinPrice         uint64 = 995
	MaxPrice         uint64 = 1005
	PriceDenominator uint64 = 1000
	PriceIncrement   uint64 = 5 // 0.005 per unit of concentration
)

// WeightDenominator is the basis-point scale for pool weights.
const WeightDenominator uint64 = 10000

// maxInvariantIterations bounds the Newton iteration in Invariant.
const maxInvariantIterations = 255

// Weights returns the current weight of each reserve in basis points.
// Integer division truncates, so the sum may fall short of 10000 by up
// to len(reserves)-1. A fully drained pool yields all-zero weights.
func Weights(reserves []uint64) []uint64 {
	var total uint64
	overflow := false
	for _, r := range reserves {
		s := total + r
		if s < total {
			overflow = true
			break
		}
		total = s
	}

	weights := make([]uint64, len(reserves))
	if total == 0 && !overflow {
		return weights
	}

	// Widen through big.Int: reserve * 10000 can exceed uint64 for
	// large reserves even though the final weight never does.
	bigTotal := new(big.Int)
	for _, r := range reserves {
		bigTotal.Add(bigTotal, new(big.Int).SetUint64(r))
	}
	denom := new(big.Int).SetUint64(WeightDenominator)
	for i, r := range reserves {
		w := new(big.Int).SetUint64(r)
		w.Mul(w, denom)
		w.Div(w, bigTotal)
		weights[i] = w.Uint64()
	}
	return weights
}

// DynamicFee computes the swap fee (parts per 1000) from the total
// absolute deviation between current and target weights, both in basis
// points. The fee grows with deviation and is clamped to
// [BaseFee, MaxFee].
func DynamicFee(currentWeights, targetWeights []uint64) uint64 {
	var totalDeviation uint64
	n := len(currentWeights)
	if len(targetWeights) < n {
		n = len(targetWeights)
	}
	for i := 0; i < n; i++ {
		if currentWeights[i] > targetWeights[i] {
			totalDeviation += currentWeights[i] - targetWeights[i]
		} else {
			totalDeviation += targetWeights[i] - currentWeights[i]
		}
	}

	// Basis points -> percentage points.
	deviationPct := totalDeviation / 100

	fee := BaseFee + (deviationPct*FeeMultiplier)/10
	if fee > MaxFee {
		return MaxFee
	}
	return fee
}

// Invariant computes the StableSwap invariant D for the given reserves
// using Newton iteration on integers. Every reserve must be positive;
// a pool holding a zero reserve cannot be priced.
//
// Iteration: D_P = D * prod(D / (r_i * n)), then
//
//	D' = (Ann*sum + D_P*n) * D / ((Ann-1)*D + (n+1)*D_P)
//
// converging when |D' - D| <= 1. For all-equal reserves r the result
// is exactly n*r for any amplification.
func Invariant(reserves []uint64, amplification uint64) (uint64, error) {
	if len(reserves) == 0 {
		return 0, ErrMathOverflow
	}
	if amplification == 0 {
		return 0, ErrInvalidAmplification
	}

	n := uint64(len(reserves))
	sum := new(big.Int)
	for _, r := range reserves {
		if r == 0 {
			return 0, ErrMathOverflow
		}
		sum.Add(sum, new(big.Int).SetUint64(r))
	}

	bigN := new(big.Int).SetUint64(n)
	// Ann = amplification * n^n
	ann := new(big.Int).SetUint64(amplification)
	ann.Mul(ann, new(big.Int).Exp(bigN, bigN, nil))

	annMinusOne := new(big.Int).Sub(ann, big.NewInt(1))
	nPlusOne := new(big.Int).SetUint64(n + 1)
	one := big.NewInt(1)

	d := new(big.Int).Set(sum)
	for i := 0; i < maxInvariantIterations; i++ {
		dPrev := new(big.Int).Set(d)

		// D_P = D * prod(D / (r_i * n))
		dp := new(big.Int).Set(d)
		for _, r := range reserves {
			div := new(big.Int).SetUint64(r)
			div.Mul(div, bigN)
			dp.Mul(dp, d)
			dp.Div(dp, div)
		}

		// D = (Ann*sum + D_P*n) * D / ((Ann-1)*D + (n+1)*D_P)
		num := new(big.Int).Mul(ann, sum)
		num.Add(num, new(big.Int).Mul(dp, bigN))
		num.Mul(num, d)

		den := new(big.Int).Mul(annMinusOne, d)
		den.Add(den, new(big.Int).Mul(nPlusOne, dp))
		if den.Sign() == 0 {
			return 0, ErrMathOverflow
		}
		d.Div(num, den)

		diff := new(big.Int).Sub(d, dPrev)
		if diff.CmpAbs(one) <= 0 {
			break
		}
	}

	if !d.IsUint64() {
		return 0, ErrMathOverflow
	}
	return d.Uint64(), nil
}

// SwapOutput computes the output amount for a two-asset swap that
// preserves the invariant, returning the output and the fee charged on
// the input side. The fee is in parts per 1000.
//
// With D over [reserveIn, reserveOut] and newX the post-fee input
// reserve, the n=2 invariant reduces to the quadratic
//
//	y^2 + (newX + D/Ann - D)*y - D^3/(4*Ann*newX) = 0
//
// solved for its positive root with an integer square root, so results
// are deterministic across platforms.
func SwapOutput(amountIn, reserveIn, reserveOut, fee, amplification uint64) (amountOut, feeAmount uint64, err error) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, ErrInvalidSwap
	}

	d64, err := Invariant([]uint64{reserveIn, reserveOut}, amplification)
	if err != nil {
		return 0, 0, err
	}
	d := new(big.Int).SetUint64(d64)

	// Fee on the input side, truncating.
	feeBig := new(big.Int).SetUint64(amountIn)
	feeBig.Mul(feeBig, new(big.Int).SetUint64(fee))
	feeBig.Div(feeBig, new(big.Int).SetUint64(FeeDenominator))
	if !feeBig.IsUint64() || feeBig.Uint64() > amountIn {
		return 0, 0, ErrMathOverflow
	}
	feeAmount = feeBig.Uint64()

	afterFee := amountIn - feeAmount
	if reserveIn+afterFee < reserveIn {
		return 0, 0, ErrMathOverflow
	}
	newX := new(big.Int).SetUint64(reserveIn + afterFee)

	// Ann = amplification * n^n with n = 2.
	ann := new(big.Int).SetUint64(amplification)
	ann.Mul(ann, big.NewInt(4))

	// c = D^3 / (4 * Ann * newX)
	c := new(big.Int).Mul(d, d)
	c.Mul(c, d)
	cDen := new(big.Int).Mul(big.NewInt(4), ann)
	cDen.Mul(cDen, newX)
	c.Div(c, cDen)

	// b = newX + D/Ann, y = (D - b + sqrt((D-b)^2 + 4c)) / 2
	b := new(big.Int).Div(d, ann)
	b.Add(b, newX)

	diff := new(big.Int).Sub(d, b)
	disc := new(big.Int).Mul(diff, diff)
	disc.Add(disc, new(big.Int).Mul(big.NewInt(4), c))
	root := new(big.Int).Sqrt(disc)

	newY := new(big.Int).Add(diff, root)
	newY.Div(newY, big.NewInt(2))

	// The new output reserve must stay inside (0, reserveOut): a
	// non-positive root would drain the pool, a root at or above
	// reserveOut would mean non-positive output.
	if newY.Sign() <= 0 {
		return 0, 0, ErrInvalidSwap
	}
	out := new(big.Int).Sub(new(big.Int).SetUint64(reserveOut), newY)
	if out.Sign() < 0 {
		return 0, 0, ErrInvalidSwap
	}
	if !out.IsUint64() {
		return 0, 0, ErrMathOverflow
	}

	// Floor rounding of c, b, the square root and y all favor the
	// trader; keep one unit in the pool so repeated fee-free swaps
	// cannot mint value out of rounding.
	amountOut = out.Uint64()
	if amountOut > 0 {
		amountOut--
	}
	return amountOut, feeAmount, nil
}

// Bounds derives a concentrated-liquidity price range around
// centerPrice. Each unit of concentration narrows or widens the band
// by 0.005 on each side; the lower bound saturates at zero.
func Bounds(centerPrice, concentration uint64) (minPrice, maxPrice uint64, err error) {
	halfRange := concentration * PriceIncrement
	if concentration != 0 && halfRange/concentration != PriceIncrement {
		return 0, 0, ErrMathOverflow
	}
	maxPrice = centerPrice + halfRange
	if maxPrice < centerPrice {
		return 0, 0, ErrMathOverflow
	}
	if centerPrice > halfRange {
		minPrice = centerPrice - halfRange
	}
	return minPrice, maxPrice, nil
}

// CapitalEfficiency reports how concentrated a position is relative to
// the theoretical maximum band, scaled by 100 (a full-band position
// scores 100). Zero-width ranges are rejected rather than divided by.
func CapitalEfficiency(minPrice, maxPrice uint64) (uint64, error) {
	if maxPrice <= minPrice {
		return 0, ErrInvalidPositionBounds
	}
	theoreticalMaxRange := MaxPrice - MinPrice
	return theoreticalMaxRange * 100 / (maxPrice - minPrice), nil
}
