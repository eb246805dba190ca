package pool

import (
	"github.com/gagliardetto/solana-go"
)

// CreateSeedPoolParams creates the 3-asset foundational pool.
type CreateSeedPoolParams struct {
	Creator        solana.PublicKey
	Amplification  uint64
	TargetWeights  []uint64 // basis points, must sum to 10000
	Mints          []solana.PublicKey
	InitialAmounts []uint64
}

// CreateGrowthPoolParams creates a 2-asset pool pegged against an
// existing Seed pool. Weights are fixed at 50/50.
type CreateGrowthPoolParams struct {
	Creator       solana.PublicKey
	Amplification uint64
	SeedPool      solana.PublicKey
	Mints         []solana.PublicKey
	Amount0       uint64
	Amount1       uint64
}

// DepositParams adds liquidity to a pool. Concentration selects the
// width of the position's price band around parity; zero means the
// full tradeable band.
type DepositParams struct {
	Owner         solana.PublicKey
	Pool          solana.PublicKey
	Amounts       []uint64
	MinLPAmount   uint64
	Concentration uint64
}

// WithdrawParams burns LP for a proportional share of the reserves.
type WithdrawParams struct {
	Owner      solana.PublicKey
	Pool       solana.PublicKey
	LPAmount   uint64
	MinAmounts []uint64
}

// SwapParams trades one pool asset for another.
type SwapParams struct {
	Trader       solana.PublicKey
	Pool         solana.PublicKey
	MintIn       solana.PublicKey
	MintOut      solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

// SwapResult reports a committed swap.
type SwapResult struct {
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
	Fee       uint64 `json:"fee"` // parts per 1000
	FeePaid   uint64 `json:"fee_paid"`
}

// DepositResult reports a committed deposit.
type DepositResult struct {
	LPMinted          uint64 `json:"lp_minted"`
	MinPrice          uint64 `json:"min_price"`
	MaxPrice          uint64 `json:"max_price"`
	CapitalEfficiency uint64 `json:"capital_efficiency"`
}

// WithdrawResult reports a committed withdrawal.
type WithdrawResult struct {
	Amounts  []uint64 `json:"amounts"`
	LPBurned uint64   `json:"lp_burned"`
}

// QuoteResult prices a swap without executing it.
type QuoteResult struct {
	AmountIn       uint64   `json:"amount_in"`
	AmountOut      uint64   `json:"amount_out"`
	Fee            uint64   `json:"fee"` // parts per 1000
	FeePaid        uint64   `json:"fee_paid"`
	CurrentWeights []uint64 `json:"current_weights"`
}
