package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// PoolKind tags the two supported pool variants. The kind is set at
// creation and never changes for the life of the pool.
type PoolKind string

const (
	// PoolKindSeed is the 3-asset foundational pool with arbitrary
	// target weights.
	PoolKindSeed PoolKind = "seed"
	// PoolKindGrowth is a 2-asset pool pegged against a Seed pool,
	// always weighted 50/50.
	PoolKindGrowth PoolKind = "growth"
)

// Arity returns the number of assets a pool of this kind holds.
func (k PoolKind) Arity() int {
	if k == PoolKindGrowth {
		return 2
	}
	return 3
}

// Pool is the persisted state of one AMM pool. Reserve index i always
// corresponds to TokenMints[i]; the custody layer owns the actual
// token balances, this struct tracks the engine's view of them.
type Pool struct {
	Address solana.PublicKey `json:"address"`
	Kind    PoolKind         `json:"kind"`

	TokenMints    []solana.PublicKey `json:"token_mints"`
	TokenVaults   []solana.PublicKey `json:"token_vaults"`
	Reserves      []uint64           `json:"reserves"`
	TargetWeights []uint64           `json:"target_weights"` // basis points, sum 10000
	Amplification uint64             `json:"amplification"`

	LPMint    solana.PublicKey `json:"lp_mint"`
	TotalFees uint64           `json:"total_fees"`

	// SeedPool references the Seed pool a Growth pool is pegged
	// against. Set once at creation, nil for Seed pools.
	SeedPool *solana.PublicKey `json:"seed_pool,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	LastUpdate time.Time `json:"last_update"`
}

// Arity returns the pool's asset count.
func (p *Pool) Arity() int {
	return p.Kind.Arity()
}

// MintIndex resolves a token mint to its reserve index, or -1 when the
// mint is not part of the pool.
func (p *Pool) MintIndex(mint solana.PublicKey) int {
	for i, m := range p.TokenMints {
		if m.Equals(mint) {
			return i
		}
	}
	return -1
}

// Position is a user's concentrated-liquidity stake in one pool,
// keyed by (owner, pool). Positions are deactivated at zero balance,
// never deleted.
type Position struct {
	Address solana.PublicKey `json:"address"`
	Owner   solana.PublicKey `json:"owner"`
	Pool    solana.PublicKey `json:"pool"`

	LPAmount uint64 `json:"lp_amount"`
	MinPrice uint64 `json:"min_price"`
	MaxPrice uint64 `json:"max_price"`
	IsActive bool   `json:"is_active"`

	CreatedAt  time.Time `json:"created_at"`
	LastUpdate time.Time `json:"last_update"`
}
