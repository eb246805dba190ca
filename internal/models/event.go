package models

import "time"

// Event kinds recorded in the pool history.
const (
	EventPoolCreated = "pool_created"
	EventDeposit     = "deposit"
	EventWithdraw    = "withdraw"
	EventSwap        = "swap"
)

// PoolEvent is one committed pool operation, recorded in the history
// store and published to live subscribers.
type PoolEvent struct {
	Kind      string    `json:"kind"`
	Pool      string    `json:"pool"`
	PoolKind  string    `json:"pool_kind"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`

	// Swap fields
	TokenIn   string `json:"token_in,omitempty"`
	TokenOut  string `json:"token_out,omitempty"`
	AmountIn  uint64 `json:"amount_in,omitempty"`
	AmountOut uint64 `json:"amount_out,omitempty"`
	Fee       uint64 `json:"fee,omitempty"` // parts per 1000
	FeePaid   uint64 `json:"fee_paid,omitempty"`

	// Liquidity fields
	Amounts  []uint64 `json:"amounts,omitempty"`
	LPAmount uint64   `json:"lp_amount,omitempty"`

	// Pool snapshot after the operation
	Reserves []uint64 `json:"reserves"`
}
