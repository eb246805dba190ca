package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
)

var (
	ErrPoolNotFound     = errors.New("pool not found")
	ErrPositionNotFound = errors.New("position not found")
)

// PoolRepository persists pool state keyed by the pool's derived
// address. Lookups are deterministic per (pool kind, asset set).
type PoolRepository interface {
	// GetPool loads a pool, returning ErrPoolNotFound when absent
	GetPool(ctx context.Context, address solana.PublicKey) (*models.Pool, error)

	// SavePool stores the full pool state
	SavePool(ctx context.Context, pool *models.Pool) error

	// ListPools returns every known pool
	ListPools(ctx context.Context) ([]*models.Pool, error)
}

// PositionRepository persists user positions keyed by (owner, pool).
type PositionRepository interface {
	// GetPosition loads a position, returning ErrPositionNotFound when absent
	GetPosition(ctx context.Context, owner, pool solana.PublicKey) (*models.Position, error)

	// SavePosition stores the full position state
	SavePosition(ctx context.Context, position *models.Position) error
}

// Ledger is the external custody collaborator that actually moves
// token balances. Implementations are assumed to provide exactly-once,
// authority-checked execution; the engine only sequences calls and
// never retries.
type Ledger interface {
	// Transfer moves amount of mint from one account to another
	Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error

	// MintLP issues LP tokens to an account
	MintLP(ctx context.Context, mint, to solana.PublicKey, amount uint64) error

	// BurnLP destroys LP tokens held by an account
	BurnLP(ctx context.Context, mint, from solana.PublicKey, amount uint64) error

	// LPSupply reports the current total supply of an LP mint
	LPSupply(ctx context.Context, mint solana.PublicKey) (uint64, error)
}

// Clock supplies operation timestamps.
type Clock interface {
	Now() time.Time
}

// EventStore persists committed pool events for analytics.
type EventStore interface {
	// InsertEvent appends an event to the history
	InsertEvent(ctx context.Context, event *models.PoolEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// EventPublisher distributes committed pool events to live
// subscribers.
type EventPublisher interface {
	// PublishEvent fans the event out to subscribers
	PublishEvent(ctx context.Context, event *models.PoolEvent) error
}
