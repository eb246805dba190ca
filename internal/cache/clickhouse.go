package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
)

// HistoryStore appends committed pool events to ClickHouse. The table
// is insert-only; analytics read it directly or through the SQL agent.
type HistoryStore struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewHistoryStore(ctx context.Context, cfg ClickHouseConfig) (*HistoryStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}
	return &HistoryStore{conn: conn}, nil
}

// EnsureSchema creates the pool_events table when it does not exist.
func (h *HistoryStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS pool_events (
			event_kind LowCardinality(String),
			pool String,
			pool_kind LowCardinality(String),
			actor String,
			timestamp DateTime64(3, 'UTC'),
			token_in String,
			token_out String,
			amount_in UInt64,
			amount_out UInt64,
			fee UInt64,
			fee_paid UInt64,
			lp_amount UInt64,
			amounts Array(UInt64),
			reserves Array(UInt64)
		) ENGINE = MergeTree()
		ORDER BY (pool, timestamp)
	`
	if err := h.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create pool_events table: %w", err)
	}
	return nil
}

// InsertEvent appends one event to the history.
func (h *HistoryStore) InsertEvent(ctx context.Context, event *models.PoolEvent) error {
	query := `
		INSERT INTO pool_events (
			event_kind, pool, pool_kind, actor, timestamp,
			token_in, token_out, amount_in, amount_out,
			fee, fee_paid, lp_amount, amounts, reserves
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	amounts := event.Amounts
	if amounts == nil {
		amounts = []uint64{}
	}
	reserves := event.Reserves
	if reserves == nil {
		reserves = []uint64{}
	}

	err := h.conn.Exec(ctx, query,
		event.Kind,
		event.Pool,
		event.PoolKind,
		event.Actor,
		event.Timestamp,
		event.TokenIn,
		event.TokenOut,
		event.AmountIn,
		event.AmountOut,
		event.Fee,
		event.FeePaid,
		event.LPAmount,
		amounts,
		reserves,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pool event: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (h *HistoryStore) Ping(ctx context.Context) error {
	return h.conn.Ping(ctx)
}

// Close closes the connection.
func (h *HistoryStore) Close() error {
	return h.conn.Close()
}
