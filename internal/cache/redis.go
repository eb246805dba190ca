// Package cache holds the Redis-backed repositories and ledger and the
// ClickHouse event history.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/storage"
)

const (
	poolIndexKey   = "pools:index"
	poolPrefix     = "pools:"
	positionPrefix = "positions:"
	balancePrefix  = "balances:"
	supplyPrefix   = "supply:"
)

// RedisStore implements the pool and position repositories and the
// bookkeeping ledger on one Redis connection. Pools and positions are
// keyed JSON values with an index set; balances live in per-mint
// hashes with a separate supply counter per LP mint.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client, e.g. one pointed
// at a test database.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func poolKey(address solana.PublicKey) string {
	return poolPrefix + address.String()
}

func positionKey(owner, pool solana.PublicKey) string {
	return positionPrefix + owner.String() + ":" + pool.String()
}

// GetPool loads a pool, returning storage.ErrPoolNotFound when absent.
func (s *RedisStore) GetPool(ctx context.Context, address solana.PublicKey) (*models.Pool, error) {
	val, err := s.client.Get(ctx, poolKey(address)).Result()
	if err == redis.Nil {
		return nil, storage.ErrPoolNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pool: %w", err)
	}

	var pool models.Pool
	if err := json.Unmarshal([]byte(val), &pool); err != nil {
		return nil, fmt.Errorf("unmarshal pool: %w", err)
	}
	return &pool, nil
}

// SavePool stores the pool and registers it in the index set.
func (s *RedisStore) SavePool(ctx context.Context, pool *models.Pool) error {
	b, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, poolKey(pool.Address), b, 0)
	pipe.SAdd(ctx, poolIndexKey, pool.Address.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save pool: %w", err)
	}
	return nil
}

// ListPools returns every indexed pool. Entries that fail to decode
// are skipped rather than failing the whole listing.
func (s *RedisStore) ListPools(ctx context.Context) ([]*models.Pool, error) {
	addresses, err := s.client.SMembers(ctx, poolIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list pool index: %w", err)
	}
	if len(addresses) == 0 {
		return []*models.Pool{}, nil
	}

	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = poolPrefix + a
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget pools: %w", err)
	}

	out := make([]*models.Pool, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var pool models.Pool
		if err := json.Unmarshal([]byte(raw), &pool); err != nil {
			continue
		}
		out = append(out, &pool)
	}
	return out, nil
}

// GetPosition loads a position by (owner, pool), returning
// storage.ErrPositionNotFound when absent.
func (s *RedisStore) GetPosition(ctx context.Context, owner, pool solana.PublicKey) (*models.Position, error) {
	val, err := s.client.Get(ctx, positionKey(owner, pool)).Result()
	if err == redis.Nil {
		return nil, storage.ErrPositionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}

	var position models.Position
	if err := json.Unmarshal([]byte(val), &position); err != nil {
		return nil, fmt.Errorf("unmarshal position: %w", err)
	}
	return &position, nil
}

// SavePosition stores the full position state.
func (s *RedisStore) SavePosition(ctx context.Context, position *models.Position) error {
	b, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	if err := s.client.Set(ctx, positionKey(position.Owner, position.Pool), b, 0).Err(); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// Transfer moves amount of mint between two accounts in the per-mint
// balance hash. Both legs run in one transaction.
func (s *RedisStore) Transfer(ctx context.Context, mint, from, to solana.PublicKey, amount uint64) error {
	delta, err := toDelta(amount)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, balancePrefix+mint.String(), from.String(), -delta)
	pipe.HIncrBy(ctx, balancePrefix+mint.String(), to.String(), delta)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("transfer: %w", err)
	}
	return nil
}

// MintLP credits an account and grows the mint's supply counter.
func (s *RedisStore) MintLP(ctx context.Context, mint, to solana.PublicKey, amount uint64) error {
	delta, err := toDelta(amount)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, balancePrefix+mint.String(), to.String(), delta)
	pipe.IncrBy(ctx, supplyPrefix+mint.String(), delta)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mint lp: %w", err)
	}
	return nil
}

// BurnLP debits an account and shrinks the mint's supply counter.
func (s *RedisStore) BurnLP(ctx context.Context, mint, from solana.PublicKey, amount uint64) error {
	delta, err := toDelta(amount)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, balancePrefix+mint.String(), from.String(), -delta)
	pipe.DecrBy(ctx, supplyPrefix+mint.String(), delta)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("burn lp: %w", err)
	}
	return nil
}

// LPSupply reads the supply counter; an absent key is zero supply.
func (s *RedisStore) LPSupply(ctx context.Context, mint solana.PublicKey) (uint64, error) {
	val, err := s.client.Get(ctx, supplyPrefix+mint.String()).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lp supply: %w", err)
	}
	supply, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse lp supply %q: %w", val, err)
	}
	return supply, nil
}

// Client exposes the underlying connection for the publisher.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// toDelta bounds amounts to what HINCRBY can represent.
func toDelta(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("amount %d exceeds ledger range", amount)
	}
	return int64(amount), nil
}
