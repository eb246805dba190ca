package cache

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/storage"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	store := &RedisStore{client: client}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.FlushDB(ctx).Err()
		_ = client.Close()
	})
	return store
}

func testKey(b byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = b
	return solana.PublicKeyFromBytes(raw[:])
}

func TestRedisStore_PoolRoundTrip(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	_, err := store.GetPool(ctx, testKey(1))
	assert.ErrorIs(t, err, storage.ErrPoolNotFound)

	pool := &models.Pool{
		Address:       testKey(1),
		Kind:          models.PoolKindSeed,
		TokenMints:    []solana.PublicKey{testKey(10), testKey(11), testKey(12)},
		TokenVaults:   []solana.PublicKey{testKey(20), testKey(21), testKey(22)},
		Reserves:      []uint64{1000, 2000, 3000},
		TargetWeights: []uint64{4000, 3000, 3000},
		Amplification: 100,
		LPMint:        testKey(30),
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.SavePool(ctx, pool))

	got, err := store.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, pool.Reserves, got.Reserves)
	assert.Equal(t, pool.Kind, got.Kind)
	assert.Equal(t, pool.TokenMints, got.TokenMints)

	pools, err := store.ListPools(ctx)
	require.NoError(t, err)
	assert.Len(t, pools, 1)

	// Saving again must not duplicate the index entry.
	pool.Reserves = []uint64{1100, 2000, 3000}
	require.NoError(t, store.SavePool(ctx, pool))
	pools, err = store.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, []uint64{1100, 2000, 3000}, pools[0].Reserves)
}

func TestRedisStore_PositionRoundTrip(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	owner, poolAddr := testKey(2), testKey(1)

	_, err := store.GetPosition(ctx, owner, poolAddr)
	assert.ErrorIs(t, err, storage.ErrPositionNotFound)

	position := &models.Position{
		Address:  testKey(40),
		Owner:    owner,
		Pool:     poolAddr,
		LPAmount: 5000,
		MinPrice: 995,
		MaxPrice: 1005,
		IsActive: true,
	}
	require.NoError(t, store.SavePosition(ctx, position))

	got, err := store.GetPosition(ctx, owner, poolAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), got.LPAmount)
	assert.True(t, got.IsActive)

	// Other owners do not see the position.
	_, err = store.GetPosition(ctx, testKey(3), poolAddr)
	assert.ErrorIs(t, err, storage.ErrPositionNotFound)
}

func TestRedisStore_Ledger(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	mint, alice, bob := testKey(10), testKey(2), testKey(3)

	supply, err := store.LPSupply(ctx, mint)
	require.NoError(t, err)
	assert.Zero(t, supply, "fresh mint has zero supply")

	require.NoError(t, store.MintLP(ctx, mint, alice, 1000))
	supply, err = store.LPSupply(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply)

	require.NoError(t, store.Transfer(ctx, mint, alice, bob, 400))
	balances, err := store.Client().HGetAll(ctx, balancePrefix+mint.String()).Result()
	require.NoError(t, err)
	assert.Equal(t, "600", balances[alice.String()])
	assert.Equal(t, "400", balances[bob.String()])

	require.NoError(t, store.BurnLP(ctx, mint, alice, 600))
	supply, err = store.LPSupply(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), supply)
}
