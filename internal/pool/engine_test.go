package pool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/amm"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/storage"
)

// In-memory fakes standing in for the Redis repositories and the
// custody host.

type memPools struct {
	pools map[solana.PublicKey]*models.Pool
}

func newMemPools() *memPools {
	return &memPools{pools: make(map[solana.PublicKey]*models.Pool)}
}

func (m *memPools) GetPool(_ context.Context, address solana.PublicKey) (*models.Pool, error) {
	p, ok := m.pools[address]
	if !ok {
		return nil, storage.ErrPoolNotFound
	}
	return clonePool(p), nil
}

func (m *memPools) SavePool(_ context.Context, pool *models.Pool) error {
	m.pools[pool.Address] = clonePool(pool)
	return nil
}

func (m *memPools) ListPools(_ context.Context) ([]*models.Pool, error) {
	out := make([]*models.Pool, 0, len(m.pools))
	for _, p := range m.pools {
		out = append(out, clonePool(p))
	}
	return out, nil
}

// clonePool returns a deep copy so engine-side mutation never leaks
// into the store before SavePool.
func clonePool(p *models.Pool) *models.Pool {
	c := *p
	c.TokenMints = append([]solana.PublicKey(nil), p.TokenMints...)
	c.TokenVaults = append([]solana.PublicKey(nil), p.TokenVaults...)
	c.Reserves = append([]uint64(nil), p.Reserves...)
	c.TargetWeights = append([]uint64(nil), p.TargetWeights...)
	if p.SeedPool != nil {
		ref := *p.SeedPool
		c.SeedPool = &ref
	}
	return &c
}

type memPositions struct {
	positions map[string]*models.Position
}

func newMemPositions() *memPositions {
	return &memPositions{positions: make(map[string]*models.Position)}
}

func positionKey(owner, pool solana.PublicKey) string {
	return owner.String() + "/" + pool.String()
}

func (m *memPositions) GetPosition(_ context.Context, owner, pool solana.PublicKey) (*models.Position, error) {
	p, ok := m.positions[positionKey(owner, pool)]
	if !ok {
		return nil, storage.ErrPositionNotFound
	}
	c := *p
	return &c, nil
}

func (m *memPositions) SavePosition(_ context.Context, position *models.Position) error {
	c := *position
	m.positions[positionKey(position.Owner, position.Pool)] = &c
	return nil
}

type memLedger struct {
	calls    int
	supplies map[solana.PublicKey]uint64
}

func newMemLedger() *memLedger {
	return &memLedger{supplies: make(map[solana.PublicKey]uint64)}
}

func (l *memLedger) Transfer(_ context.Context, _, _, _ solana.PublicKey, _ uint64) error {
	l.calls++
	return nil
}

func (l *memLedger) MintLP(_ context.Context, mint, _ solana.PublicKey, amount uint64) error {
	l.calls++
	l.supplies[mint] += amount
	return nil
}

func (l *memLedger) BurnLP(_ context.Context, mint, _ solana.PublicKey, amount uint64) error {
	l.calls++
	if l.supplies[mint] < amount {
		return fmt.Errorf("burn %d exceeds supply %d", amount, l.supplies[mint])
	}
	l.supplies[mint] -= amount
	return nil
}

func (l *memLedger) LPSupply(_ context.Context, mint solana.PublicKey) (uint64, error) {
	return l.supplies[mint], nil
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func testKey(b byte) solana.PublicKey {
	var raw [32]byte
	raw[0] = b
	raw[31] = b
	return solana.PublicKeyFromBytes(raw[:])
}

type testEnv struct {
	engine    *Engine
	pools     *memPools
	positions *memPositions
	ledger    *memLedger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		pools:     newMemPools(),
		positions: newMemPositions(),
		ledger:    newMemLedger(),
	}
	engine, err := NewEngine(Deps{
		Pools:     env.pools,
		Positions: env.positions,
		Ledger:    env.ledger,
		Clock:     fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	env.engine = engine
	return env
}

func (env *testEnv) createSeedPool(t *testing.T, amounts []uint64) *models.Pool {
	t.Helper()
	pool, err := env.engine.CreateSeedPool(context.Background(), CreateSeedPoolParams{
		Creator:        testKey(1),
		Amplification:  100,
		TargetWeights:  []uint64{4000, 3000, 3000},
		Mints:          []solana.PublicKey{testKey(10), testKey(11), testKey(12)},
		InitialAmounts: amounts,
	})
	require.NoError(t, err)
	return pool
}

func (env *testEnv) createGrowthPool(t *testing.T, seedPool solana.PublicKey, a0, a1 uint64) *models.Pool {
	t.Helper()
	pool, err := env.engine.CreateGrowthPool(context.Background(), CreateGrowthPoolParams{
		Creator:       testKey(1),
		Amplification: 100,
		SeedPool:      seedPool,
		Mints:         []solana.PublicKey{testKey(20), testKey(21)},
		Amount0:       a0,
		Amount1:       a1,
	})
	require.NoError(t, err)
	return pool
}

func TestCreateSeedPool(t *testing.T) {
	env := newTestEnv(t)

	pool := env.createSeedPool(t, []uint64{1000, 2000, 3000})

	assert.Equal(t, models.PoolKindSeed, pool.Kind)
	assert.Equal(t, []uint64{1000, 2000, 3000}, pool.Reserves)
	assert.Len(t, pool.TokenVaults, 3)
	assert.Nil(t, pool.SeedPool)

	supply, err := env.ledger.LPSupply(context.Background(), pool.LPMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), supply, "creator receives sum of initial deposits")

	stored, err := env.engine.GetPool(context.Background(), pool.Address)
	require.NoError(t, err)
	assert.Equal(t, pool.Reserves, stored.Reserves)
}

func TestCreateSeedPoolValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := CreateSeedPoolParams{
		Creator:        testKey(1),
		Amplification:  100,
		TargetWeights:  []uint64{4000, 3000, 3000},
		Mints:          []solana.PublicKey{testKey(10), testKey(11), testKey(12)},
		InitialAmounts: []uint64{1000, 1000, 1000},
	}

	bad := base
	bad.TargetWeights = []uint64{5000, 3000, 3000}
	_, err := env.engine.CreateSeedPool(ctx, bad)
	assert.ErrorIs(t, err, amm.ErrInvalidWeights)

	bad = base
	bad.InitialAmounts = []uint64{1000, 1000}
	_, err = env.engine.CreateSeedPool(ctx, bad)
	assert.ErrorIs(t, err, amm.ErrInvalidInputLength)

	bad = base
	bad.Amplification = 0
	_, err = env.engine.CreateSeedPool(ctx, bad)
	assert.ErrorIs(t, err, amm.ErrInvalidAmplification)

	bad = base
	bad.Mints = []solana.PublicKey{testKey(10), testKey(10), testKey(12)}
	_, err = env.engine.CreateSeedPool(ctx, bad)
	assert.ErrorIs(t, err, amm.ErrInvalidTokenMint)

	assert.Zero(t, env.ledger.calls, "failed creations must not touch the ledger")
}

func TestCreateGrowthPool(t *testing.T) {
	env := newTestEnv(t)
	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})

	pool := env.createGrowthPool(t, seed.Address, 1000, 800)

	assert.Equal(t, models.PoolKindGrowth, pool.Kind)
	assert.Equal(t, []uint64{5000, 5000}, pool.TargetWeights)
	require.NotNil(t, pool.SeedPool)
	assert.Equal(t, seed.Address, *pool.SeedPool)

	supply, err := env.ledger.LPSupply(context.Background(), pool.LPMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(1600), supply, "lp is min(amount0, amount1) doubled")
}

func TestCreateGrowthPoolRequiresSeedKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	params := CreateGrowthPoolParams{
		Creator:       testKey(1),
		Amplification: 100,
		SeedPool:      testKey(99),
		Mints:         []solana.PublicKey{testKey(20), testKey(21)},
		Amount0:       1000,
		Amount1:       1000,
	}
	_, err := env.engine.CreateGrowthPool(ctx, params)
	assert.ErrorIs(t, err, amm.ErrInvalidPoolType, "missing reference pool")

	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	growth := env.createGrowthPool(t, seed.Address, 1000, 1000)

	params.SeedPool = growth.Address
	params.Mints = []solana.PublicKey{testKey(30), testKey(31)}
	_, err = env.engine.CreateGrowthPool(ctx, params)
	assert.ErrorIs(t, err, amm.ErrInvalidPoolType, "growth pool cannot reference another growth pool")
}

func TestDepositCreatesPosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	owner := testKey(2)

	res, err := env.engine.Deposit(ctx, DepositParams{
		Owner:         owner,
		Pool:          pool.Address,
		Amounts:       []uint64{1000, 1000, 1000},
		Concentration: 1,
	})
	require.NoError(t, err)

	// Doubling every reserve doubles the invariant, so the mint equals
	// the prior supply.
	assert.Equal(t, uint64(3000), res.LPMinted)
	assert.Equal(t, uint64(995), res.MinPrice)
	assert.Equal(t, uint64(1005), res.MaxPrice)
	assert.Equal(t, uint64(100), res.CapitalEfficiency)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2000, 2000, 2000}, stored.Reserves)

	position, err := env.engine.GetPosition(ctx, owner, pool.Address)
	require.NoError(t, err)
	assert.True(t, position.IsActive)
	assert.Equal(t, uint64(3000), position.LPAmount)
}

func TestDepositZeroConcentrationUsesFullBand(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})

	res, err := env.engine.Deposit(context.Background(), DepositParams{
		Owner:   testKey(2),
		Pool:    pool.Address,
		Amounts: []uint64{100, 100, 100},
	})
	require.NoError(t, err)
	assert.Equal(t, amm.MinPrice, res.MinPrice)
	assert.Equal(t, amm.MaxPrice, res.MaxPrice)
}

func TestDepositSlippage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	callsBefore := env.ledger.calls

	_, err := env.engine.Deposit(ctx, DepositParams{
		Owner:       testKey(2),
		Pool:        pool.Address,
		Amounts:     []uint64{1000, 1000, 1000},
		MinLPAmount: 3001,
	})
	assert.ErrorIs(t, err, amm.ErrSlippageExceeded)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1000, 1000, 1000}, stored.Reserves, "failed deposit must not move reserves")
	assert.Equal(t, callsBefore, env.ledger.calls)
}

func TestDepositArityMismatch(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})

	_, err := env.engine.Deposit(context.Background(), DepositParams{
		Owner:   testKey(2),
		Pool:    pool.Address,
		Amounts: []uint64{1000, 1000},
	})
	assert.ErrorIs(t, err, amm.ErrInvalidInputLength)
}

func TestWithdraw(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	owner := testKey(2)

	_, err := env.engine.Deposit(ctx, DepositParams{
		Owner:   owner,
		Pool:    pool.Address,
		Amounts: []uint64{1000, 1000, 1000},
	})
	require.NoError(t, err)

	// Supply 6000, burn 1500: ratio 2500 bps, 500 of each asset.
	res, err := env.engine.Withdraw(ctx, WithdrawParams{
		Owner:      owner,
		Pool:       pool.Address,
		LPAmount:   1500,
		MinAmounts: []uint64{500, 500, 500},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{500, 500, 500}, res.Amounts)

	position, err := env.engine.GetPosition(ctx, owner, pool.Address)
	require.NoError(t, err)
	assert.True(t, position.IsActive)
	assert.Equal(t, uint64(1500), position.LPAmount)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1500, 1500, 1500}, stored.Reserves)

	// Draining the position deactivates it.
	_, err = env.engine.Withdraw(ctx, WithdrawParams{
		Owner:      owner,
		Pool:       pool.Address,
		LPAmount:   1500,
		MinAmounts: []uint64{0, 0, 0},
	})
	require.NoError(t, err)

	position, err = env.engine.GetPosition(ctx, owner, pool.Address)
	require.NoError(t, err)
	assert.False(t, position.IsActive)
	assert.Zero(t, position.LPAmount)
}

func TestWithdrawInsufficientLiquidity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	owner := testKey(2)

	_, err := env.engine.Deposit(ctx, DepositParams{
		Owner:   owner,
		Pool:    pool.Address,
		Amounts: []uint64{1000, 1000, 1000},
	})
	require.NoError(t, err)
	callsBefore := env.ledger.calls

	_, err = env.engine.Withdraw(ctx, WithdrawParams{
		Owner:      owner,
		Pool:       pool.Address,
		LPAmount:   4000,
		MinAmounts: []uint64{0, 0, 0},
	})
	assert.ErrorIs(t, err, amm.ErrInsufficientLiquidity)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2000, 2000, 2000}, stored.Reserves, "failed withdrawal must not move reserves")

	position, err := env.engine.GetPosition(ctx, owner, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), position.LPAmount)
	assert.True(t, position.IsActive)
	assert.Equal(t, callsBefore, env.ledger.calls)
}

func TestWithdrawWithoutPosition(t *testing.T) {
	env := newTestEnv(t)
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})

	_, err := env.engine.Withdraw(context.Background(), WithdrawParams{
		Owner:      testKey(7),
		Pool:       pool.Address,
		LPAmount:   100,
		MinAmounts: []uint64{0, 0, 0},
	})
	assert.ErrorIs(t, err, amm.ErrPositionNotActive)
}

func TestWithdrawSlippage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pool := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	owner := testKey(2)

	_, err := env.engine.Deposit(ctx, DepositParams{
		Owner:   owner,
		Pool:    pool.Address,
		Amounts: []uint64{1000, 1000, 1000},
	})
	require.NoError(t, err)

	_, err = env.engine.Withdraw(ctx, WithdrawParams{
		Owner:      owner,
		Pool:       pool.Address,
		LPAmount:   1500,
		MinAmounts: []uint64{501, 0, 0},
	})
	assert.ErrorIs(t, err, amm.ErrSlippageExceeded)
}

func TestSwap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	pool := env.createGrowthPool(t, seed.Address, 1000, 1000)

	res, err := env.engine.Swap(ctx, SwapParams{
		Trader:   testKey(3),
		Pool:     pool.Address,
		MintIn:   testKey(20),
		MintOut:  testKey(21),
		AmountIn: 100,
	})
	require.NoError(t, err)

	// Balanced pool, so the fee sits at its base rate; 100 in at fee 1
	// truncates to a zero fee amount.
	assert.Equal(t, uint64(1), res.Fee)
	assert.Equal(t, uint64(99), res.AmountOut)
	assert.Zero(t, res.FeePaid)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1100, 901}, stored.Reserves)
}

func TestSwapAccumulatesFees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	pool := env.createGrowthPool(t, seed.Address, 1_000_000, 1_000_000)

	res, err := env.engine.Swap(ctx, SwapParams{
		Trader:   testKey(3),
		Pool:     pool.Address,
		MintIn:   testKey(20),
		MintOut:  testKey(21),
		AmountIn: 100_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.FeePaid, "0.1% of the input")

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), stored.TotalFees)
}

func TestSwapSlippage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	pool := env.createGrowthPool(t, seed.Address, 1000, 1000)
	callsBefore := env.ledger.calls

	_, err := env.engine.Swap(ctx, SwapParams{
		Trader:       testKey(3),
		Pool:         pool.Address,
		MintIn:       testKey(20),
		MintOut:      testKey(21),
		AmountIn:     100,
		MinAmountOut: 100,
	})
	assert.ErrorIs(t, err, amm.ErrSlippageExceeded)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1000, 1000}, stored.Reserves)
	assert.Equal(t, callsBefore, env.ledger.calls)
}

func TestSwapUnknownMint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	pool := env.createGrowthPool(t, seed.Address, 1000, 1000)

	_, err := env.engine.Swap(ctx, SwapParams{
		Trader:   testKey(3),
		Pool:     pool.Address,
		MintIn:   testKey(99),
		MintOut:  testKey(21),
		AmountIn: 100,
	})
	assert.ErrorIs(t, err, amm.ErrInvalidTokenMint)

	_, err = env.engine.Swap(ctx, SwapParams{
		Trader:   testKey(3),
		Pool:     pool.Address,
		MintIn:   testKey(20),
		MintOut:  testKey(20),
		AmountIn: 100,
	})
	assert.ErrorIs(t, err, amm.ErrInvalidSwap)
}

func TestQuoteDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := env.createSeedPool(t, []uint64{1000, 1000, 1000})
	pool := env.createGrowthPool(t, seed.Address, 1000, 1000)
	callsBefore := env.ledger.calls

	quote, err := env.engine.Quote(ctx, pool.Address, testKey(20), testKey(21), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), quote.AmountOut)
	assert.Equal(t, []uint64{5000, 5000}, quote.CurrentWeights)

	stored, err := env.engine.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1000, 1000}, stored.Reserves)
	assert.Equal(t, callsBefore, env.ledger.calls)
}
