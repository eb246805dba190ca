// Package pool implements the AMM state machine: pool creation for
// both kinds, liquidity accounting, and invariant-preserving swaps.
// All validation and math complete before the first custody call, so a
// failed operation leaves no mutation behind.
package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/addressing"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/amm"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/storage"
)

// Deps holds the engine's collaborators. History and Publisher are
// optional; a nil sink is skipped.
type Deps struct {
	Pools     storage.PoolRepository
	Positions storage.PositionRepository
	Ledger    storage.Ledger
	Clock     storage.Clock
	History   storage.EventStore
	Publisher storage.EventPublisher
	Logger    *logrus.Logger
}

// Engine sequences pool operations against the repositories and the
// custody ledger. It performs no locking of its own; callers serialize
// writes per pool.
type Engine struct {
	pools     storage.PoolRepository
	positions storage.PositionRepository
	ledger    storage.Ledger
	clock     storage.Clock
	history   storage.EventStore
	publisher storage.EventPublisher
	log       *logrus.Logger
}

// NewEngine validates the required collaborators and builds an engine.
func NewEngine(deps Deps) (*Engine, error) {
	if deps.Pools == nil {
		return nil, errors.New("pool repository is required")
	}
	if deps.Positions == nil {
		return nil, errors.New("position repository is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("clock is required")
	}
	log := deps.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		pools:     deps.Pools,
		positions: deps.Positions,
		ledger:    deps.Ledger,
		clock:     deps.Clock,
		history:   deps.History,
		publisher: deps.Publisher,
		log:       log,
	}, nil
}

// CreateSeedPool creates the 3-asset foundational pool, transfers the
// initial deposits in, and mints sum(initialAmounts) LP to the creator.
func (e *Engine) CreateSeedPool(ctx context.Context, p CreateSeedPoolParams) (*models.Pool, error) {
	const arity = 3
	if len(p.Mints) != arity || len(p.InitialAmounts) != arity {
		return nil, fmt.Errorf("%w: seed pool takes exactly %d assets", amm.ErrInvalidInputLength, arity)
	}
	if len(p.TargetWeights) != arity {
		return nil, fmt.Errorf("%w: expected %d target weights", amm.ErrInvalidWeights, arity)
	}
	var weightSum uint64
	for _, w := range p.TargetWeights {
		weightSum += w
	}
	if weightSum != amm.WeightDenominator {
		return nil, fmt.Errorf("%w: target weights sum to %d, want %d", amm.ErrInvalidWeights, weightSum, amm.WeightDenominator)
	}
	if err := validateCreation(p.Creator, p.Amplification, p.Mints); err != nil {
		return nil, err
	}
	var lpAmount uint64
	for _, a := range p.InitialAmounts {
		if a == 0 {
			return nil, fmt.Errorf("%w: initial amounts must be positive", amm.ErrInvalidInstructionData)
		}
		s := lpAmount + a
		if s < lpAmount {
			return nil, fmt.Errorf("%w: initial deposit sum", amm.ErrMathOverflow)
		}
		lpAmount = s
	}

	address, err := addressing.SeedPool()
	if err != nil {
		return nil, err
	}
	return e.createPool(ctx, p.Creator, &models.Pool{
		Address:       address,
		Kind:          models.PoolKindSeed,
		TokenMints:    append([]solana.PublicKey(nil), p.Mints...),
		Reserves:      append([]uint64(nil), p.InitialAmounts...),
		TargetWeights: append([]uint64(nil), p.TargetWeights...),
		Amplification: p.Amplification,
	}, lpAmount)
}

// CreateGrowthPool creates a 2-asset pool pegged against an existing
// Seed pool, with fixed 50/50 target weights and min(amount0, amount1)
// times two LP minted to the creator.
func (e *Engine) CreateGrowthPool(ctx context.Context, p CreateGrowthPoolParams) (*models.Pool, error) {
	const arity = 2
	if len(p.Mints) != arity {
		return nil, fmt.Errorf("%w: growth pool takes exactly %d assets", amm.ErrInvalidInputLength, arity)
	}
	if err := validateCreation(p.Creator, p.Amplification, p.Mints); err != nil {
		return nil, err
	}
	if p.Amount0 == 0 || p.Amount1 == 0 {
		return nil, fmt.Errorf("%w: initial amounts must be positive", amm.ErrInvalidInstructionData)
	}

	seed, err := e.pools.GetPool(ctx, p.SeedPool)
	if err != nil {
		if errors.Is(err, storage.ErrPoolNotFound) {
			return nil, fmt.Errorf("%w: referenced seed pool %s does not exist", amm.ErrInvalidPoolType, p.SeedPool)
		}
		return nil, err
	}
	if seed.Kind != models.PoolKindSeed {
		return nil, fmt.Errorf("%w: referenced pool %s is %q, want %q", amm.ErrInvalidPoolType, seed.Address, seed.Kind, models.PoolKindSeed)
	}

	lpAmount := p.Amount0
	if p.Amount1 < lpAmount {
		lpAmount = p.Amount1
	}
	if lpAmount > 0 && lpAmount*2 < lpAmount {
		return nil, fmt.Errorf("%w: initial lp amount", amm.ErrMathOverflow)
	}
	lpAmount *= 2

	address, err := addressing.GrowthPool(p.Mints[1])
	if err != nil {
		return nil, err
	}
	seedRef := p.SeedPool
	return e.createPool(ctx, p.Creator, &models.Pool{
		Address:       address,
		Kind:          models.PoolKindGrowth,
		TokenMints:    append([]solana.PublicKey(nil), p.Mints...),
		Reserves:      []uint64{p.Amount0, p.Amount1},
		TargetWeights: []uint64{amm.WeightDenominator / 2, amm.WeightDenominator / 2},
		Amplification: p.Amplification,
		SeedPool:      &seedRef,
	}, lpAmount)
}

// createPool finishes creation shared by both kinds: vault and LP mint
// derivation, the existence check, custody transfers, and persistence.
func (e *Engine) createPool(ctx context.Context, creator solana.PublicKey, pool *models.Pool, lpAmount uint64) (*models.Pool, error) {
	if _, err := e.pools.GetPool(ctx, pool.Address); err == nil {
		return nil, fmt.Errorf("%w: pool %s already exists", amm.ErrInvalidInstructionData, pool.Address)
	} else if !errors.Is(err, storage.ErrPoolNotFound) {
		return nil, err
	}

	pool.TokenVaults = make([]solana.PublicKey, len(pool.TokenMints))
	for i, mint := range pool.TokenMints {
		vault, err := addressing.PoolVault(pool.Address, mint)
		if err != nil {
			return nil, err
		}
		pool.TokenVaults[i] = vault
	}
	lpMint, err := addressing.LPMint(pool.Address)
	if err != nil {
		return nil, err
	}
	pool.LPMint = lpMint

	now := e.clock.Now()
	pool.CreatedAt = now
	pool.LastUpdate = now

	for i, amount := range pool.Reserves {
		if err := e.ledger.Transfer(ctx, pool.TokenMints[i], creator, pool.TokenVaults[i], amount); err != nil {
			return nil, fmt.Errorf("transfer initial deposit %d: %w", i, err)
		}
	}
	if err := e.ledger.MintLP(ctx, pool.LPMint, creator, lpAmount); err != nil {
		return nil, fmt.Errorf("mint initial lp: %w", err)
	}
	if err := e.pools.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("save pool: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"pool": pool.Address.String(),
		"kind": pool.Kind,
		"lp":   lpAmount,
	}).Info("Pool created")

	e.emit(ctx, &models.PoolEvent{
		Kind:      models.EventPoolCreated,
		Pool:      pool.Address.String(),
		PoolKind:  string(pool.Kind),
		Actor:     creator.String(),
		Timestamp: now,
		Amounts:   append([]uint64(nil), pool.Reserves...),
		LPAmount:  lpAmount,
		Reserves:  append([]uint64(nil), pool.Reserves...),
	})
	return pool, nil
}

// Deposit adds liquidity and creates or tops up the caller's position.
func (e *Engine) Deposit(ctx context.Context, p DepositParams) (*DepositResult, error) {
	pool, err := e.pools.GetPool(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	if len(p.Amounts) != pool.Arity() {
		return nil, fmt.Errorf("%w: %d amounts for a %d-asset pool", amm.ErrInvalidInputLength, len(p.Amounts), pool.Arity())
	}

	newReserves := make([]uint64, len(pool.Reserves))
	for i, r := range pool.Reserves {
		s := r + p.Amounts[i]
		if s < r {
			return nil, fmt.Errorf("%w: reserve %d", amm.ErrMathOverflow, i)
		}
		newReserves[i] = s
	}

	lpSupply, err := e.ledger.LPSupply(ctx, pool.LPMint)
	if err != nil {
		return nil, fmt.Errorf("lp supply: %w", err)
	}
	lpMinted, err := amm.DepositLP(pool.Reserves, newReserves, lpSupply, pool.Amplification)
	if err != nil {
		return nil, err
	}
	if lpMinted < p.MinLPAmount {
		return nil, fmt.Errorf("%w: minted %d, minimum %d", amm.ErrSlippageExceeded, lpMinted, p.MinLPAmount)
	}

	// Concentration zero means the full tradeable band; otherwise the
	// band narrows around parity.
	minPrice, maxPrice := amm.MinPrice, amm.MaxPrice
	if p.Concentration > 0 {
		minPrice, maxPrice, err = amm.Bounds(amm.PriceDenominator, p.Concentration)
		if err != nil {
			return nil, err
		}
	}
	efficiency, err := amm.CapitalEfficiency(minPrice, maxPrice)
	if err != nil {
		return nil, err
	}

	position, err := e.positions.GetPosition(ctx, p.Owner, pool.Address)
	if err != nil {
		if !errors.Is(err, storage.ErrPositionNotFound) {
			return nil, err
		}
		address, derr := addressing.Position(p.Owner, pool.Address)
		if derr != nil {
			return nil, derr
		}
		position = &models.Position{
			Address:   address,
			Owner:     p.Owner,
			Pool:      pool.Address,
			CreatedAt: e.clock.Now(),
		}
	}
	if position.LPAmount+lpMinted < position.LPAmount {
		return nil, fmt.Errorf("%w: position lp balance", amm.ErrMathOverflow)
	}

	for i, amount := range p.Amounts {
		if amount == 0 {
			continue
		}
		if err := e.ledger.Transfer(ctx, pool.TokenMints[i], p.Owner, pool.TokenVaults[i], amount); err != nil {
			return nil, fmt.Errorf("transfer deposit %d: %w", i, err)
		}
	}
	if err := e.ledger.MintLP(ctx, pool.LPMint, p.Owner, lpMinted); err != nil {
		return nil, fmt.Errorf("mint lp: %w", err)
	}

	now := e.clock.Now()
	pool.Reserves = newReserves
	pool.LastUpdate = now
	position.LPAmount += lpMinted
	position.MinPrice = minPrice
	position.MaxPrice = maxPrice
	position.IsActive = true
	position.LastUpdate = now

	if err := e.pools.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("save pool: %w", err)
	}
	if err := e.positions.SavePosition(ctx, position); err != nil {
		return nil, fmt.Errorf("save position: %w", err)
	}

	e.emit(ctx, &models.PoolEvent{
		Kind:      models.EventDeposit,
		Pool:      pool.Address.String(),
		PoolKind:  string(pool.Kind),
		Actor:     p.Owner.String(),
		Timestamp: now,
		Amounts:   append([]uint64(nil), p.Amounts...),
		LPAmount:  lpMinted,
		Reserves:  append([]uint64(nil), pool.Reserves...),
	})
	return &DepositResult{
		LPMinted:          lpMinted,
		MinPrice:          minPrice,
		MaxPrice:          maxPrice,
		CapitalEfficiency: efficiency,
	}, nil
}

// Withdraw burns LP from the caller's position for a proportional
// share of the reserves, deactivating the position at zero balance.
func (e *Engine) Withdraw(ctx context.Context, p WithdrawParams) (*WithdrawResult, error) {
	pool, err := e.pools.GetPool(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	if len(p.MinAmounts) != pool.Arity() {
		return nil, fmt.Errorf("%w: %d minimums for a %d-asset pool", amm.ErrInvalidInputLength, len(p.MinAmounts), pool.Arity())
	}
	if p.LPAmount == 0 {
		return nil, fmt.Errorf("%w: lp amount must be positive", amm.ErrInvalidInstructionData)
	}

	position, err := e.positions.GetPosition(ctx, p.Owner, pool.Address)
	if err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			return nil, fmt.Errorf("%w: no position for owner %s", amm.ErrPositionNotActive, p.Owner)
		}
		return nil, err
	}
	if !position.Owner.Equals(p.Owner) {
		return nil, fmt.Errorf("%w: position belongs to %s", amm.ErrUnauthorized, position.Owner)
	}
	if !position.IsActive {
		return nil, amm.ErrPositionNotActive
	}
	if position.LPAmount < p.LPAmount {
		return nil, fmt.Errorf("%w: position holds %d lp, requested %d", amm.ErrInsufficientLiquidity, position.LPAmount, p.LPAmount)
	}

	lpSupply, err := e.ledger.LPSupply(ctx, pool.LPMint)
	if err != nil {
		return nil, fmt.Errorf("lp supply: %w", err)
	}
	amounts, err := amm.WithdrawAmounts(pool.Reserves, p.LPAmount, lpSupply)
	if err != nil {
		return nil, err
	}
	for i, amount := range amounts {
		if amount < p.MinAmounts[i] {
			return nil, fmt.Errorf("%w: asset %d pays %d, minimum %d", amm.ErrSlippageExceeded, i, amount, p.MinAmounts[i])
		}
	}

	if err := e.ledger.BurnLP(ctx, pool.LPMint, p.Owner, p.LPAmount); err != nil {
		return nil, fmt.Errorf("burn lp: %w", err)
	}
	for i, amount := range amounts {
		if amount == 0 {
			continue
		}
		if err := e.ledger.Transfer(ctx, pool.TokenMints[i], pool.TokenVaults[i], p.Owner, amount); err != nil {
			return nil, fmt.Errorf("transfer withdrawal %d: %w", i, err)
		}
	}

	now := e.clock.Now()
	for i, amount := range amounts {
		if amount > pool.Reserves[i] {
			pool.Reserves[i] = 0
		} else {
			pool.Reserves[i] -= amount
		}
	}
	pool.LastUpdate = now
	position.LPAmount -= p.LPAmount
	if position.LPAmount == 0 {
		position.IsActive = false
	}
	position.LastUpdate = now

	if err := e.pools.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("save pool: %w", err)
	}
	if err := e.positions.SavePosition(ctx, position); err != nil {
		return nil, fmt.Errorf("save position: %w", err)
	}

	e.emit(ctx, &models.PoolEvent{
		Kind:      models.EventWithdraw,
		Pool:      pool.Address.String(),
		PoolKind:  string(pool.Kind),
		Actor:     p.Owner.String(),
		Timestamp: now,
		Amounts:   amounts,
		LPAmount:  p.LPAmount,
		Reserves:  append([]uint64(nil), pool.Reserves...),
	})
	return &WithdrawResult{Amounts: amounts, LPBurned: p.LPAmount}, nil
}

// Swap trades amountIn of mintIn for mintOut at the dynamic fee,
// committing the reserve deltas and adding the charged fee to the
// pool's running total.
func (e *Engine) Swap(ctx context.Context, p SwapParams) (*SwapResult, error) {
	pool, err := e.pools.GetPool(ctx, p.Pool)
	if err != nil {
		return nil, err
	}
	out, fee, idxIn, idxOut, err := e.price(pool, p.MintIn, p.MintOut, p.AmountIn)
	if err != nil {
		return nil, err
	}
	if out.AmountOut < p.MinAmountOut {
		return nil, fmt.Errorf("%w: output %d, minimum %d", amm.ErrSlippageExceeded, out.AmountOut, p.MinAmountOut)
	}
	if pool.Reserves[idxIn]+p.AmountIn < pool.Reserves[idxIn] {
		return nil, fmt.Errorf("%w: input reserve", amm.ErrMathOverflow)
	}
	if pool.TotalFees+out.FeePaid < pool.TotalFees {
		return nil, fmt.Errorf("%w: fee counter", amm.ErrMathOverflow)
	}

	if err := e.ledger.Transfer(ctx, pool.TokenMints[idxIn], p.Trader, pool.TokenVaults[idxIn], p.AmountIn); err != nil {
		return nil, fmt.Errorf("transfer in: %w", err)
	}
	if err := e.ledger.Transfer(ctx, pool.TokenMints[idxOut], pool.TokenVaults[idxOut], p.Trader, out.AmountOut); err != nil {
		return nil, fmt.Errorf("transfer out: %w", err)
	}

	now := e.clock.Now()
	pool.Reserves[idxIn] += p.AmountIn
	if out.AmountOut > pool.Reserves[idxOut] {
		pool.Reserves[idxOut] = 0
	} else {
		pool.Reserves[idxOut] -= out.AmountOut
	}
	pool.TotalFees += out.FeePaid
	pool.LastUpdate = now

	if err := e.pools.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("save pool: %w", err)
	}

	e.log.WithFields(logrus.Fields{
		"pool":       pool.Address.String(),
		"amount_in":  p.AmountIn,
		"amount_out": out.AmountOut,
		"fee":        fee,
	}).Debug("Swap committed")

	e.emit(ctx, &models.PoolEvent{
		Kind:      models.EventSwap,
		Pool:      pool.Address.String(),
		PoolKind:  string(pool.Kind),
		Actor:     p.Trader.String(),
		Timestamp: now,
		TokenIn:   p.MintIn.String(),
		TokenOut:  p.MintOut.String(),
		AmountIn:  p.AmountIn,
		AmountOut: out.AmountOut,
		Fee:       fee,
		FeePaid:   out.FeePaid,
		Reserves:  append([]uint64(nil), pool.Reserves...),
	})
	return &SwapResult{
		AmountIn:  p.AmountIn,
		AmountOut: out.AmountOut,
		Fee:       fee,
		FeePaid:   out.FeePaid,
	}, nil
}

// Quote prices a swap against the current reserves without mutating
// anything.
func (e *Engine) Quote(ctx context.Context, poolKey, mintIn, mintOut solana.PublicKey, amountIn uint64) (*QuoteResult, error) {
	pool, err := e.pools.GetPool(ctx, poolKey)
	if err != nil {
		return nil, err
	}
	out, fee, _, _, err := e.price(pool, mintIn, mintOut, amountIn)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		AmountIn:       amountIn,
		AmountOut:      out.AmountOut,
		Fee:            fee,
		FeePaid:        out.FeePaid,
		CurrentWeights: amm.Weights(pool.Reserves),
	}, nil
}

// GetPool returns one pool by address.
func (e *Engine) GetPool(ctx context.Context, address solana.PublicKey) (*models.Pool, error) {
	return e.pools.GetPool(ctx, address)
}

// ListPools returns every known pool.
func (e *Engine) ListPools(ctx context.Context) ([]*models.Pool, error) {
	return e.pools.ListPools(ctx)
}

// GetPosition returns a user's position in a pool.
func (e *Engine) GetPosition(ctx context.Context, owner, poolKey solana.PublicKey) (*models.Position, error) {
	return e.positions.GetPosition(ctx, owner, poolKey)
}

type priced struct {
	AmountOut uint64
	FeePaid   uint64
}

// price resolves the traded indices and runs the fee and output math.
func (e *Engine) price(pool *models.Pool, mintIn, mintOut solana.PublicKey, amountIn uint64) (priced, uint64, int, int, error) {
	if amountIn == 0 {
		return priced{}, 0, 0, 0, fmt.Errorf("%w: amount in must be positive", amm.ErrInvalidInstructionData)
	}
	idxIn := pool.MintIndex(mintIn)
	if idxIn < 0 {
		return priced{}, 0, 0, 0, fmt.Errorf("%w: %s not in pool", amm.ErrInvalidTokenMint, mintIn)
	}
	idxOut := pool.MintIndex(mintOut)
	if idxOut < 0 {
		return priced{}, 0, 0, 0, fmt.Errorf("%w: %s not in pool", amm.ErrInvalidTokenMint, mintOut)
	}
	if idxIn == idxOut {
		return priced{}, 0, 0, 0, fmt.Errorf("%w: cannot swap a token for itself", amm.ErrInvalidSwap)
	}

	fee := amm.DynamicFee(amm.Weights(pool.Reserves), pool.TargetWeights)
	amountOut, feePaid, err := amm.SwapOutput(amountIn, pool.Reserves[idxIn], pool.Reserves[idxOut], fee, pool.Amplification)
	if err != nil {
		return priced{}, 0, 0, 0, err
	}
	return priced{AmountOut: amountOut, FeePaid: feePaid}, fee, idxIn, idxOut, nil
}

// emit records the event in the history store and publishes it to live
// subscribers. Both sinks are optional; failures are logged, never
// surfaced, as the pool mutation is already committed.
func (e *Engine) emit(ctx context.Context, event *models.PoolEvent) {
	if e.history != nil {
		if err := e.history.InsertEvent(ctx, event); err != nil {
			e.log.WithError(err).Warn("Failed to record pool event")
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishEvent(ctx, event); err != nil {
			e.log.WithError(err).Warn("Failed to publish pool event")
		}
	}
}

// validateCreation checks the fields shared by both creation paths.
func validateCreation(creator solana.PublicKey, amplification uint64, mints []solana.PublicKey) error {
	if creator.IsZero() {
		return fmt.Errorf("%w: creator is required", amm.ErrInvalidInstructionData)
	}
	if amplification == 0 {
		return amm.ErrInvalidAmplification
	}
	for i, m := range mints {
		if m.IsZero() {
			return fmt.Errorf("%w: mint %d is zero", amm.ErrInvalidTokenMint, i)
		}
		for j := i + 1; j < len(mints); j++ {
			if m.Equals(mints[j]) {
				return fmt.Errorf("%w: duplicate mint %s", amm.ErrInvalidTokenMint, m)
			}
		}
	}
	return nil
}
