// Package addressing derives the deterministic account keys the
// engine uses: pool addresses from (kind, asset set), vault and LP
// mint addresses from the pool, and position addresses from
// (owner, pool). The custody layer is keyed by the same scheme, so a
// lookup never depends on anything but the inputs.
package addressing

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ProgramID anchors every derived address. All keys change together
// if it changes, so it is fixed for the life of a deployment.
var ProgramID = solana.PublicKeyFromBytes([]byte("equilibrium-amm-core-engine-v1.0"))

var (
	seedPool     = []byte("pool")
	seedSeed     = []byte("seed")
	seedGrowth   = []byte("growth")
	seedVault    = []byte("pool-token")
	seedLPMint   = []byte("lp-mint")
	seedPosition = []byte("user-position")
)

// SeedPool returns the address of the singleton Seed pool.
func SeedPool() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedPool, seedSeed}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive seed pool address: %w", err)
	}
	return addr, nil
}

// GrowthPool returns the address of the Growth pool paired with the
// given partner token mint.
func GrowthPool(partnerMint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedPool, seedGrowth, partnerMint.Bytes()}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive growth pool address: %w", err)
	}
	return addr, nil
}

// PoolVault returns the address of the reserve account holding one of
// a pool's assets.
func PoolVault(pool, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedVault, pool.Bytes(), mint.Bytes()}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive pool vault address: %w", err)
	}
	return addr, nil
}

// LPMint returns the address of a pool's LP token mint.
func LPMint(pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedLPMint, pool.Bytes()}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive lp mint address: %w", err)
	}
	return addr, nil
}

// Position returns the address of a user's position in a pool.
func Position(owner, pool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedPosition, owner.Bytes(), pool.Bytes()}, ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive position address: %w", err)
	}
	return addr, nil
}

// ParseKey decodes a base58 account key, rejecting anything that is
// not exactly 32 bytes.
func ParseKey(s string) (solana.PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("decode key %q: %w", s, err)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("key %q is %d bytes, want %d", s, len(raw), solana.PublicKeyLength)
	}
	return solana.PublicKeyFromBytes(raw), nil
}
