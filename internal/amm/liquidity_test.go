package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositLPBootstrap(t *testing.T) {
	// First deposit into an empty pool mints exactly the deposited sum
	minted, err := DepositLP([]uint64{0, 0, 0}, []uint64{1000, 2000, 3000}, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(6000), minted)
}

func TestDepositLPProportional(t *testing.T) {
	// Doubling balanced reserves doubles D, minting one new LP per old
	minted, err := DepositLP([]uint64{1000, 1000}, []uint64{2000, 2000}, 2000, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), minted)

	// A small deposit mints a proportionally small amount
	minted, err = DepositLP([]uint64{1000, 1000}, []uint64{1100, 1100}, 2000, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), minted)
}

func TestDepositLPLengthMismatch(t *testing.T) {
	_, err := DepositLP([]uint64{1000, 1000}, []uint64{1000, 1000, 1000}, 2000, 100)
	assert.ErrorIs(t, err, ErrInvalidInputLength)
}

func TestDepositLPZeroReserveAfter(t *testing.T) {
	// Non-bootstrap deposits still require priceable reserves
	_, err := DepositLP([]uint64{1000, 1000}, []uint64{1000, 0}, 2000, 100)
	assert.ErrorIs(t, err, ErrMathOverflow)
}

func TestWithdrawAmountsProportional(t *testing.T) {
	amounts, err := WithdrawAmounts([]uint64{1000, 1000}, 500, 2000)
	require.NoError(t, err)
	assert.Equal(t, []uint64{250, 250}, amounts)

	// Basis-point truncation rounds down: 1000/3000 -> 3333 bps
	amounts, err = WithdrawAmounts([]uint64{1000, 2000, 500}, 1000, 3000)
	require.NoError(t, err)
	assert.Equal(t, []uint64{333, 666, 166}, amounts)
}

func TestWithdrawAmountsFullWithdrawal(t *testing.T) {
	// Burning the whole supply pays out every reserve exactly
	reserves := []uint64{123_456, 789_012, 345}
	amounts, err := WithdrawAmounts(reserves, 5000, 5000)
	require.NoError(t, err)
	assert.Equal(t, reserves, amounts)
}

func TestWithdrawAmountsZeroSupply(t *testing.T) {
	_, err := WithdrawAmounts([]uint64{1000}, 100, 0)
	assert.ErrorIs(t, err, ErrMathOverflow)
}
