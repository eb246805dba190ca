package amm

import "errors"

// Terminal error taxonomy for the pricing and accounting engine.
// Every failure aborts the whole operation; callers resubmit with
// corrected parameters.
var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrMathOverflow           = errors.New("math overflow")
	ErrSlippageExceeded       = errors.New("slippage tolerance exceeded")
	ErrInvalidTokenMint       = errors.New("invalid token mint")
	ErrInvalidWeights         = errors.New("invalid weights, must sum to 10000")
	ErrInvalidInputLength     = errors.New("invalid input length")
	ErrInvalidPoolType        = errors.New("invalid pool type")
	ErrInvalidSwap            = errors.New("invalid swap")
	ErrInvalidPositionBounds  = errors.New("invalid position bounds")
	ErrInsufficientLiquidity  = errors.New("insufficient liquidity")
	ErrInvalidAmplification   = errors.New("invalid amplification coefficient")
	ErrPositionNotActive      = errors.New("position not active")
	ErrUnauthorized           = errors.New("unauthorized")
)
