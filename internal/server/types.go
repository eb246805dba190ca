package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// CreateSeedPoolRequest creates the 3-asset foundational pool
type CreateSeedPoolRequest struct {
	Creator        string   `json:"creator"`         // Creator account (base58)
	Amplification  uint64   `json:"amplification"`   // StableSwap amplification coefficient
	TargetWeights  []uint64 `json:"target_weights"`  // Basis points, must sum to 10000
	Mints          []string `json:"mints"`           // Three asset mints (base58)
	InitialAmounts []uint64 `json:"initial_amounts"` // Initial deposit per asset
}

// CreateGrowthPoolRequest creates a 2-asset pool pegged to a Seed pool
type CreateGrowthPoolRequest struct {
	Creator       string   `json:"creator"`   // Creator account (base58)
	Amplification uint64   `json:"amplification"`
	SeedPool      string   `json:"seed_pool"` // Referenced Seed pool address (base58)
	Mints         []string `json:"mints"`     // Two asset mints (base58)
	Amount0       uint64   `json:"amount0"`
	Amount1       uint64   `json:"amount1"`
}

// DepositRequest adds liquidity to a pool
type DepositRequest struct {
	Owner         string   `json:"owner"`          // Depositor account (base58)
	Amounts       []uint64 `json:"amounts"`        // Per-asset deposit, arity per pool kind
	MinLPAmount   uint64   `json:"min_lp_amount"`  // Slippage floor on minted LP
	Concentration uint64   `json:"concentration"`  // Position band width, 0 = full band
}

// WithdrawRequest burns LP for a proportional share of the reserves
type WithdrawRequest struct {
	Owner      string   `json:"owner"`       // Position owner (base58)
	LPAmount   uint64   `json:"lp_amount"`   // LP tokens to burn
	MinAmounts []uint64 `json:"min_amounts"` // Per-asset slippage floors
}

// SwapRequest trades one pool asset for another
type SwapRequest struct {
	Trader       string `json:"trader"`         // Trader account (base58)
	MintIn       string `json:"mint_in"`        // Mint sold (base58)
	MintOut      string `json:"mint_out"`       // Mint bought (base58)
	AmountIn     uint64 `json:"amount_in"`
	MinAmountOut uint64 `json:"min_amount_out"` // Slippage floor on output
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about pool activity
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
