package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/addressing"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/ai"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/pool"
	"github.com/aman-zulfiqar/equilibrium-amm/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine       *pool.Engine   // Pool state machine
	AI           *ai.Agent      // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig // Base configuration for AI agents
	DevMode      bool           // Enable detailed error responses in development
	Logger       *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// fail maps an engine error to its HTTP status and renders it.
func (h *Handlers) fail(c echo.Context, err error) error {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		h.Logger.WithError(err).Error("Request failed")
		return h.err(c, code, "internal server error", map[string]any{"err": err.Error()})
	}
	return h.err(c, code, err.Error(), nil)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// parseKey decodes a base58 key from a request field.
func (h *Handlers) parseKey(c echo.Context, field, value string) (solana.PublicKey, bool) {
	key, err := addressing.ParseKey(strings.TrimSpace(value))
	if err != nil {
		_ = h.err(c, http.StatusBadRequest, "invalid "+field, map[string]any{field: "must be a base58 key"})
		return solana.PublicKey{}, false
	}
	return key, true
}

func (h *Handlers) parseKeys(c echo.Context, field string, values []string) ([]solana.PublicKey, bool) {
	keys := make([]solana.PublicKey, len(values))
	for i, v := range values {
		key, ok := h.parseKey(c, field, v)
		if !ok {
			return nil, false
		}
		keys[i] = key
	}
	return keys, true
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// ListPools returns every known pool
func (h *Handlers) ListPools(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pools, err := h.Engine.ListPools(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": pools})
}

// GetPool returns one pool by its address
func (h *Handlers) GetPool(c echo.Context) error {
	address, ok := h.parseKey(c, "address", c.Param("address"))
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	p, err := h.Engine.GetPool(ctx, address)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// GetPosition returns a user's position in a pool
// Returns 404 if the owner has never deposited
func (h *Handlers) GetPosition(c echo.Context) error {
	address, ok := h.parseKey(c, "address", c.Param("address"))
	if !ok {
		return nil
	}
	owner, ok := h.parseKey(c, "owner", c.Param("owner"))
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	position, err := h.Engine.GetPosition(ctx, owner, address)
	if err != nil {
		if errors.Is(err, storage.ErrPositionNotFound) {
			return h.err(c, http.StatusNotFound, "position not found", nil)
		}
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, position)
}

// CreateSeedPool creates the 3-asset foundational pool
func (h *Handlers) CreateSeedPool(c echo.Context) error {
	var req CreateSeedPoolRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	creator, ok := h.parseKey(c, "creator", req.Creator)
	if !ok {
		return nil
	}
	mints, ok := h.parseKeys(c, "mints", req.Mints)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Engine.CreateSeedPool(ctx, pool.CreateSeedPoolParams{
		Creator:        creator,
		Amplification:  req.Amplification,
		TargetWeights:  req.TargetWeights,
		Mints:          mints,
		InitialAmounts: req.InitialAmounts,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// CreateGrowthPool creates a 2-asset pool pegged against a Seed pool
func (h *Handlers) CreateGrowthPool(c echo.Context) error {
	var req CreateGrowthPoolRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	creator, ok := h.parseKey(c, "creator", req.Creator)
	if !ok {
		return nil
	}
	seedPool, ok := h.parseKey(c, "seed_pool", req.SeedPool)
	if !ok {
		return nil
	}
	mints, ok := h.parseKeys(c, "mints", req.Mints)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	p, err := h.Engine.CreateGrowthPool(ctx, pool.CreateGrowthPoolParams{
		Creator:       creator,
		Amplification: req.Amplification,
		SeedPool:      seedPool,
		Mints:         mints,
		Amount0:       req.Amount0,
		Amount1:       req.Amount1,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Deposit adds liquidity to a pool and updates the caller's position
func (h *Handlers) Deposit(c echo.Context) error {
	address, ok := h.parseKey(c, "address", c.Param("address"))
	if !ok {
		return nil
	}
	var req DepositRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	owner, ok := h.parseKey(c, "owner", req.Owner)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.Deposit(ctx, pool.DepositParams{
		Owner:         owner,
		Pool:          address,
		Amounts:       req.Amounts,
		MinLPAmount:   req.MinLPAmount,
		Concentration: req.Concentration,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Withdraw burns LP for a proportional share of the reserves
func (h *Handlers) Withdraw(c echo.Context) error {
	address, ok := h.parseKey(c, "address", c.Param("address"))
	if !ok {
		return nil
	}
	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	owner, ok := h.parseKey(c, "owner", req.Owner)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.Withdraw(ctx, pool.WithdrawParams{
		Owner:      owner,
		Pool:       address,
		LPAmount:   req.LPAmount,
		MinAmounts: req.MinAmounts,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Swap trades one pool asset for another at the dynamic fee
func (h *Handlers) Swap(c echo.Context) error {
	address, ok := h.parseKey(c, "address", c.Param("address"))
	if !ok {
		return nil
	}
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	trader, ok := h.parseKey(c, "trader", req.Trader)
	if !ok {
		return nil
	}
	mintIn, ok := h.parseKey(c, "mint_in", req.MintIn)
	if !ok {
		return nil
	}
	mintOut, ok := h.parseKey(c, "mint_out", req.MintOut)
	if !ok {
		return nil
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Engine.Swap(ctx, pool.SwapParams{
		Trader:       trader,
		Pool:         address,
		MintIn:       mintIn,
		MintOut:      mintOut,
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// AIAsk processes natural language questions about pool activity using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	var tmp *ai.Agent
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		tmp = a
		agent = a
		defer func() {
			_ = tmp.Close() // Clean up temporary agent
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
