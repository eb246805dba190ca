package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// Rate limiter for mutating pool operations
	mutateLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(5),   // 5 mutations per second per client
		Burst:     10,              // Allow short bursts
		ExpiresIn: 2 * time.Minute, // Rate limit window
	}))

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health) // Health check endpoint

	// Pool endpoints
	pools := v1.Group("/pools")
	pools.GET("", h.ListPools)              // List all pools
	pools.GET("/:address", h.GetPool)       // Pool state by address
	pools.GET("/:address/quote", h.Quote)   // Price a swap without executing
	pools.GET("/:address/positions/:owner", h.GetPosition) // User position lookup

	pools.POST("/seed", h.CreateSeedPool, mutateLimiter)          // Create the Seed pool
	pools.POST("/growth", h.CreateGrowthPool, mutateLimiter)      // Create a Growth pool
	pools.POST("/:address/deposit", h.Deposit, mutateLimiter)     // Add liquidity
	pools.POST("/:address/withdraw", h.Withdraw, mutateLimiter)   // Remove liquidity
	pools.POST("/:address/swap", h.Swap, mutateLimiter)           // Execute a swap

	// AI endpoints with rate limiting
	aigroup := v1.Group("/ai")
	aigroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,               // Allow burst of 2 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	aigroup.POST("/ask", h.AIAsk) // Natural language to SQL endpoint

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
