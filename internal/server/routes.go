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

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)                    // Health check endpoint
	v1.GET("/quote", h.Quote)                      // Raw oracle quote passthrough
	v1.GET("/snapshots/recent", h.SnapshotsRecent) // Recent depth snapshots

	// Depth probing is expensive upstream, so fresh requests are rate limited
	// per client
	depthGroup := v1.Group("/depth")
	depthGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.5), // 1 request every 2 seconds
		Burst:     3,               // Allow burst of 3 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	depthGroup.GET("", h.Depth)

	// AI endpoints with rate limiting
	aigroup := v1.Group("/ai")
	aigroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,               // Allow burst of 2 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	aigroup.POST("/ask", h.AIAsk) // Natural language to SQL endpoint

	// Watched pair CRUD endpoints
	pairGroup := v1.Group("/pairs")
	pairGroup.GET("", h.PairsList)                     // List all watched pairs
	pairGroup.POST("", h.PairsUpsert)                  // Register a pair
	pairGroup.GET("/:input/:output", h.PairsGet)       // Get a specific pair
	pairGroup.PUT("/:input/:output", h.PairsUpdate)    // Update an existing pair
	pairGroup.DELETE("/:input/:output", h.PairsDelete) // Remove a pair

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
