package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/ai"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/cache"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/catalog"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/depth"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/models"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/pairs"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/storage"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Cache        storage.DepthCache // Redis-backed snapshot cache
	Pairs        *pairs.Store       // Redis-backed watched-pair registry
	Engine       *depth.Engine      // Depth probe engine
	AI           *ai.Agent          // AI agent for natural language queries
	AIBaseConfig ai.AgentConfig     // Base configuration for AI agents
	Jupiter      *jupiter.Client    // Raw quote passthrough for diagnostics (optional)
	DepthTimeout time.Duration      // Per-request bound for fresh calculations
	DevMode      bool               // Enable detailed error responses in development
	Logger       *logrus.Logger     // Structured logger
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

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// validMint checks that the parameter decodes to a 32-byte public key
func validMint(mint string) bool {
	raw, err := base58.Decode(mint)
	return err == nil && len(raw) == 32
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Depth returns the liquidity depth curve for a pair and direction. Serves
// the cached snapshot when one exists; fresh=true forces a live probe run,
// which can take up to the engine's time budget.
func (h *Handlers) Depth(c echo.Context) error {
	inputMint := strings.TrimSpace(c.QueryParam("inputMint"))
	outputMint := strings.TrimSpace(c.QueryParam("outputMint"))
	if !validMint(inputMint) {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": "must be a base58 public key"})
	}
	if !validMint(outputMint) {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": "must be a base58 public key"})
	}

	dir, ok := depth.ParseDirection(c.QueryParam("direction"))
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid direction", map[string]any{"direction": "must be buy or sell"})
	}

	fresh := false
	if v := c.QueryParam("fresh"); v != "" {
		var err error
		fresh, err = strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid fresh", map[string]any{"fresh": "must be boolean"})
		}
	}

	if !fresh && h.Cache != nil {
		snap, err := h.Cache.GetSnapshot(c.Request().Context(), inputMint, outputMint, string(dir))
		if err == nil {
			return c.JSON(http.StatusOK, DepthResponse{DepthSnapshot: snap, Cached: true})
		}
		if !errors.Is(err, cache.ErrNotFound) {
			h.Logger.WithError(err).Warn("snapshot cache lookup failed")
		}
	}

	if h.Engine == nil {
		return h.err(c, http.StatusServiceUnavailable, "depth engine is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), h.DepthTimeout)
	defer cancel()

	res, err := h.Engine.CalculateDepth(ctx, inputMint, outputMint, dir)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "depth calculation rejected", map[string]any{"err": err.Error()})
	}

	label := catalog.Symbol(inputMint) + "/" + catalog.Symbol(outputMint)
	snap := models.SnapshotFromResult(res, label)

	if h.Cache != nil {
		if err := h.Cache.SetSnapshot(ctx, snap); err != nil {
			h.Logger.WithError(err).Warn("failed to cache snapshot")
		}
		if err := h.Cache.PublishSnapshot(ctx, snap); err != nil {
			h.Logger.WithError(err).Warn("failed to publish snapshot")
		}
	}

	return c.JSON(http.StatusOK, DepthResponse{DepthSnapshot: snap, Cached: false})
}

// SnapshotsRecent returns the most recent depth snapshots with optional limit
// parameter (default: 20, range: 1-100)
func (h *Handlers) SnapshotsRecent(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "snapshot cache is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 20
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.RecentSnapshots(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get snapshots", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// PairsUpsert registers or updates a watched pair
func (h *Handlers) PairsUpsert(c echo.Context) error {
	if h.Pairs == nil {
		return h.err(c, http.StatusServiceUnavailable, "pair registry is not configured", nil)
	}

	var req PairUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Pairs.Upsert(ctx, req.InputMint, req.OutputMint, req.Label, req.Enabled)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "failed to upsert pair", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

// PairsUpdate updates the label and enabled state of an existing watched pair
// Returns 404 if the pair is not registered
func (h *Handlers) PairsUpdate(c echo.Context) error {
	if h.Pairs == nil {
		return h.err(c, http.StatusServiceUnavailable, "pair registry is not configured", nil)
	}

	inputMint := c.Param("input")
	outputMint := c.Param("output")

	var req PairUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Pairs.Get(ctx, inputMint, outputMint); err != nil {
		if errors.Is(err, pairs.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "pair not found", nil)
		}
		return h.err(c, http.StatusBadRequest, "failed to get pair", map[string]any{"err": err.Error()})
	}

	out, err := h.Pairs.Upsert(ctx, inputMint, outputMint, req.Label, req.Enabled)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update pair", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// PairsGet retrieves a watched pair by its mints
// Returns 404 if the pair is not registered
func (h *Handlers) PairsGet(c echo.Context) error {
	if h.Pairs == nil {
		return h.err(c, http.StatusServiceUnavailable, "pair registry is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Pairs.Get(ctx, c.Param("input"), c.Param("output"))
	if err != nil {
		if errors.Is(err, pairs.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "pair not found", nil)
		}
		return h.err(c, http.StatusBadRequest, "failed to get pair", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

// PairsList returns all watched pairs in the registry
func (h *Handlers) PairsList(c echo.Context) error {
	if h.Pairs == nil {
		return h.err(c, http.StatusServiceUnavailable, "pair registry is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Pairs.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list pairs", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// PairsDelete removes a watched pair by its mints
// Returns 204 No Content on successful deletion
func (h *Handlers) PairsDelete(c echo.Context) error {
	if h.Pairs == nil {
		return h.err(c, http.StatusServiceUnavailable, "pair registry is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Pairs.Delete(ctx, c.Param("input"), c.Param("output")); err != nil {
		return h.err(c, http.StatusBadRequest, "failed to delete pair", map[string]any{"err": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// AIAsk processes natural language questions about depth data using AI
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
