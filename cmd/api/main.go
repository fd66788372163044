package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/ai"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/cache"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/catalog"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/config"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/depth"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/pairs"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/rpc"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/server"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client shared by the snapshot cache and pair registry
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	depthCache := cache.NewRedisCacheFromClient(rclient, cfg.SnapshotTTL, logger)

	pairStore, err := pairs.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create pair registry")
	}

	// Token catalog backed by Solana RPC with a redis cache for mint decimals
	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.RPCTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	tokenCatalog := catalog.New(catalog.Config{
		Fetcher: rpcClient,
		Cache:   rclient,
		Logger:  logger,
	})

	// Quote client with process-wide pacing toward the oracle
	quoteClient := jupiter.NewClient(jupiter.ClientConfig{
		BaseURL:        cfg.JupiterBaseURL,
		APIKey:         cfg.JupiterAPIKey,
		Timeout:        cfg.QuoteTimeout,
		MaxRetries:     cfg.QuoteRetries,
		RetryBackoff:   cfg.QuoteBackoff,
		PacingInterval: cfg.PacingInterval,
		Logger:         logger,
	})

	engine, err := depth.NewEngine(depth.EngineConfig{
		Quoter:     quoteClient,
		Resolver:   tokenCatalog,
		USDLadder:  cfg.USDLadder,
		TimeBudget: cfg.TimeBudget,
		Logger:     logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create depth engine")
	}

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              cfg.AIModel,
		Logger:             logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" && cfg.ClickHouseAddr != "" {
		a, err := ai.NewAgent(ctx, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
			defer func() {
				_ = agent.Close() // Clean up AI resources on shutdown
			}()
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Cache:        depthCache,
		Pairs:        pairStore,
		Engine:       engine,
		AI:           agent,
		AIBaseConfig: aiBase,
		Jupiter:      quoteClient,
		DepthTimeout: cfg.TimeBudget + cfg.QuoteTimeout, // headroom for the final in-flight probe
		DevMode:      cfg.DevMode,
		Logger:       logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
