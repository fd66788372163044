package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/cache"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/catalog"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/config"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/depth"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/jupiter"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/monitor"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/pairs"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/rpc"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/storage"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/store"
)

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

// main runs the depth monitor daemon: it sweeps the watched-pair registry on
// an interval and publishes snapshots to redis and ClickHouse
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

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

	// ClickHouse persistence is optional; without it snapshots live only in
	// redis
	var snapStore storage.SnapshotStore
	if cfg.ClickHouseAddr != "" {
		chs, err := store.NewClickHouseStore(ctx, store.Config{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			logger.WithError(err).Warn("ClickHouse unavailable, snapshots will not be persisted")
		} else {
			snapStore = chs
			defer chs.Close()
		}
	}

	mon, err := monitor.New(monitor.Config{
		Engine:   engine,
		Registry: pairStore,
		Cache:    depthCache,
		Store:    snapStore,
		Interval: cfg.MonitorInterval,
		Logger:   logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create monitor")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if err := mon.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("monitor failed")
	}
}
