package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/cache"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/config"
)

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	}
}

// main tails the snapshot firehose: every depth snapshot published by the
// monitor or the API is logged as a one-line summary. Useful for watching a
// deployment live without querying ClickHouse.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	loadEnv(logger)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	depthCache := cache.NewRedisCache(cfg.RedisAddr, cfg.SnapshotTTL, logger)
	defer depthCache.Close()

	snapshots, err := depthCache.SubscribeSnapshots(ctx)
	if err != nil {
		logger.WithError(err).Fatal("failed to subscribe to snapshots")
	}

	logger.Info("subscribed to depth snapshots")

	for snap := range snapshots {
		logger.WithFields(logrus.Fields{
			"pair":      snap.Pair,
			"direction": snap.Direction,
			"points":    snap.PointCount,
			"errors":    snap.ErrorCount,
			"max_usd":   snap.MaxDepthUSD,
			"baseline":  snap.BaselinePrice,
			"truncated": snap.Truncated,
		}).Info("depth snapshot")
	}
}
