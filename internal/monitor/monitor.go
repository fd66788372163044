package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/depth"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/models"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/pairs"
	"github.com/fawad-qureshi/solana-liquidity-depth/internal/storage"
)

// Monitor periodically recalculates depth for every enabled pair in the
// registry and fans the snapshots out to the cache, Pub/Sub, and the store.
type Monitor struct {
	engine   *depth.Engine
	registry *pairs.Store
	cache    storage.DepthCache
	store    storage.SnapshotStore
	interval time.Duration
	logger   *logrus.Logger

	mu      sync.RWMutex
	running bool
	lastRun time.Time
}

// Config holds monitor dependencies. Store is optional; without it snapshots
// are cached and published but not persisted.
type Config struct {
	Engine   *depth.Engine
	Registry *pairs.Store
	Cache    storage.DepthCache
	Store    storage.SnapshotStore
	Interval time.Duration
	Logger   *logrus.Logger
}

func New(cfg Config) (*Monitor, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("monitor requires a depth engine")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("monitor requires a pair registry")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("monitor requires a depth cache")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}

	return &Monitor{
		engine:   cfg.Engine,
		registry: cfg.Registry,
		cache:    cfg.Cache,
		store:    cfg.Store,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}, nil
}

// Start runs the sweep loop until ctx is cancelled. The first sweep runs
// immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	m.running = true
	m.mu.Unlock()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.WithField("interval", m.interval).Info("starting depth monitor")

	if err := m.sweep(ctx); err != nil {
		m.logger.WithError(err).Error("sweep error")
	}

	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
			return ctx.Err()

		case <-ticker.C:
			if err := m.sweep(ctx); err != nil {
				m.logger.WithError(err).Error("sweep error")
			}
		}
	}
}

// Stop marks the monitor as stopped
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	return nil
}

// LastRun reports when the previous sweep started
func (m *Monitor) LastRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}

// sweep recalculates depth for every enabled pair in both directions
func (m *Monitor) sweep(ctx context.Context) error {
	m.mu.Lock()
	m.lastRun = time.Now()
	m.mu.Unlock()

	watched, err := m.registry.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list watched pairs: %w", err)
	}
	if len(watched) == 0 {
		m.logger.Debug("no enabled pairs to probe")
		return nil
	}

	m.logger.WithField("pairs", len(watched)).Info("sweeping watched pairs")

	for _, p := range watched {
		for _, dir := range []depth.Direction{depth.DirectionBuy, depth.DirectionSell} {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			res, err := m.engine.CalculateDepth(ctx, p.InputMint, p.OutputMint, dir)
			if err != nil {
				m.logger.WithError(err).WithFields(logrus.Fields{
					"pair":      p.Label,
					"direction": dir,
				}).Warn("depth calculation failed")
				continue
			}

			m.publish(ctx, models.SnapshotFromResult(res, p.Label))
		}
	}

	return nil
}

// publish distributes one snapshot; failures are logged, never fatal to the
// sweep
func (m *Monitor) publish(ctx context.Context, snap *models.DepthSnapshot) {
	log := m.logger.WithFields(logrus.Fields{
		"pair":      snap.Pair,
		"direction": snap.Direction,
		"points":    snap.PointCount,
		"max_usd":   snap.MaxDepthUSD,
	})

	if err := m.cache.SetSnapshot(ctx, snap); err != nil {
		log.WithError(err).Error("failed to cache snapshot")
	}
	if err := m.cache.PublishSnapshot(ctx, snap); err != nil {
		log.WithError(err).Error("failed to publish snapshot")
	}
	if m.store != nil {
		if err := m.store.InsertSnapshot(ctx, snap); err != nil {
			log.WithError(err).Error("failed to persist snapshot")
		}
	}

	log.Info("published depth snapshot")
}
