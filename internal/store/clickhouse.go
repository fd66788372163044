package store

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/fawad-qureshi/solana-liquidity-depth/internal/models"
)

// ClickHouseStore persists depth snapshots: one summary row per calculation
// and one row per ladder point. See scripts/init.sql for the schema.
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

// Config holds ClickHouse connection settings
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg Config) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Database == "" {
		cfg.Database = "liquidity"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{
		conn:   conn,
		logger: cfg.Logger,
	}, nil
}

// InsertSnapshot writes the summary row and batch-inserts the ladder points
func (c *ClickHouseStore) InsertSnapshot(ctx context.Context, snap *models.DepthSnapshot) error {
	err := c.conn.Exec(ctx, `
		INSERT INTO depth_snapshots (
			pair, input_mint, output_mint, direction, timestamp,
			baseline_price, max_depth_usd, point_count, error_count,
			truncated, elapsed_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snap.Pair,
		snap.InputMint,
		snap.OutputMint,
		snap.Direction,
		snap.Timestamp,
		snap.BaselinePrice,
		snap.MaxDepthUSD,
		uint32(snap.PointCount),
		uint32(snap.ErrorCount),
		snap.Truncated,
		snap.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	if len(snap.Points) == 0 {
		return nil
	}

	batch, err := c.conn.PrepareBatch(ctx, `
		INSERT INTO depth_points (
			pair, input_mint, output_mint, direction, timestamp,
			trade_usd_value, input_amount, output_amount,
			execution_price, price_impact_pct,
			cumulative_input_liquidity, cumulative_output_liquidity
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare point batch: %w", err)
	}

	for _, p := range snap.Points {
		if err := batch.Append(
			snap.Pair,
			snap.InputMint,
			snap.OutputMint,
			snap.Direction,
			snap.Timestamp,
			p.TradeUSDValue,
			p.InputAmount,
			p.OutputAmount,
			p.ExecutionPrice,
			p.PriceImpactPct,
			p.CumulativeInputLiquidity,
			p.CumulativeOutputLiquidity,
		); err != nil {
			return fmt.Errorf("failed to append point: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send point batch: %w", err)
	}

	return nil
}

// Ping checks the ClickHouse connection
func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
